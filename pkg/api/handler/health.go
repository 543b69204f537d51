package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/permbroker-org/permbroker/pkg/api/dto"
	"github.com/permbroker-org/permbroker/pkg/broker"
)

// Health reports liveness and the number of outstanding batch requests.
func Health(b *broker.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.HealthResponse{
			Status:  "ok",
			Pending: b.PendingCount(),
		})
	}
}
