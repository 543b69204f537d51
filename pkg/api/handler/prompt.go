package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/permbroker-org/permbroker/pkg/api/dto"
	"github.com/permbroker-org/permbroker/pkg/api/service"
)

// PromptHandler exposes the pending prompt queue to approval clients.
type PromptHandler struct {
	prompts *service.PromptService
}

// NewPromptHandler creates a new PromptHandler.
func NewPromptHandler(prompts *service.PromptService) *PromptHandler {
	return &PromptHandler{prompts: prompts}
}

// List returns pending prompts, oldest first.
func (h *PromptHandler) List(c *gin.Context) {
	prompts := h.prompts.List()
	resp := dto.PromptListResponse{Prompts: make([]dto.PromptResponse, 0, len(prompts))}
	for _, p := range prompts {
		resp.Prompts = append(resp.Prompts, promptResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one pending prompt.
func (h *PromptHandler) Get(c *gin.Context) {
	p, err := h.prompts.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "prompt not found"})
		return
	}
	c.JSON(http.StatusOK, promptResponse(p))
}

// Decide answers a prompt. A prompt can be answered once.
func (h *PromptHandler) Decide(c *gin.Context) {
	var req dto.PromptDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.prompts.Resolve(c.Param("id"), req.Granted); err != nil {
		if errors.Is(err, service.ErrPromptNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "prompt not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}

func promptResponse(p *service.Prompt) dto.PromptResponse {
	return dto.PromptResponse{
		ID:         p.ID,
		FrameID:    p.FrameID,
		Permission: string(p.Kind),
		Details:    p.Details,
		CreatedAt:  p.CreatedAt,
	}
}
