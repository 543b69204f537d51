package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/permbroker-org/permbroker/pkg/api/dto"
	"github.com/permbroker-org/permbroker/pkg/api/service"
	"github.com/permbroker-org/permbroker/pkg/broker"
	"github.com/permbroker-org/permbroker/pkg/frame"
	"github.com/permbroker-org/permbroker/pkg/types"
)

// PermissionHandler exposes the broker's request and check paths.
type PermissionHandler struct {
	broker  *broker.Broker
	frames  *frame.Registry
	tickets *service.TicketService
}

// NewPermissionHandler creates a new PermissionHandler.
func NewPermissionHandler(b *broker.Broker, frames *frame.Registry, tickets *service.TicketService) *PermissionHandler {
	return &PermissionHandler{broker: b, frames: frames, tickets: tickets}
}

// Request submits a batch permission request. The response is a ticket the
// client polls; depending on the policy the ticket may already be done.
func (h *PermissionHandler) Request(c *gin.Context) {
	var req dto.PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	f := h.frames.Get(req.FrameID)
	if f == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "frame not found"})
		return
	}

	kinds := make([]types.PermissionKind, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		if p == "" {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "empty permission kind"})
			return
		}
		kinds = append(kinds, types.PermissionKind(p))
	}

	origin := req.Origin
	if origin == "" {
		origin = f.Origin()
	}

	ticket := h.tickets.Create(req.FrameID, kinds)
	h.broker.RequestBatch(kinds, h.frames.Ref(req.FrameID), origin, req.UserGesture, req.Details,
		func(statuses []types.PermissionStatus) {
			h.tickets.Complete(ticket.ID, statuses)
		})

	snapshot, err := h.tickets.Get(ticket.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, ticketResponse(snapshot))
}

// RequestResult reports the state of a submitted request.
func (h *PermissionHandler) RequestResult(c *gin.Context) {
	ticket, err := h.tickets.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ticketResponse(ticket))
}

// Check runs a synchronous permission check.
func (h *PermissionHandler) Check(c *gin.Context) {
	var req dto.PermissionCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	var f *frame.Frame
	if req.FrameID != 0 {
		f = h.frames.Get(req.FrameID)
		if f == nil {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "frame not found"})
			return
		}
	}

	origin := req.Origin
	if origin == "" && f != nil {
		origin = f.Origin()
	}

	granted := h.broker.CheckWithDetails(types.PermissionKind(req.Permission), f, origin, req.Details)
	c.JSON(http.StatusOK, dto.CheckResponse{
		Granted: granted,
		Status:  string(types.StatusFromBool(granted)),
	})
}

// Status maps a check for an origin pair to a granted/denied status.
func (h *PermissionHandler) Status(c *gin.Context) {
	kind := c.Query("permission")
	if kind == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "permission query parameter required"})
		return
	}
	status := h.broker.GetStatus(types.PermissionKind(kind), c.Query("origin"), c.Query("embedding_origin"))
	c.JSON(http.StatusOK, dto.CheckResponse{
		Granted: status == types.StatusGranted,
		Status:  string(status),
	})
}

func ticketResponse(t service.Ticket) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:          t.ID,
		FrameID:     t.FrameID,
		Done:        t.Done,
		CreatedAt:   t.CreatedAt,
		Permissions: make([]string, 0, len(t.Kinds)),
	}
	for _, k := range t.Kinds {
		resp.Permissions = append(resp.Permissions, string(k))
	}
	if t.Done {
		resp.Statuses = make([]string, 0, len(t.Statuses))
		for _, s := range t.Statuses {
			resp.Statuses = append(resp.Statuses, string(s))
		}
	}
	return resp
}
