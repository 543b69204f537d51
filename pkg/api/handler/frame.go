package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/permbroker-org/permbroker/pkg/api/dto"
	"github.com/permbroker-org/permbroker/pkg/frame"
)

// FrameHandler handles frame lifecycle requests.
type FrameHandler struct {
	frames *frame.Registry
}

// NewFrameHandler creates a new FrameHandler.
func NewFrameHandler(frames *frame.Registry) *FrameHandler {
	return &FrameHandler{frames: frames}
}

// Create registers a frame.
func (h *FrameHandler) Create(c *gin.Context) {
	var req dto.CreateFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	url := req.URL
	if url == "" {
		url = req.Origin + "/"
	}

	f, err := h.frames.Register(req.Origin, url, req.ParentID)
	if err != nil {
		if errors.Is(err, frame.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "parent frame not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, frameResponse(f))
}

// List returns all live frames.
func (h *FrameHandler) List(c *gin.Context) {
	frames := h.frames.List()
	resp := dto.FrameListResponse{Frames: make([]dto.FrameResponse, 0, len(frames))}
	for _, f := range frames {
		resp.Frames = append(resp.Frames, frameResponse(f))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one frame.
func (h *FrameHandler) Get(c *gin.Context) {
	f, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, frameResponse(f))
}

// Delete tears a frame down. Pending permission requests for the frame stay
// in the broker; their callbacks are suppressed if a flush happens later.
func (h *FrameHandler) Delete(c *gin.Context) {
	id, ok := frameID(c)
	if !ok {
		return
	}
	if err := h.frames.Remove(id); err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "frame not found"})
		return
	}
	c.JSON(http.StatusOK, dto.DeleteResponse{Deleted: true})
}

// Navigate commits a new location for a frame.
func (h *FrameHandler) Navigate(c *gin.Context) {
	f, ok := h.lookup(c)
	if !ok {
		return
	}
	var req dto.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	f.Navigate(req.URL)
	c.JSON(http.StatusOK, frameResponse(f))
}

func (h *FrameHandler) lookup(c *gin.Context) (*frame.Frame, bool) {
	id, ok := frameID(c)
	if !ok {
		return nil, false
	}
	f := h.frames.Get(id)
	if f == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "frame not found"})
		return nil, false
	}
	return f, true
}

func frameID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid frame id"})
		return 0, false
	}
	return id, true
}

func frameResponse(f *frame.Frame) dto.FrameResponse {
	return dto.FrameResponse{
		ID:        f.ID(),
		Origin:    f.Origin(),
		URL:       f.LastCommittedURL(),
		MainFrame: f.IsMainFrame(),
	}
}
