package dto

// CreateFrameRequest is the request body for registering a frame.
type CreateFrameRequest struct {
	Origin   string `json:"origin" binding:"required"`
	URL      string `json:"url,omitempty"`
	ParentID uint64 `json:"parent_id,omitempty"` // 0 means top-level
}

// NavigateRequest is the request body for committing a navigation.
type NavigateRequest struct {
	URL string `json:"url" binding:"required"`
}

// PermissionRequest is the request body for submitting a batch permission
// request on behalf of a frame.
type PermissionRequest struct {
	FrameID     uint64         `json:"frame_id" binding:"required"`
	Permissions []string       `json:"permissions" binding:"required"`
	Origin      string         `json:"origin,omitempty"` // defaults to the frame origin
	UserGesture bool           `json:"user_gesture,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// PermissionCheckRequest is the request body for a synchronous check.
type PermissionCheckRequest struct {
	Permission string         `json:"permission" binding:"required"`
	FrameID    uint64         `json:"frame_id,omitempty"` // 0 for origin-only checks
	Origin     string         `json:"origin,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// PromptDecisionRequest is the request body for answering a pending prompt.
type PromptDecisionRequest struct {
	Granted bool `json:"granted"`
}
