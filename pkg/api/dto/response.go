package dto

import "time"

// FrameResponse describes one registered frame.
type FrameResponse struct {
	ID        uint64 `json:"id"`
	Origin    string `json:"origin"`
	URL       string `json:"url"`
	MainFrame bool   `json:"main_frame"`
}

// FrameListResponse is the response for listing frames.
type FrameListResponse struct {
	Frames []FrameResponse `json:"frames"`
}

// TicketResponse reports the state of a submitted permission request.
// Statuses is present once the request has completed.
type TicketResponse struct {
	ID          string    `json:"id"`
	FrameID     uint64    `json:"frame_id"`
	Permissions []string  `json:"permissions"`
	Done        bool      `json:"done"`
	Statuses    []string  `json:"statuses,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CheckResponse is the response for a synchronous permission check.
type CheckResponse struct {
	Granted bool   `json:"granted"`
	Status  string `json:"status"`
}

// PromptResponse describes one pending interactive prompt.
type PromptResponse struct {
	ID         string         `json:"id"`
	FrameID    uint64         `json:"frame_id"`
	Permission string         `json:"permission"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PromptListResponse is the response for listing pending prompts.
type PromptListResponse struct {
	Prompts []PromptResponse `json:"prompts"`
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Pending int    `json:"pending"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DeleteResponse is the response for delete operations.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}
