package service

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/permbroker-org/permbroker/pkg/broker"
	"github.com/permbroker-org/permbroker/pkg/frame"
	"github.com/permbroker-org/permbroker/pkg/types"
)

// ErrPromptNotFound is returned when a prompt id is unknown or already
// answered.
var ErrPromptNotFound = errors.New("prompt not found")

// Prompt is one outstanding interactive permission question.
type Prompt struct {
	ID        string
	FrameID   uint64
	Kind      types.PermissionKind
	Details   types.Details
	CreatedAt time.Time

	respond broker.ResponseFunc
}

// PromptService queues prompt-decision permission requests for an external
// approver (an approval UI polling the HTTP API). It implements
// policy.Prompter.
type PromptService struct {
	mu      sync.Mutex
	prompts map[string]*Prompt
	log     *slog.Logger
}

// NewPromptService creates a new PromptService.
func NewPromptService(log *slog.Logger) *PromptService {
	if log == nil {
		log = slog.Default()
	}
	return &PromptService{
		prompts: make(map[string]*Prompt),
		log:     log,
	}
}

// Prompt enqueues a question. The respond function is held until Resolve.
func (s *PromptService) Prompt(f *frame.Frame, kind types.PermissionKind, details types.Details, respond broker.ResponseFunc) {
	p := &Prompt{
		ID:        types.GeneratePromptID(),
		Kind:      kind,
		Details:   details,
		CreatedAt: time.Now(),
		respond:   respond,
	}
	if f != nil {
		p.FrameID = f.ID()
	}

	s.mu.Lock()
	s.prompts[p.ID] = p
	s.mu.Unlock()

	s.log.Info("permission prompt queued", "prompt", p.ID, "kind", kind, "frame", p.FrameID)
}

// List returns pending prompts ordered by creation time.
func (s *PromptService) List() []*Prompt {
	s.mu.Lock()
	out := make([]*Prompt, 0, len(s.prompts))
	for _, p := range s.prompts {
		out = append(out, p)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Get returns the pending prompt with the given id.
func (s *PromptService) Get(id string) (*Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prompts[id]
	if !ok {
		return nil, ErrPromptNotFound
	}
	return p, nil
}

// Resolve answers a prompt and removes it. Answering the same prompt twice
// returns ErrPromptNotFound; the captured respond function fires once.
func (s *PromptService) Resolve(id string, granted bool) error {
	s.mu.Lock()
	p, ok := s.prompts[id]
	if ok {
		delete(s.prompts, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrPromptNotFound
	}

	status := types.StatusFromBool(granted)
	s.log.Info("permission prompt resolved", "prompt", id, "kind", p.Kind, "status", status)
	p.respond(status)
	return nil
}

// Len reports the number of pending prompts.
func (s *PromptService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
