package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/permbroker-org/permbroker/pkg/types"
)

// ErrTicketNotFound is returned when a ticket id is unknown.
var ErrTicketNotFound = errors.New("ticket not found")

// Ticket tracks one submitted batch permission request so HTTP clients can
// poll for its completion. The broker itself never times requests out, so a
// ticket may stay pending indefinitely.
type Ticket struct {
	ID        string
	FrameID   uint64
	Kinds     []types.PermissionKind
	CreatedAt time.Time

	Done     bool
	Statuses []types.PermissionStatus
}

// TicketService issues and completes tickets.
type TicketService struct {
	mu      sync.Mutex
	tickets map[string]*Ticket
	log     *slog.Logger
}

// NewTicketService creates a new TicketService.
func NewTicketService(log *slog.Logger) *TicketService {
	if log == nil {
		log = slog.Default()
	}
	return &TicketService{
		tickets: make(map[string]*Ticket),
		log:     log,
	}
}

// Create issues a ticket for a batch request.
func (s *TicketService) Create(frameID uint64, kinds []types.PermissionKind) *Ticket {
	t := &Ticket{
		ID:        types.GenerateRequestID(),
		FrameID:   frameID,
		Kinds:     kinds,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.tickets[t.ID] = t
	s.mu.Unlock()
	return t
}

// Complete records the result vector for a ticket.
func (s *TicketService) Complete(id string, statuses []types.PermissionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		s.log.Warn("completion for unknown ticket", "ticket", id)
		return
	}
	t.Done = true
	t.Statuses = statuses
}

// Get returns a snapshot of the ticket with the given id.
func (s *TicketService) Get(id string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return Ticket{}, ErrTicketNotFound
	}
	snapshot := *t
	snapshot.Statuses = append([]types.PermissionStatus(nil), t.Statuses...)
	return snapshot, nil
}
