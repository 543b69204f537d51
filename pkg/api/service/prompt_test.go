package service

import (
	"errors"
	"testing"
	"time"

	"github.com/permbroker-org/permbroker/pkg/types"
)

func TestPromptQueueResolvesOnce(t *testing.T) {
	svc := NewPromptService(nil)

	var got []types.PermissionStatus
	svc.Prompt(nil, types.PermissionGeolocation, types.Details{"requestingUrl": "https://a.test/"},
		func(status types.PermissionStatus) { got = append(got, status) })

	if svc.Len() != 1 {
		t.Fatalf("expected one pending prompt")
	}
	prompts := svc.List()
	if len(prompts) != 1 || prompts[0].Kind != types.PermissionGeolocation {
		t.Fatalf("unexpected prompt list: %v", prompts)
	}

	id := prompts[0].ID
	if _, err := svc.Get(id); err != nil {
		t.Fatalf("get: %v", err)
	}

	if err := svc.Resolve(id, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 || got[0] != types.StatusGranted {
		t.Fatalf("expected one granted response, got %v", got)
	}
	if svc.Len() != 0 {
		t.Fatalf("expected prompt removed after resolution")
	}

	if err := svc.Resolve(id, false); !errors.Is(err, ErrPromptNotFound) {
		t.Fatalf("expected ErrPromptNotFound on double resolve, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("double resolve must not respond again")
	}

	if _, err := svc.Get("prm_unknown"); !errors.Is(err, ErrPromptNotFound) {
		t.Fatalf("expected ErrPromptNotFound for unknown id, got %v", err)
	}
}

func TestPromptListOrderedByCreation(t *testing.T) {
	svc := NewPromptService(nil)
	svc.Prompt(nil, types.PermissionUSB, nil, func(types.PermissionStatus) {})
	time.Sleep(2 * time.Millisecond)
	svc.Prompt(nil, types.PermissionHID, nil, func(types.PermissionStatus) {})

	prompts := svc.List()
	if len(prompts) != 2 {
		t.Fatalf("expected two prompts")
	}
	if prompts[0].Kind != types.PermissionUSB || prompts[1].Kind != types.PermissionHID {
		t.Fatalf("expected oldest-first ordering, got %v then %v", prompts[0].Kind, prompts[1].Kind)
	}
}

func TestTicketLifecycle(t *testing.T) {
	svc := NewTicketService(nil)
	ticket := svc.Create(7, []types.PermissionKind{types.PermissionAudioCapture})
	if ticket.ID == "" {
		t.Fatalf("expected ticket id")
	}

	snapshot, err := svc.Get(ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snapshot.Done {
		t.Fatalf("fresh ticket must be pending")
	}
	if snapshot.FrameID != 7 {
		t.Fatalf("expected frame id on ticket")
	}

	svc.Complete(ticket.ID, []types.PermissionStatus{types.StatusDenied})
	snapshot, err = svc.Get(ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !snapshot.Done || len(snapshot.Statuses) != 1 || snapshot.Statuses[0] != types.StatusDenied {
		t.Fatalf("unexpected completed ticket: %+v", snapshot)
	}

	if _, err := svc.Get("req_unknown"); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}

	// Completion for an unknown ticket is ignored.
	svc.Complete("req_unknown", nil)
}
