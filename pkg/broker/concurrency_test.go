package broker

import (
	"sync"
	"testing"

	"github.com/permbroker-org/permbroker/pkg/frame"
	"github.com/permbroker-org/permbroker/pkg/types"
)

// TestConcurrentResponses resolves every slot of a large batch from its own
// goroutine. Each response function is closed over its own slot, so no two
// goroutines race on the same bookkeeping entry.
func TestConcurrentResponses(t *testing.T) {
	b := New(nil, nil)
	reg := frame.NewRegistry()
	f, err := reg.Register("https://a.test", "https://a.test/", 0)
	if err != nil {
		t.Fatalf("register frame: %v", err)
	}

	const n = 64
	responds := make([]ResponseFunc, 0, n)
	b.SetRequestHandler(func(f *frame.Frame, kind types.PermissionKind, respond ResponseFunc, details types.Details) {
		responds = append(responds, respond)
	})

	kinds := make([]types.PermissionKind, n)
	for i := range kinds {
		kinds[i] = types.PermissionNotifications
	}

	done := make(chan []types.PermissionStatus, 1)
	b.RequestBatch(kinds, reg.Ref(f.ID()), "https://a.test", false, nil,
		func(statuses []types.PermissionStatus) { done <- statuses })

	var wg sync.WaitGroup
	for i, respond := range responds {
		wg.Add(1)
		go func(i int, respond ResponseFunc) {
			defer wg.Done()
			if i%2 == 0 {
				respond(types.StatusGranted)
			} else {
				respond(types.StatusDenied)
			}
		}(i, respond)
	}
	wg.Wait()

	statuses := <-done
	if len(statuses) != n {
		t.Fatalf("expected %d statuses, got %d", n, len(statuses))
	}
	for i, s := range statuses {
		want := types.StatusGranted
		if i%2 != 0 {
			want = types.StatusDenied
		}
		if s != want {
			t.Fatalf("slot %d: got %q, want %q", i, s, want)
		}
	}
	if b.PendingCount() != 0 {
		t.Fatalf("expected table empty after completion")
	}
}

// TestConcurrentRequestsAndFlush hammers the broker with parallel requests
// while the handler is repeatedly replaced and withdrawn. Verifies no
// deadlock and that every request either completed or was flushed.
func TestConcurrentRequestsAndFlush(t *testing.T) {
	b := New(nil, nil)
	reg := frame.NewRegistry()
	f, err := reg.Register("https://a.test", "https://a.test/", 0)
	if err != nil {
		t.Fatalf("register frame: %v", err)
	}

	// Handler answers synchronously in-stack.
	grantAll := func(f *frame.Frame, kind types.PermissionKind, respond ResponseFunc, details types.Details) {
		respond(types.StatusGranted)
	}
	b.SetRequestHandler(grantAll)

	var wg sync.WaitGroup
	var mu sync.Mutex
	completions := 0

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Request(types.PermissionUSB, reg.Ref(f.ID()), "https://a.test", false, nil,
				func(types.PermissionStatus) {
					mu.Lock()
					completions++
					mu.Unlock()
				})
		}()
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.SetRequestHandler(grantAll)
			b.SetRequestHandler(nil)
			b.SetRequestHandler(grantAll)
		}()
	}
	wg.Wait()

	// A nil handler window turns some requests into synchronous fail-open
	// grants; either way every callback must have fired exactly once.
	mu.Lock()
	defer mu.Unlock()
	if completions != 32 {
		t.Fatalf("expected 32 completions, got %d", completions)
	}
	if b.PendingCount() != 0 {
		t.Fatalf("expected no stranded requests, got %d", b.PendingCount())
	}
}
