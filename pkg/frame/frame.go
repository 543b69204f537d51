// Package frame models the execution contexts on whose behalf permissions
// are requested. Frames are owned by a Registry; everything else holds weak
// Ref handles that resolve to nil once the frame is torn down.
package frame

import (
	"sync"

	"github.com/permbroker-org/permbroker/pkg/types"
)

// DeviceDefaults is the frame-provided fallback for the device permission
// paths, consulted when no device handler is registered on the broker.
type DeviceDefaults interface {
	CheckDevicePermission(details types.Details) bool
	GrantDevicePermission(details types.Details)
}

// Frame is one live execution context.
type Frame struct {
	id       uint64
	origin   string
	parentID uint64

	mu  sync.RWMutex
	url string

	// Defaults handles device permission decisions when the broker has no
	// device handlers registered. May be nil.
	Defaults DeviceDefaults
}

// ID returns the registry-issued identifier.
func (f *Frame) ID() uint64 { return f.id }

// Origin returns the frame's origin.
func (f *Frame) Origin() string { return f.origin }

// LastCommittedURL returns the most recently committed location.
func (f *Frame) LastCommittedURL() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.url
}

// Navigate commits a new location.
func (f *Frame) Navigate(url string) {
	f.mu.Lock()
	f.url = url
	f.mu.Unlock()
}

// IsMainFrame reports whether the frame has no parent.
func (f *Frame) IsMainFrame() bool { return f.parentID == 0 }

// ParentID returns the parent frame id, or 0 for a top-level frame.
func (f *Frame) ParentID() uint64 { return f.parentID }
