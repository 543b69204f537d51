// Package broker turns batch permission requests into asynchronous decisions
// by delegating to externally registered policy handlers and aggregating the
// per-slot responses into a single completion callback.
//
// Policy is entirely delegated: with no handler registered the broker fails
// open (requests grant, checks allow). Handlers are replaceable at runtime;
// withdrawing the request handler flushes every outstanding request with its
// partial results so no caller waits forever.
package broker

import (
	"log/slog"
	"sync"

	"github.com/permbroker-org/permbroker/pkg/frame"
	"github.com/permbroker-org/permbroker/pkg/types"
)

// Detail keys the broker adds to handler detail dictionaries. Caller-supplied
// keys are never removed.
const (
	DetailRequestingURL   = "requestingUrl"
	DetailIsMainFrame     = "isMainFrame"
	DetailMediaType       = "mediaType"
	DetailEmbeddingOrigin = "embeddingOrigin"
	DetailDeviceType      = "deviceType"
	DetailOrigin          = "origin"
	DetailDevice          = "device"
	DetailFrame           = "frame"
)

// ResponseFunc resolves one slot of a batch request. It may be invoked from
// any goroutine, synchronously from the request handler or arbitrarily later.
// Only the first invocation per slot takes effect.
type ResponseFunc func(status types.PermissionStatus)

// RequestHandler is the asynchronous decision authority for permission
// requests. It receives one call per requested kind and answers through the
// respond function, zero or more times (only the first call is honored).
type RequestHandler func(f *frame.Frame, kind types.PermissionKind, respond ResponseFunc, details types.Details)

// CheckHandler is the synchronous decision authority for permission checks.
// f is nil for origin-only checks.
type CheckHandler func(f *frame.Frame, kind types.PermissionKind, requestingOrigin string, details types.Details) bool

// DeviceCheckHandler decides device permission checks synchronously.
type DeviceCheckHandler func(details types.Details) bool

// DeviceGrantHandler records a device permission grant. No return value.
type DeviceGrantHandler func(details types.Details)

// StatusesCallback receives the completed result vector of a batch request.
type StatusesCallback func(statuses []types.PermissionStatus)

// StatusCallback receives the result of a single-permission request.
type StatusCallback func(status types.PermissionStatus)

// GrantHook is an environment-supplied side effect fired exactly once per
// successful grant of its kind (never on denial, never per check).
type GrantHook func()

// Broker owns the pending request table and the four handler slots. One
// broker per embedding runtime.
type Broker struct {
	mu      sync.Mutex
	pending *pendingTable

	requestHandler     RequestHandler
	checkHandler       CheckHandler
	deviceCheckHandler DeviceCheckHandler
	deviceGrantHandler DeviceGrantHandler

	hooks map[types.PermissionKind]GrantHook
	log   *slog.Logger
}

// New constructs a broker. hooks may be nil; it is copied and immutable
// afterwards.
func New(hooks map[types.PermissionKind]GrantHook, log *slog.Logger) *Broker {
	if log == nil {
		log = slog.Default()
	}
	copied := make(map[types.PermissionKind]GrantHook, len(hooks))
	for k, h := range hooks {
		copied[k] = h
	}
	return &Broker{
		pending: newPendingTable(),
		hooks:   copied,
		log:     log,
	}
}

// SetRequestHandler replaces the request decision authority. Setting a
// non-nil handler leaves outstanding requests untouched (they keep the
// handler captured at dispatch time). Setting nil flushes: every pending
// request whose frame is still live gets its callback with current partial
// results; dead-frame requests are discarded without a callback. The table
// is cleared unconditionally.
func (b *Broker) SetRequestHandler(h RequestHandler) {
	b.mu.Lock()
	var flushed []*pendingRequest
	if h == nil && b.pending.len() > 0 {
		flushed = b.pending.drain()
	}
	b.requestHandler = h
	b.mu.Unlock()

	for _, p := range flushed {
		if p.resolveFrame() != nil {
			p.runCallback()
		} else {
			b.log.Debug("dropping pending permission request for torn-down frame",
				"frame", p.ref.ID())
		}
	}
}

// SetCheckHandler replaces the synchronous check authority.
func (b *Broker) SetCheckHandler(h CheckHandler) {
	b.mu.Lock()
	b.checkHandler = h
	b.mu.Unlock()
}

// SetDeviceCheckHandler replaces the device permission check authority.
func (b *Broker) SetDeviceCheckHandler(h DeviceCheckHandler) {
	b.mu.Lock()
	b.deviceCheckHandler = h
	b.mu.Unlock()
}

// SetDeviceGrantHandler replaces the device permission grant authority.
func (b *Broker) SetDeviceGrantHandler(h DeviceGrantHandler) {
	b.mu.Lock()
	b.deviceGrantHandler = h
	b.mu.Unlock()
}

// Request asks for a single permission. It is the batch path specialized to
// one kind, with the one-element result vector unwrapped.
func (b *Broker) Request(kind types.PermissionKind, ref frame.Ref, requestingOrigin string, userGesture bool, details types.Details, callback StatusCallback) {
	b.RequestBatch([]types.PermissionKind{kind}, ref, requestingOrigin, userGesture, details, func(statuses []types.PermissionStatus) {
		if callback != nil {
			callback(statuses[0])
		}
	})
}

// RequestBatch asks for a batch of permissions on behalf of the referenced
// frame and delivers the result vector through callback once every slot has
// resolved. An empty batch completes synchronously with an empty vector.
// With no request handler registered the batch completes synchronously
// all-granted, firing grant hooks per kind.
func (b *Broker) RequestBatch(kinds []types.PermissionKind, ref frame.Ref, requestingOrigin string, userGesture bool, details types.Details, callback StatusesCallback) {
	if len(kinds) == 0 {
		if callback != nil {
			callback([]types.PermissionStatus{})
		}
		return
	}

	b.mu.Lock()
	handler := b.requestHandler
	if handler == nil {
		b.mu.Unlock()
		statuses := make([]types.PermissionStatus, len(kinds))
		for i, kind := range kinds {
			b.applyGrantHook(kind)
			statuses[i] = types.StatusGranted
		}
		if callback != nil {
			callback(statuses)
		}
		return
	}

	req := newPendingRequest(ref, kinds, callback)
	requestID := b.pending.add(req)
	b.mu.Unlock()

	f := ref.Resolve()
	for i, kind := range kinds {
		slot := i
		respond := func(status types.PermissionStatus) {
			b.OnResponse(requestID, slot, status)
		}
		augmented := details.Clone()
		if f != nil {
			augmented[DetailRequestingURL] = f.LastCommittedURL()
		}
		augmented[DetailIsMainFrame] = f != nil && f.IsMainFrame()
		handler(f, kind, respond, augmented)
	}
}

// OnResponse routes one slot resolution into its pending request. Unknown
// request ids (already completed or flushed) and duplicate slot resolutions
// are no-ops. When the last slot resolves, the request is removed from the
// table before the completion callback runs, so a re-entrant response for
// the same id never finds a live entry.
func (b *Broker) OnResponse(requestID uint64, slot int, status types.PermissionStatus) {
	b.mu.Lock()
	req := b.pending.lookup(requestID)
	if req == nil {
		b.mu.Unlock()
		return
	}
	if slot < 0 || slot >= len(req.kinds) {
		b.mu.Unlock()
		b.log.Warn("permission response for out-of-range slot",
			"request", requestID, "slot", slot)
		return
	}
	if !req.resolveSlot(slot, status) {
		b.mu.Unlock()
		b.log.Warn("duplicate permission response ignored",
			"request", requestID, "slot", slot, "kind", req.kinds[slot])
		return
	}
	complete := req.isComplete()
	if complete {
		b.pending.remove(requestID)
	}
	b.mu.Unlock()

	if status == types.StatusGranted {
		b.applyGrantHook(req.kinds[slot])
	}
	if complete {
		req.runCallback()
	}
}

// CheckWithDetails synchronously checks a permission. With no check handler
// registered it allows. f may be nil for origin-only checks; when present,
// the handler details carry the frame's committed URL and main-frame flag.
// Media capture kinds additionally carry a mediaType hint.
func (b *Broker) CheckWithDetails(kind types.PermissionKind, f *frame.Frame, requestingOrigin string, details types.Details) bool {
	b.mu.Lock()
	handler := b.checkHandler
	b.mu.Unlock()
	if handler == nil {
		return true
	}

	augmented := details.Clone()
	if f != nil {
		augmented[DetailRequestingURL] = f.LastCommittedURL()
	}
	augmented[DetailIsMainFrame] = f != nil && f.IsMainFrame()
	switch kind {
	case types.PermissionAudioCapture:
		augmented[DetailMediaType] = "audio"
	case types.PermissionVideoCapture:
		augmented[DetailMediaType] = "video"
	}
	return handler(f, kind, requestingOrigin, augmented)
}

// GetStatus checks a permission for an origin pair and maps the verdict to a
// status.
func (b *Broker) GetStatus(kind types.PermissionKind, requestingOrigin, embeddingOrigin string) types.PermissionStatus {
	details := types.Details{DetailEmbeddingOrigin: embeddingOrigin}
	return types.StatusFromBool(b.CheckWithDetails(kind, nil, requestingOrigin, details))
}

// GetStatusForFrame checks a permission for a live frame and maps the
// verdict to a status.
func (b *Broker) GetStatusForFrame(kind types.PermissionKind, f *frame.Frame, requestingOrigin string) types.PermissionStatus {
	return types.StatusFromBool(b.CheckWithDetails(kind, f, requestingOrigin, nil))
}

// CheckDevicePermission synchronously checks access to a device. With no
// device check handler registered the decision is delegated to the frame's
// own defaults.
func (b *Broker) CheckDevicePermission(kind types.PermissionKind, f *frame.Frame, origin string, device types.DeviceDescriptor) bool {
	details := deviceDetails(kind, f, origin, device)

	b.mu.Lock()
	handler := b.deviceCheckHandler
	b.mu.Unlock()
	if handler != nil {
		return handler(details)
	}
	if f != nil && f.Defaults != nil {
		return f.Defaults.CheckDevicePermission(details)
	}
	b.log.Warn("device permission check with no handler and no frame defaults",
		"kind", kind, "origin", origin)
	return false
}

// GrantDevicePermission records a device grant. Fire-and-forget: with no
// device grant handler registered it is delegated to the frame's defaults.
func (b *Broker) GrantDevicePermission(kind types.PermissionKind, f *frame.Frame, origin string, device types.DeviceDescriptor) {
	details := deviceDetails(kind, f, origin, device)

	b.mu.Lock()
	handler := b.deviceGrantHandler
	b.mu.Unlock()
	if handler != nil {
		handler(details)
		return
	}
	if f != nil && f.Defaults != nil {
		f.Defaults.GrantDevicePermission(details)
	}
}

// ResetPermission is an explicit no-op: the broker does not model
// revocation. Authorities wanting revocation semantics track it themselves.
func (b *Broker) ResetPermission(kind types.PermissionKind, requestingOrigin, embeddingOrigin string) {}

// SubscribeStatusChange always returns the invalid subscription sentinel;
// the broker does not track status changes.
func (b *Broker) SubscribeStatusChange(kind types.PermissionKind, f *frame.Frame, requestingOrigin string, callback StatusCallback) types.SubscriptionID {
	return types.InvalidSubscriptionID
}

// Unsubscribe is a no-op counterpart to SubscribeStatusChange.
func (b *Broker) Unsubscribe(id types.SubscriptionID) {}

// PendingCount reports the number of outstanding batch requests.
func (b *Broker) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending.len()
}

func (b *Broker) applyGrantHook(kind types.PermissionKind) {
	if hook := b.hooks[kind]; hook != nil {
		hook()
	}
}

func deviceDetails(kind types.PermissionKind, f *frame.Frame, origin string, device types.DeviceDescriptor) types.Details {
	return types.Details{
		DetailDeviceType: kind,
		DetailOrigin:     origin,
		DetailDevice:     device.Clone(),
		DetailFrame:      f,
	}
}
