package broker

import (
	"github.com/permbroker-org/permbroker/pkg/frame"
	"github.com/permbroker-org/permbroker/pkg/types"
)

// pendingRequest aggregates one batch of permission sub-requests until every
// slot has been resolved. Slot i of results corresponds to kinds[i].
type pendingRequest struct {
	ref       frame.Ref
	kinds     []types.PermissionKind
	results   []types.PermissionStatus
	resolved  []bool
	remaining int
	callback  StatusesCallback
}

func newPendingRequest(ref frame.Ref, kinds []types.PermissionKind, callback StatusesCallback) *pendingRequest {
	results := make([]types.PermissionStatus, len(kinds))
	for i := range results {
		results[i] = types.StatusDenied
	}
	return &pendingRequest{
		ref:       ref,
		kinds:     kinds,
		results:   results,
		resolved:  make([]bool, len(kinds)),
		remaining: len(kinds),
		callback:  callback,
	}
}

// resolveSlot records the status for one slot and reports whether it took
// effect. A second resolution of the same slot is a handler contract
// violation and is rejected so remaining can never go negative.
func (p *pendingRequest) resolveSlot(slot int, status types.PermissionStatus) bool {
	if p.resolved[slot] {
		return false
	}
	p.resolved[slot] = true
	p.results[slot] = status
	p.remaining--
	return true
}

func (p *pendingRequest) isComplete() bool { return p.remaining == 0 }

// runCallback invokes the completion callback with the result vector.
// Callback ownership transfers out on first invocation; later calls no-op.
func (p *pendingRequest) runCallback() {
	if p.callback == nil {
		return
	}
	cb := p.callback
	p.callback = nil
	cb(p.results)
}

// resolveFrame returns the requesting frame, or nil once it is torn down.
func (p *pendingRequest) resolveFrame() *frame.Frame { return p.ref.Resolve() }

// pendingTable is an id-keyed registry of live pending requests. Ids are
// issued monotonically and never alias a live record.
type pendingTable struct {
	nextID  uint64
	entries map[uint64]*pendingRequest
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[uint64]*pendingRequest)}
}

// add stores the request and returns its fresh id.
func (t *pendingTable) add(p *pendingRequest) uint64 {
	t.nextID++
	t.entries[t.nextID] = p
	return t.nextID
}

// lookup returns the request for id, or nil when unknown or already removed.
func (t *pendingTable) lookup(id uint64) *pendingRequest { return t.entries[id] }

func (t *pendingTable) remove(id uint64) { delete(t.entries, id) }

func (t *pendingTable) len() int { return len(t.entries) }

// drain empties the table and returns the requests that were live, in
// unspecified order. Used only when the request handler is withdrawn.
func (t *pendingTable) drain() []*pendingRequest {
	out := make([]*pendingRequest, 0, len(t.entries))
	for _, p := range t.entries {
		out = append(out, p)
	}
	t.entries = make(map[uint64]*pendingRequest)
	return out
}
