// Package handle implements the item-scroll handle: an opt-in component
// attached to a controller item that receives residency notifications
// and can request a resize of its own item or exclude itself from a
// sliced controller's cleanup sweep via a locked bit.
//
// The per-ID state registry below generalizes row-manager.go's
// RowManager.rowState: a sliced controller rebuilds its placement items
// wholesale on Reset/Front/Back, so a Handle tied to one Item instance
// cannot itself outlive a rebuild — the Registry is what survives,
// keyed by the stable item identifier, exactly as RowManager kept state
// alive across Layout calls keyed by RowID.
package handle

import (
	"gioui.org/f32"

	"github.com/gioverse/scrollkit/controller"
)

// ID uniquely identifies a handle's item across controller rebuilds.
type ID string

// NoID indicates a stateless item: its Registry slot is never allocated
// or persisted.
const NoID = ID("")

// Allocator lazily constructs the presentation state for a newly-seen
// ID.
type Allocator func(id ID) any

// Registry persists per-ID state across handle recreation.
type Registry struct {
	allocator Allocator
	state     map[ID]any
}

// NewRegistry builds a Registry using allocator to lazily construct
// state the first time an ID is seen.
func NewRegistry(allocator Allocator) *Registry {
	return &Registry{allocator: allocator, state: make(map[ID]any)}
}

// Get returns id's allocated state, constructing it via the registry's
// Allocator on first access. It returns nil for NoID.
func (r *Registry) Get(id ID) any { return r.stateFor(id) }

func (r *Registry) stateFor(id ID) any {
	if id == NoID {
		return nil
	}
	s, ok := r.state[id]
	if !ok {
		if r.allocator != nil {
			s = r.allocator(id)
		}
		r.state[id] = s
	}
	return s
}

// Forget discards any allocated state for id, e.g. once its item has
// been permanently removed by a recycler cleanup sweep.
func (r *Registry) Forget(id ID) {
	delete(r.state, id)
}

// Len reports how many IDs currently have allocated state.
func (r *Registry) Len() int { return len(r.state) }

// Callbacks are the user-supplied hooks fired on residency transitions.
// Each receives the handle's ID, its position in the controller's item
// list, and its allocated state (nil for a NoID handle).
type Callbacks struct {
	OnInserted func(id ID, position int, state any)
	OnUpdated  func(id ID, position int, state any)
	OnRemoved  func(id ID, position int, state any)
}

// Handle implements controller.Handle, bridging residency notifications
// to per-ID allocated state plus a locked bit.
type Handle struct {
	ID        ID
	Registry  *Registry
	Callbacks Callbacks

	locked bool
}

// New builds a Handle for id, reading/writing its state through
// registry and firing cb on residency transitions. registry may be nil
// for a handle that needs no persisted state.
func New(id ID, registry *Registry, cb Callbacks) *Handle {
	return &Handle{ID: id, Registry: registry, Callbacks: cb}
}

func (h *Handle) state() any {
	if h.Registry == nil {
		return nil
	}
	return h.Registry.stateFor(h.ID)
}

// OnInserted implements controller.Handle.
func (h *Handle) OnInserted(position int) {
	if h.Callbacks.OnInserted != nil {
		h.Callbacks.OnInserted(h.ID, position, h.state())
	}
}

// OnUpdated implements controller.Handle.
func (h *Handle) OnUpdated(position int) {
	if h.Callbacks.OnUpdated != nil {
		h.Callbacks.OnUpdated(h.ID, position, h.state())
	}
}

// OnRemoved implements controller.Handle. It does not forget the
// registry's state for this ID: a removal here just means the item left
// the virtualization window, not that it was permanently deleted (call
// Registry.Forget explicitly for that, typically from a recycler's
// cleanup sweep).
func (h *Handle) OnRemoved(position int) {
	if h.Callbacks.OnRemoved != nil {
		h.Callbacks.OnRemoved(h.ID, position, h.state())
	}
}

// Locked implements controller.Handle.
func (h *Handle) Locked() bool { return h.locked }

// SetLocked sets whether this handle's item is excluded from a sliced
// controller's cleanup/compaction sweep.
func (h *Handle) SetLocked(v bool) { h.locked = v }

// Resize requests the controller reposition item to newSize, shifting
// neighbours forward or backward to absorb the size delta.
func Resize(ctrl *controller.Controller, item *controller.Item, newSize f32.Point, forward bool) {
	ctrl.ResizeItem(item, newSize, forward)
}
