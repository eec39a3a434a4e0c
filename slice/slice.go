// Package slice implements the sliced (windowed) controller extension:
// used once a data source's logical item count exceeds slice_max, it
// keeps exactly one contiguous "slice" of the source resident, plus
// optional loader sentinels for the neighbours it hasn't loaded, and
// issues Reset/Update/Front/Back requests to slide that window around.
//
// The request pipeline (timestamp-based supersession, background
// placement assembly with a minimum service time, loader sentinels on
// either open end) is grounded on list/async.go's asyncProcess and
// list/manager.go's viewport handling, generalized from chat elements
// to the source package's generic value tree.
package slice

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gioui.org/f32"

	"github.com/gioverse/scrollkit/controller"
	"github.com/gioverse/scrollkit/internal/worker"
	"github.com/gioverse/scrollkit/logx"
	"github.com/gioverse/scrollkit/source"
)

// ItemName derives the stable controller.Name a resident item carries
// for its source index, so a caller layering a handle.Registry or a
// recycler atop a sliced controller can key its own per-item state
// (which must survive a Reset/Front/Back rebuild) on the same identity
// the controller uses internally.
func ItemName(index int) controller.Name {
	return controller.Name(strconv.Itoa(index))
}

// RequestKind is one of the four ways a slice can be asked to move.
type RequestKind uint8

const (
	// Reset discards everything and places a new slice centred on a
	// target id (or 0 if absent).
	Reset RequestKind = iota
	// Update refreshes the current slice in place, preserving the
	// relative scroll position.
	Update
	// Front prepends the previous page, clipped to [0, current_start).
	Front
	// Back appends the next page.
	Back
)

func (k RequestKind) String() string {
	switch k {
	case Reset:
		return "Reset"
	case Update:
		return "Update"
	case Front:
		return "Front"
	case Back:
		return "Back"
	default:
		return "unknown"
	}
}

const (
	// DefaultSliceMax is the configurable maximum slice size.
	DefaultSliceMax = 24
	// DefaultLoaderSize is the fixed axis size of a loader sentinel.
	DefaultLoaderSize float32 = 48
	// DefaultMinLoadTime is the minimum time a Reset/Front/Back request
	// takes to resolve, so a loader sentinel is never "blinked".
	DefaultMinLoadTime = 600 * time.Millisecond
)

// Handler shapes one item's position and size during a slice-assembly
// pass. cursor is the running axis-aligned extent already occupied by
// items placed earlier in this same pass; Place returns the item's
// position, size, and the cursor value for the next item. A non-nil err
// is Fatal: the assembly pass is abandoned and the sliced controller
// reverts to an empty state (see Controller.Poll).
type Handler interface {
	Place(axis controller.Axis, index int, value source.Value, cursor float32) (pos, size f32.Point, nextCursor float32, err error)
}

// axisPoint builds a point with size along axis and cross on the
// orthogonal dimension.
func axisPoint(axis controller.Axis, size, cross float32) f32.Point {
	if axis == controller.Horizontal {
		return f32.Point{X: size, Y: cross}
	}
	return f32.Point{X: cross, Y: size}
}

// SliceHandler lays out variable-size items whose axis extent comes
// from the item data itself, stacked contiguously from the running
// cursor.
type SliceHandler struct {
	// SizeFunc returns the item's axis-aligned size.
	SizeFunc func(index int, value source.Value) float32
	// CrossSize is the fixed size on the orthogonal axis.
	CrossSize float32
}

// Place implements Handler.
func (h SliceHandler) Place(axis controller.Axis, index int, value source.Value, cursor float32) (pos, size f32.Point, nextCursor float32, err error) {
	if h.SizeFunc == nil {
		return f32.Point{}, f32.Point{}, cursor, fmt.Errorf("slice handler: no SizeFunc for index %d", index)
	}
	sz := h.SizeFunc(index, value)
	pos = axisPoint(axis, cursor, 0)
	size = axisPoint(axis, sz, h.CrossSize)
	return pos, size, cursor + sz, nil
}

// FixedHandler lays out uniformly-sized items whose position is
// index · size, independent of assembly order.
type FixedHandler struct {
	ItemSize  float32
	CrossSize float32
}

// Place implements Handler.
func (h FixedHandler) Place(axis controller.Axis, index int, value source.Value, cursor float32) (pos, size f32.Point, nextCursor float32, err error) {
	if h.ItemSize <= 0 {
		return f32.Point{}, f32.Point{}, cursor, fmt.Errorf("fixed handler: non-positive item size %v", h.ItemSize)
	}
	pos = axisPoint(axis, float32(index)*h.ItemSize, 0)
	size = axisPoint(axis, h.ItemSize, h.CrossSize)
	return pos, size, float32(index+1) * h.ItemSize, nil
}

// GridHandler lays out fixed-aspect cells in a grid whose column count
// is floor(viewport_width / cell_min_width).
type GridHandler struct {
	ViewportWidth float32
	CellMinWidth  float32
	CellHeight    float32
}

// Columns reports the current column count.
func (h GridHandler) Columns() int {
	if h.CellMinWidth <= 0 {
		return 1
	}
	c := int(h.ViewportWidth / h.CellMinWidth)
	if c < 1 {
		c = 1
	}
	return c
}

// Place implements Handler. The cursor parameter is ignored: grid
// position is derived directly from index, same as FixedHandler.
func (h GridHandler) Place(axis controller.Axis, index int, value source.Value, cursor float32) (pos, size f32.Point, nextCursor float32, err error) {
	if h.CellHeight <= 0 {
		return f32.Point{}, f32.Point{}, cursor, fmt.Errorf("grid handler: non-positive cell height %v", h.CellHeight)
	}
	cols := h.Columns()
	cellWidth := h.ViewportWidth / float32(cols)
	row := index / cols
	col := index % cols
	if axis == controller.Horizontal {
		pos = f32.Point{X: float32(row) * h.CellHeight, Y: float32(col) * cellWidth}
		size = f32.Point{X: h.CellHeight, Y: cellWidth}
	} else {
		pos = f32.Point{X: float32(col) * cellWidth, Y: float32(row) * h.CellHeight}
		size = f32.Point{X: cellWidth, Y: h.CellHeight}
	}
	return pos, size, float32(row+1) * h.CellHeight, nil
}

// NodeFactory builds the live presentation node for one item.
type NodeFactory func(index int, value source.Value) controller.Node

// arrival is a completed slice-assembly result delivered back to the
// controller's owning goroutine.
type arrival struct {
	gen   int64
	kind  RequestKind
	first int
	data  map[int]source.Value
}

// Controller is the sliced (windowed) controller extension.
type Controller struct {
	Axis    controller.Axis
	Source  *source.Node
	Handler Handler
	Items   *controller.Controller

	NodeFactory       NodeFactory
	LoaderNodeFactory func(direction RequestKind) controller.Node

	SliceMax    int
	LoaderSize  float32
	MinLoadTime time.Duration

	// UseCategoryBounds, when true, widens every request window to the
	// nearest enclosing category boundaries via source.SetCategoryBounds.
	UseCategoryBounds bool
	CategoryLevel     int
	IncludeSubcats    bool

	Log logx.Logger

	mu          sync.Mutex
	start       int
	count       int
	relativePos float32
	pendingGen  int64
	worker      *worker.Worker
	arrivals    chan arrival
}

// New constructs a sliced Controller over src, placing assembled items
// into items via handler. It panics if src, handler, or items is nil:
// these are programmer errors, not runtime data errors, the same way
// list.NewManager panicked on missing hooks.
func New(axis controller.Axis, src *source.Node, handler Handler, items *controller.Controller) *Controller {
	switch {
	case src == nil:
		panic(fmt.Errorf("slice.New: src is nil"))
	case handler == nil:
		panic(fmt.Errorf("slice.New: handler is nil"))
	case items == nil:
		panic(fmt.Errorf("slice.New: items is nil"))
	}
	c := &Controller{
		Axis:        axis,
		Source:      src,
		Handler:     handler,
		Items:       items,
		SliceMax:    DefaultSliceMax,
		LoaderSize:  DefaultLoaderSize,
		MinLoadTime: DefaultMinLoadTime,
		Log:         logx.Nop(),
		worker:      worker.New(),
		arrivals:    make(chan arrival, 4),
	}
	return c
}

// Close releases the background worker.
func (c *Controller) Close() { c.worker.Close() }

// Reset discards everything and places a new slice centred on originID.
// The window is clipped to the source's range, so near either end it
// holds fewer than SliceMax items.
func (c *Controller) Reset(ctx context.Context, originID int) {
	first := originID - c.SliceMax/2
	c.dispatch(ctx, Reset, first, c.SliceMax)
}

// Update refreshes the current slice in place.
func (c *Controller) Update(ctx context.Context) {
	c.mu.Lock()
	first, count := c.start, c.count
	c.mu.Unlock()
	c.dispatch(ctx, Update, first, count)
}

// Front prepends the previous page, clipped to [0, current_start).
func (c *Controller) Front(ctx context.Context) {
	c.mu.Lock()
	end := c.start
	c.mu.Unlock()
	first := end - c.SliceMax
	if first < 0 {
		first = 0
	}
	if first >= end {
		return
	}
	c.dispatch(ctx, Front, first, end-first)
}

// Back appends the next page.
func (c *Controller) Back(ctx context.Context) {
	c.mu.Lock()
	first := c.start + c.count
	c.mu.Unlock()
	c.dispatch(ctx, Back, first, c.SliceMax)
}

// dispatch computes the clipped request window, stamps it with a
// supersession timestamp, and asynchronously fetches it from Source.
func (c *Controller) dispatch(ctx context.Context, kind RequestKind, first, count int) {
	total := c.Source.TotalCount()
	if first < 0 {
		count += first
		first = 0
	}
	if first+count > total {
		count = total - first
	}
	if count < 0 {
		count = 0
	}
	if c.UseCategoryBounds {
		first, count = c.Source.SetCategoryBounds(first, count, c.CategoryLevel, c.IncludeSubcats)
	}

	gen := time.Now().UnixNano()
	c.mu.Lock()
	c.pendingGen = gen
	c.mu.Unlock()

	go func() {
		data := c.Source.GetSlice(first, count)
		select {
		case c.arrivals <- arrival{gen: gen, kind: kind, first: first, data: data}:
		case <-ctx.Done():
		}
	}()
}

// Poll drains any completed source fetches and any completed
// placement-assembly results and applies them to Items. It must be
// called from the owning goroutine (e.g. once per frame), same as
// draining an update channel during layout; neither c.apply nor
// c.applyAssembled ever blocks the caller waiting on the background
// worker, so a Poll call always returns promptly.
//
// A non-nil return means a Handler threw during placement: per policy
// that is Fatal, Items has already been cleared back to empty, and the
// error has already been logged through Log.Errorf before Poll returns
// it to the caller.
func (c *Controller) Poll() error {
	for {
		select {
		case a := <-c.arrivals:
			c.apply(a)
		case r := <-c.worker.Results():
			if as, ok := r.Value.(assembled); ok {
				if err := c.applyAssembled(as); err != nil {
					return err
				}
			}
		default:
			return nil
		}
	}
}

// assembled is a completed placement-assembly result, carrying the
// generation it was built for so a later Poll can drop it if a newer
// request has since superseded it. A non-nil err means the Handler
// threw while building items; items is then meaningless.
type assembled struct {
	gen   int64
	kind  RequestKind
	start int
	count int
	items []item
	err   error
}

// apply implements the arrival half of the request pipeline: drop stale
// arrivals, merge Front/Back results with the existing data evicting
// from the opposite end if oversized, and submit placement assembly to
// the background worker with a minimum service time. It never blocks on
// the worker: the assembled result is picked up by a later Poll call,
// off worker.Results(), the same way an arrival itself is picked up off
// c.arrivals.
func (c *Controller) apply(a arrival) {
	c.mu.Lock()
	if a.gen < c.pendingGen {
		c.mu.Unlock()
		c.Log.Debugf("dropping stale %s arrival (gen %d < %d)", a.kind, a.gen, c.pendingGen)
		return
	}
	switch a.kind {
	case Front:
		c.mergeFront(a.first)
	case Back:
		c.mergeBack(a.first, len(a.data))
	case Reset, Update:
		c.start, c.count = a.first, len(a.data)
	}
	startSnapshot, countSnapshot := c.start, c.count
	data := c.snapshotData(startSnapshot, countSnapshot, a)
	c.mu.Unlock()

	minDur := c.MinLoadTime
	if a.kind == Update {
		minDur = 0
	}
	kind, gen := a.kind, a.gen
	c.worker.Submit(worker.Job{
		MinDuration: minDur,
		Build: func() any {
			items, err := c.assemble(kind, startSnapshot, data)
			return assembled{gen: gen, kind: kind, start: startSnapshot, count: countSnapshot, items: items, err: err}
		},
	})
}

// applyAssembled installs a completed placement-assembly result, once it
// is no longer stale. If the result carries a Fatal Handler error, Items
// and the in-memory window are cleared instead, and the error is logged
// and returned.
func (c *Controller) applyAssembled(as assembled) error {
	c.mu.Lock()
	stale := as.gen < c.pendingGen
	c.mu.Unlock()
	if stale {
		c.Log.Debugf("dropping stale %s placement (gen %d < %d)", as.kind, as.gen, c.pendingGen)
		return nil
	}
	if as.err != nil {
		c.Log.Errorf("handler failed during %s placement: %v", as.kind, as.err)
		c.mu.Lock()
		c.start, c.count = 0, 0
		c.mu.Unlock()
		c.Items.Clear()
		return as.err
	}
	c.updateItems(as.kind, as.start, as.count, as.items)
	return nil
}

// mergeFront merges a Front arrival's window into the controller's
// in-memory window, evicting from the back if the merged window
// exceeds SliceMax. Caller must hold c.mu.
func (c *Controller) mergeFront(first int) (newFirst, newCount int) {
	newFirst = first
	newEnd := c.start + c.count
	if newFirst > c.start {
		newFirst = c.start
	}
	newCount = newEnd - newFirst
	if newCount > c.SliceMax {
		// Evict from the opposite end (the back).
		newEnd = newFirst + c.SliceMax
		newCount = c.SliceMax
	}
	c.start = newFirst
	c.count = newCount
	return newFirst, newCount
}

// mergeBack merges a Back arrival's window, evicting from the front if
// oversized. Caller must hold c.mu.
func (c *Controller) mergeBack(first, dataLen int) (newFirst, newCount int) {
	newEnd := first + dataLen
	newFirst = c.start
	newCount = newEnd - newFirst
	if newCount > c.SliceMax {
		overflow := newCount - c.SliceMax
		newFirst += overflow
		newCount = c.SliceMax
	}
	c.start = newFirst
	c.count = newCount
	return newFirst, newCount
}

// snapshotData re-fetches the (possibly just-merged) window's values.
// Caller must hold c.mu.
func (c *Controller) snapshotData(start, count int, a arrival) map[int]source.Value {
	if a.kind == Reset || a.kind == Update {
		return a.data
	}
	// Front/Back merges may reference indices outside a.data (the
	// pre-existing portion of the window); re-fetch to get a complete
	// contiguous map rather than trying to splice two partial maps by
	// hand.
	out := make(map[int]source.Value, count)
	for k, v := range a.data {
		out[k] = v
	}
	for i := start; i < start+count; i++ {
		if _, ok := out[i]; !ok {
			out[i] = c.Source.GetItem(i)
		}
	}
	return out
}

// item is one assembled placement, produced off the main loop by
// assemble and applied to Items on the main loop by updateItems.
type item struct {
	index int
	pos   f32.Point
	size  f32.Point
}

// assemble runs the Handler over data in ascending index order. For a
// Front request the computed block is shifted so its last item ends
// exactly where the existing front item began, producing the "stack
// backward" placement spec describes without needing reverse iteration.
//
// A Handler that returns an error, or panics, aborts the pass: assemble
// recovers the panic and reports it the same way as a returned error, so
// a misbehaving Handler implementation can never take down the worker
// goroutine.
func (c *Controller) assemble(kind RequestKind, start int, data map[int]source.Value) (result []item, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("handler panicked during placement: %v", r)
		}
	}()

	indices := make([]int, 0, len(data))
	for k := range data {
		indices = append(indices, k)
	}
	sortInts(indices)

	items := make([]item, 0, len(indices))
	cursor := float32(0)
	for _, idx := range indices {
		pos, size, next, perr := c.Handler.Place(c.Axis, idx, data[idx], cursor)
		if perr != nil {
			return nil, fmt.Errorf("handler failed to place index %d: %w", idx, perr)
		}
		items = append(items, item{index: idx, pos: pos, size: size})
		cursor = next
	}

	if kind == Front && len(items) > 0 {
		existingFront := c.Items.GetItem(0)
		if existingFront != nil {
			blockEnd := c.Axis.Component(items[len(items)-1].pos) + c.Axis.Component(items[len(items)-1].size)
			shift := c.Axis.Component(existingFront.Position) - blockEnd
			for i := range items {
				items[i].pos = c.Axis.WithComponent(items[i].pos, c.Axis.Component(items[i].pos)+shift)
			}
		}
	}
	return items, nil
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// updateItems rebuilds Items from the assembled placements, adding
// loader sentinels on either end when the slice does not cover the
// full source range. It does not adjust any scroll position for any
// request kind and returns nothing; the controller holds no viewport,
// so restoring or seeking a position is left to whoever owns the
// engine.
func (c *Controller) updateItems(kind RequestKind, start, count int, items []item) {
	c.Items.Clear()
	total := c.Source.TotalCount()

	if start > 0 && c.LoaderNodeFactory != nil {
		c.Items.AddItem(c.loaderFactory(Front), axisPoint(c.Axis, c.LoaderSize, 0))
	}
	for _, it := range items {
		c.Items.AddItemAt(c.factoryFor(it.index), it.size, it.pos, 0, ItemName(it.index))
	}
	if start+count < total && c.LoaderNodeFactory != nil {
		last := c.Items.GetItem(c.Items.Len() - 1)
		pos := f32.Point{}
		if last != nil {
			end := c.Axis.Component(last.Position) + c.Axis.Component(last.Size)
			pos = c.Axis.WithComponent(last.Position, end)
		}
		c.Items.AddItemAt(c.loaderFactory(Back), axisPoint(c.Axis, c.LoaderSize, 0), pos, 0, controller.NoName)
	}
}

// loaderFactory wraps LoaderNodeFactory so that becoming resident (the
// controller calling the factory when the sentinel enters the
// virtualization window) itself triggers the Front/Back request that
// will eventually replace it.
func (c *Controller) loaderFactory(direction RequestKind) controller.Factory {
	return func() controller.Node {
		go func() {
			switch direction {
			case Front:
				c.Front(context.Background())
			case Back:
				c.Back(context.Background())
			}
		}()
		return c.LoaderNodeFactory(direction)
	}
}

func (c *Controller) factoryFor(index int) controller.Factory {
	return func() controller.Node {
		if c.NodeFactory == nil {
			return nil
		}
		return c.NodeFactory(index, c.Source.GetItem(index))
	}
}

// State is the persisted record of which window was resident and where
// within it the viewport sat, so a list can reopen exactly where it
// left off instead of re-centring from scratch.
type State struct {
	SliceStart       int     `json:"slice_start"`
	SliceLen         int     `json:"slice_len"`
	RelativePosition float32 `json:"relative_position"`
}

// Save captures the currently-resident window, paired with the
// engine-owned relative scroll position supplied by the caller (this
// controller has no notion of viewport position, only of which slice is
// resident).
func (c *Controller) Save(relativePosition float32) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relativePos = relativePosition
	return State{SliceStart: c.start, SliceLen: c.count, RelativePosition: relativePosition}
}

// Load dispatches a Reset request reproducing a previously-saved
// window. The caller is expected to re-apply s.RelativePosition to its
// engine once the corresponding arrival has been applied via Poll.
func (c *Controller) Load(ctx context.Context, s State) {
	c.mu.Lock()
	c.relativePos = s.RelativePosition
	c.mu.Unlock()
	c.dispatch(ctx, Reset, s.SliceStart, s.SliceLen)
}

// SavedRelativePosition returns the relative position passed to the
// most recent Save or Load call.
func (c *Controller) SavedRelativePosition() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.relativePos
}
