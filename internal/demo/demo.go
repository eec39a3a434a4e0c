// Package demo wires the full pipeline — a synthetic data source, the
// sliced controller, the placement controller, the scroll engine, the
// item-scroll handle registry, and the recycler extension — into one
// headless harness, for scrollkitd to drive without a GUI host.
package demo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/drhodes/golorem"

	scrollkit "github.com/gioverse/scrollkit"
	"github.com/gioverse/scrollkit/controller"
	"github.com/gioverse/scrollkit/handle"
	"github.com/gioverse/scrollkit/internal/config"
	"github.com/gioverse/scrollkit/logx"
	"github.com/gioverse/scrollkit/persist"
	"github.com/gioverse/scrollkit/recycler"
	"github.com/gioverse/scrollkit/slice"
	"github.com/gioverse/scrollkit/source"
)

// rowNode is the live node a resident data row produces. Its natural
// size is fixed, so the controller never needs to reflow neighbours on
// insertion.
type rowNode struct{ height float32 }

func (n rowNode) NaturalSize(controller.Axis) float32 { return n.height }

// loaderNode is the sentinel occupying an unloaded Front/Back slot.
type loaderNode struct{ size float32 }

func (n loaderNode) NaturalSize(controller.Axis) float32 { return n.size }

// Harness owns one end-to-end pipeline instance.
type Harness struct {
	cfg *config.Config
	log logx.Logger

	Source *source.Node
	Ctrl   *controller.Controller
	Slice  *slice.Controller
	Engine *scrollkit.Engine
	Rows   *handle.Registry
	Store  persist.Store

	ticks int
}

// New builds a harness from cfg, populating the data source with
// lorem-ipsum rows (split across Source.Categories subcategories when
// configured) and wiring every extension together.
func New(cfg *config.Config, log logx.Logger) (*Harness, error) {
	root := source.NewNode(0, false)
	fetch := func(index int) source.Value {
		if cfg.Source.FetchLatency > 0 {
			time.Sleep(cfg.Source.FetchLatency)
		}
		return fmt.Sprintf("row %d: %s", index, lorem.Sentence(3, 10))
	}

	categorized := cfg.Source.Categories > 1
	if categorized {
		per := cfg.Source.ItemCount / cfg.Source.Categories
		for i := 0; i < cfg.Source.Categories; i++ {
			cat := source.NewNode(i+1, false)
			cat.SetChildsCount(per)
			cat.SetSourceFunc(fetch)
			root.AddSubcategory(cat)
		}
	} else {
		root.SetChildsCount(cfg.Source.ItemCount)
		root.SetSourceFunc(fetch)
	}

	ctrl := controller.New(controller.Vertical)

	handler := slice.FixedHandler{ItemSize: cfg.Engine.RowHeight, CrossSize: cfg.Engine.ScrollSize}
	sc := slice.New(controller.Vertical, root, handler, ctrl)
	sc.SliceMax = cfg.Slice.SliceMax
	sc.LoaderSize = cfg.Slice.LoaderSize
	sc.MinLoadTime = cfg.Slice.MinLoadTime
	sc.Log = log
	sc.UseCategoryBounds = categorized
	sc.NodeFactory = func(index int, value source.Value) controller.Node {
		return rowNode{height: cfg.Engine.RowHeight}
	}
	sc.LoaderNodeFactory = func(direction slice.RequestKind) controller.Node {
		return loaderNode{size: sc.LoaderSize}
	}

	eng := scrollkit.New(controller.Vertical)
	eng.Log = log
	eng.SetScrollSize(cfg.Engine.ScrollSize)
	eng.AnimationPaddingCB = func(padding float32) { ctrl.AnimationPadding = padding }

	rows := handle.NewRegistry(recycler.NewAllocator(cfg.Engine.ScrollSize))

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	return &Harness{cfg: cfg, log: log, Source: root, Ctrl: ctrl, Slice: sc, Engine: eng, Rows: rows, Store: store}, nil
}

func openStore(cfg *config.Config) (persist.Store, error) {
	if cfg.Persist.Store == "sqlite" {
		return persist.OpenSQLiteStore(context.Background(), cfg.Persist.Path)
	}
	return persist.NewMemStore(), nil
}

// Reset centers the slice on originID and blocks (polling) until it has
// been assembled and placed.
func (h *Harness) Reset(ctx context.Context, originID int) {
	h.Slice.Reset(ctx, originID)
	h.waitForSlice()
	h.Engine.SetScrollRelativeValue(0)
}

func (h *Harness) waitForSlice() {
	deadline := time.Now().Add(5 * time.Second)
	for h.Ctrl.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
		if err := h.Slice.Poll(); err != nil {
			h.log.Errorf("slice poll: %v", err)
			return
		}
	}
}

// Tick advances one frame of the harness: drains completed slice
// arrivals, re-virtualizes the controller against the engine's current
// viewport, advances the engine's own animation, attaches
// handle/recycler state to any newly-resident rows, and advances every
// row's own swipe/collapse animation.
func (h *Harness) Tick(dt float32) {
	h.ticks++
	if err := h.Slice.Poll(); err != nil {
		h.log.Errorf("slice poll: %v", err)
	}
	h.Ctrl.OnScrollPosition(h.Engine.Position(), h.Engine.ScrollSize(), false)
	area := h.Ctrl.Area()
	h.Engine.UpdateBounds(&area, controller.Padding{})
	h.Engine.Tick(dt)
	h.attachHandles()
	h.tickRows(dt)
}

// Ticks reports how many Tick calls this harness has processed, for a
// profiler's per-tick recorder hook.
func (h *Harness) Ticks() int { return h.ticks }

// attachHandles gives every resident, named item (loader sentinels have
// no stable name and are skipped) a handle bridging it to its
// recycler.Row, the first time that item appears after a rebuild.
func (h *Harness) attachHandles() {
	for _, it := range h.Ctrl.Items() {
		if it.Name == controller.NoName || it.Node == nil || it.Handle != nil {
			continue
		}
		it.Handle = handle.New(handle.ID(it.Name), h.Rows, handle.Callbacks{})
	}
}

// tickRows advances every currently-resident row's swipe/collapse
// animation and, for a row mid-collapse, pulls its current collapse
// fraction into the controller via handle.Resize — the headless
// harness's poll-driven counterpart to Row.OnSizeChanged's push-driven
// hook. The harness does not set OnSizeChanged itself.
func (h *Harness) tickRows(dt float32) {
	for _, it := range h.Ctrl.Items() {
		if it.Name == controller.NoName {
			continue
		}
		row, ok := h.Rows.Get(handle.ID(it.Name)).(*recycler.Row)
		if !ok {
			continue
		}
		row.Tick(dt)
		if row.State() != recycler.Removed {
			continue
		}
		newHeight := row.SizeFrac() * h.cfg.Engine.RowHeight
		if current := h.Ctrl.GetItemByName(it.Name); current != nil {
			handle.Resize(h.Ctrl, current, h.Ctrl.Axis.WithComponent(current.Size, newHeight), true)
		}
	}
}

// Sweep compacts every fully-collapsed, unlocked row out of the
// controller.
func (h *Harness) Sweep() {
	recycler.Sweep(h.Ctrl, h.Rows, func(index int) handle.ID {
		it := h.Ctrl.GetItem(index)
		if it == nil {
			return handle.NoID
		}
		return handle.ID(it.Name)
	}, nil)
}

// SwipeRemove drives the row at controller index idx through a full
// swipe-past-threshold-and-again gesture, committing it straight to
// Removed without waiting out the Prepared timeout.
func (h *Harness) SwipeRemove(idx int) bool {
	it := h.Ctrl.GetItem(idx)
	if it == nil || it.Name == controller.NoName {
		return false
	}
	row, ok := h.Rows.Get(handle.ID(it.Name)).(*recycler.Row)
	if !ok {
		return false
	}
	row.OnSwipeBegin()
	row.OnSwipeDelta(-row.RowWidth)
	row.OnSwipeEnded(0)
	if row.State() == recycler.Prepared {
		row.OnSwipeBegin()
	}
	return true
}

// Scroll applies a wheel-style delta to the engine.
func (h *Harness) Scroll(delta float32) { h.Engine.OnWheel(delta) }

// SaveState persists the slice window and engine position under key.
func (h *Harness) SaveState(ctx context.Context, key string) error {
	type state struct {
		Slice  slice.State     `json:"slice"`
		Engine scrollkit.State `json:"engine"`
	}
	s := state{
		Slice:  h.Slice.Save(h.Engine.RelativePosition()),
		Engine: h.Engine.Save(),
	}
	return persist.SaveJSON(ctx, h.Store, key, s)
}

// LoadState restores a previously-saved slice window and engine
// position under key. ok is false if no such key exists.
func (h *Harness) LoadState(ctx context.Context, key string) (ok bool, err error) {
	type state struct {
		Slice  slice.State     `json:"slice"`
		Engine scrollkit.State `json:"engine"`
	}
	var s state
	ok, err = persist.LoadJSON(ctx, h.Store, key, &s)
	if err != nil || !ok {
		return ok, err
	}
	h.Slice.Load(ctx, s.Slice)
	h.waitForSlice()
	h.Engine.Load(s.Engine)
	return true, nil
}

// ItemCount reports the source's total logical item count.
func (h *Harness) ItemCount() int { return h.Source.TotalCount() }

// ParseID parses a controller.Name back into the integer source index
// it was derived from (see slice.ItemName).
func ParseID(name controller.Name) (int, error) {
	return strconv.Atoi(string(name))
}
