// Package controller implements the scroll controller: a placement
// registry mapping an abstract item-index space onto concrete,
// recycled live nodes, generalized from chat elements to arbitrary
// factory-produced nodes. The resize-propagation and
// virtualization-window algorithms follow the stappler
// SPScrollController.{h,cc,cpp} design.
package controller

import "gioui.org/f32"

// Axis is the controller's single scroll direction. The orthogonal
// dimension is passive and never consulted by placement math.
type Axis uint8

const (
	Vertical Axis = iota
	Horizontal
)

// Component extracts the scalar along a that a f32.Point carries.
func (a Axis) Component(p f32.Point) float32 {
	if a == Horizontal {
		return p.X
	}
	return p.Y
}

// WithComponent returns p with its a-axis component replaced by v.
func (a Axis) WithComponent(p f32.Point, v float32) f32.Point {
	if a == Horizontal {
		p.X = v
	} else {
		p.Y = v
	}
	return p
}

// Padding carries the four edge insets defines.
type Padding struct {
	Top, Right, Bottom, Left float32
}

// Front returns the padding on the leading edge of the scroll axis:
// top for Vertical, left for Horizontal.
func (p Padding) Front(axis Axis) float32 {
	if axis == Horizontal {
		return p.Left
	}
	return p.Top
}

// Back returns the padding on the trailing edge of the scroll axis:
// bottom for Vertical, right for Horizontal.
func (p Padding) Back(axis Axis) float32 {
	if axis == Horizontal {
		return p.Right
	}
	return p.Bottom
}

// Node is the narrow contract the controller needs from whatever node
// graph & layout host the surrounding application supplies: a live node
// knows its own natural extent along the controller's scroll axis,
// discovered once the node exists (a Gio host, for instance, would
// report this post-layout, through layout.Dimensions).
type Node interface {
	NaturalSize(axis Axis) float32
}

// Factory produces a new live Node for an item. It is pure by contract:
// the controller invokes it at most once per current residency, and
// never while another factory invocation for the same item is in
// flight.
type Factory func() Node

// Name is an optional stable identifier used for item lookup.
type Name string

// NoName is the zero value of Name, indicating an item with no stable
// identifier (it can still be looked up by index or by live node).
const NoName = Name("")

// Handle is the narrow contract an item-scroll handle exposes back to
// the controller: the ability to receive residency notifications and
// to request a resize of its own item.
type Handle interface {
	OnInserted(index int)
	OnUpdated(index int)
	OnRemoved(index int)
	// Locked reports whether this item should be excluded from the
	// sliced controller's cleanup/compaction sweep.
	Locked() bool
}

// Item is one entry in the controller's ordered placement list.
type Item struct {
	Factory  Factory
	Size     f32.Point
	Position f32.Point
	ZIndex   int
	Name     Name

	Node   Node
	Handle Handle
}

// resident reports whether the item currently has a live node.
func (it *Item) resident() bool { return it.Node != nil }

// axisEnd returns the item's trailing edge along axis.
func (it *Item) axisEnd(axis Axis) float32 {
	return axis.Component(it.Position) + axis.Component(it.Size)
}

// axisCenter returns the item's midpoint along axis.
func (it *Item) axisCenter(axis Axis) float32 {
	return axis.Component(it.Position) + axis.Component(it.Size)/2
}

// slack is the fixed window overscan described in residency
// invariant.
const slack = 8

// Area is the scrollable-area descriptor (offset, size) the controller
// publishes to the engine on every layout pass.
type Area struct {
	Offset float32
	Size   float32
}

// Controller owns an ordered list of items plus the scrollable-area
// descriptor recomputed on each layout pass.
type Controller struct {
	Axis Axis

	// KeepNodes, if true, hides rather than detaches a node that leaves
	// the virtualization window, instead of discarding it outright.
	// Construction-time immutable: a controller doesn't change residency
	// policy mid-lifetime.
	KeepNodes bool

	items     []*Item
	byName    map[Name]int
	infoDirty bool

	area Area

	// AnimationPadding is the scalar hint inflating the
	// virtualization window in the direction of an active animation.
	AnimationPadding float32
}

// New constructs an empty Controller for the given scroll axis.
func New(axis Axis) *Controller {
	return &Controller{
		Axis:      axis,
		byName:    make(map[Name]int),
		infoDirty: true,
	}
}

// AddItemAt inserts a new item at an explicit position/size/z/name and
// returns its index.
func (c *Controller) AddItemAt(factory Factory, size, position f32.Point, z int, name Name) int {
	it := &Item{Factory: factory, Size: size, Position: position, ZIndex: z, Name: name}
	c.items = append(c.items, it)
	idx := len(c.items) - 1
	if name != NoName {
		c.byName[name] = idx
	}
	c.infoDirty = true
	return idx
}

// AddItem inserts a new item immediately following the current last
// item along the scroll axis (auto-position at last_item_end).
func (c *Controller) AddItem(factory Factory, size f32.Point) int {
	pos := f32.Point{}
	if n := len(c.items); n > 0 {
		last := c.items[n-1]
		end := last.axisEnd(c.Axis)
		pos = c.Axis.WithComponent(last.Position, end)
	}
	return c.AddItemAt(factory, size, pos, 0, NoName)
}

// GetItem returns the item at index, or nil if out of range.
func (c *Controller) GetItem(index int) *Item {
	if index < 0 || index >= len(c.items) {
		return nil
	}
	return c.items[index]
}

// GetItemByName returns the item registered under name, if any.
func (c *Controller) GetItemByName(name Name) *Item {
	idx, ok := c.byName[name]
	if !ok {
		return nil
	}
	return c.items[idx]
}

// GetItemByNode returns the item currently hosting the given live node,
// if any.
func (c *Controller) GetItemByNode(node Node) *Item {
	for _, it := range c.items {
		if it.Node == node {
			return it
		}
	}
	return nil
}

// Len returns the number of items currently registered.
func (c *Controller) Len() int { return len(c.items) }

// Items exposes the live item slice. Callers must not insert, remove,
// or reorder items through the returned slice.
func (c *Controller) Items() []*Item { return c.items }

// RemoveAt permanently drops the item at index, detaching its live node
// (notifying its handle) first if resident. It is the compaction
// primitive the recycler extension uses once a removed row's
// shrink-to-zero animation has finished: by that point ResizeItem has
// already shifted every later item up, so RemoveAt only needs to excise
// the now-zero-sized slot and fix up byName.
func (c *Controller) RemoveAt(index int) {
	if index < 0 || index >= len(c.items) {
		return
	}
	it := c.items[index]
	if it.resident() && it.Handle != nil {
		it.Handle.OnRemoved(index)
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	c.byName = make(map[Name]int, len(c.byName))
	for i, it := range c.items {
		if it.Name != NoName {
			c.byName[it.Name] = i
		}
	}
	c.infoDirty = true
}

// Clear removes all items, detaching every live node and notifying its
// handle.
func (c *Controller) Clear() {
	for i, it := range c.items {
		if it.resident() && it.Handle != nil {
			it.Handle.OnRemoved(i)
		}
		it.Node = nil
	}
	c.items = nil
	c.byName = make(map[Name]int)
	c.infoDirty = true
}

// ResizeItem implements resize-propagation algorithm.
// forward indicates the direction neighbouring items are pushed when
// item's axis size changes to newSize.
func (c *Controller) ResizeItem(item *Item, newSize f32.Point, forward bool) {
	idx := c.indexOf(item)
	if idx < 0 {
		return
	}
	delta := c.Axis.Component(newSize) - c.Axis.Component(item.Size)
	item.Size = newSize
	if delta == 0 {
		return
	}
	if forward {
		for i := idx + 1; i < len(c.items); i++ {
			shift(c.items[i], c.Axis, delta)
		}
	} else {
		shift(item, c.Axis, -delta)
		for i := 0; i < idx; i++ {
			shift(c.items[i], c.Axis, -delta)
		}
	}
	c.infoDirty = true
}

func shift(it *Item, axis Axis, delta float32) {
	cur := axis.Component(it.Position)
	it.Position = axis.WithComponent(it.Position, cur+delta)
}

func (c *Controller) indexOf(item *Item) int {
	for i, it := range c.items {
		if it == item {
			return i
		}
	}
	return -1
}

// Area returns the most recently published scrollable-area descriptor.
func (c *Controller) Area() Area { return c.area }

// recomputeArea implements step 1.
func (c *Controller) recomputeArea() {
	if len(c.items) == 0 {
		c.area = Area{}
		return
	}
	start := c.Axis.Component(c.items[0].Position)
	end := c.items[0].axisEnd(c.Axis)
	for _, it := range c.items[1:] {
		if p := c.Axis.Component(it.Position); p < start {
			start = p
		}
		if e := it.axisEnd(c.Axis); e > end {
			end = e
		}
	}
	c.area = Area{Offset: start, Size: end - start}
}

// Window is the inclusive virtualization window an item must intersect
// to be resident.
type Window struct {
	Start, End float32
}

// ComputeWindow returns the virtualization window for a viewport
// currently at scrollPosition spanning scrollSize logical units, per
// step 2.
func (c *Controller) ComputeWindow(scrollPosition, scrollSize float32) Window {
	end := scrollPosition + scrollSize + slack
	if c.AnimationPadding > 0 {
		end += c.AnimationPadding
	}
	start := scrollPosition - slack
	if c.AnimationPadding < 0 {
		start += c.AnimationPadding
	}
	return Window{Start: start, End: end}
}

// intersects reports whether item overlaps window along the scroll
// axis.
func (it *Item) intersects(axis Axis, w Window) bool {
	return it.axisEnd(axis) >= w.Start && axis.Component(it.Position) <= w.End
}

// OnScrollPosition runs the virtualisation step: attach nodes entering
// the window, detach or hide nodes leaving it. scrollPosition/scrollSize
// describe the engine's current viewport; force requests the O(n)
// "recompute scrollable area" path
// even when nothing is known to have changed.
func (c *Controller) OnScrollPosition(scrollPosition, scrollSize float32, force bool) {
	if scrollSize <= 0 {
		// Degenerate window: no-op.
		return
	}
	if c.infoDirty || force {
		c.recomputeArea()
		c.infoDirty = false
	}
	window := c.ComputeWindow(scrollPosition, scrollSize)
	windowCenter := (window.Start + window.End) / 2
	for i, it := range c.items {
		inWindow := it.intersects(c.Axis, window)
		switch {
		case it.resident() && !inWindow:
			if c.KeepNodes {
				// Hidden, not detached: the node reference is kept but
				// the handle is still informed of the transition.
				if it.Handle != nil {
					it.Handle.OnUpdated(i)
				}
				continue
			}
			if it.Handle != nil {
				it.Handle.OnRemoved(i)
			}
			it.Node = nil
		case !it.resident() && inWindow:
			node := it.Factory()
			if node == nil {
				// factory returned nil, slot remains reserved, retried
				// on the next window pass.
				continue
			}
			it.Node = node
			if it.Handle != nil {
				it.Handle.OnInserted(i)
			}
			natural := node.NaturalSize(c.Axis)
			if natural != c.Axis.Component(it.Size) {
				forward := it.axisCenter(c.Axis) >= windowCenter
				newSize := c.Axis.WithComponent(it.Size, natural)
				c.ResizeItem(it, newSize, forward)
			}
		}
	}
}

// ScrollPositionForRelative is the pure geometry half of
// set_scroll_relative_value (the engine side is
// Engine.SetScrollRelativeValue): given a fraction t in
// [0,1] it returns the absolute scroll position accounting for the
// controller's published area, assuming a viewport of scrollSize and
// padding.
func (c *Controller) ScrollPositionForRelative(t float32, scrollSize float32, padding Padding) float32 {
	area := c.area
	min := area.Offset - padding.Front(c.Axis)
	max := area.Offset + area.Size + padding.Back(c.Axis) - scrollSize
	if max < min {
		max = min
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return min + t*(max-min)
}
