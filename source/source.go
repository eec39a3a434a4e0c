// Package source implements the hierarchical, asynchronously sliced
// item provider that a scroll controller queries.
//
// A Node is a category in a tree: it owns some number of items directly
// (OwnCount) and may own subcategories, each contributing their own
// TotalCount. The tree is addressable by a single logical linear index,
// flattened according to LookupLevel/ItemsForSubcats, the same policy
// the stappler SPDataSource original used to decide whether a category
// root occupies a slot of its own.
package source

import "sort"

// Value is a single item payload. Empty/tombstone values are legal and
// are forwarded to consumers unchanged; the source never errors on a
// missing item within its declared count.
type Value = any

// FetchFunc fetches a single child value by its index within a Node.
type FetchFunc func(index int) Value

// BatchFetchFunc fetches a contiguous run of child values in one call.
// If a Node has no BatchFetchFunc, GetSlice falls back to size
// individual FetchFunc calls and joins the results itself.
type BatchFetchFunc func(first, size int) map[int]Value

// Node is one category in the source tree.
type Node struct {
	CategoryID int

	parent *Node // non-owning; see "cyclic references"

	ownCount int
	data     Value
	hasData  bool

	subcategories []*Node

	sourceCB FetchFunc
	batchCB  BatchFetchFunc

	// itemsForSubcats indicates whether each subcategory's own root
	// occupies one addressable slot (its Self) ahead of its items.
	itemsForSubcats bool

	dirty       bool
	totalCount  int
	totalClean  bool
	subscribers []func()
}

// NewNode constructs an empty category node.
func NewNode(categoryID int, itemsForSubcats bool) *Node {
	return &Node{
		CategoryID:      categoryID,
		itemsForSubcats: itemsForSubcats,
	}
}

// AddSubcategory appends an owned child category and marks the tree
// dirty. The child's parent back-reference is set to n, but n does not
// hold a pointer that would require reference counting: the slice owns
// the child outright.
func (n *Node) AddSubcategory(child *Node) {
	child.parent = n
	n.subcategories = append(n.subcategories, child)
	n.markDirty()
}

// SetChildsCount sets the own item count for this category (distinct
// from adding subcategories: this governs leaf items owned directly by
// n, fetched through SetSourceFunc/SetBatchFunc).
func (n *Node) SetChildsCount(count int) {
	if count < 0 {
		count = 0
	}
	n.ownCount = count
	n.markDirty()
}

// SetData attaches a value representing the category itself, retrievable
// through the special Self address.
func (n *Node) SetData(v Value) {
	n.data = v
	n.hasData = true
	n.markDirty()
}

// SetSourceFunc installs the leaf fetch callback for a single child.
func (n *Node) SetSourceFunc(fn FetchFunc) { n.sourceCB = fn }

// SetBatchFunc installs the optional bulk fetch callback.
func (n *Node) SetBatchFunc(fn BatchFetchFunc) { n.batchCB = fn }

// OwnCount returns the orphan/item count owned directly by this
// category (excluding subcategories).
func (n *Node) OwnCount() int { return n.ownCount }

// TotalCount returns OwnCount plus the sum of all subcategories'
// TotalCount, recomputed lazily after any mutation.
func (n *Node) TotalCount() int {
	if n.totalClean {
		return n.totalCount
	}
	total := n.ownCount
	for _, sub := range n.subcategories {
		total += sub.slotCount()
	}
	n.totalCount = total
	n.totalClean = true
	return total
}

// slotCount is the number of slots a subcategory contributes to its
// parent's TotalCount: its own TotalCount. The Self slot a subcategory
// occupies when itemsForSubcats is set on the parent is not counted
// here; GetItemCategory accounts for it when walking the index space.
func (n *Node) slotCount() int {
	count := n.TotalCount()
	return count
}

func (n *Node) markDirty() {
	n.dirty = true
	n.totalClean = false
	if n.parent != nil {
		n.parent.markDirty()
	}
	for _, cb := range n.subscribers {
		cb()
	}
}

// Subscription observes a single dirty bit on a Node. No diff is ever
// computed; the consumer is expected to recompute from scratch once
// Check reports dirty.
type Subscription struct {
	node  *Node
	dirty bool
}

// Subscribe registers a new Subscription against n. The subscription
// starts dirty so the first Check forces an initial read.
func (n *Node) Subscribe() *Subscription {
	s := &Subscription{node: n, dirty: true}
	n.subscribers = append(n.subscribers, func() { s.dirty = true })
	return s
}

// Dirty reports whether the source has changed since the last Check.
func (s *Subscription) Dirty() bool { return s.dirty }

// Check reports whether the source changed since the last Check, and
// clears the dirty bit as a side effect.
func (s *Subscription) Check() bool {
	was := s.dirty
	s.dirty = false
	return was
}

// GetItem fetches the value for a single logical index within the
// flattened address space rooted at n, using LookupLevel semantics
// equivalent to GetItemCategory(index, -1, true) followed by a leaf
// fetch.
func (n *Node) GetItem(index int) Value {
	owner, localIndex, isSelf := n.GetItemCategory(index, -1, true)
	if owner == nil {
		return nil
	}
	if isSelf {
		return owner.data
	}
	if owner.batchCB != nil {
		m := owner.batchCB(localIndex, 1)
		return m[localIndex]
	}
	if owner.sourceCB != nil {
		return owner.sourceCB(localIndex)
	}
	return nil
}

// GetSlice fetches a contiguous run of values. The requested range may
// span several categories, each with its own fetch callbacks, so it is
// partitioned into maximal runs that share the same owning category and
// addressing mode (a run never straddles a Self slot). Within each run,
// an owning category's BatchFetchFunc is called once over the run's
// full local-index span when present; otherwise GetSlice falls back to
// one FetchFunc call per index in that run. Either way the caller never
// observes a subset of the requested range.
func (n *Node) GetSlice(first, size int) map[int]Value {
	out := make(map[int]Value, size)
	end := first + size
	for i := first; i < end; {
		owner, localIndex, isSelf := n.GetItemCategory(i, -1, true)
		if owner == nil {
			i++
			continue
		}
		if isSelf {
			out[i] = owner.data
			i++
			continue
		}
		runStart, runLocal := i, localIndex
		runLen := 1
		for j := i + 1; j < end; j++ {
			o, l, self := n.GetItemCategory(j, -1, true)
			if o != owner || self || l != runLocal+runLen {
				break
			}
			runLen++
		}
		switch {
		case owner.batchCB != nil:
			m := owner.batchCB(runLocal, runLen)
			for k := 0; k < runLen; k++ {
				out[runStart+k] = m[runLocal+k]
			}
		case owner.sourceCB != nil:
			for k := 0; k < runLen; k++ {
				out[runStart+k] = owner.sourceCB(runLocal + k)
			}
		}
		i = runStart + runLen
	}
	return out
}

// GetItemCategory walks the tree to find the category that owns the
// given flattened index. level bounds how many levels of subcategory
// are traversed (-1 means unlimited). includeSubcats controls whether
// a subcategory's own Self slot is considered part of the flattened
// index space. It returns the owning node, the index expressed local to
// that node (meaningless when isSelf is true), and whether index
// addresses the node's own Self slot rather than one of its items.
func (n *Node) GetItemCategory(index int, level int, includeSubcats bool) (owner *Node, localIndex int, isSelf bool) {
	if index < 0 {
		return nil, 0, false
	}
	remaining := index
	if remaining < n.ownCount {
		return n, remaining, false
	}
	remaining -= n.ownCount
	if level == 0 {
		return n, remaining, false
	}
	nextLevel := level
	if nextLevel > 0 {
		nextLevel--
	}
	for _, sub := range n.subcategories {
		slots := sub.TotalCount()
		if includeSubcats && n.itemsForSubcats {
			slots++
		}
		if remaining < slots {
			if includeSubcats && n.itemsForSubcats {
				if remaining == 0 {
					return sub, 0, true
				}
				remaining--
			}
			return sub.GetItemCategory(remaining, nextLevel, includeSubcats)
		}
		remaining -= slots
	}
	return nil, 0, false
}

// SetCategoryBounds snaps the half-open window [first, first+count)
// outward to the nearest enclosing category boundaries so a sliced
// controller never splits a category across a slice edge. It returns
// the widened (first, count).
func (n *Node) SetCategoryBounds(first, count int, level int, includeSubcats bool) (int, int) {
	total := n.TotalCount()
	if first < 0 {
		first = 0
	}
	last := first + count
	if last > total {
		last = total
	}
	startOwner, _, _ := n.GetItemCategory(first, level, includeSubcats)
	endOwner, _, _ := n.GetItemCategory(max(last-1, 0), level, includeSubcats)

	newFirst := n.categoryStart(startOwner, level, includeSubcats)
	newLast := n.categoryEnd(endOwner, level, includeSubcats)
	if newLast > total {
		newLast = total
	}
	if newFirst < 0 {
		newFirst = 0
	}
	return newFirst, newLast - newFirst
}

// categoryStart and categoryEnd compute the absolute flattened index
// range owned by a given category node, including its Self slot if
// applicable. They fall back to 0/TotalCount() when owner is nil (a
// degenerate bound, "Bounds not yet known").
func (n *Node) categoryStart(owner *Node, level int, includeSubcats bool) int {
	if owner == nil {
		return 0
	}
	idx := 0
	found := n.findStart(owner, includeSubcats, &idx)
	if !found {
		return 0
	}
	return idx
}

func (n *Node) categoryEnd(owner *Node, level int, includeSubcats bool) int {
	if owner == nil {
		return n.TotalCount()
	}
	idx := 0
	found := n.findStart(owner, includeSubcats, &idx)
	if !found {
		return n.TotalCount()
	}
	width := owner.TotalCount()
	if includeSubcats && owner.parent != nil && owner.parent.itemsForSubcats {
		width++
	}
	return idx + width
}

// findStart performs a depth-first search for owner, accumulating the
// absolute start offset into *idx. It returns whether owner was found.
func (n *Node) findStart(owner *Node, includeSubcats bool, idx *int) bool {
	if n == owner {
		return true
	}
	*idx += n.ownCount
	for _, sub := range n.subcategories {
		if includeSubcats && n.itemsForSubcats {
			if sub == owner {
				return true
			}
			*idx++
		}
		if sub.findStart(owner, includeSubcats, idx) {
			return true
		}
	}
	return false
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// sortedCategoryIDs returns the CategoryIDs of nodes in ascending order.
func sortedCategoryIDs(nodes []*Node) []int {
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = n.CategoryID
	}
	sort.Ints(ids)
	return ids
}
