package source

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatSource(count int) *Node {
	n := NewNode(0, false)
	n.SetChildsCount(count)
	n.SetSourceFunc(func(index int) Value {
		return fmt.Sprintf("item-%03d", index)
	})
	return n
}

func TestGetItemLeaf(t *testing.T) {
	n := flatSource(10)
	assert.Equal(t, "item-003", n.GetItem(3))
}

func TestGetSliceWithoutBatchJoinsIndividualFetches(t *testing.T) {
	n := flatSource(10)
	got := n.GetSlice(2, 4)
	require.Len(t, got, 4)
	for i := 2; i < 6; i++ {
		assert.Equal(t, fmt.Sprintf("item-%03d", i), got[i])
	}
}

func TestGetItemUsesBatchFuncWhenPresent(t *testing.T) {
	n := NewNode(0, false)
	n.SetChildsCount(10)
	var batchCalls int
	n.SetBatchFunc(func(first, size int) map[int]Value {
		batchCalls++
		out := make(map[int]Value, size)
		for i := first; i < first+size; i++ {
			out[i] = fmt.Sprintf("batch-%03d", i)
		}
		return out
	})
	got := n.GetItem(4)
	assert.Equal(t, "batch-004", got)
	assert.Equal(t, 1, batchCalls)
}

func TestGetSliceBatchesContiguousRunInOneCall(t *testing.T) {
	n := NewNode(0, false)
	n.SetChildsCount(10)
	var batchCalls int
	var gotFirst, gotSize int
	n.SetBatchFunc(func(first, size int) map[int]Value {
		batchCalls++
		gotFirst, gotSize = first, size
		out := make(map[int]Value, size)
		for i := first; i < first+size; i++ {
			out[i] = fmt.Sprintf("batch-%03d", i)
		}
		return out
	})
	got := n.GetSlice(2, 5)
	require.Len(t, got, 5)
	for i := 2; i < 7; i++ {
		assert.Equal(t, fmt.Sprintf("batch-%03d", i), got[i])
	}
	assert.Equal(t, 1, batchCalls, "a single contiguous run should be fetched in one batch call")
	assert.Equal(t, 2, gotFirst)
	assert.Equal(t, 5, gotSize)
}

func TestGetSliceSplitsBatchCallsAcrossCategories(t *testing.T) {
	root := NewNode(0, false)
	a := NewNode(1, false)
	a.SetChildsCount(4) // indices 0-3
	var aCalls []int
	a.SetBatchFunc(func(first, size int) map[int]Value {
		aCalls = append(aCalls, first, size)
		out := make(map[int]Value, size)
		for i := first; i < first+size; i++ {
			out[i] = fmt.Sprintf("a-%03d", i)
		}
		return out
	})
	b := NewNode(2, false)
	b.SetChildsCount(4) // indices 4-7
	var bCalls []int
	b.SetBatchFunc(func(first, size int) map[int]Value {
		bCalls = append(bCalls, first, size)
		out := make(map[int]Value, size)
		for i := first; i < first+size; i++ {
			out[i] = fmt.Sprintf("b-%03d", i)
		}
		return out
	})
	root.AddSubcategory(a)
	root.AddSubcategory(b)

	// Window [2,8) straddles a (local 2-3) and b (local 0-3): two batch
	// calls, each scoped to the local index space of its own category.
	got := root.GetSlice(2, 6)
	require.Len(t, got, 6)
	assert.Equal(t, "a-002", got[2])
	assert.Equal(t, "a-003", got[3])
	assert.Equal(t, "b-000", got[4])
	assert.Equal(t, "b-003", got[7])
	assert.Equal(t, []int{2, 2}, aCalls)
	assert.Equal(t, []int{0, 4}, bCalls)
}

func TestTotalCountAggregatesSubcategories(t *testing.T) {
	root := NewNode(0, false)
	root.SetChildsCount(3)
	a := NewNode(1, false)
	a.SetChildsCount(5)
	b := NewNode(2, false)
	b.SetChildsCount(2)
	root.AddSubcategory(a)
	root.AddSubcategory(b)

	assert.Equal(t, 3+5+2, root.TotalCount())
}

func TestGetItemCategoryWalksTree(t *testing.T) {
	root := NewNode(0, false)
	root.SetChildsCount(2) // indices 0,1 are root's own items
	child := NewNode(1, false)
	child.SetChildsCount(3) // indices 2,3,4 belong to child
	root.AddSubcategory(child)

	owner, localIndex, isSelf := root.GetItemCategory(0, -1, true)
	assert.Same(t, root, owner)
	assert.Equal(t, 0, localIndex)
	assert.False(t, isSelf)

	owner, localIndex, isSelf = root.GetItemCategory(3, -1, true)
	assert.Same(t, child, owner)
	assert.Equal(t, 1, localIndex, "index 3 is child's second item (root owns 0,1)")
	assert.False(t, isSelf)
}

func TestGetItemCategorySelfSlotWhenItemsForSubcats(t *testing.T) {
	root := NewNode(0, true) // itemsForSubcats: child root occupies a slot
	child := NewNode(1, false)
	child.SetChildsCount(2)
	root.AddSubcategory(child)

	// Index 0 is the child's own Self slot.
	owner, _, isSelf := root.GetItemCategory(0, -1, true)
	assert.Same(t, child, owner)
	assert.True(t, isSelf)

	// Index 1 and 2 are the child's items.
	owner, localIndex, isSelf := root.GetItemCategory(1, -1, true)
	assert.Same(t, child, owner)
	assert.Equal(t, 0, localIndex)
	assert.False(t, isSelf)
}

func TestSubscriptionDirtyOnMutation(t *testing.T) {
	root := NewNode(0, false)
	sub := root.Subscribe()
	require.True(t, sub.Check(), "subscription should start dirty")
	assert.False(t, sub.Dirty())

	root.SetChildsCount(5)
	assert.True(t, sub.Dirty())
	assert.True(t, sub.Check())
	assert.False(t, sub.Dirty())
}

func TestSetCategoryBoundsSnapsToCategoryEdges(t *testing.T) {
	root := NewNode(0, false)
	a := NewNode(1, false)
	a.SetChildsCount(4) // indices 0-3
	b := NewNode(2, false)
	b.SetChildsCount(4) // indices 4-7
	c := NewNode(3, false)
	c.SetChildsCount(4) // indices 8-11
	root.AddSubcategory(a)
	root.AddSubcategory(b)
	root.AddSubcategory(c)

	// A window entirely inside category b should widen to b's bounds.
	first, count := root.SetCategoryBounds(5, 1, -1, true)
	assert.Equal(t, 4, first)
	assert.Equal(t, 4, count)
}

func TestMarkDirtyPropagatesToParent(t *testing.T) {
	root := NewNode(0, false)
	child := NewNode(1, false)
	root.AddSubcategory(child)
	rootSub := root.Subscribe()
	rootSub.Check()

	child.SetChildsCount(2)
	assert.True(t, rootSub.Dirty(), "parent subscription should observe child mutation")
}
