package pages_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/slabmalloc/pages"
	"github.com/vkngwrapper/slabmalloc/supplier"
)

func newTestList(t *testing.T, count int) (*pages.PageList[*pages.ObjectPage], []*pages.ObjectPage) {
	t.Helper()

	heap := supplier.NewHeapSupplier(nil, supplier.Options{})
	arena := pages.NewArena[*pages.ObjectPage](nil)
	list := pages.NewPageList(arena)

	objectPages := make([]*pages.ObjectPage, 0, count)
	for i := 0; i < count; i++ {
		page := newTestObjectPage(t, heap)
		pages.InitializePage(page, 64)
		arena.Register(page)
		objectPages = append(objectPages, page)
	}

	// Runs before the pages are released
	t.Cleanup(func() {
		for _, page := range objectPages {
			page.Prev().Take()
			page.Next().Take()
		}
	})

	return list, objectPages
}

func requireChain(t *testing.T, list *pages.PageList[*pages.ObjectPage], expected ...*pages.ObjectPage) {
	t.Helper()

	var actual []*pages.ObjectPage
	for page := range list.All() {
		actual = append(actual, page)
	}

	require.Equal(t, expected, actual)
	require.Equal(t, len(expected), list.Len())
	require.Equal(t, len(expected) == 0, list.IsEmpty())
	require.NoError(t, list.Validate())

	if len(expected) > 0 {
		require.True(t, expected[0].Prev().IsNone())
		require.True(t, expected[len(expected)-1].Next().IsNone())
	}
}

func TestPageListInsertPopRemove(t *testing.T) {
	list, objectPages := newTestList(t, 3)
	a, b, c := objectPages[0], objectPages[1], objectPages[2]

	requireChain(t, list)

	list.InsertFront(a)
	list.InsertFront(b)
	list.InsertFront(c)

	head, ok := list.Head()
	require.True(t, ok)
	require.Same(t, c, head)
	requireChain(t, list, c, b, a)

	popped, ok := list.Pop()
	require.True(t, ok)
	require.Same(t, c, popped)
	require.True(t, c.Prev().IsNone())
	require.True(t, c.Next().IsNone())

	head, ok = list.Head()
	require.True(t, ok)
	require.Same(t, b, head)
	requireChain(t, list, b, a)

	list.RemoveFromList(a)
	require.True(t, a.Prev().IsNone())
	require.True(t, a.Next().IsNone())

	head, ok = list.Head()
	require.True(t, ok)
	require.Same(t, b, head)
	requireChain(t, list, b)
}

func TestPageListRemoveMiddleAndHead(t *testing.T) {
	list, objectPages := newTestList(t, 4)
	for _, page := range objectPages {
		list.InsertFront(page)
	}
	requireChain(t, list, objectPages[3], objectPages[2], objectPages[1], objectPages[0])

	list.RemoveFromList(objectPages[2])
	requireChain(t, list, objectPages[3], objectPages[1], objectPages[0])

	list.RemoveFromList(objectPages[3])
	requireChain(t, list, objectPages[1], objectPages[0])

	list.RemoveFromList(objectPages[0])
	requireChain(t, list, objectPages[1])

	list.RemoveFromList(objectPages[1])
	requireChain(t, list)
}

func TestPageListPopEmpty(t *testing.T) {
	list, objectPages := newTestList(t, 1)

	page, ok := list.Pop()
	require.False(t, ok)
	require.Nil(t, page)

	_, ok = list.Head()
	require.False(t, ok)

	list.InsertFront(objectPages[0])
	page, ok = list.Pop()
	require.True(t, ok)
	require.Same(t, objectPages[0], page)
	requireChain(t, list)

	_, ok = list.Pop()
	require.False(t, ok)
}

func TestPageListContains(t *testing.T) {
	list, objectPages := newTestList(t, 3)

	for _, page := range objectPages {
		require.False(t, list.Contains(page))
	}

	list.InsertFront(objectPages[0])
	list.InsertFront(objectPages[2])

	require.True(t, list.Contains(objectPages[0]))
	require.False(t, list.Contains(objectPages[1]))
	require.True(t, list.Contains(objectPages[2]))

	list.RemoveFromList(objectPages[0])
	require.False(t, list.Contains(objectPages[0]))
	require.True(t, list.Contains(objectPages[2]))
}

func TestPageListMovesPagesBetweenLists(t *testing.T) {
	available, objectPages := newTestList(t, 3)
	full := pages.NewPageList(available.Arena())

	for _, page := range objectPages {
		available.InsertFront(page)
	}

	available.RemoveFromList(objectPages[1])
	full.InsertFront(objectPages[1])

	requireChain(t, available, objectPages[2], objectPages[0])
	requireChain(t, full, objectPages[1])
	require.False(t, available.Contains(objectPages[1]))
	require.True(t, full.Contains(objectPages[1]))

	page, ok := full.Pop()
	require.True(t, ok)
	available.InsertFront(page)
	requireChain(t, available, objectPages[1], objectPages[2], objectPages[0])
	requireChain(t, full)
}

func TestPageIteratorAllowsRemovingCurrent(t *testing.T) {
	list, objectPages := newTestList(t, 5)
	for _, page := range objectPages {
		list.InsertFront(page)
	}

	var visited []*pages.ObjectPage
	it := list.IterMut()
	for {
		page, ok := it.Next()
		if !ok {
			break
		}

		visited = append(visited, page)
		if page == objectPages[3] || page == objectPages[1] {
			list.RemoveFromList(page)
		}
	}

	require.Equal(t, []*pages.ObjectPage{objectPages[4], objectPages[3], objectPages[2], objectPages[1], objectPages[0]}, visited)
	requireChain(t, list, objectPages[4], objectPages[2], objectPages[0])

	_, ok := it.Next()
	require.False(t, ok)
}

func TestPageListAllStopsEarly(t *testing.T) {
	list, objectPages := newTestList(t, 3)
	for _, page := range objectPages {
		list.InsertFront(page)
	}

	count := 0
	for range list.All() {
		count++
		if count == 2 {
			break
		}
	}
	require.Equal(t, 2, count)
}

func TestPageListValidateDetectsCorruption(t *testing.T) {
	list, objectPages := newTestList(t, 3)
	for _, page := range objectPages {
		list.InsertFront(page)
	}
	require.NoError(t, list.Validate())

	arena := list.Arena()
	head := objectPages[2]
	middle := objectPages[1]
	tail := objectPages[0]

	// Broken reverse reference
	savedPrev := *tail.Prev()
	*tail.Prev() = arena.LinkOf(head)
	require.Error(t, list.Validate())
	*tail.Prev() = savedPrev
	require.NoError(t, list.Validate())

	// Head with a previous page
	*head.Prev() = arena.LinkOf(tail)
	require.Error(t, list.Validate())
	*head.Prev() = pages.NoLink

	// Cycle
	*tail.Next() = arena.LinkOf(head)
	require.Error(t, list.Validate())
	*tail.Next() = pages.NoLink

	// Dangling link
	savedNext := *middle.Next()
	*middle.Next() = pages.Link(99)
	require.Error(t, list.Validate())
	*middle.Next() = savedNext

	require.NoError(t, list.Validate())
}

func TestPageListRejectsUnregisteredPage(t *testing.T) {
	heap := supplier.NewHeapSupplier(nil, supplier.Options{})
	arena := pages.NewArena[*pages.ObjectPage](nil)
	list := pages.NewPageList(arena)

	page := newTestObjectPage(t, heap)
	require.Panics(t, func() {
		list.InsertFront(page)
	})
	require.True(t, list.IsEmpty())

	require.Panics(t, func() {
		pages.NewPageList[*pages.ObjectPage](nil)
	})
}
