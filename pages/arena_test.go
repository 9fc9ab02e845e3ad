package pages_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/slabmalloc/pages"
	"github.com/vkngwrapper/slabmalloc/supplier"
)

func TestArenaRegister(t *testing.T) {
	heap := supplier.NewHeapSupplier(nil, supplier.Options{})
	arena := pages.NewArena[*pages.ObjectPage](nil)

	first := newTestObjectPage(t, heap)
	second := newTestObjectPage(t, heap)

	require.True(t, arena.LinkOf(first).IsNone())

	firstLink := arena.Register(first)
	require.False(t, firstLink.IsNone())
	require.Equal(t, firstLink, arena.Register(first))
	require.Equal(t, firstLink, arena.LinkOf(first))

	secondLink := arena.Register(second)
	require.NotEqual(t, firstLink, secondLink)
	require.Equal(t, 2, arena.Len())

	page, ok := arena.Resolve(secondLink)
	require.True(t, ok)
	require.Same(t, second, page)

	_, ok = arena.Resolve(pages.NoLink)
	require.False(t, ok)
	_, ok = arena.Resolve(pages.Link(1000))
	require.False(t, ok)
}

func TestArenaUnregisterReusesLinks(t *testing.T) {
	heap := supplier.NewHeapSupplier(nil, supplier.Options{})
	arena := pages.NewArena[*pages.ObjectPage](nil)

	first := newTestObjectPage(t, heap)
	second := newTestObjectPage(t, heap)

	firstLink := arena.Register(first)
	require.NoError(t, arena.Unregister(first))
	require.Zero(t, arena.Len())
	require.True(t, arena.LinkOf(first).IsNone())

	_, ok := arena.Resolve(firstLink)
	require.False(t, ok)

	require.Error(t, arena.Unregister(first))

	require.Equal(t, firstLink, arena.Register(second))
	page, ok := arena.Resolve(firstLink)
	require.True(t, ok)
	require.Same(t, second, page)
}

func TestArenaRefusesToUnregisterLinkedPage(t *testing.T) {
	list, objectPages := newTestList(t, 2)
	arena := list.Arena()

	list.InsertFront(objectPages[0])
	list.InsertFront(objectPages[1])

	require.Error(t, arena.Unregister(objectPages[0]))
	require.Error(t, arena.Unregister(objectPages[1]))
	require.Equal(t, 2, arena.Len())

	list.RemoveFromList(objectPages[0])
	require.NoError(t, arena.Unregister(objectPages[0]))
	requireChain(t, list, objectPages[1])
}

func TestLinkTake(t *testing.T) {
	link := pages.Link(3)
	require.Equal(t, "page#2", link.String())

	taken := link.Take()
	require.Equal(t, pages.Link(3), taken)
	require.True(t, link.IsNone())
	require.Equal(t, "none", link.String())
}

func TestArenaRelease(t *testing.T) {
	heap := supplier.NewHeapSupplier(nil, supplier.Options{})
	arena := pages.NewArena[*pages.ObjectPage](nil)
	list := pages.NewPageList(arena)

	linked, err := pages.NewObjectPage(heap)
	require.NoError(t, err)
	loose, err := pages.NewObjectPage(heap)
	require.NoError(t, err)
	unregistered, err := pages.NewObjectPage(heap)
	require.NoError(t, err)

	arena.Register(linked)
	looseLink := arena.Register(loose)
	list.InsertFront(linked)
	require.Equal(t, 3, heap.LivePages())

	require.Error(t, arena.Release(heap, linked))
	require.False(t, arena.LinkOf(linked).IsNone())
	require.Equal(t, 3, heap.LivePages())

	require.NoError(t, arena.Release(heap, loose))
	require.True(t, arena.LinkOf(loose).IsNone())
	_, ok := arena.Resolve(looseLink)
	require.False(t, ok)
	require.Equal(t, 1, arena.Len())
	require.Equal(t, 2, heap.LivePages())

	require.NoError(t, arena.Release(heap, unregistered))
	require.Equal(t, 1, heap.LivePages())

	list.RemoveFromList(linked)
	require.NoError(t, arena.Release(heap, linked))
	require.Zero(t, arena.Len())
	require.Zero(t, heap.LivePages())
}
