package pages

import (
	"iter"

	"github.com/pkg/errors"
	"github.com/vkngwrapper/slabmalloc"
)

// PageList is an intrusive doubly-linked list of pages: the links live inside the pages themselves, so
// the list never allocates. Size-class managers keep several of these, typically one for pages with free
// slots and one for full pages, all sharing a single Arena.
//
// PageList is not safe for concurrent use. Every method must be serialized by the caller, and the list
// must not be mutated while a PageIterator created from it is still in use.
type PageList[P AllocablePage] struct {
	arena *Arena[P]

	head     Link
	elements int
}

// NewPageList creates an empty list whose pages are registered with arena
func NewPageList[P AllocablePage](arena *Arena[P]) *PageList[P] {
	if arena == nil {
		panic("attempted to create a page list without an arena")
	}

	return &PageList[P]{arena: arena}
}

// Arena returns the arena that this list's pages are registered with
func (l *PageList[P]) Arena() *Arena[P] {
	return l.arena
}

// Len returns the number of pages in the list
func (l *PageList[P]) Len() int {
	return l.elements
}

// IsEmpty reports whether the list has no pages
func (l *PageList[P]) IsEmpty() bool {
	return l.head.IsNone()
}

// Head returns the first page in the list, if any
func (l *PageList[P]) Head() (P, bool) {
	return l.arena.mustResolve(l.head)
}

// InsertFront makes newHead the first page in the list. newHead must be registered with the list's
// arena and must not currently be in any list.
func (l *PageList[P]) InsertFront(newHead P) {
	newLink := l.arena.mustLinkOf(newHead)

	*newHead.Prev() = NoLink
	if head, ok := l.arena.mustResolve(l.head); ok {
		*head.Prev() = newLink
		*newHead.Next() = l.head
	} else {
		*newHead.Next() = NoLink
	}

	l.head = newLink
	l.elements++

	slabmalloc.DebugValidate(l)
}

// RemoveFromList unlinks page from the list and clears its links.
//
// page must currently be a member of this list. Passing a page from another list, or a page that is in
// no list at all, corrupts both lists: this is not checked outside of debug builds.
func (l *PageList[P]) RemoveFromList(page P) {
	prevLink := *page.Prev()
	nextLink := *page.Next()

	if prev, ok := l.arena.mustResolve(prevLink); ok {
		*prev.Next() = nextLink
	} else {
		l.head = nextLink
	}

	if next, ok := l.arena.mustResolve(nextLink); ok {
		*next.Prev() = prevLink
	}

	page.Prev().Take()
	page.Next().Take()
	l.elements--

	slabmalloc.DebugValidate(l)
}

// Pop removes the first page from the list and returns it with its links cleared. It returns false
// if the list is empty.
func (l *PageList[P]) Pop() (P, bool) {
	head, ok := l.arena.mustResolve(l.head)
	if !ok {
		return head, false
	}

	l.head = head.Next().Take()
	if newHead, ok := l.arena.mustResolve(l.head); ok {
		*newHead.Prev() = NoLink
	}
	head.Prev().Take()
	l.elements--

	slabmalloc.DebugValidate(l)
	return head, true
}

// Contains reports whether target can be reached from the head of the list. It is O(n) in the length
// of the list.
func (l *PageList[P]) Contains(target P) bool {
	addr := target.BaseAddress()
	for page := range l.All() {
		if page.BaseAddress() == addr {
			return true
		}
	}

	return false
}

// IterMut returns an iterator over the pages currently in the list, starting from the head. The
// iterator walks the chain lazily and cannot be restarted.
func (l *PageList[P]) IterMut() *PageIterator[P] {
	return &PageIterator[P]{
		arena: l.arena,
		next:  l.head,
	}
}

// All adapts IterMut for use with range
func (l *PageList[P]) All() iter.Seq[P] {
	return func(yield func(P) bool) {
		it := l.IterMut()
		for {
			page, ok := it.Next()
			if !ok || !yield(page) {
				return
			}
		}
	}
}

// Validate walks the list in both directions and returns an error if the links are inconsistent
// or the element count is wrong
func (l *PageList[P]) Validate() error {
	if l.head.IsNone() {
		if l.elements != 0 {
			return errors.Errorf("the list is empty but claims to have %d elements", l.elements)
		}
		return nil
	}

	head, ok := l.arena.Resolve(l.head)
	if !ok {
		return errors.Errorf("the list head %s is not registered with the list's arena", l.head)
	}
	if !head.Prev().IsNone() {
		return errors.Errorf("the list head %s has a previous page %s", l.head, *head.Prev())
	}

	maxCount := l.arena.Len()
	count := 0
	currentLink := l.head
	for page := head; ; {
		count++
		if count > maxCount {
			return errors.Errorf("the list contains a cycle: walked %d pages but only %d are registered", count, maxCount)
		}

		nextLink := *page.Next()
		if nextLink.IsNone() {
			break
		}

		next, ok := l.arena.Resolve(nextLink)
		if !ok {
			return errors.Errorf("page %s links to %s as its next page, but it is not registered with the list's arena", currentLink, nextLink)
		}
		if *next.Prev() != currentLink {
			return errors.Errorf("page %s lists page %s as its next page, but the reverse reference is %s", currentLink, nextLink, *next.Prev())
		}

		page = next
		currentLink = nextLink
	}

	if count != l.elements {
		return errors.Errorf("the list claims to have %d elements, but %d pages are reachable from the head", l.elements, count)
	}

	return nil
}

// PageIterator walks a PageList from head to tail. The page most recently returned by Next may be removed
// from the list without disturbing the iterator, but any other mutation of the list invalidates it.
type PageIterator[P AllocablePage] struct {
	arena *Arena[P]
	next  Link
}

// Next returns the next page, or false once the end of the list has been reached
func (it *PageIterator[P]) Next() (P, bool) {
	page, ok := it.arena.mustResolve(it.next)
	if !ok {
		return page, false
	}

	it.next = *page.Next()
	return page, true
}
