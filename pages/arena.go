package pages

import (
	"io"

	"github.com/dolthub/swiss"
	"github.com/pkg/errors"
	"golang.org/x/exp/slog"
)

type arenaSlot[P AllocablePage] struct {
	page P
	live bool
}

// Arena issues the Link handles that pages use to refer to one another. A page must be registered with
// an Arena before it can be inserted into a PageList built on that Arena, and every PageList sharing
// the Arena can hold the page.
//
// The Arena does not own pages or their memory. It is not safe for concurrent use: like the lists
// built on it, it must be guarded by the caller.
type Arena[P AllocablePage] struct {
	logger *slog.Logger

	slots     []arenaSlot[P]
	freeSlots []int
	handleKey *swiss.Map[uintptr, Link]
}

// NewArena creates an empty Arena. A nil logger discards all output.
func NewArena[P AllocablePage](logger *slog.Logger) *Arena[P] {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard))
	}

	return &Arena[P]{
		logger:    logger,
		handleKey: swiss.NewMap[uintptr, Link](42),
	}
}

// Register assigns a Link to the page, or returns its existing Link if it is already registered
func (a *Arena[P]) Register(page P) Link {
	if link, ok := a.handleKey.Get(page.BaseAddress()); ok {
		return link
	}

	var slot int
	if len(a.freeSlots) > 0 {
		slot = a.freeSlots[len(a.freeSlots)-1]
		a.freeSlots = a.freeSlots[:len(a.freeSlots)-1]
		a.slots[slot] = arenaSlot[P]{page: page, live: true}
	} else {
		slot = len(a.slots)
		a.slots = append(a.slots, arenaSlot[P]{page: page, live: true})
	}

	link := linkForSlot(slot)
	a.handleKey.Put(page.BaseAddress(), link)

	a.logger.Debug("registered page",
		slog.String("link", link.String()),
		slog.Int("pageSize", page.PageSize()),
	)
	return link
}

// Unregister releases the page's Link so that it can be reused. The page must not be in any list.
func (a *Arena[P]) Unregister(page P) error {
	link, ok := a.handleKey.Get(page.BaseAddress())
	if !ok {
		return errors.Errorf("page at %#x is not registered with this arena", page.BaseAddress())
	}

	if !page.Prev().IsNone() || !page.Next().IsNone() {
		return errors.Errorf("page %s cannot be unregistered while it is still linked into a list", link)
	}

	a.slots[link.slot()] = arenaSlot[P]{}
	a.freeSlots = append(a.freeSlots, link.slot())
	a.handleKey.Delete(page.BaseAddress())

	a.logger.Debug("unregistered page",
		slog.String("link", link.String()),
	)
	return nil
}

// Release unregisters the page if it is registered and then returns its memory to supplier. The page must
// not be in any list: a linked page is left registered and its memory is not released.
func (a *Arena[P]) Release(supplier PageSupplier, page P) error {
	if !a.LinkOf(page).IsNone() {
		err := a.Unregister(page)
		if err != nil {
			return err
		}
	}

	return ReleasePage(supplier, page)
}

// LinkOf returns the Link assigned to the page, or NoLink if the page is not registered
func (a *Arena[P]) LinkOf(page P) Link {
	link, ok := a.handleKey.Get(page.BaseAddress())
	if !ok {
		return NoLink
	}
	return link
}

// Resolve returns the page that link refers to. It returns false for NoLink and for links that
// are not currently assigned by this arena.
func (a *Arena[P]) Resolve(link Link) (P, bool) {
	var zero P
	if link.IsNone() || link.slot() >= len(a.slots) {
		return zero, false
	}

	slot := a.slots[link.slot()]
	if !slot.live {
		return zero, false
	}

	return slot.page, true
}

// Len returns the number of registered pages
func (a *Arena[P]) Len() int {
	return a.handleKey.Count()
}

func (a *Arena[P]) mustLinkOf(page P) Link {
	link := a.LinkOf(page)
	if link.IsNone() {
		panic("page is not registered with the list's arena")
	}
	return link
}

func (a *Arena[P]) mustResolve(link Link) (P, bool) {
	if link.IsNone() {
		var zero P
		return zero, false
	}

	page, ok := a.Resolve(link)
	if !ok {
		panic("a page link refers to a page that is not registered with the list's arena")
	}
	return page, true
}
