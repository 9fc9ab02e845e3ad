package pages

import "fmt"

// Link is a non-owning reference from one page to another, stored inside the page itself. A Link is
// a handle into an Arena: it carries no lifetime or ownership responsibility and is only meaningful
// when resolved through the Arena that issued it.
//
// You probably won't need to use this type directly unless you're implementing AllocablePage for a
// custom page size.
type Link uint64

// NoLink is the empty link
const NoLink Link = 0

func linkForSlot(slot int) Link {
	return Link(slot + 1)
}

// IsNone reports whether the link is empty
func (l Link) IsNone() bool {
	return l == NoLink
}

func (l Link) slot() int {
	return int(l) - 1
}

// Take returns the current value of the link and replaces it with NoLink
func (l *Link) Take() Link {
	value := *l
	*l = NoLink
	return value
}

func (l Link) String() string {
	if l.IsNone() {
		return "none"
	}
	return fmt.Sprintf("page#%d", l.slot())
}
