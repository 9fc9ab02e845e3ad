package slabmalloc

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
)

// Layout describes the memory shape an allocation must satisfy: the object size in bytes and the
// minimum alignment of the object's address in bytes.
type Layout struct {
	Size  int
	Align int
}

// NewLayout builds a Layout, failing with an AllocationError of kind AllocationErrorInvalidLayout
// if size is not positive or align is not a power of two.
func NewLayout(size, align int) (Layout, error) {
	layout := Layout{Size: size, Align: align}
	if err := layout.Validate(); err != nil {
		return Layout{}, err
	}

	return layout, nil
}

// Validate returns an error if the layout cannot be used to allocate
func (l Layout) Validate() error {
	if l.Size < 1 {
		return cerrors.Wrapf(NewAllocationError(AllocationErrorInvalidLayout, 0, l), "size is %d", l.Size)
	}
	if err := CheckPow2(l.Align, "alignment"); err != nil {
		return cerrors.WithSecondaryError(NewAllocationError(AllocationErrorInvalidLayout, 0, l), err)
	}

	return nil
}

func (l Layout) String() string {
	return fmt.Sprintf("{size: %d, align: %d}", l.Size, l.Align)
}
