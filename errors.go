package slabmalloc

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"
)

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

var (
	// ErrOutOfMemory is matched by AllocationError values of kind AllocationErrorOutOfMemory
	ErrOutOfMemory error = errors.New("page supplier could not provide memory")
	// ErrInvalidLayout is matched by AllocationError values of kind AllocationErrorInvalidLayout
	ErrInvalidLayout error = errors.New("invalid allocation layout")
	// ErrMisalignedPointer is matched by AllocationError values of kind AllocationErrorMisalignedPointer
	ErrMisalignedPointer error = errors.New("pointer is not at an object boundary for the provided layout")
	// ErrNotAllocated is matched by AllocationError values of kind AllocationErrorNotAllocated
	ErrNotAllocated error = errors.New("pointer does not address an allocated object")
	// ErrForeignPointer is matched by AllocationError values of kind AllocationErrorForeignPointer
	ErrForeignPointer error = errors.New("pointer does not belong to this page")
)

// AllocationErrorKind identifies the class of failure reported by an AllocationError
type AllocationErrorKind uint32

const (
	// AllocationErrorOutOfMemory indicates that backing memory could not be obtained for a new page
	AllocationErrorOutOfMemory AllocationErrorKind = iota
	// AllocationErrorInvalidLayout indicates that a layout had a non-positive size or an alignment that was
	// not a power of two
	AllocationErrorInvalidLayout
	// AllocationErrorMisalignedPointer indicates that a pointer passed to Deallocate was not a multiple of
	// the layout size from the start of its page
	AllocationErrorMisalignedPointer
	// AllocationErrorNotAllocated indicates that a pointer passed to Deallocate addressed a slot that
	// was already free. This is usually a double free.
	AllocationErrorNotAllocated
	// AllocationErrorForeignPointer indicates that a pointer passed to Deallocate does not lie within the
	// tracked data region of the page it was passed to
	AllocationErrorForeignPointer
)

var allocationErrorKindMapping = map[AllocationErrorKind]string{
	AllocationErrorOutOfMemory:       "AllocationErrorOutOfMemory",
	AllocationErrorInvalidLayout:     "AllocationErrorInvalidLayout",
	AllocationErrorMisalignedPointer: "AllocationErrorMisalignedPointer",
	AllocationErrorNotAllocated:      "AllocationErrorNotAllocated",
	AllocationErrorForeignPointer:    "AllocationErrorForeignPointer",
}

func (k AllocationErrorKind) String() string {
	return allocationErrorKindMapping[k]
}

var allocationErrorSentinels = map[AllocationErrorKind]error{
	AllocationErrorOutOfMemory:       ErrOutOfMemory,
	AllocationErrorInvalidLayout:     ErrInvalidLayout,
	AllocationErrorMisalignedPointer: ErrMisalignedPointer,
	AllocationErrorNotAllocated:      ErrNotAllocated,
	AllocationErrorForeignPointer:    ErrForeignPointer,
}

// AllocationError is returned when a caller breaks one of the allocator's contracts, such as freeing
// an object twice. These errors indicate a bug in the caller and retrying the operation is never meaningful.
//
// Exhaustion of a page is not an AllocationError: it is reported through a nil pointer from Allocate.
type AllocationError struct {
	Kind    AllocationErrorKind
	Address uintptr
	Layout  Layout
}

// NewAllocationError builds an AllocationError of the requested kind with a stack trace attached
func NewAllocationError(kind AllocationErrorKind, address uintptr, layout Layout) error {
	return cerrors.WithStackDepth(&AllocationError{
		Kind:    kind,
		Address: address,
		Layout:  layout,
	}, 1)
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("%s: address %#x, layout %s", e.Unwrap().Error(), e.Address, e.Layout)
}

// Unwrap returns the sentinel error for this error's kind, allowing errors.Is(err, ErrNotAllocated) and similar
func (e *AllocationError) Unwrap() error {
	sentinel, ok := allocationErrorSentinels[e.Kind]
	if !ok {
		return errors.Errorf("unknown allocation error kind %d", e.Kind)
	}
	return sentinel
}
