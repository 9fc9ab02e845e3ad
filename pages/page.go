package pages

import (
	"fmt"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/slabmalloc"
)

// AllocablePage is a single page of memory that objects can be allocated from. The page is divided into
// a data region that holds objects, followed by the page's metadata: a next Link, a prev Link, and an
// occupancy Bitmap, in that order. The page must be exactly PageSize() bytes long and its first byte must
// be aligned to PageSize(), since Deallocate locates an object's slot by masking its address.
//
// A page never owns its neighbors: links are handles that are resolved through an Arena, and the page
// itself is owned by whatever supplied its memory.
type AllocablePage interface {
	// PageSize returns the total size in bytes of the page, including metadata. It is always a power of two.
	PageSize() int
	// Data returns the page's data region, the bytes that objects are allocated from
	Data() []byte
	// BaseAddress returns the address of the first byte of the page
	BaseAddress() uintptr

	// Bitmap returns the page's occupancy bitmap. Callers should only mutate it through Initialize,
	// which must happen whenever the page is assigned to a new object size. InitializePage does this
	// and also poisons the data region in debug builds. Calling Bitmap().Initialize directly is allowed,
	// but the page's slots are then not checked for writes after free.
	Bitmap() *Bitmap
	// Prev returns the page's link to the previous page in whatever PageList it belongs to
	Prev() *Link
	// Next returns the page's link to the next page in whatever PageList it belongs to
	Next() *Link

	// FirstFit tries to find a free slot within the data region that satisfies the layout. It returns
	// the slot index and the object's address if one is found.
	FirstFit(layout slabmalloc.Layout) (int, uintptr, bool)
	// Allocate tries to allocate an object within this page. It returns nil when the page cannot satisfy
	// the request, in which case the caller should try another page.
	//
	// Allocate is not safe to call concurrently with another Allocate on the same page: two callers could
	// find the same slot and both believe they own it. Allocation must be serialized by the caller.
	Allocate(layout slabmalloc.Layout) unsafe.Pointer
	// IsFull reports whether no further objects can be allocated from the page
	IsFull() bool
	// IsEmpty reports whether the page currently has no allocations. relevantBits should be the number
	// of slots the page was initialized with (see RelevantBits).
	IsEmpty(relevantBits int) bool
	// Deallocate frees the object at ptr. It may be called from any goroutine at any time. An
	// AllocationError is returned if ptr does not address an allocated object of this page for the
	// provided layout: this is a bug in the caller and must not be retried.
	Deallocate(ptr unsafe.Pointer, layout slabmalloc.Layout) error
	// FreeObjCount returns the number of free slots in the page's bitmap
	FreeObjCount() int
}

//go:generate mockgen -destination=mocks/mock_page_supplier.go -package=mock_pages . PageSupplier

// PageSupplier provides raw memory for pages. Every pointer returned by AllocatePage must address size
// bytes aligned to size.
type PageSupplier interface {
	AllocatePage(size int) (unsafe.Pointer, error)
	ReleasePage(ptr unsafe.Pointer, size int) error
}

// InitializePage configures the page to hold objects of objectSize bytes. Every slot is freed, and any
// bitmap bits that do not correspond to a slot within the data region are permanently allocated.
func InitializePage(page AllocablePage, objectSize int) {
	data := page.Data()
	page.Bitmap().Initialize(objectSize, len(data))
	slabmalloc.WritePoison(unsafe.Pointer(unsafe.SliceData(data)), 0, len(data))
	slabmalloc.TrackPoison(uintptr(unsafe.Pointer(page.Bitmap())))
}

// PageRelevantBits returns the number of slots a page has when it is configured for objectSize bytes
func PageRelevantBits(page AllocablePage, objectSize int) int {
	return RelevantBits(objectSize, page.PageSize()-MetadataOverhead)
}

// ReleasePage returns a page's memory to the supplier it came from. The page must not be part of any list.
// A page registered with an Arena must be unregistered before it is released, otherwise the arena keeps
// resolving its Link to freed memory. Arena.Release does both.
func ReleasePage(supplier PageSupplier, page AllocablePage) error {
	if !page.Prev().IsNone() || !page.Next().IsNone() {
		return errors.Errorf("attempted to release page at %#x while it is still linked into a list", page.BaseAddress())
	}

	slabmalloc.ForgetPoison(uintptr(unsafe.Pointer(page.Bitmap())))

	return supplier.ReleasePage(unsafe.Pointer(unsafe.SliceData(page.Data())), page.PageSize())
}

func pageAt[T any](ptr unsafe.Pointer, pageSize int) (*T, error) {
	if ptr == nil {
		return nil, errors.New("attempted to place a page at a nil address")
	}
	if !slabmalloc.IsAligned(uintptr(ptr), uintptr(pageSize)) {
		return nil, errors.Errorf("memory at %#x is not aligned to the page size %d", uintptr(ptr), pageSize)
	}

	return (*T)(ptr), nil
}

func newPage[T any](supplier PageSupplier, pageSize int) (*T, error) {
	ptr, err := supplier.AllocatePage(pageSize)
	if err != nil {
		allocErr := slabmalloc.NewAllocationError(slabmalloc.AllocationErrorOutOfMemory, 0, slabmalloc.Layout{Size: pageSize, Align: pageSize})
		return nil, cerrors.WithSecondaryError(allocErr, err)
	}

	page, err := pageAt[T](ptr, pageSize)
	if err != nil {
		releaseErr := supplier.ReleasePage(ptr, pageSize)
		if releaseErr != nil {
			return nil, cerrors.CombineErrors(err, releaseErr)
		}
		return nil, err
	}

	return page, nil
}

func allocateObject(base unsafe.Pointer, pageSize int, bitmap *Bitmap, layout slabmalloc.Layout) unsafe.Pointer {
	idx, addr, ok := bitmap.FirstFit(uintptr(base), layout, pageSize)
	if !ok {
		return nil
	}

	bitmap.SetBit(idx)

	offset := int(addr - uintptr(base))
	if slabmalloc.PoisonTracked(uintptr(unsafe.Pointer(bitmap))) && !slabmalloc.ValidatePoison(base, offset, layout.Size) {
		panic(fmt.Sprintf("object at offset %d of page %#x was written to after it was freed", offset, uintptr(base)))
	}

	return unsafe.Add(base, offset)
}

func deallocateObject(base unsafe.Pointer, pageSize int, bitmap *Bitmap, ptr unsafe.Pointer, layout slabmalloc.Layout) error {
	addr := uintptr(ptr)
	if layout.Size < 1 {
		return slabmalloc.NewAllocationError(slabmalloc.AllocationErrorInvalidLayout, addr, layout)
	}

	if slabmalloc.AlignDown(addr, uintptr(pageSize)) != uintptr(base) {
		return slabmalloc.NewAllocationError(slabmalloc.AllocationErrorForeignPointer, addr, layout)
	}

	pageOffset := int(addr & uintptr(pageSize-1))
	if pageOffset%layout.Size != 0 {
		return slabmalloc.NewAllocationError(slabmalloc.AllocationErrorMisalignedPointer, addr, layout)
	}

	idx := pageOffset / layout.Size
	if idx >= BitmapBits || pageOffset+layout.Size > pageSize-MetadataOverhead {
		return slabmalloc.NewAllocationError(slabmalloc.AllocationErrorForeignPointer, addr, layout)
	}

	if !bitmap.IsAllocated(idx) {
		return slabmalloc.NewAllocationError(slabmalloc.AllocationErrorNotAllocated, addr, layout)
	}

	slabmalloc.WritePoison(base, pageOffset, layout.Size)
	bitmap.ClearBit(idx)
	return nil
}
