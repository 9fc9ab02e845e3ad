package pages

import (
	"fmt"
	"unsafe"

	"github.com/vkngwrapper/slabmalloc"
)

// ObjectPageSize is the size in bytes of an ObjectPage
const ObjectPageSize = 4096

// ObjectPage holds objects within a 4 KiB page. The data region comes first, with the page's links and
// occupancy bitmap packed into the last MetadataOverhead bytes.
//
// An ObjectPage must never be declared as a Go value: it is always placed over supplied memory with
// ObjectPageAt or NewObjectPage. It holds no Go pointers, so the memory may live outside the Go heap.
type ObjectPage struct {
	data [ObjectPageSize - MetadataOverhead]byte

	next Link
	prev Link

	bitmap Bitmap
}

var _ AllocablePage = (*ObjectPage)(nil)

// Fails to compile unless ObjectPage is exactly ObjectPageSize bytes
var _ = [1]struct{}{}[unsafe.Sizeof(ObjectPage{})-ObjectPageSize]

// ObjectPageAt interprets the ObjectPageSize bytes at ptr as an ObjectPage. ptr must be aligned to
// ObjectPageSize. The page's contents are left as they are.
func ObjectPageAt(ptr unsafe.Pointer) (*ObjectPage, error) {
	return pageAt[ObjectPage](ptr, ObjectPageSize)
}

// NewObjectPage obtains memory for a new ObjectPage from the supplier. The page is unlinked but must
// still be configured with InitializePage before objects are allocated from it.
func NewObjectPage(supplier PageSupplier) (*ObjectPage, error) {
	page, err := newPage[ObjectPage](supplier, ObjectPageSize)
	if err != nil {
		return nil, err
	}

	page.next = NoLink
	page.prev = NoLink
	return page, nil
}

func (p *ObjectPage) PageSize() int { return ObjectPageSize }

func (p *ObjectPage) Data() []byte { return p.data[:] }

func (p *ObjectPage) BaseAddress() uintptr { return uintptr(unsafe.Pointer(p)) }

func (p *ObjectPage) Bitmap() *Bitmap { return &p.bitmap }

func (p *ObjectPage) Prev() *Link { return &p.prev }

func (p *ObjectPage) Next() *Link { return &p.next }

func (p *ObjectPage) FirstFit(layout slabmalloc.Layout) (int, uintptr, bool) {
	return p.bitmap.FirstFit(p.BaseAddress(), layout, ObjectPageSize)
}

func (p *ObjectPage) Allocate(layout slabmalloc.Layout) unsafe.Pointer {
	return allocateObject(unsafe.Pointer(p), ObjectPageSize, &p.bitmap, layout)
}

func (p *ObjectPage) IsFull() bool {
	return p.bitmap.IsFull()
}

func (p *ObjectPage) IsEmpty(relevantBits int) bool {
	return p.bitmap.AllFree(relevantBits)
}

func (p *ObjectPage) Deallocate(ptr unsafe.Pointer, layout slabmalloc.Layout) error {
	return deallocateObject(unsafe.Pointer(p), ObjectPageSize, &p.bitmap, ptr, layout)
}

func (p *ObjectPage) FreeObjCount() int {
	return p.bitmap.FreeCount()
}

func (p *ObjectPage) String() string {
	return fmt.Sprintf("ObjectPage(%#x)", p.BaseAddress())
}
