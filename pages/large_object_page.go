package pages

import (
	"fmt"
	"unsafe"

	"github.com/vkngwrapper/slabmalloc"
)

// LargeObjectPageSize is the size in bytes of a LargeObjectPage
const LargeObjectPageSize = 2 * 1024 * 1024

// LargeObjectPage holds objects within a 2 MiB page. It is used for size classes whose objects are too
// large to pack well into an ObjectPage. Its bitmap is the same size as an ObjectPage's, so at most
// BitmapBits objects can be tracked: objects smaller than 4 KiB leave most of the data region unused.
//
// Like ObjectPage, a LargeObjectPage must never be declared as a Go value.
type LargeObjectPage struct {
	data [LargeObjectPageSize - MetadataOverhead]byte

	next Link
	prev Link

	bitmap Bitmap
}

var _ AllocablePage = (*LargeObjectPage)(nil)

var _ = [1]struct{}{}[unsafe.Sizeof(LargeObjectPage{})-LargeObjectPageSize]

func LargeObjectPageAt(ptr unsafe.Pointer) (*LargeObjectPage, error) {
	return pageAt[LargeObjectPage](ptr, LargeObjectPageSize)
}

func NewLargeObjectPage(supplier PageSupplier) (*LargeObjectPage, error) {
	page, err := newPage[LargeObjectPage](supplier, LargeObjectPageSize)
	if err != nil {
		return nil, err
	}

	page.next = NoLink
	page.prev = NoLink
	return page, nil
}

func (p *LargeObjectPage) PageSize() int { return LargeObjectPageSize }

func (p *LargeObjectPage) Data() []byte { return p.data[:] }

func (p *LargeObjectPage) BaseAddress() uintptr { return uintptr(unsafe.Pointer(p)) }

func (p *LargeObjectPage) Bitmap() *Bitmap { return &p.bitmap }

func (p *LargeObjectPage) Prev() *Link { return &p.prev }

func (p *LargeObjectPage) Next() *Link { return &p.next }

func (p *LargeObjectPage) FirstFit(layout slabmalloc.Layout) (int, uintptr, bool) {
	return p.bitmap.FirstFit(p.BaseAddress(), layout, LargeObjectPageSize)
}

func (p *LargeObjectPage) Allocate(layout slabmalloc.Layout) unsafe.Pointer {
	return allocateObject(unsafe.Pointer(p), LargeObjectPageSize, &p.bitmap, layout)
}

func (p *LargeObjectPage) IsFull() bool {
	return p.bitmap.IsFull()
}

func (p *LargeObjectPage) IsEmpty(relevantBits int) bool {
	return p.bitmap.AllFree(relevantBits)
}

func (p *LargeObjectPage) Deallocate(ptr unsafe.Pointer, layout slabmalloc.Layout) error {
	return deallocateObject(unsafe.Pointer(p), LargeObjectPageSize, &p.bitmap, ptr, layout)
}

func (p *LargeObjectPage) FreeObjCount() int {
	return p.bitmap.FreeCount()
}

func (p *LargeObjectPage) String() string {
	return fmt.Sprintf("LargeObjectPage(%#x)", p.BaseAddress())
}
