package pages

import (
	"math"
	"math/bits"
	"sync/atomic"
	"unsafe"

	"github.com/vkngwrapper/slabmalloc"
)

const (
	// BitmapWords is the number of 64-bit words in every page's occupancy bitmap
	BitmapWords = 8
	// BitmapBits is the number of object slots a single page can track
	BitmapBits = BitmapWords * 64

	// MetadataOverhead is the number of bytes at the end of every page that are occupied by the
	// page's list links and occupancy bitmap rather than by objects
	MetadataOverhead = int(2*unsafe.Sizeof(Link(0)) + unsafe.Sizeof(Bitmap{}))
)

// Bitmap tracks which object slots within a page are allocated. Bit i set means slot i is allocated.
//
// Every word is independently atomic and all accesses use Go's atomics without any cross-word ordering.
// That allows objects to be freed (ClearBit) from any goroutine at any time, while finding and reserving
// slots (FirstFit followed by SetBit) must be serialized by the caller.
type Bitmap [BitmapWords]atomic.Uint64

// RelevantBits returns the number of slots that are meaningfully tracked for objects of forSize bytes
// in a data region of capacity bytes
func RelevantBits(forSize, capacity int) int {
	relevant := capacity / forSize
	if relevant > BitmapBits {
		return BitmapBits
	}
	return relevant
}

// Initialize marks every slot allocated and then frees the slots that can actually hold an object of
// forSize bytes within capacity bytes. Slots past that point stay allocated for as long as the page
// keeps this configuration, which is what allows IsFull and AllFree to ignore them.
//
// Initialize must not race with any other access to the bitmap. In debug builds the page's slots stop
// being checked for writes after free until InitializePage poisons them again.
func (b *Bitmap) Initialize(forSize, capacity int) {
	if forSize < 1 {
		panic("cannot initialize a page bitmap for objects with a non-positive size")
	}
	slabmalloc.ForgetPoison(uintptr(unsafe.Pointer(b)))

	for i := range b {
		b[i].Store(math.MaxUint64)
	}

	relevantBits := RelevantBits(forSize, capacity)
	for idx := 0; idx < relevantBits; idx++ {
		b.ClearBit(idx)
	}
}

// FirstFit tries to find a free slot that can hold an object of the provided layout in a page whose
// first byte is at baseAddr and which is pageSize bytes long. It returns the slot index and the
// object's address.
//
// Only the lowest free slot of the first word that has any free slot is examined. If that slot's
// address is misaligned, the search moves on to the next word. If that slot's offset is past the
// page's data region, the search ends with no result. A negative layout size never fits.
func (b *Bitmap) FirstFit(baseAddr uintptr, layout slabmalloc.Layout, pageSize int) (int, uintptr, bool) {
	if layout.Size < 0 {
		return 0, 0, false
	}
	slabmalloc.DebugCheckPow2(layout.Align, "layout.Align")

	for baseIdx := range b {
		bitval := b[baseIdx].Load()
		if bitval == math.MaxUint64 {
			continue
		}

		firstFree := bits.TrailingZeros64(^bitval)
		idx := baseIdx*64 + firstFree
		offset := idx * layout.Size

		if offset > pageSize-MetadataOverhead-layout.Size {
			return 0, 0, false
		}

		addr := baseAddr + uintptr(offset)
		if slabmalloc.IsAligned(addr, uintptr(layout.Align)) {
			return idx, addr, true
		}
	}

	return 0, 0, false
}

// IsAllocated reports whether slot idx is marked allocated
func (b *Bitmap) IsAllocated(idx int) bool {
	return b[idx/64].Load()&(uint64(1)<<(idx%64)) != 0
}

// SetBit marks slot idx allocated
func (b *Bitmap) SetBit(idx int) {
	b[idx/64].Or(uint64(1) << (idx % 64))
}

// ClearBit marks slot idx free. It is safe to call from any goroutine.
func (b *Bitmap) ClearBit(idx int) {
	b[idx/64].And(^(uint64(1) << (idx % 64)))
}

// IsFull reports whether every slot in the bitmap is allocated
func (b *Bitmap) IsFull() bool {
	for i := range b {
		if b[i].Load() != math.MaxUint64 {
			return false
		}
	}

	return true
}

// AllFree reports whether the first relevantBits slots are all free. Slots at relevantBits and beyond
// are not inspected: Initialize keeps them allocated.
func (b *Bitmap) AllFree(relevantBits int) bool {
	for idx := range b {
		wordStart := idx * 64
		wordEnd := wordStart + 64

		if relevantBits >= wordStart && relevantBits < wordEnd {
			// Last relevant word, only the low bits need to be free
			freeMask := uint64(1)<<(relevantBits-wordStart) - 1
			return b[idx].Load()&freeMask == 0
		}

		if b[idx].Load() != 0 {
			return false
		}
	}

	return true
}

// FreeCount returns the number of free slots across the whole bitmap
func (b *Bitmap) FreeCount() int {
	var count int
	for i := range b {
		count += bits.OnesCount64(^b[i].Load())
	}

	return count
}

// EmptyWordCount returns the number of words in which no slot is allocated
func (b *Bitmap) EmptyWordCount() int {
	var count int
	for i := range b {
		if b[i].Load() == 0 {
			count++
		}
	}

	return count
}

// TotalBits returns the number of slots the bitmap can track
func (b *Bitmap) TotalBits() int {
	return BitmapBits
}
