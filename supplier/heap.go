package supplier

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/slabmalloc"
	"github.com/vkngwrapper/slabmalloc/internal/utils"
	"golang.org/x/exp/slog"
)

// HeapSupplier carves pages out of Go byte slices. Each page is backed by a slice twice the page size so
// that an aligned window always exists, and the slice is kept reachable until the page is released.
//
// Pages hold no Go pointers, so the garbage collector never needs to scan them.
type HeapSupplier struct {
	logger *slog.Logger
	mutex  utils.OptionalMutex

	regions *swiss.Map[uintptr, []byte]
}

// NewHeapSupplier creates a HeapSupplier. A nil logger discards all output.
func NewHeapSupplier(logger *slog.Logger, options Options) *HeapSupplier {
	return &HeapSupplier{
		logger:  discardLogger(logger),
		mutex:   utils.OptionalMutex{UseMutex: options.Synchronized},
		regions: swiss.NewMap[uintptr, []byte](16),
	}
}

// AllocatePage returns size bytes of zeroed memory aligned to size. size must be a power of two.
func (s *HeapSupplier) AllocatePage(size int) (unsafe.Pointer, error) {
	err := slabmalloc.CheckPow2(size, "page size")
	if err != nil {
		return nil, err
	}

	buffer := make([]byte, 2*size)
	base := unsafe.Pointer(unsafe.SliceData(buffer))
	page := unsafe.Add(base, alignedWindow(uintptr(base), size))

	s.mutex.Lock()
	s.regions.Put(uintptr(page), buffer)
	s.mutex.Unlock()

	s.logger.Debug("allocated heap page",
		slog.Int("size", size),
		slog.Uint64("address", uint64(uintptr(page))),
	)
	return page, nil
}

// ReleasePage forgets a page previously returned from AllocatePage, allowing its memory to be collected
func (s *HeapSupplier) ReleasePage(ptr unsafe.Pointer, size int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	buffer, ok := s.regions.Get(uintptr(ptr))
	if !ok {
		return errors.Newf("page at %#x was not allocated by this supplier", uintptr(ptr))
	}
	if len(buffer) != 2*size {
		return errors.Newf("page at %#x was allocated with size %d, but released with size %d", uintptr(ptr), len(buffer)/2, size)
	}

	s.regions.Delete(uintptr(ptr))

	s.logger.Debug("released heap page",
		slog.Int("size", size),
		slog.Uint64("address", uint64(uintptr(ptr))),
	)
	return nil
}

// LivePages returns the number of pages that have been allocated and not yet released
func (s *HeapSupplier) LivePages() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.regions.Count()
}
