//go:build linux

package supplier

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/slabmalloc"
	"github.com/vkngwrapper/slabmalloc/internal/utils"
	"github.com/vkngwrapper/slabmalloc/pages"
	"golang.org/x/exp/slog"
	"golang.org/x/sys/unix"
)

var _ pages.PageSupplier = (*MmapSupplier)(nil)

// MmapSupplier maps pages directly from the operating system with anonymous private mappings, keeping
// slab memory entirely outside of the Go heap.
type MmapSupplier struct {
	logger *slog.Logger
	mutex  utils.OptionalMutex

	live *swiss.Map[uintptr, int]
}

// New returns the preferred supplier for the current platform
func New(logger *slog.Logger, options Options) pages.PageSupplier {
	return NewMmapSupplier(logger, options)
}

// NewMmapSupplier creates an MmapSupplier. A nil logger discards all output.
func NewMmapSupplier(logger *slog.Logger, options Options) *MmapSupplier {
	return &MmapSupplier{
		logger: discardLogger(logger),
		mutex:  utils.OptionalMutex{UseMutex: options.Synchronized},
		live:   swiss.NewMap[uintptr, int](16),
	}
}

// AllocatePage maps size bytes of zeroed memory aligned to size. size must be a power of two.
//
// Twice the requested size is mapped, and the unaligned head and tail of the mapping are unmapped again.
func (s *MmapSupplier) AllocatePage(size int) (unsafe.Pointer, error) {
	err := slabmalloc.CheckPow2(size, "page size")
	if err != nil {
		return nil, err
	}

	reserve := uintptr(2 * size)
	region, err := unix.MmapPtr(-1, 0, nil, reserve, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "could not map %d bytes", reserve)
	}

	lead := uintptr(alignedWindow(uintptr(region), size))
	trail := reserve - lead - uintptr(size)
	page := unsafe.Add(region, lead)

	if lead > 0 {
		err = unix.MunmapPtr(region, lead)
		if err != nil {
			s.logUnmapFailure(region, lead, err)
		}
	}
	if trail > 0 {
		err = unix.MunmapPtr(unsafe.Add(page, size), trail)
		if err != nil {
			s.logUnmapFailure(unsafe.Add(page, size), trail, err)
		}
	}

	s.mutex.Lock()
	s.live.Put(uintptr(page), size)
	s.mutex.Unlock()

	s.logger.Debug("mapped page",
		slog.Int("size", size),
		slog.Uint64("address", uint64(uintptr(page))),
	)
	return page, nil
}

// ReleasePage unmaps a page previously returned from AllocatePage
func (s *MmapSupplier) ReleasePage(ptr unsafe.Pointer, size int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	mappedSize, ok := s.live.Get(uintptr(ptr))
	if !ok {
		return errors.Newf("page at %#x was not mapped by this supplier", uintptr(ptr))
	}
	if mappedSize != size {
		return errors.Newf("page at %#x was mapped with size %d, but released with size %d", uintptr(ptr), mappedSize, size)
	}

	err := unix.MunmapPtr(ptr, uintptr(size))
	if err != nil {
		s.logUnmapFailure(ptr, uintptr(size), err)
		return errors.Wrapf(err, "could not unmap page at %#x", uintptr(ptr))
	}

	s.live.Delete(uintptr(ptr))

	s.logger.Debug("unmapped page",
		slog.Int("size", size),
		slog.Uint64("address", uint64(uintptr(ptr))),
	)
	return nil
}

// LivePages returns the number of pages that have been mapped and not yet released
func (s *MmapSupplier) LivePages() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.live.Count()
}

func (s *MmapSupplier) logUnmapFailure(ptr unsafe.Pointer, length uintptr, err error) {
	s.logger.Warn("failed to unmap memory",
		slog.Uint64("address", uint64(uintptr(ptr))),
		slog.Uint64("length", uint64(length)),
		slog.Any("error", err),
	)
}
