// Package supplier provides sources of raw, size-aligned memory for slab pages.
package supplier

import (
	"io"

	"github.com/vkngwrapper/slabmalloc"
	"github.com/vkngwrapper/slabmalloc/pages"
	"golang.org/x/exp/slog"
)

// Options configures a page supplier
type Options struct {
	// Synchronized guards the supplier with a mutex so that pages can be obtained and released from
	// multiple goroutines. Leave it unset when the caller already serializes access.
	Synchronized bool
}

var (
	_ pages.PageSupplier = (*HeapSupplier)(nil)
)

func discardLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard))
	}
	return logger
}

// alignedWindow returns the offset from base of the first address aligned to size, given that a region
// of 2*size bytes starting at base is available
func alignedWindow(base uintptr, size int) int {
	return int(slabmalloc.AlignUp(base, uintptr(size)) - base)
}
