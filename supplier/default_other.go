//go:build !linux

package supplier

import (
	"github.com/vkngwrapper/slabmalloc/pages"
	"golang.org/x/exp/slog"
)

// New returns the preferred supplier for the current platform
func New(logger *slog.Logger, options Options) pages.PageSupplier {
	return NewHeapSupplier(logger, options)
}
