package slabmalloc

import (
	cerrors "github.com/cockroachdb/errors"
)

// Number is any integer type that addresses, sizes, or alignments are expressed in
type Number interface {
	~int | ~uint | ~uintptr
}

// CheckPow2 returns an error wrapping PowerOfTwoError unless number is a positive power of two
func CheckPow2[T Number](number T, name string) error {
	if number <= 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the next multiple of alignment, which must be a power of two
func AlignUp[T Number](value, alignment T) T {
	return (value + alignment - 1) &^ (alignment - 1)
}

// AlignDown rounds value down to a multiple of alignment, which must be a power of two
func AlignDown[T Number](value, alignment T) T {
	return value &^ (alignment - 1)
}

// IsAligned reports whether value is a multiple of alignment, which must be a power of two
func IsAligned[T Number](value, alignment T) bool {
	return value&(alignment-1) == 0
}
