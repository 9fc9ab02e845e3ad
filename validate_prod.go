//go:build !debug_slabmalloc

package slabmalloc

import "unsafe"

const (
	// PoisonEnabled is true when slabmalloc is built with the debug_slabmalloc build tag, in which case
	// free object slots are filled with PoisonByte
	PoisonEnabled = false
)

// WritePoison fills size bytes at the provided pointer and offset with an easy-to-identify marker.
// This method no-ops unless the debug_slabmalloc build tag is present.
func WritePoison(data unsafe.Pointer, offset, size int) {
}

// ValidatePoison verifies that the marker written by WritePoison is still present across size bytes.
// It returns true if the marker is intact and false otherwise.
// This method no-ops unless the debug_slabmalloc build tag is present.
func ValidatePoison(data unsafe.Pointer, offset, size int) bool {
	return true
}

// TrackPoison records that the region identified by key was filled with poison.
// This method no-ops unless the debug_slabmalloc build tag is present.
func TrackPoison(key uintptr) {
}

// ForgetPoison discards any record made by TrackPoison for key.
// This method no-ops unless the debug_slabmalloc build tag is present.
func ForgetPoison(key uintptr) {
}

// PoisonTracked reports whether TrackPoison was called for key since it was last forgotten.
// It always returns false unless the debug_slabmalloc build tag is present.
func PoisonTracked(key uintptr) bool {
	return false
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_slabmalloc build tag is present
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_slabmalloc build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
}
