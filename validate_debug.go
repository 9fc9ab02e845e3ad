//go:build debug_slabmalloc

package slabmalloc

import (
	"sync"
	"unsafe"

	"github.com/dolthub/swiss"
)

const (
	// PoisonEnabled is true when slabmalloc is built with the debug_slabmalloc build tag, in which case
	// free object slots are filled with PoisonByte
	PoisonEnabled = true
	// PoisonByte is copied across every free object slot so that writes after free can be detected
	PoisonByte byte = 0x6b
)

// WritePoison fills size bytes at the provided pointer and offset with an easy-to-identify marker.
// This method no-ops unless the debug_slabmalloc build tag is present.
func WritePoison(data unsafe.Pointer, offset, size int) {
	dest := unsafe.Slice((*byte)(unsafe.Add(data, offset)), size)
	for i := range dest {
		dest[i] = PoisonByte
	}
}

// ValidatePoison verifies that the marker written by WritePoison is still present across size bytes.
// It returns true if the marker is intact and false otherwise.
// This method no-ops unless the debug_slabmalloc build tag is present.
func ValidatePoison(data unsafe.Pointer, offset, size int) bool {
	source := unsafe.Slice((*byte)(unsafe.Add(data, offset)), size)
	for _, value := range source {
		if value != PoisonByte {
			return false
		}
	}

	return true
}

var poisonedRegions = struct {
	sync.Mutex
	keys *swiss.Map[uintptr, struct{}]
}{keys: swiss.NewMap[uintptr, struct{}](16)}

// TrackPoison records that the region identified by key was filled with poison. ValidatePoison is
// only meaningful for tracked regions: memory that was never poisoned holds whatever it was supplied with.
// This method no-ops unless the debug_slabmalloc build tag is present.
func TrackPoison(key uintptr) {
	poisonedRegions.Lock()
	defer poisonedRegions.Unlock()

	poisonedRegions.keys.Put(key, struct{}{})
}

// ForgetPoison discards any record made by TrackPoison for key.
// This method no-ops unless the debug_slabmalloc build tag is present.
func ForgetPoison(key uintptr) {
	poisonedRegions.Lock()
	defer poisonedRegions.Unlock()

	poisonedRegions.keys.Delete(key)
}

// PoisonTracked reports whether TrackPoison was called for key since it was last forgotten.
// It always returns false unless the debug_slabmalloc build tag is present.
func PoisonTracked(key uintptr) bool {
	poisonedRegions.Lock()
	defer poisonedRegions.Unlock()

	return poisonedRegions.keys.Has(key)
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_slabmalloc build tag is present
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_slabmalloc build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
	err := CheckPow2[T](value, name)
	if err != nil {
		panic(err)
	}
}
