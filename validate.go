package slabmalloc

// Validatable is anything that can check its own internal consistency, such as a page list.
// DebugValidate accepts it.
type Validatable interface {
	Validate() error
}
