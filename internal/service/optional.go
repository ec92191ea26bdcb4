package service

// Optional is a patch field that distinguishes "not provided" from an
// explicit null. Set reports whether the field was provided; a nil Value with
// Set true clears the field.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a provided Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a provided Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}
