// Package iterx provides some extensions to the base [iter.Seq] type.
package iterx

import "iter"

// SliceIter is an [iter.Seq] with chainable helpers.
type SliceIter[T any] iter.Seq[T]

// Select will use the provided [Filter] to select elements from a slice, returning a [SliceIter].
// Elements are yielded in slice order.
func Select[T any](slice []T, filter Filter[T]) SliceIter[T] {
	if filter == nil {
		panic("nil filter")
	}
	return func(yield func(T) bool) {
		for _, element := range slice {
			if filter(element) {
				if !yield(element) {
					return
				}
			}
		}
	}
}

func (i SliceIter[T]) Slice() []T {
	var elements []T
	i(func(element T) bool {
		elements = append(elements, element)
		return true
	})
	return elements
}

func (i SliceIter[T]) Filter(filter Filter[T]) SliceIter[T] {
	return func(yield func(T) bool) {
		i(func(element T) bool {
			if filter(element) {
				return yield(element)
			}
			return true
		})
	}
}

// Seq converts the [SliceIter] back to a plain [iter.Seq] for use with other packages.
func (i SliceIter[T]) Seq() iter.Seq[T] {
	return iter.Seq[T](i)
}
