package set

import (
	"cmp"
	"slices"
)

// Set formalizes set semantics for a comparable type.
// A nil Set is empty and safe to query, but [Set.Add] must be used with its return value to grow it.
type Set[T comparable] map[T]struct{}

// New creates a new [Set] from the given values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts one or more values, returning the (possibly newly allocated) [Set].
func (s Set[T]) Add(val T, others ...T) Set[T] {
	if s == nil {
		s = Set[T]{}
	}
	s[val] = struct{}{}
	for _, v := range others {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Has(val T) bool {
	_, ok := s[val]
	return ok
}

// Len is the number of distinct values in the [Set].
func (s Set[T]) Len() int {
	return len(s)
}

func (s Set[T]) Slice() []T {
	if len(s) == 0 {
		return nil
	}
	vals := make([]T, 0, len(s))
	for val := range s {
		vals = append(vals, val)
	}
	return vals
}

// Sorted returns the values of an ordered [Set] in ascending order.
// This is useful anywhere set contents are shown to a user or logged, since map order is random.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	vals := s.Slice()
	slices.Sort(vals)
	return vals
}
