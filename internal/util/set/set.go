// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package set is an exceedingly simple 'set' implementation.
//
// It's not threadsafe, but can be used in place of a simple
// map[T]struct{}.
package set

import "cmp"

// Set is the base type. make(Set) can be used too.
type Set[T cmp.Ordered] map[T]struct{}

// New returns a new Set implementation.
func New[T cmp.Ordered](sizeHint int) Set[T] {
	return make(Set[T], sizeHint)
}

// Has returns true iff the Set contains value.
func (s Set[T]) Has(value T) bool {
	_, ret := s[value]
	return ret
}

// Add ensures that Set contains value, and returns true if it was added
// (i.e. it returns false if the Set already contained the value).
func (s Set[T]) Add(value T) bool {
	if s.Has(value) {
		return false
	}
	s[value] = struct{}{}
	return true
}

// Del removes value from the Set, and returns true if it was deleted
// (i.e. it returns false if the Set did not contain the value).
func (s Set[T]) Del(value T) bool {
	if !s.Has(value) {
		return false
	}
	delete(s, value)
	return true
}

// Len returns the number of items in the Set.
func (s Set[T]) Len() int { return len(s) }
