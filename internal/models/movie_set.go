package models

import "slices"

// MovieSet is a set of movie ids with constant time membership checks.
type MovieSet map[int]struct{}

// NewMovieSet builds a set from ids, dropping duplicates.
func NewMovieSet(ids ...int) MovieSet {
	s := make(MovieSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s MovieSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s MovieSet) Add(id int) {
	s[id] = struct{}{}
}

func (s MovieSet) Remove(id int) {
	delete(s, id)
}

func (s MovieSet) Len() int {
	return len(s)
}

// IDs returns the members in ascending order.
func (s MovieSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone returns an independent copy. A nil set clones to an empty one.
func (s MovieSet) Clone() MovieSet {
	c := make(MovieSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}
