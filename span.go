package btrfstree

import "fmt"

// Bound is the set of integer types a query dimension can range over.
type Bound interface {
	~uint32 | ~uint64
}

// Span is an inclusive [Min, Max] range over one query dimension.
//
// Use Exact for a single value, Between for an explicit pair and Full for the
// whole domain. A zero Span is Exact(0), not Full.
type Span[T Bound] struct {
	Min T
	Max T
}

func Exact[T Bound](v T) Span[T]        { return Span[T]{Min: v, Max: v} }
func Between[T Bound](lo, hi T) Span[T] { return Span[T]{Min: lo, Max: hi} }
func Full[T Bound]() Span[T]            { return Span[T]{Min: 0, Max: ^T(0)} }

func (s Span[T]) Valid() bool       { return s.Min <= s.Max }
func (s Span[T]) IsExact() bool     { return s.Min == s.Max }
func (s Span[T]) IsFull() bool      { return s.Min == 0 && s.Max == ^T(0) }
func (s Span[T]) Contains(v T) bool { return s.Min <= v && v <= s.Max }

func (s Span[T]) String() string {
	switch {
	case s.IsFull():
		return "*"
	case s.IsExact():
		return fmt.Sprint(uint64(s.Min))
	case s.Max == ^T(0):
		return fmt.Sprintf("%d..", uint64(s.Min))
	default:
		return fmt.Sprintf("%d..%d", uint64(s.Min), uint64(s.Max))
	}
}
