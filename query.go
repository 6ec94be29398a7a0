package btrfstree

import (
	"fmt"
	"math"
)

// Query describes one bounded tree search: the tree to search, four inclusive
// key ranges and a cap on the number of returned items.
//
// A Query is a value. The With* methods return modified copies, so a base query
// can be shared and specialized freely.
type Query struct {
	Tree     uint64
	ObjectID Span[uint64]
	Type     Span[ItemType]
	Offset   Span[uint64]
	TransID  Span[uint64]
	MaxItems uint32

	// resumed marks a query produced by After; see Validate.
	resumed bool
}

// NewQuery returns a query over the whole of the given tree.
func NewQuery(tree uint64) Query {
	return Query{
		Tree:     tree,
		ObjectID: Full[uint64](),
		Type:     Full[ItemType](),
		Offset:   Full[uint64](),
		TransID:  Full[uint64](),
		MaxItems: math.MaxUint32,
	}
}

func (q Query) WithObjectID(s Span[uint64]) Query { q.ObjectID = s; return q }
func (q Query) WithType(s Span[ItemType]) Query   { q.Type = s; return q }
func (q Query) WithOffset(s Span[uint64]) Query   { q.Offset = s; return q }
func (q Query) WithTransID(s Span[uint64]) Query  { q.TransID = s; return q }
func (q Query) WithMaxItems(n uint32) Query       { q.MaxItems = n; return q }

// Validate reports the first dimension whose lower bound exceeds its upper
// bound as a *QueryError.
//
// Queries returned by After are checked differently: their type and offset
// lower bounds belong to a composite key and may exceed the per-dimension
// maximum, so only the composite minimum key is compared with the maximum key.
func (q Query) Validate() error {
	if !q.ObjectID.Valid() {
		return &QueryError{"objectid", q.ObjectID.Min, q.ObjectID.Max}
	}
	if q.resumed {
		if compareKeys(q.ObjectID.Min, q.Type.Min, q.Offset.Min, q.ObjectID.Max, q.Type.Max, q.Offset.Max) > 0 {
			return &QueryError{"key", q.ObjectID.Min, q.ObjectID.Max}
		}
	} else {
		if !q.Type.Valid() {
			return &QueryError{"type", uint64(q.Type.Min), uint64(q.Type.Max)}
		}
		if !q.Offset.Valid() {
			return &QueryError{"offset", q.Offset.Min, q.Offset.Max}
		}
	}
	if !q.TransID.Valid() {
		return &QueryError{"transid", q.TransID.Min, q.TransID.Max}
	}
	return nil
}

// InRange reports whether the key falls between the query's minimum and maximum
// keys. Like the kernel, it compares (objectid, type, offset) as one composite
// key, so the type and offset ranges only constrain items of the first and
// last object ids.
func (q Query) InRange(objectID uint64, typ ItemType, offset uint64) bool {
	if compareKeys(objectID, typ, offset, q.ObjectID.Min, q.Type.Min, q.Offset.Min) < 0 {
		return false
	}
	return compareKeys(objectID, typ, offset, q.ObjectID.Max, q.Type.Max, q.Offset.Max) <= 0
}

// After returns the query for the page that follows a page whose last header
// was h, and false once no key after h can match.
//
// Every search is capped by MaxItems and by the buffer size, so enumerating a
// range takes repeated searches: search, remember the last header, continue with
// After(last), and stop when a search returns no records.
//
// The new minimum key is the exact successor of h in kernel key order:
// (objectid, type, offset+1), carrying into type and then object id only when a
// field overflows. The type and offset minimums may therefore end up above their
// maximums; such a query is still valid because the kernel compares the minimum
// and maximum as whole keys. Upper bounds, Tree, TransID and MaxItems are kept.
//
// Pager and Searcher.Walk implement this loop.
func (q Query) After(h Header) (Query, bool) {
	obj, typ, off := h.ObjectID, h.Type, h.Offset
	if !q.ObjectID.Contains(obj) {
		return q, false
	}

	switch {
	case off < math.MaxUint64:
		off++
	case typ < math.MaxUint32:
		typ, off = typ+1, 0
	case obj < math.MaxUint64:
		obj, typ, off = obj+1, 0, 0
	default:
		return q, false
	}
	if compareKeys(obj, typ, off, q.ObjectID.Max, q.Type.Max, q.Offset.Max) > 0 {
		return q, false
	}
	if compareKeys(obj, typ, off, q.ObjectID.Min, q.Type.Min, q.Offset.Min) < 0 {
		return q, true
	}

	q.ObjectID.Min, q.Type.Min, q.Offset.Min = obj, typ, off
	q.resumed = true
	return q, true
}

func (q Query) String() string {
	return fmt.Sprintf("tree=%d objectid=%v type=%v offset=%v transid=%v max=%d", q.Tree, q.ObjectID, q.Type, q.Offset, q.TransID, q.MaxItems)
}

func compareKeys(aObj uint64, aTyp ItemType, aOff uint64, bObj uint64, bTyp ItemType, bOff uint64) int {
	switch {
	case aObj < bObj:
		return -1
	case aObj > bObj:
		return 1
	case aTyp < bTyp:
		return -1
	case aTyp > bTyp:
		return 1
	case aOff < bOff:
		return -1
	case aOff > bOff:
		return 1
	default:
		return 0
	}
}
