package btrfstree

import (
	"errors"
	"math"
	"testing"
)

func TestSpanString(t *testing.T) {
	tests := []struct {
		a, e string
	}{
		{Full[uint64]().String(), "*"},
		{Full[ItemType]().String(), "*"},
		{Exact[uint64](256).String(), "256"},
		{Between[uint64](256, math.MaxUint64).String(), "256.."},
		{Between[ItemType](1, 96).String(), "1..96"},
		{Span[uint64]{}.String(), "0"},
	}
	for _, tt := range tests {
		if tt.a != tt.e {
			t.Errorf("String = %q, expected %q", tt.a, tt.e)
		}
	}
}

func TestQueryString(t *testing.T) {
	q := NewQuery(5).WithObjectID(Exact[uint64](256)).WithMaxItems(10)
	if a, e := q.String(), "tree=5 objectid=256 type=* offset=* transid=* max=10"; a != e {
		t.Errorf("String = %q, expected %q", a, e)
	}
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		q     Query
		field string
	}{
		{NewQuery(5), ""},
		{NewQuery(5).WithObjectID(Between[uint64](2, 1)), "objectid"},
		{NewQuery(5).WithType(Between[ItemType](2, 1)), "type"},
		{NewQuery(5).WithOffset(Between[uint64](2, 1)), "offset"},
		{NewQuery(5).WithTransID(Between[uint64](2, 1)), "transid"},

		// continuation queries compare whole keys
		{Query{Tree: 5, ObjectID: Between[uint64](256, 257), Type: Between[ItemType](9, 1), Offset: Between[uint64](30, 20), TransID: Full[uint64](), resumed: true}, ""},
		{Query{Tree: 5, ObjectID: Exact[uint64](256), Type: Exact(InodeItemKey), Offset: Between[uint64](21, 20), TransID: Full[uint64](), resumed: true}, "key"},
		{Query{Tree: 5, ObjectID: Exact[uint64](256), Type: Between(DirIndexKey, InodeItemKey), Offset: Full[uint64](), TransID: Full[uint64](), resumed: true}, "key"},
	}
	for _, tt := range tests {
		err := tt.q.Validate()
		if tt.field == "" {
			if err != nil {
				t.Errorf("%v: %v", tt.q, err)
			}
			continue
		}
		var qe *QueryError
		if !errors.As(err, &qe) || qe.Field != tt.field {
			t.Errorf("%v: err = %v, expected %s error", tt.q, err, tt.field)
		}
	}
}

func TestQueryInRange(t *testing.T) {
	q := NewQuery(5).WithObjectID(Between[uint64](256, 258)).WithType(Between(InodeItemKey, DirIndexKey)).WithOffset(Between[uint64](10, 20))
	tests := []struct {
		obj uint64
		typ ItemType
		off uint64
		e   bool
	}{
		{256, InodeItemKey, 10, true},
		{256, InodeItemKey, 9, false},
		{255, DirIndexKey, 15, false},
		{257, ExtentDataKey, 0, true}, // middle object ids are unconstrained
		{257, 0, math.MaxUint64, true},
		{258, DirIndexKey, 20, true},
		{258, DirIndexKey, 21, false},
		{258, ExtentDataKey, 0, false},
	}
	for _, tt := range tests {
		if a := q.InRange(tt.obj, tt.typ, tt.off); a != tt.e {
			t.Errorf("InRange(%d, %d, %d) = %v, expected %v", tt.obj, tt.typ, tt.off, a, tt.e)
		}
	}
}

func TestQueryAfter(t *testing.T) {
	q := NewQuery(5).
		WithObjectID(Between[uint64](256, 300)).
		WithType(Between(InodeItemKey, DirIndexKey)).
		WithOffset(Between[uint64](10, 20)).
		WithTransID(Between[uint64](3, 4)).
		WithMaxItems(7)

	type key struct {
		obj uint64
		typ ItemType
		off uint64
	}
	tests := []struct {
		name string
		last key
		e    key
		more bool
	}{
		{"offset+1", key{256, InodeItemKey, 15}, key{256, InodeItemKey, 16}, true},
		{"offset past its maximum", key{256, InodeItemKey, 20}, key{256, InodeItemKey, 21}, true},
		{"offset past its maximum in the last type", key{256, DirIndexKey, 20}, key{256, DirIndexKey, 21}, true},
		{"type below range", key{257, 0, 99}, key{257, 0, 100}, true},
		{"type above range", key{257, ExtentDataKey, 0}, key{257, ExtentDataKey, 1}, true},
		{"offset below range", key{257, InodeRefKey, 3}, key{257, InodeRefKey, 4}, true},
		{"offset above range", key{257, InodeRefKey, 50}, key{257, InodeRefKey, 51}, true},
		{"offset overflow carries into type", key{300, InodeItemKey, math.MaxUint64}, key{300, InodeItemKey + 1, 0}, true},
		{"type overflow carries into objectid", key{299, math.MaxUint32, math.MaxUint64}, key{300, 0, 0}, true},
		{"before the minimum key", key{256, InodeItemKey, 5}, key{256, InodeItemKey, 10}, true},
		{"last key", key{300, DirIndexKey, 20}, key{}, false},
		{"past the maximum key", key{300, ExtentDataKey, 0}, key{}, false},
		{"above max objectid", key{301, InodeItemKey, 10}, key{}, false},
		{"below min objectid", key{255, InodeItemKey, 10}, key{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, more := q.After(Header{ObjectID: tt.last.obj, Type: tt.last.typ, Offset: tt.last.off})
			if more != tt.more {
				t.Fatalf("more = %v, expected %v", more, tt.more)
			}
			if !more {
				return
			}
			if k := (key{a.ObjectID.Min, a.Type.Min, a.Offset.Min}); k != tt.e {
				t.Errorf("lower bound = %v, expected %v", k, tt.e)
			}
			if a.ObjectID.Max != 300 || a.Type.Max != DirIndexKey || a.Offset.Max != 20 {
				t.Errorf("upper bounds changed: %v", a)
			}
			if a.Tree != 5 || a.TransID != q.TransID || a.MaxItems != 7 {
				t.Errorf("other fields changed: %v", a)
			}
			if err := a.Validate(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestQueryAfter_fullRange(t *testing.T) {
	q := NewQuery(5)
	a, more := q.After(Header{ObjectID: 256, Type: InodeItemKey, Offset: math.MaxUint64})
	if !more || a.ObjectID.Min != 256 || a.Type.Min != InodeItemKey+1 || a.Offset.Min != 0 {
		t.Errorf("After = %v, %v", a, more)
	}
	a, more = q.After(Header{ObjectID: 256, Type: math.MaxUint32, Offset: math.MaxUint64})
	if !more || a.ObjectID.Min != 257 || a.Type.Min != 0 || a.Offset.Min != 0 {
		t.Errorf("After = %v, %v", a, more)
	}
	if _, more = q.After(Header{ObjectID: math.MaxUint64, Type: math.MaxUint32, Offset: math.MaxUint64}); more {
		t.Error("After the largest key = true")
	}
}
