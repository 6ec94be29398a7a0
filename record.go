package btrfstree

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// Header precedes every item in a search response (struct
// btrfs_ioctl_search_header). TransID is the generation of the leaf holding
// the item.
type Header struct {
	TransID  uint64
	ObjectID uint64
	Offset   uint64
	Type     ItemType
	Len      uint32
}

func (h Header) String() string {
	return fmt.Sprintf("(%d %d %d) transid=%d len=%d", h.ObjectID, h.Type, h.Offset, h.TransID, h.Len)
}

// Key returns the on-disk key of the item. Item types fit into a byte on disk.
func (h Header) Key() Key {
	return Key{ObjectID: h.ObjectID, Type: uint8(h.Type), Offset: h.Offset}
}

func decodeHeader(b []byte) Header {
	_ = b[HeaderSize-1]
	return Header{
		TransID:  binary.NativeEndian.Uint64(b[0:]),
		ObjectID: binary.NativeEndian.Uint64(b[8:]),
		Offset:   binary.NativeEndian.Uint64(b[16:]),
		Type:     ItemType(binary.NativeEndian.Uint32(b[24:])),
		Len:      binary.NativeEndian.Uint32(b[28:]),
	}
}

func putHeader(b []byte, h Header) {
	_ = b[HeaderSize-1]
	binary.NativeEndian.PutUint64(b[0:], h.TransID)
	binary.NativeEndian.PutUint64(b[8:], h.ObjectID)
	binary.NativeEndian.PutUint64(b[16:], h.Offset)
	binary.NativeEndian.PutUint32(b[24:], uint32(h.Type))
	binary.NativeEndian.PutUint32(b[28:], h.Len)
}

// Record is one item returned by a search. Data always has Header.Len bytes.
//
// Records produced by a Results cursor share memory with the search buffer
// and are only valid until that buffer is reused; Clone them to keep them.
type Record struct {
	Header
	Data []byte
}

func (r Record) Clone() Record {
	r.Data = slices.Clone(r.Data)
	if r.Data == nil {
		r.Data = []byte{}
	}
	return r
}

// Item decodes the payload according to the header's item type. See
// DecodeItem.
func (r Record) Item() (Item, error) {
	return DecodeItem(r.Type, r.Data)
}
