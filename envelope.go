package btrfstree

import (
	"encoding/binary"
)

// Envelope sizes. The kernel's btrfs_ioctl_search_args is a search key
// followed by a result area, BufferSize bytes in total.
const (
	BufferSize    = 4096
	SearchKeySize = 104
	HeaderSize    = 32

	resultCountOff = 64
)

// searchKey mirrors struct btrfs_ioctl_search_key. It is exchanged in host
// byte order. After the call the kernel stores the number of returned items in
// NrItems; the reserved words are scratch space for the kernel.
type searchKey struct {
	TreeID      uint64
	MinObjectID uint64
	MaxObjectID uint64
	MinOffset   uint64
	MaxOffset   uint64
	MinTransID  uint64
	MaxTransID  uint64
	MinType     uint32
	MaxType     uint32
	NrItems     uint32
	_           uint32
	_           [4]uint64
}

// Encode writes the search key for q into the leading SearchKeySize bytes of
// buf, zeroing the reserved words. The rest of buf is left untouched.
func Encode(q Query, buf []byte) error {
	if len(buf) < SearchKeySize {
		return ErrBufferTooSmall
	}
	if err := q.Validate(); err != nil {
		return err
	}

	sk := searchKey{
		TreeID:      q.Tree,
		MinObjectID: q.ObjectID.Min,
		MaxObjectID: q.ObjectID.Max,
		MinOffset:   q.Offset.Min,
		MaxOffset:   q.Offset.Max,
		MinTransID:  q.TransID.Min,
		MaxTransID:  q.TransID.Max,
		MinType:     uint32(q.Type.Min),
		MaxType:     uint32(q.Type.Max),
		NrItems:     q.MaxItems,
	}
	n, err := binary.Encode(buf[:SearchKeySize], binary.NativeEndian, &sk)
	if err != nil {
		panic(err)
	}
	if n != SearchKeySize {
		panic("internal size mismatch")
	}
	return nil
}

// DecodeQuery reads back a search key written by Encode. Emulators of the
// control call use it to interpret a request.
func DecodeQuery(buf []byte) (Query, error) {
	if len(buf) < SearchKeySize {
		return Query{}, dataErrf(buf, 0, nil, "search key needs %d bytes", SearchKeySize)
	}
	var sk searchKey
	_, err := binary.Decode(buf[:SearchKeySize], binary.NativeEndian, &sk)
	if err != nil {
		return Query{}, dataErrf(buf, 0, err, "invalid search key")
	}
	return Query{
		Tree:     sk.TreeID,
		ObjectID: Between(sk.MinObjectID, sk.MaxObjectID),
		Type:     Between(ItemType(sk.MinType), ItemType(sk.MaxType)),
		Offset:   Between(sk.MinOffset, sk.MaxOffset),
		TransID:  Between(sk.MinTransID, sk.MaxTransID),
		MaxItems: sk.NrItems,
	}, nil
}

func resultCount(buf []byte) uint32 {
	return binary.NativeEndian.Uint32(buf[resultCountOff:])
}

func setResultCount(buf []byte, n uint32) {
	binary.NativeEndian.PutUint32(buf[resultCountOff:], n)
}

// Response packs (header, payload) pairs into a search buffer the way the
// kernel does when it services a tree search. It is meant for emulators of the
// control call and for building fixtures.
type Response struct {
	buf   []byte
	pos   int
	count uint32
}

// NewResponse starts a response in buf, which must already hold the request.
func NewResponse(buf []byte) *Response {
	if len(buf) < SearchKeySize {
		panic("response buffer smaller than search key")
	}
	return &Response{buf: buf, pos: SearchKeySize}
}

// Fits reports whether a record with an n-byte payload fits into the remaining
// space.
func (r *Response) Fits(n int) bool {
	return HeaderSize+n <= len(r.buf)-r.pos
}

// Add appends a record and reports whether it fit. h.Len is set from data.
func (r *Response) Add(h Header, data []byte) bool {
	if !r.Fits(len(data)) {
		return false
	}
	h.Len = uint32(len(data))
	putHeader(r.buf[r.pos:], h)
	r.pos += HeaderSize
	r.pos += copy(r.buf[r.pos:], data)
	r.count++
	return true
}

func (r *Response) Count() uint32 { return r.count }

// Finish stores the result count in the search key.
func (r *Response) Finish() {
	setResultCount(r.buf, r.count)
}
