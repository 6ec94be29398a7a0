package btrfstree

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// On-disk structures. All of them are packed and little-endian regardless of
// the host byte order.
const (
	KeySize             = 17
	DevItemSize         = 98
	DevExtentSize       = 48
	ChunkSize           = 48
	StripeSize          = 32
	BlockGroupItemSize  = 24
	RootRefSize         = 18
	InodeRefSize        = 10
	DirItemSize         = 30
	ExtentItemSize      = 24
	ExtentInlineRefSize = 9
	ExtentDataRefSize   = 28
	SharedDataRefSize   = 4
	TreeBlockInfoSize   = 18
)

// Key is struct btrfs_disk_key.
type Key struct {
	ObjectID uint64
	Type     uint8
	Offset   uint64
}

func (k Key) ItemType() ItemType { return ItemType(k.Type) }

// DevItem describes a device; found in the chunk tree under
// (DevItemsObjectID, DevItemKey, devid).
type DevItem struct {
	DevID       uint64
	TotalBytes  uint64
	BytesUsed   uint64
	IOAlign     uint32
	IOWidth     uint32
	SectorSize  uint32
	Type        uint64
	Generation  uint64
	StartOffset uint64
	DevGroup    uint32
	SeekSpeed   uint8
	Bandwidth   uint8
	UUID        uuid.UUID
	FSID        uuid.UUID
}

// DevExtent maps a range of a device back to the chunk that owns it.
type DevExtent struct {
	ChunkTree     uint64
	ChunkObjectID uint64
	ChunkOffset   uint64
	Length        uint64
	ChunkTreeUUID uuid.UUID
}

// Chunk maps a logical range to NumStripes stripes, which follow it in the
// item.
type Chunk struct {
	Length     uint64
	Owner      uint64
	StripeLen  uint64
	Type       uint64
	IOAlign    uint32
	IOWidth    uint32
	SectorSize uint32
	NumStripes uint16
	SubStripes uint16
}

type Stripe struct {
	DevID   uint64
	Offset  uint64
	DevUUID uuid.UUID
}

// BlockGroupItem is keyed (start, BlockGroupItemKey, length) in the extent
// tree.
type BlockGroupItem struct {
	Used          uint64
	ChunkObjectID uint64
	Flags         uint64
}

// RootRef is followed by NameLen bytes of name.
type RootRef struct {
	DirID    uint64
	Sequence uint64
	NameLen  uint16
}

// InodeRef is followed by NameLen bytes of name.
type InodeRef struct {
	Index   uint64
	NameLen uint16
}

// DirItem is followed by NameLen bytes of name and DataLen bytes of data.
type DirItem struct {
	Location Key
	TransID  uint64
	DataLen  uint16
	NameLen  uint16
	Type     uint8
}

type ExtentItem struct {
	Refs       uint64
	Generation uint64
	Flags      uint64
}

type ExtentInlineRef struct {
	Type   uint8
	Offset uint64
}

type ExtentDataRef struct {
	Root     uint64
	ObjectID uint64
	Offset   uint64
	Count    uint32
}

type SharedDataRef struct {
	Count uint32
}

// TreeBlockInfo follows the ExtentItem of a tree block in EXTENT_ITEM items.
type TreeBlockInfo struct {
	Key   Key
	Level uint8
}

// Layout is the set of fixed-size on-disk structures.
type Layout interface {
	Key | DevItem | DevExtent | Chunk | Stripe | BlockGroupItem | RootRef |
		InodeRef | DirItem | ExtentItem | ExtentInlineRef | ExtentDataRef |
		SharedDataRef | TreeBlockInfo
}

// SizeOf returns the encoded size of a layout struct.
func SizeOf[T Layout]() int {
	var v T
	return binary.Size(&v)
}

// AppendStruct appends the on-disk encoding of v to b.
func AppendStruct[T Layout](b []byte, v T) []byte {
	b, err := binary.Append(b, binary.LittleEndian, &v)
	if err != nil {
		panic(err)
	}
	return b
}

// DecodeStruct decodes a T stored at data[off:]. A struct that does not fit
// into data yields a *DataError.
func DecodeStruct[T Layout](data []byte, off int) (T, error) {
	var v T
	size := binary.Size(&v)
	if off < 0 || off > len(data) || len(data)-off < size {
		return v, dataErrf(data, off, nil, "%T needs %d bytes, %d remaining", v, size, max(len(data)-off, 0))
	}
	_, err := binary.Decode(data[off:off+size], binary.LittleEndian, &v)
	if err != nil {
		return v, dataErrf(data, off, err, "cannot decode %T", v)
	}
	return v, nil
}
