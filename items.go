package btrfstree

import (
	"slices"
)

// Item is a decoded item payload. The set of implementations is closed:
// *DevItem, *DevExtent, *ChunkItem, *BlockGroupItem, *RootRefItem, InodeRefs,
// DirItems, *ExtentRecord, *ExtentDataRef, *SharedDataRef and RawItem for
// types without a decoder.
type Item interface {
	isItem()
}

// ChunkItem is a CHUNK_ITEM: the chunk and its stripes.
type ChunkItem struct {
	Chunk
	Stripes []Stripe
}

// RootRefItem is a ROOT_REF or ROOT_BACKREF with its name.
type RootRefItem struct {
	RootRef
	Name string
}

type InodeRefEntry struct {
	InodeRef
	Name string
}

// InodeRefs is an INODE_REF item. A file linked several times from the same
// directory has several entries in one item.
type InodeRefs []InodeRefEntry

type DirEntry struct {
	DirItem
	Name string
	Data []byte
}

// DirItems is a DIR_ITEM, DIR_INDEX or XATTR_ITEM item. Name hash collisions
// pack several entries into one DIR_ITEM.
type DirItems []DirEntry

// InlineRef is a back reference stored inside an extent item.
type InlineRef struct {
	Type ItemType
	// Offset is the root for TREE_BLOCK_REF and the parent for SHARED_BLOCK_REF
	// and SHARED_DATA_REF.
	Offset  uint64
	DataRef *ExtentDataRef
	Count   uint32
}

// ExtentRecord is an EXTENT_ITEM or METADATA_ITEM: the extent item, the tree
// block info of tree blocks keyed by EXTENT_ITEM, and the inline references.
type ExtentRecord struct {
	ExtentItem
	TreeBlock *TreeBlockInfo
	Inline    []InlineRef
}

// RawItem carries the payload of an item type without a decoder.
type RawItem struct {
	Type ItemType
	Data []byte
}

func (*DevItem) isItem()        {}
func (*DevExtent) isItem()      {}
func (*ChunkItem) isItem()      {}
func (*BlockGroupItem) isItem() {}
func (*RootRefItem) isItem()    {}
func (InodeRefs) isItem()       {}
func (DirItems) isItem()        {}
func (*ExtentRecord) isItem()   {}
func (*ExtentDataRef) isItem()  {}
func (*SharedDataRef) isItem()  {}
func (RawItem) isItem()         {}

type itemDecoder func(typ ItemType, data []byte) (Item, error)

var itemDecoders = map[ItemType]itemDecoder{
	DevItemKey:        fixedItem[DevItem, *DevItem],
	DevExtentKey:      fixedItem[DevExtent, *DevExtent],
	ChunkItemKey:      decodeChunkItem,
	BlockGroupItemKey: fixedItem[BlockGroupItem, *BlockGroupItem],
	RootRefKey:        decodeRootRef,
	RootBackrefKey:    decodeRootRef,
	InodeRefKey:       decodeInodeRefs,
	DirItemKey:        decodeDirItems,
	DirIndexKey:       decodeDirItems,
	XattrItemKey:      decodeDirItems,
	ExtentItemKey:     decodeExtentRecord,
	MetadataItemKey:   decodeExtentRecord,
	ExtentDataRefKey:  fixedItem[ExtentDataRef, *ExtentDataRef],
	SharedDataRefKey:  fixedItem[SharedDataRef, *SharedDataRef],
}

// HasDecoder reports whether DecodeItem can decode items of the given type.
func HasDecoder(typ ItemType) bool {
	return itemDecoders[typ] != nil
}

// DecodeItem decodes an item payload by its type. For types without a decoder
// it returns a RawItem and an error matching ErrNoDecoder; a payload that does
// not match its type's layout yields a *DataError.
func DecodeItem(typ ItemType, data []byte) (Item, error) {
	dec := itemDecoders[typ]
	if dec == nil {
		return RawItem{Type: typ, Data: data}, noDecoderErr(typ)
	}
	return dec(typ, data)
}

func fixedItem[T Layout, P interface {
	*T
	Item
}](_ ItemType, data []byte) (Item, error) {
	v, err := DecodeStruct[T](data, 0)
	if err != nil {
		return nil, err
	}
	return P(&v), nil
}

func decodeChunkItem(_ ItemType, data []byte) (Item, error) {
	c, err := DecodeStruct[Chunk](data, 0)
	if err != nil {
		return nil, err
	}
	// NumStripes is untrusted until the stripes are read.
	item := &ChunkItem{Chunk: c, Stripes: make([]Stripe, 0, min(int(c.NumStripes), (len(data)-ChunkSize)/StripeSize))}
	off := ChunkSize
	for range c.NumStripes {
		s, err := DecodeStruct[Stripe](data, off)
		if err != nil {
			return nil, err
		}
		item.Stripes = append(item.Stripes, s)
		off += StripeSize
	}
	return item, nil
}

func decodeRootRef(_ ItemType, data []byte) (Item, error) {
	ref, err := DecodeStruct[RootRef](data, 0)
	if err != nil {
		return nil, err
	}
	name, _, err := sliceTail(data, RootRefSize, int(ref.NameLen), "root ref name")
	if err != nil {
		return nil, err
	}
	return &RootRefItem{RootRef: ref, Name: string(name)}, nil
}

func decodeInodeRefs(_ ItemType, data []byte) (Item, error) {
	var refs InodeRefs
	for off := 0; off < len(data); {
		ref, err := DecodeStruct[InodeRef](data, off)
		if err != nil {
			return nil, err
		}
		var name []byte
		name, off, err = sliceTail(data, off+InodeRefSize, int(ref.NameLen), "inode ref name")
		if err != nil {
			return nil, err
		}
		refs = append(refs, InodeRefEntry{InodeRef: ref, Name: string(name)})
	}
	return refs, nil
}

func decodeDirItems(_ ItemType, data []byte) (Item, error) {
	var items DirItems
	for off := 0; off < len(data); {
		di, err := DecodeStruct[DirItem](data, off)
		if err != nil {
			return nil, err
		}
		var name, value []byte
		name, off, err = sliceTail(data, off+DirItemSize, int(di.NameLen), "dir item name")
		if err != nil {
			return nil, err
		}
		value, off, err = sliceTail(data, off, int(di.DataLen), "dir item data")
		if err != nil {
			return nil, err
		}
		items = append(items, DirEntry{DirItem: di, Name: string(name), Data: slices.Clone(value)})
	}
	return items, nil
}

func decodeExtentRecord(typ ItemType, data []byte) (Item, error) {
	ei, err := DecodeStruct[ExtentItem](data, 0)
	if err != nil {
		return nil, err
	}
	rec := &ExtentRecord{ExtentItem: ei}
	off := ExtentItemSize

	// METADATA_ITEM keeps the level in the key offset instead.
	if typ == ExtentItemKey && ei.Flags&ExtentFlagTreeBlock != 0 {
		tbi, err := DecodeStruct[TreeBlockInfo](data, off)
		if err != nil {
			return nil, err
		}
		rec.TreeBlock = &tbi
		off += TreeBlockInfoSize
	}

	for off < len(data) {
		var ref InlineRef
		ref, off, err = decodeInlineRef(data, off)
		if err != nil {
			return nil, err
		}
		rec.Inline = append(rec.Inline, ref)
	}
	return rec, nil
}

func decodeInlineRef(data []byte, off int) (InlineRef, int, error) {
	typ := ItemType(data[off])
	switch typ {
	case TreeBlockRefKey, SharedBlockRefKey:
		ir, err := DecodeStruct[ExtentInlineRef](data, off)
		if err != nil {
			return InlineRef{}, off, err
		}
		return InlineRef{Type: typ, Offset: ir.Offset}, off + ExtentInlineRefSize, nil

	case SharedDataRefKey:
		ir, err := DecodeStruct[ExtentInlineRef](data, off)
		if err != nil {
			return InlineRef{}, off, err
		}
		sdr, err := DecodeStruct[SharedDataRef](data, off+ExtentInlineRefSize)
		if err != nil {
			return InlineRef{}, off, err
		}
		return InlineRef{Type: typ, Offset: ir.Offset, Count: sdr.Count}, off + ExtentInlineRefSize + SharedDataRefSize, nil

	case ExtentDataRefKey:
		// The data ref takes the place of the offset field.
		edr, err := DecodeStruct[ExtentDataRef](data, off+1)
		if err != nil {
			return InlineRef{}, off, err
		}
		return InlineRef{Type: typ, DataRef: &edr, Count: edr.Count}, off + 1 + ExtentDataRefSize, nil

	default:
		return InlineRef{}, off, dataErrf(data, off, nil, "unknown inline ref type %d", typ)
	}
}

// sliceTail returns data[off:off+n] and the offset past it.
func sliceTail(data []byte, off, n int, what string) ([]byte, int, error) {
	if off > len(data) || len(data)-off < n {
		return nil, off, dataErrf(data, off, nil, "%s of %d bytes, %d remaining", what, n, max(len(data)-off, 0))
	}
	return data[off : off+n], off + n, nil
}
