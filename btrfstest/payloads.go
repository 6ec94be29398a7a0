package btrfstest

import (
	"github.com/andreyvit/btrfstree"
)

func RootRefPayload(dirID, sequence uint64, name string) []byte {
	b := btrfstree.AppendStruct(nil, btrfstree.RootRef{DirID: dirID, Sequence: sequence, NameLen: uint16(len(name))})
	return append(b, name...)
}

// InodeRefPayload packs one entry per name, with consecutive indexes.
func InodeRefPayload(index uint64, names ...string) []byte {
	var b []byte
	for i, name := range names {
		b = btrfstree.AppendStruct(b, btrfstree.InodeRef{Index: index + uint64(i), NameLen: uint16(len(name))})
		b = append(b, name...)
	}
	return b
}

func DirItemPayload(location btrfstree.Key, transID uint64, typ uint8, name string, data []byte) []byte {
	b := btrfstree.AppendStruct(nil, btrfstree.DirItem{
		Location: location,
		TransID:  transID,
		DataLen:  uint16(len(data)),
		NameLen:  uint16(len(name)),
		Type:     typ,
	})
	b = append(b, name...)
	return append(b, data...)
}

// ChunkPayload sets NumStripes from stripes.
func ChunkPayload(c btrfstree.Chunk, stripes ...btrfstree.Stripe) []byte {
	c.NumStripes = uint16(len(stripes))
	b := btrfstree.AppendStruct(nil, c)
	for _, s := range stripes {
		b = btrfstree.AppendStruct(b, s)
	}
	return b
}

func BlockGroupPayload(used, flags uint64) []byte {
	return btrfstree.AppendStruct(nil, btrfstree.BlockGroupItem{
		Used:          used,
		ChunkObjectID: btrfstree.FirstChunkTreeObjectID,
		Flags:         flags,
	})
}

// DataExtentPayload is an EXTENT_ITEM of a data extent with one inline
// EXTENT_DATA_REF.
func DataExtentPayload(generation uint64, ref btrfstree.ExtentDataRef) []byte {
	b := btrfstree.AppendStruct(nil, btrfstree.ExtentItem{Refs: uint64(ref.Count), Generation: generation, Flags: btrfstree.ExtentFlagData})
	b = append(b, uint8(btrfstree.ExtentDataRefKey))
	return btrfstree.AppendStruct(b, ref)
}
