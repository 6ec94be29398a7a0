package snapshot

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreyvit/btrfstree"
)

const (
	metaBucket     = "meta"
	treeBucketPref = "tree/"

	itemKeySize = 20
)

var infoKey = []byte("info")

func treeBucket(tree uint64) string {
	return treeBucketPref + strconv.FormatUint(tree, 10)
}

func parseTreeBucket(name string) (uint64, bool) {
	s, ok := strings.CutPrefix(name, treeBucketPref)
	if !ok {
		return 0, false
	}
	tree, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return tree, true
}

// Item keys are big-endian so that byte order matches the kernel's key order.
func appendItemKey(b []byte, objectID uint64, typ btrfstree.ItemType, offset uint64) []byte {
	b = binary.BigEndian.AppendUint64(b, objectID)
	b = binary.BigEndian.AppendUint32(b, uint32(typ))
	b = binary.BigEndian.AppendUint64(b, offset)
	return b
}

func decodeItemKey(k []byte) (objectID uint64, typ btrfstree.ItemType, offset uint64, err error) {
	if len(k) != itemKeySize {
		return 0, 0, 0, fmt.Errorf("invalid item key %x", k)
	}
	return binary.BigEndian.Uint64(k[0:]), btrfstree.ItemType(binary.BigEndian.Uint32(k[8:])), binary.BigEndian.Uint64(k[12:]), nil
}

type storedItem struct {
	TransID uint64 `msgpack:"t"`
	Data    []byte `msgpack:"d"`
	Sum     uint64 `msgpack:"x"`
}

func encodeItem(transID uint64, data []byte) ([]byte, error) {
	return msgpack.Marshal(&storedItem{
		TransID: transID,
		Data:    data,
		Sum:     xxhash.Sum64(data),
	})
}

func decodeItem(v []byte) (storedItem, error) {
	var it storedItem
	if err := msgpack.Unmarshal(v, &it); err != nil {
		return it, err
	}
	if sum := xxhash.Sum64(it.Data); sum != it.Sum {
		return it, fmt.Errorf("%w: checksum %016x, expected %016x", ErrCorrupted, sum, it.Sum)
	}
	if it.Data == nil {
		it.Data = []byte{}
	}
	return it, nil
}
