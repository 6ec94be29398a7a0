package btrfstest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andreyvit/btrfstree"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		spec     string
		expected []byte
	}{
		{"", nil},
		{"01 02_03", []byte{1, 2, 3}},
		{"'ab", []byte("ab")},
		{"#258", []byte{2, 1, 0, 0, 0, 0, 0, 0}},
		{"#258:2 #7:1", []byte{2, 1, 7}},
		{"05...", []byte{5, 0, 0, 0, 0, 0, 0, 0}},
		{"05..", []byte{5, 0, 0, 0}},
		{"ff*3 /trailing", []byte{0xff, 0xff, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			require.Equal(t, tt.expected, Expand(tt.spec))
		})
	}
}

func TestExpandInvalid(t *testing.T) {
	require.Panics(t, func() { Expand("zz") })
	require.Panics(t, func() { Expand("#300:1") })
	require.Panics(t, func() { Expand("#1:3") })
}

func TestHeaderSpec(t *testing.T) {
	h := btrfstree.Header{TransID: 1, ObjectID: 256, Offset: 2, Type: btrfstree.InodeRefKey, Len: 3}
	require.Equal(t, "#1 #256 #2 #12:4 #3:4", HeaderSpec(h))
	require.Len(t, Expand(HeaderSpec(h)), btrfstree.HeaderSize)
}

func TestSearchBuffer(t *testing.T) {
	b := SearchBuffer("'x")
	require.Len(t, b, btrfstree.BufferSize)
	require.Equal(t, byte('x'), b[0])
	require.Panics(t, func() { SearchBuffer(fmt.Sprintf("00*%d", btrfstree.BufferSize+1)) })
}

func TestHexDump(t *testing.T) {
	require.Equal(t, "00000000  61 62"+strings.Repeat(" ", 42)+"  |ab|\n", HexDump([]byte("ab"), -1))
	require.Contains(t, HexDump([]byte("ab"), 1), " 61>62")
}
