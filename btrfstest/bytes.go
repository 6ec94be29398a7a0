package btrfstest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/andreyvit/btrfstree"
)

// Expand builds a byte slice from a compact text description, which keeps
// search buffer and item fixtures readable. Elements are separated by
// whitespace:
//
//	0a0b_0c      hex bytes; underscores separate bytes of odd length
//	'abc         literal text
//	#300         little-endian u64; #300:4, #300:2 and #300:1 pick the width
//	05...        05 padded with zeros to 8 bytes (..  pads to 4)
//	00*16        repeat
//	/comment     ignored
//
// Integers are little-endian, which is what items use on disk and what the
// search buffer uses on little-endian hosts. Expand panics on malformed input.
func Expand(specs ...string) []byte {
	var b []byte
	for _, spec := range specs {
		for _, elem := range strings.Fields(spec) {
			var err error
			b, err = expandElem(b, elem)
			if err != nil {
				panic(fmt.Errorf("%w in element %q", err, elem))
			}
		}
	}
	return b
}

func expandElem(b []byte, elem string) ([]byte, error) {
	elem, _, _ = strings.Cut(elem, "/")
	if elem == "" {
		return b, nil
	}

	elem, repStr, _ := strings.Cut(elem, "*")
	rep := 1
	if repStr != "" {
		var err error
		rep, err = strconv.Atoi(repStr)
		if err != nil {
			return nil, fmt.Errorf("invalid repeat count %q", repStr)
		}
	}

	padTo := 0
	left, right, ok := strings.Cut(elem, "...")
	if ok {
		padTo = 8
	} else if left, right, ok = strings.Cut(elem, ".."); ok {
		padTo = 4
	}

	leftBytes, err := appendHexDecoding(nil, left)
	if err != nil {
		return nil, err
	}
	rightBytes, err := appendHexDecoding(nil, right)
	if err != nil {
		return nil, err
	}
	zeros := max(0, padTo-len(leftBytes)-len(rightBytes))

	for range rep {
		b = append(b, leftBytes...)
		b = append(b, make([]byte, zeros)...)
		b = append(b, rightBytes...)
	}
	return b, nil
}

func appendHexDecoding(data []byte, hex string) ([]byte, error) {
	if decimal, ok := strings.CutPrefix(hex, "#"); ok {
		return appendDecimal(data, decimal)
	}
	if text, ok := strings.CutPrefix(hex, "'"); ok {
		return append(data, text...), nil
	}

	const none byte = 0xFF
	prev := none
	for _, c := range []byte(hex) {
		var half byte
		switch {
		case c == '_':
			if prev != none {
				data = append(data, prev)
				prev = none
			}
			continue
		case c >= '0' && c <= '9':
			half = c - '0'
		case c >= 'a' && c <= 'f':
			half = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			half = c - 'A' + 10
		default:
			return nil, fmt.Errorf("invalid char '%c'", c)
		}
		if prev == none {
			prev = half
		} else {
			data = append(data, prev<<4|half)
			prev = none
		}
	}
	if prev != none {
		data = append(data, prev)
	}
	return data, nil
}

func appendDecimal(data []byte, s string) ([]byte, error) {
	s, widthStr, _ := strings.Cut(s, ":")
	width := 8
	if widthStr != "" {
		var err error
		width, err = strconv.Atoi(widthStr)
		if err != nil {
			return nil, err
		}
	}
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("invalid width %d", width)
	}
	v, err := strconv.ParseUint(s, 10, width*8)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint64(data, v)[:len(data)+width], nil
}

// HeaderSpec returns the Expand description of a 32-byte result header.
func HeaderSpec(h btrfstree.Header) string {
	return fmt.Sprintf("#%d #%d #%d #%d:4 #%d:4", h.TransID, h.ObjectID, h.Offset, uint32(h.Type), h.Len)
}

// SearchBuffer expands specs and pads the result with zeros to
// btrfstree.BufferSize.
func SearchBuffer(specs ...string) []byte {
	b := Expand(specs...)
	if len(b) > btrfstree.BufferSize {
		panic(fmt.Sprintf("search buffer fixture is %d bytes", len(b)))
	}
	return append(b, make([]byte, btrfstree.BufferSize-len(b))...)
}

// LittleEndianHost skips t on hosts where the search buffer, which uses the
// host byte order, cannot be described with Expand.
func LittleEndianHost(t testing.TB) {
	if binary.NativeEndian.Uint16([]byte{1, 0}) != 1 {
		t.Skip("search buffer fixtures are little-endian")
	}
}

// HexDump formats b 16 bytes per line, marking the byte at highlightOff
// (if non-negative) with '>'.
func HexDump(b []byte, highlightOff int) string {
	var buf strings.Builder
	for off := 0; ; off += 16 {
		fmt.Fprintf(&buf, "%08x", off)
		if off >= len(b) {
			buf.WriteByte('\n')
			break
		}
		line := b[off:min(off+16, len(b))]
		buf.WriteByte(' ')
		for i := range 16 {
			switch {
			case i >= len(line):
				buf.WriteString("   ")
			case off+i == highlightOff:
				fmt.Fprintf(&buf, ">%02x", line[i])
			default:
				fmt.Fprintf(&buf, " %02x", line[i])
			}
		}
		buf.WriteString("  |")
		for _, v := range line {
			if v < 32 || v > 126 {
				v = '.'
			}
			buf.WriteByte(v)
		}
		buf.WriteString("|\n")
		if off+16 >= len(b) {
			break
		}
	}
	return buf.String()
}

// BytesEq reports a mismatch between a and e as hex dumps marked at the first
// differing byte.
func BytesEq(t testing.TB, a, e []byte) bool {
	if bytes.Equal(a, e) {
		return true
	}
	off := min(len(a), len(e))
	for i := range off {
		if a[i] != e[i] {
			off = i
			break
		}
	}
	t.Helper()
	t.Errorf("** got:\n%v\nwanted:\n%v\nfirst difference offset: 0x%x (%d)", HexDump(a, off), HexDump(e, off), off, off)
	return false
}
