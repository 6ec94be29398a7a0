package btrfstree

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferTooSmall is returned when a scratch buffer cannot hold the
	// envelope (for Encode) or the kernel's full argument struct (for Search).
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrNoDecoder is returned by DecodeItem for item types the catalog does
	// not cover. The raw payload is still returned as a RawItem.
	ErrNoDecoder = errors.New("no decoder for item type")
)

// DataError reports a malformed or truncated buffer: a result count, header or
// payload length that points past the end of the data, or a struct that does
// not fit into its item.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at offset %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s at offset %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s at offset %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s at offset %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}

// QueryError reports a query dimension whose lower bound exceeds its upper
// bound. Such queries are rejected before any control call is made.
//
// For a continuation query Field is "key" and Min and Max are the object ids
// of the composite minimum and maximum keys.
type QueryError struct {
	Field string
	Min   uint64
	Max   uint64
}

func (e *QueryError) Error() string {
	if e.Field == "key" {
		return fmt.Sprintf("invalid query: min key (objectid %d) > max key (objectid %d)", e.Min, e.Max)
	}
	return fmt.Sprintf("invalid query: %s min %d > max %d", e.Field, e.Min, e.Max)
}

func noDecoderErr(typ ItemType) error {
	return fmt.Errorf("%w %d", ErrNoDecoder, typ)
}
