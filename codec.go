package btrfstree

// Results is a single-pass cursor over the records of one search response. It
// reads the buffer in place; records it yields become invalid when the buffer
// is reused for another search.
//
//	res, err := btrfstree.Decode(buf)
//	for res.Next() {
//		rec := res.Record()
//	}
//	if err := res.Err(); err != nil {
//	}
type Results struct {
	buf   []byte
	count uint32
	index uint32
	pos   int
	rec   Record
	last  Header
	err   error
}

// Decode returns a cursor over the response in buf. The result count stored
// in the search key decides how many records are read; trailing bytes are
// never examined.
func Decode(buf []byte) (*Results, error) {
	if len(buf) < SearchKeySize {
		return nil, dataErrf(buf, 0, nil, "response needs at least %d bytes", SearchKeySize)
	}
	return &Results{
		buf:   buf,
		count: resultCount(buf),
		pos:   SearchKeySize,
	}, nil
}

// Len returns the number of records the response declares.
func (r *Results) Len() int {
	return int(r.count)
}

// Next advances to the next record. It returns false when all records have
// been read or the response turned out to be malformed; check Err.
func (r *Results) Next() bool {
	if r.err != nil || r.index >= r.count {
		r.rec = Record{}
		return false
	}

	if rem := len(r.buf) - r.pos; rem < HeaderSize {
		r.fail(dataErrf(r.buf, r.pos, nil, "record %d of %d: header truncated, %d bytes remaining", r.index+1, r.count, rem))
		return false
	}
	h := decodeHeader(r.buf[r.pos:])
	start := r.pos + HeaderSize

	if rem := len(r.buf) - start; uint64(h.Len) > uint64(rem) {
		r.fail(dataErrf(r.buf, start, nil, "record %d of %d: payload of %d bytes, %d bytes remaining", r.index+1, r.count, h.Len, rem))
		return false
	}
	end := start + int(h.Len)

	r.rec = Record{Header: h, Data: r.buf[start:end:end]}
	r.last = h
	r.pos = end
	r.index++
	return true
}

func (r *Results) fail(err error) {
	r.err = err
	r.rec = Record{}
}

// Record returns the current record.
func (r *Results) Record() Record {
	return r.rec
}

// Header returns the header of the current record.
func (r *Results) Header() Header {
	return r.rec.Header
}

// Err returns the decoding error that stopped the cursor, if any.
func (r *Results) Err() error {
	return r.err
}

// Collect reads the remaining records and returns copies that stay valid
// after the buffer is reused. On a malformed response it returns the records
// read so far together with the error.
func (r *Results) Collect() ([]Record, error) {
	var result []Record
	n := int(r.count - r.index)
	if fit := (len(r.buf) - r.pos) / HeaderSize; n > fit {
		n = fit
	}
	if n > 0 && r.err == nil {
		result = make([]Record, 0, n)
	}
	for r.Next() {
		result = append(result, r.rec.Clone())
	}
	return result, r.err
}

// drain reads the remaining records and returns the last header seen, which
// is what pagination continues from.
func (r *Results) drain() (Header, bool, error) {
	for r.Next() {
	}
	return r.last, r.index > 0, r.err
}
