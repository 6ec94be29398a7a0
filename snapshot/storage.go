package snapshot

import "errors"

// ErrBucketNotFound is returned by storageTx.DeleteBucket when the bucket doesn't exist.
var ErrBucketNotFound = errors.New("bucket not found")

// storage is a sorted key-value store with flat buckets (Bolt or in-memory).
type storage interface {
	// BeginTx starts a new transaction. Writable transactions are serialized.
	BeginTx(writable bool) (storageTx, error)
	Close() error
}

type storageTx interface {
	Writable() bool

	// Bucket returns nil if the bucket doesn't exist.
	Bucket(name string) storageBucket

	// CreateBucket creates a bucket if it doesn't exist.
	CreateBucket(name string) (storageBucket, error)

	DeleteBucket(name string) error

	// ForEachBucket calls fn with the name of every bucket, in name order.
	ForEachBucket(fn func(name string) error) error

	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times,
	// including after Commit.
	Rollback() error
}

type storageBucket interface {
	// Get returns nil if the key doesn't exist.
	Get(key []byte) []byte

	Put(key, value []byte) error

	Cursor() storageCursor

	KeyCount() int
}

// storageCursor iterates over a bucket in key order. The returned slices are
// only valid until the transaction ends.
type storageCursor interface {
	First() (key, value []byte)

	// Seek moves to the first key >= seek.
	Seek(seek []byte) (key, value []byte)

	Next() (key, value []byte)
}
