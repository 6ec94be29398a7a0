package btrfstree

import "sync"

var searchBufferPool = &sync.Pool{
	New: func() any {
		return new([BufferSize]byte)
	},
}

func acquireSearchBuffer() *[BufferSize]byte {
	return searchBufferPool.Get().(*[BufferSize]byte)
}

func releaseSearchBuffer(b *[BufferSize]byte) {
	searchBufferPool.Put(b)
}
