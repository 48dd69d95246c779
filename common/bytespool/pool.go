// Package bytespool hands out scratch buffers for datagram reception.
//
// Buffers come from size classes doubling from MinPoolSize up to
// MaxPoolSize, which covers the largest possible UDP payload.
package bytespool

import "sync"

const (
	numPools    = 6
	sizeMulti   = 2
	MinPoolSize = 2048
	MaxPoolSize = MinPoolSize << (numPools - 1) // 64 KiB
)

var (
	pool     [numPools]sync.Pool
	poolSize [numPools]int
)

func init() {
	size := MinPoolSize
	for i := range numPools {
		n := size
		pool[i] = sync.Pool{
			New: func() any {
				b := make([]byte, n)
				return &b
			},
		}
		poolSize[i] = size
		size *= sizeMulti
	}
}

func classOf(size int) int {
	for idx, ps := range poolSize {
		if size <= ps {
			return idx
		}
	}
	return -1
}

// Alloc returns a slice of length size. Sizes below MinPoolSize or above
// MaxPoolSize are allocated directly.
func Alloc(size int) []byte {
	if size < MinPoolSize {
		return make([]byte, size)
	}
	idx := classOf(size)
	if idx < 0 {
		return make([]byte, size)
	}
	b := pool[idx].Get().(*[]byte)
	return (*b)[:size]
}

// Free returns b to the pool it fits. The caller must not use b afterwards.
func Free(b []byte) {
	c := cap(b)
	if c < MinPoolSize {
		return
	}
	for i := numPools - 1; i >= 0; i-- {
		if c >= poolSize[i] {
			b = b[:poolSize[i]]
			pool[i].Put(&b)
			return
		}
	}
}
