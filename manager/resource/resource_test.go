package resource

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerHandlesNeverReused(t *testing.T) {
	m := NewManager[string](nil)

	h1 := m.Add("a")
	h2 := m.Add("b")
	require.Equal(t, int64(1), h1)
	require.Equal(t, int64(2), h2)

	_, ok := m.Remove(h1)
	require.True(t, ok)
	_, ok = m.Remove(h1)
	require.False(t, ok, "double remove must fail")

	h3 := m.Add("c")
	assert.Equal(t, int64(3), h3)
	_, ok = m.Get(h1)
	assert.False(t, ok)

	v, ok := m.Get(h3)
	require.True(t, ok)
	assert.Equal(t, "c", v)
	assert.Equal(t, 2, m.Len())
}

func TestManagerOnRemove(t *testing.T) {
	var removed []int
	m := NewManager(func(v int) { removed = append(removed, v) })

	h := m.Add(1)
	m.Add(2)
	m.Add(3)

	m.Remove(h)
	assert.Equal(t, []int{1}, removed)

	assert.Equal(t, 2, m.Clear())
	assert.ElementsMatch(t, []int{1, 2, 3}, removed)
	assert.Equal(t, 0, m.Len())

	// counter survives Clear
	assert.Equal(t, int64(4), m.Add(4))
}

func TestManagerRange(t *testing.T) {
	m := NewManager[int](nil)
	for i := 0; i < 5; i++ {
		m.Add(i)
	}

	count := 0
	m.Range(func(handle int64, v int) bool {
		count++
		return count < 3
	})
	assert.Equal(t, 3, count)
}

func TestManagerConcurrent(t *testing.T) {
	m := NewManager[int](nil)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				h := m.Add(i)
				mu.Lock()
				seen[h] = true
				mu.Unlock()
				m.Remove(h)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 8*500)
	assert.Equal(t, 0, m.Len())
}
