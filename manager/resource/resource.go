// Package resource provides the handle table that maps opaque integer
// handles to host-owned resources.
package resource

import (
	"sync"
	"sync/atomic"
)

// Manager[T] is a generic, thread-safe handle table.
//
// Handles start at 1 and grow monotonically; a handle is never handed out
// twice for the lifetime of the Manager, so a stale handle can never alias a
// newer resource.
type Manager[T any] struct {
	mu      sync.RWMutex
	handles map[int64]T
	nextID  atomic.Int64

	// onRemove 在资源被 Remove/Clear 移出表之后调用 (不持有表锁)
	onRemove func(T)
}

// NewManager creates a table. onRemove, if non-nil, is called for every
// resource removed through Remove or Clear.
func NewManager[T any](onRemove func(T)) *Manager[T] {
	return &Manager[T]{
		handles:  make(map[int64]T),
		onRemove: onRemove,
	}
}

// Add stores resource and returns its new handle.
func (m *Manager[T]) Add(resource T) int64 {
	handle := m.nextID.Add(1)
	m.mu.Lock()
	m.handles[handle] = resource
	m.mu.Unlock()
	return handle
}

// Get looks up a handle.
func (m *Manager[T]) Get(handle int64) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.handles[handle]
	return res, ok
}

// Remove deletes handle from the table and reports whether it was present.
func (m *Manager[T]) Remove(handle int64) (T, bool) {
	m.mu.Lock()
	res, ok := m.handles[handle]
	if ok {
		delete(m.handles, handle)
	}
	m.mu.Unlock()

	if ok && m.onRemove != nil {
		m.onRemove(res)
	}
	return res, ok
}

// Len returns the number of live handles.
func (m *Manager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

// Range calls f for each handle until f returns false. f must not call back
// into m with a write.
func (m *Manager[T]) Range(f func(handle int64, resource T) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for handle, resource := range m.handles {
		if !f(handle, resource) {
			break
		}
	}
}

// Clear empties the table and returns how many resources it held. The id
// counter is not reset.
func (m *Manager[T]) Clear() int {
	m.mu.Lock()
	old := m.handles
	m.handles = make(map[int64]T)
	m.mu.Unlock()

	if m.onRemove != nil {
		for _, res := range old {
			m.onRemove(res)
		}
	}
	return len(old)
}
