package mind

import (
	"fmt"
	"sync"
)

// Memory is a thread-safe key-value store holding what an agent knows.
//
// Usage: Create with new(Memory). The internal map is lazily initialized on
// the first write.
type Memory struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewMemory creates a memory holding a copy of initial.
func NewMemory(initial map[string]any) *Memory {
	m := new(Memory)
	m.Merge(initial)
	return m
}

func (m *Memory) init() {
	if m.data == nil {
		m.data = make(map[string]any)
	}
}

// Get retrieves a value. Returns nil if the key doesn't exist.
func (m *Memory) Get(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil
	}
	return m.data[key]
}

// Set stores a value.
func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.data[key] = value
}

// Merge stores every entry of values.
func (m *Memory) Merge(values map[string]any) {
	if len(values) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	for k, v := range values {
		m.data[k] = v
	}
}

// Has returns true if the key exists.
func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return false
	}
	_, ok := m.data[key]
	return ok
}

// Delete removes a key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return
	}
	delete(m.data, key)
}

// Keys returns all keys, in no particular order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Snapshot returns a shallow copy of the data.
//
// WARNING: This is a SHALLOW copy. Mutable values (slices, maps, pointers)
// are shared with the memory.
func (m *Memory) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]any, len(m.data))
	for k, v := range m.data {
		result[k] = v
	}
	return result
}

// Variable reads one value, normalizing key to a string. Returns (nil, nil)
// if the key doesn't exist.
func (m *Memory) Variable(key any) (any, error) {
	if key == nil {
		return nil, fmt.Errorf("variable key cannot be nil")
	}
	var keyStr string
	switch k := key.(type) {
	case string:
		keyStr = k
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		keyStr = fmt.Sprintf("%d", k)
	case fmt.Stringer:
		keyStr = k.String()
	default:
		return nil, fmt.Errorf("unsupported key type: %T", key)
	}
	return m.Get(keyStr), nil
}
