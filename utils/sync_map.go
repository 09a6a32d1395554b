package utils

import "sync"

// SyncMap 是 sync.Map 的泛型封装
type SyncMap[K comparable, V any] struct {
	m sync.Map
}

func (sm *SyncMap[K, V]) Load(key K) (V, bool) {
	var zero V
	value, ok := sm.m.Load(key)
	if !ok {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

func (sm *SyncMap[K, V]) Store(key K, value V) {
	sm.m.Store(key, value)
}

func (sm *SyncMap[K, V]) Delete(key K) bool {
	_, loaded := sm.m.LoadAndDelete(key)
	return loaded
}

func (sm *SyncMap[K, V]) LoadOrStore(key K, value V) (V, bool) {
	actual, loaded := sm.m.LoadOrStore(key, value)
	return actual.(V), loaded
}

func (sm *SyncMap[K, V]) Range(f func(key K, value V) bool) {
	sm.m.Range(func(key, value any) bool {
		return f(key.(K), value.(V))
	})
}

func (sm *SyncMap[K, V]) Len() int {
	n := 0
	sm.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
