package safemap

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Map is a concurrent map backed by xsync.MapOf.
type Map[K comparable, V any] struct {
	m *xsync.MapOf[K, V]
}

func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: xsync.NewMapOf[K, V]()}
}

func (sm *Map[K, V]) Set(key K, value V) {
	sm.m.Store(key, value)
}

func (sm *Map[K, V]) Get(key K) (V, bool) {
	return sm.m.Load(key)
}

func (sm *Map[K, V]) Del(key K) {
	sm.m.Delete(key)
}

func (sm *Map[K, V]) Len() int {
	return sm.m.Size()
}

// DeleteFunc removes every entry for which del returns true and reports how
// many were removed. del is evaluated again under the entry lock, so a value
// replaced between the scan and the removal is judged on its new contents.
func (sm *Map[K, V]) DeleteFunc(del func(K, V) bool) int {
	var candidates []K
	sm.m.Range(func(key K, value V) bool {
		if del(key, value) {
			candidates = append(candidates, key)
		}
		return true
	})

	removed := 0
	for _, key := range candidates {
		sm.m.Compute(key, func(current V, loaded bool) (V, bool) {
			if !loaded || !del(key, current) {
				return current, !loaded
			}
			removed++
			return current, true
		})
	}
	return removed
}
