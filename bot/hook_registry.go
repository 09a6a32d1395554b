package bot

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/xiaotuan/xiaotuan/bot/types"
)

// hookRegistry 管理一类钩子，高优先级在前，同优先级按注册先后执行
type hookRegistry[T any] struct {
	mu      sync.RWMutex
	lastID  atomic.Uint64
	entries []hookEntry[T]
}

type hookEntry[T any] struct {
	id       types.HookHandle
	name     string
	priority int
	handler  T
}

func (r *hookRegistry[T]) register(name string, priority types.HookPriority, handler T) (types.HookHandle, error) {
	if any(handler) == nil {
		return "", errors.New("hook handler must not be nil")
	}

	id := types.HookHandle(fmt.Sprintf("hook-%d", r.lastID.Add(1)))

	r.mu.Lock()
	defer r.mu.Unlock()

	// 插到第一个优先级更低的条目前面
	at := len(r.entries)
	for i, e := range r.entries {
		if int(priority) > e.priority {
			at = i
			break
		}
	}
	r.entries = slices.Insert(r.entries, at, hookEntry[T]{
		id:       id,
		name:     name,
		priority: int(priority),
		handler:  handler,
	})
	return id, nil
}

func (r *hookRegistry[T]) unregister(handle types.HookHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.id == handle {
			r.entries = slices.Delete(r.entries, i, i+1)
			return true
		}
	}
	return false
}

// snapshot 拷贝当前钩子列表，遍历期间的注册注销不影响本次执行
func (r *hookRegistry[T]) snapshot() []hookEntry[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 {
		return nil
	}
	return slices.Clone(r.entries)
}
