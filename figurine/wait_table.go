package figurine

import (
	"sync"
	"time"
)

// WaitTTL 等待用户补发图片的时限
const WaitTTL = 10 * time.Second

type pendingWait struct {
	style  string
	expiry time.Time
}

// WaitTable 记录"发了指令但还没发图"的用户，条目10秒后过期
type WaitTable struct {
	mu      sync.Mutex
	entries map[string]pendingWait
	now     func() time.Time
}

func NewWaitTable() *WaitTable {
	return &WaitTable{
		entries: map[string]pendingWait{},
		now:     time.Now,
	}
}

// Put 登记等待，同一用户重复登记覆盖旧条目
func (t *WaitTable) Put(userID, style string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[userID] = pendingWait{style: style, expiry: t.now().Add(WaitTTL)}
}

// Take 取走未过期的等待条目，过期条目顺手删除
func (t *WaitTable) Take(userID string) (style string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.entries[userID]
	if !exists {
		return "", false
	}
	delete(t.entries, userID)
	if t.now().After(entry.expiry) {
		return "", false
	}
	return entry.style, true
}

// SetNowFunc 测试时注入时钟
func (t *WaitTable) SetNowFunc(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}
