package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// IntentKind 表示外部触发的界面意图
type IntentKind string

const (
	// IntentOpenAddIntake 请求客户端打开添加饮水记录界面
	IntentOpenAddIntake IntentKind = "open_add_intake"
)

// Intent 来源包括深链接、小组件点击与通知按钮，仅影响界面，不修改数据
type Intent struct {
	ID       string     `json:"id"`
	Kind     IntentKind `json:"kind"`
	Source   string     `json:"source"`
	QueuedAt time.Time  `json:"queued_at"`
}

// IntentQueue 是先进先出的意图队列
// 队尾已有同类意图时不会重复入队，避免连续点击打开多个界面
type IntentQueue struct {
	mu      sync.Mutex
	now     func() time.Time
	pending []Intent
}

// NewIntentQueue 构造 IntentQueue
func NewIntentQueue() *IntentQueue {
	return &IntentQueue{now: time.Now}
}

// Push 入队并返回实际排队的意图，第二个返回值表示是否新入队
func (q *IntentQueue) Push(kind IntentKind, source string) (Intent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n := len(q.pending); n > 0 && q.pending[n-1].Kind == kind {
		return q.pending[n-1], false
	}

	intent := Intent{
		ID:       uuid.NewString(),
		Kind:     kind,
		Source:   source,
		QueuedAt: q.now(),
	}
	q.pending = append(q.pending, intent)
	return intent, true
}

// Pop 取出队首意图
func (q *IntentQueue) Pop() (Intent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return Intent{}, false
	}
	intent := q.pending[0]
	q.pending = q.pending[1:]
	return intent, true
}

// Peek 查看队首意图但不出队
func (q *IntentQueue) Peek() (Intent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return Intent{}, false
	}
	return q.pending[0], true
}

// Len 返回排队中的意图数量
func (q *IntentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
