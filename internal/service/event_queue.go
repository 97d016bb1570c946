package service

import (
	"sync"
	"time"
)

// EventKind 标识事件类型
type EventKind string

const (
	EventReminderRegistered EventKind = "reminder.registered"
	EventRegistrationFailed EventKind = "reminder.registration_failed"
	EventRemindersCancelled EventKind = "reminder.cancelled_all"
	EventReminderCancelled  EventKind = "reminder.cancelled"
	EventPermissionDenied   EventKind = "reminder.permission_denied"
	EventPermissionChanged  EventKind = "reminder.permission_changed"
	EventIntakeAdded        EventKind = "intake.added"
	EventIntakeRemoved      EventKind = "intake.removed"
	EventIntakesSaved       EventKind = "intake.saved"
	EventStorageFailed      EventKind = "storage.failed"
	EventPreferencesUpdated EventKind = "preferences.updated"
	EventWidgetRefreshed    EventKind = "widget.refreshed"
	EventIntentQueued       EventKind = "intent.queued"
)

const (
	defaultEventQueueSize = 256
	subscriberBufferSize  = 32
)

// Event 是事件队列中的一条记录，Seq 单调递增
type Event struct {
	Seq     uint64         `json:"seq"`
	Kind    EventKind      `json:"kind"`
	At      time.Time      `json:"at"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventQueue 保存最近的事件供轮询，同时把新事件推送给订阅者
// 订阅者处理过慢时事件会被丢弃，发布方永不阻塞
type EventQueue struct {
	mu          sync.Mutex
	capacity    int
	events      []Event
	nextSeq     uint64
	now         func() time.Time
	subscribers map[uint64]chan Event
	nextSubID   uint64
}

// NewEventQueue 构造 EventQueue，capacity <= 0 时使用默认容量 256。
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = defaultEventQueueSize
	}
	return &EventQueue{
		capacity:    capacity,
		nextSeq:     1,
		now:         time.Now,
		subscribers: make(map[uint64]chan Event),
	}
}

// Publish 追加事件并返回带序号的副本
func (q *EventQueue) Publish(kind EventKind, message string, data map[string]any) Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	event := Event{
		Seq:     q.nextSeq,
		Kind:    kind,
		At:      q.now(),
		Message: message,
		Data:    data,
	}
	q.nextSeq++

	q.events = append(q.events, event)
	if overflow := len(q.events) - q.capacity; overflow > 0 {
		q.events = append([]Event(nil), q.events[overflow:]...)
	}

	for id, ch := range q.subscribers {
		select {
		case ch <- event:
		default:
			logf("events", "subscriber %d is slow, dropping event %d", id, event.Seq)
		}
	}
	return event
}

// Since 返回序号大于 seq 的事件，按序号升序
func (q *EventQueue) Since(seq uint64) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]Event, 0, len(q.events))
	for _, event := range q.events {
		if event.Seq > seq {
			result = append(result, event)
		}
	}
	return result
}

// LastSeq 返回最近一条事件的序号，队列为空时为 0
func (q *EventQueue) LastSeq() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.nextSeq - 1
}

// Subscribe 注册推送订阅，返回的 cancel 会关闭通道
func (q *EventQueue) Subscribe() (<-chan Event, func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextSubID
	q.nextSubID++
	ch := make(chan Event, subscriberBufferSize)
	q.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			delete(q.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}
