package service

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/drinkwell/internal/db"
	"github.com/drinkwell/internal/stats"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxIntakeNoteRunes = 500

// IntakeStore 维护饮水记录，内存列表是会话内的唯一数据源
// 写操作只修改内存并记录待落盘的变更，由调用方显式调用 Save 持久化
// 列表始终按时间倒序排列
type IntakeStore struct {
	db  *gorm.DB
	now func() time.Time

	mu             sync.Mutex
	records        []db.IntakeRecord
	pendingInserts []string
	pendingDeletes map[string]struct{}
}

// IntakeInput 定义新增饮水记录时的输入，Amount 单位为毫升
type IntakeInput struct {
	Amount    float64
	Timestamp time.Time
	Note      string
}

// NewIntakeStore 构造 IntakeStore
func NewIntakeStore(gdb *gorm.DB) *IntakeStore {
	return &IntakeStore{
		db:             gdb,
		now:            time.Now,
		pendingDeletes: make(map[string]struct{}),
	}
}

// WithClock 替换时间来源，主要面向测试场景。
func (s *IntakeStore) WithClock(now func() time.Time) *IntakeStore {
	if now != nil {
		s.now = now
	}
	return s
}

// Load 从数据库读取全部记录，覆盖内存中的列表与待落盘变更
func (s *IntakeStore) Load(ctx context.Context) error {
	var records []db.IntakeRecord
	if err := s.db.WithContext(ctx).
		Order("timestamp DESC, created_at DESC").
		Find(&records).Error; err != nil {
		return storageError("load intake records", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = records
	s.pendingInserts = nil
	s.pendingDeletes = make(map[string]struct{})
	return nil
}

// Add 校验并新增一条记录，Timestamp 为空时使用当前时间
func (s *IntakeStore) Add(input IntakeInput) (db.IntakeRecord, error) {
	if err := validateIntakeInput(input); err != nil {
		return db.IntakeRecord{}, err
	}

	now := s.now()
	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = now
	}

	record := db.IntakeRecord{
		ID:        uuid.NewString(),
		Amount:    input.Amount,
		Timestamp: timestamp,
		Note:      strings.TrimSpace(input.Note),
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index := slices.IndexFunc(s.records, func(existing db.IntakeRecord) bool {
		return !existing.Timestamp.After(record.Timestamp)
	})
	if index < 0 {
		index = len(s.records)
	}
	s.records = slices.Insert(s.records, index, record)
	s.pendingInserts = append(s.pendingInserts, record.ID)

	logf("intake", "added %s amount=%.0f note=%s", record.ID, record.Amount, logSnippet(record.Note))
	return record, nil
}

// Remove 删除指定记录，不存在时返回 ErrIntakeNotFound
// 尚未落盘的新增记录被删除时直接撤销插入
func (s *IntakeStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := slices.IndexFunc(s.records, func(record db.IntakeRecord) bool {
		return record.ID == id
	})
	if index < 0 {
		return ErrIntakeNotFound
	}
	s.records = slices.Delete(s.records, index, index+1)

	if pending := slices.Index(s.pendingInserts, id); pending >= 0 {
		s.pendingInserts = slices.Delete(s.pendingInserts, pending, pending+1)
		return nil
	}

	s.pendingDeletes[id] = struct{}{}
	return nil
}

// Get 根据 ID 获取记录
func (s *IntakeStore) Get(id string) (db.IntakeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.ID == id {
			return record, nil
		}
	}
	return db.IntakeRecord{}, ErrIntakeNotFound
}

// List 返回 [start, end) 区间内的记录，按时间倒序；nil 边界表示不限制
func (s *IntakeStore) List(start, end *time.Time) []db.IntakeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]db.IntakeRecord, 0, len(s.records))
	for _, record := range s.records {
		if start != nil && record.Timestamp.Before(*start) {
			continue
		}
		if end != nil && !record.Timestamp.Before(*end) {
			continue
		}
		result = append(result, record)
	}
	return result
}

// Entries 把全部记录转换为聚合计算使用的结构
func (s *IntakeStore) Entries() []stats.Entry {
	return ToEntries(s.List(nil, nil))
}

// Pending 返回尚未落盘的变更数量
func (s *IntakeStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingInserts) + len(s.pendingDeletes)
}

// Save 在一个事务中落盘所有待处理变更
// 失败时返回 ErrStorage，内存状态与待处理变更保持不变，便于稍后重试
func (s *IntakeStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pendingInserts) == 0 && len(s.pendingDeletes) == 0 {
		return nil
	}

	inserts := make([]db.IntakeRecord, 0, len(s.pendingInserts))
	for _, id := range s.pendingInserts {
		for _, record := range s.records {
			if record.ID == id {
				inserts = append(inserts, record)
				break
			}
		}
	}

	deletes := make([]string, 0, len(s.pendingDeletes))
	for id := range s.pendingDeletes {
		deletes = append(deletes, id)
	}
	slices.Sort(deletes)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(inserts) > 0 {
			if err := tx.Create(&inserts).Error; err != nil {
				return fmt.Errorf("insert intake records: %w", err)
			}
		}
		if len(deletes) > 0 {
			if err := tx.Where("id IN ?", deletes).Delete(&db.IntakeRecord{}).Error; err != nil {
				return fmt.Errorf("delete intake records: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		logf("intake", "save failed, keeping %d pending changes: %v", len(inserts)+len(deletes), err)
		return storageError("save intake records", err)
	}

	s.pendingInserts = nil
	s.pendingDeletes = make(map[string]struct{})
	return nil
}

// ToEntries 把数据库记录转换为聚合计算使用的结构
func ToEntries(records []db.IntakeRecord) []stats.Entry {
	entries := make([]stats.Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, stats.Entry{Amount: record.Amount, Timestamp: record.Timestamp})
	}
	return entries
}

func validateIntakeInput(input IntakeInput) error {
	if !(input.Amount > 0) || math.IsInf(input.Amount, 0) {
		return validationError("amount must be positive, got %v", input.Amount)
	}
	if utf8.RuneCountInString(strings.TrimSpace(input.Note)) > maxIntakeNoteRunes {
		return validationError("note must be at most %d characters", maxIntakeNoteRunes)
	}
	return nil
}
