// Package checkstate 保存每个实体最近一次被检查的时间，用于 sweep 限流。
// 状态在 sweep 开始时加载为 Ledger，结束时持久化；中途失败则丢弃。
package checkstate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	Load(ctx context.Context) (map[uuid.UUID]time.Time, error)
	Save(ctx context.Context, checks map[uuid.UUID]time.Time) error
}

// Ledger 单次 sweep 内的检查状态快照
type Ledger struct {
	loaded  map[uuid.UUID]time.Time
	touched map[uuid.UUID]time.Time
}

// Begin 加载检查状态并返回本次 sweep 的 Ledger
func Begin(ctx context.Context, store Store) (*Ledger, error) {
	loaded, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		loaded = make(map[uuid.UUID]time.Time)
	}
	return &Ledger{
		loaded:  loaded,
		touched: make(map[uuid.UUID]time.Time),
	}, nil
}

// LastCheck 返回实体上次检查时间，没有则返回 nil
func (l *Ledger) LastCheck(entityID uuid.UUID) *time.Time {
	if t, ok := l.touched[entityID]; ok {
		return &t
	}
	if t, ok := l.loaded[entityID]; ok {
		return &t
	}
	return nil
}

// Touch 记录实体在 now 被检查
func (l *Ledger) Touch(entityID uuid.UUID, now time.Time) {
	l.touched[entityID] = now
}

// Commit 只写回本次 sweep 触碰过的实体
func (l *Ledger) Commit(ctx context.Context, store Store) error {
	if len(l.touched) == 0 {
		return nil
	}
	return store.Save(ctx, l.touched)
}

// MemoryStore 进程内实现，用于测试和未配置 Redis 的场景
type MemoryStore struct {
	mu     sync.Mutex
	checks map[uuid.UUID]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{checks: make(map[uuid.UUID]time.Time)}
}

func (s *MemoryStore) Load(ctx context.Context) (map[uuid.UUID]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uuid.UUID]time.Time, len(s.checks))
	for k, v := range s.checks {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, checks map[uuid.UUID]time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range checks {
		s.checks[k] = v
	}
	return nil
}
