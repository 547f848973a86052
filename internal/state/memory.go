package state

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"hotel-bot/internal/models"
	"hotel-bot/pkg/logger"
)

const shardCount = 32

type entry struct {
	session *models.SearchSession
	touched time.Time
}

type shard struct {
	mu       sync.RWMutex
	sessions map[models.SessionKey]entry
}

// MemoryStore is a sharded in-process store. Sessions are copied on the way
// in and out so callers never share memory with the store.
type MemoryStore struct {
	shards [shardCount]*shard
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

func NewMemoryStore(ttl time.Duration, logger *logger.Logger) *MemoryStore {
	m := &MemoryStore{ttl: ttl, now: time.Now, logger: logger.Named("state")}
	for i := range m.shards {
		m.shards[i] = &shard{sessions: make(map[models.SessionKey]entry)}
	}
	return m
}

func (m *MemoryStore) shard(key models.SessionKey) *shard {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d:%d", key.ChatID, key.UserID)
	return m.shards[h.Sum32()%shardCount]
}

func (m *MemoryStore) Get(_ context.Context, key models.SessionKey) (*models.SearchSession, error) {
	sh := m.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.sessions[key]
	if !ok {
		return nil, nil
	}
	return e.session.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, key models.SessionKey, s *models.SearchSession) error {
	if s == nil {
		return fmt.Errorf("state: nil session for %s", key)
	}
	sh := m.shard(key)
	sh.mu.Lock()
	sh.sessions[key] = entry{session: s.Clone(), touched: m.now()}
	sh.mu.Unlock()
	return nil
}

func (m *MemoryStore) Update(_ context.Context, key models.SessionKey, fn func(*models.SearchSession) error) error {
	sh := m.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.sessions[key]
	if !ok {
		return ErrNoSession
	}
	s := e.session.Clone()
	if err := fn(s); err != nil {
		return err
	}
	sh.sessions[key] = entry{session: s, touched: m.now()}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key models.SessionKey) error {
	sh := m.shard(key)
	sh.mu.Lock()
	_, ok := sh.sessions[key]
	delete(sh.sessions, key)
	sh.mu.Unlock()
	if !ok {
		m.logger.Debugw("No session to delete", "session", key.String())
	}
	return nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. Sessions with a search in flight are kept.
func (m *MemoryStore) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)
	removed := 0
	for _, sh := range m.shards {
		sh.mu.Lock()
		for key, e := range sh.sessions {
			if e.touched.Before(cutoff) && !e.session.CommenceSearch {
				delete(sh.sessions, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

func (m *MemoryStore) Len() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

// StartSweeper schedules Sweep with a cron spec such as "@every 5m". Stop
// the returned scheduler on shutdown.
func (m *MemoryStore) StartSweeper(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := m.Sweep(); n > 0 {
			m.logger.Infow("Swept idle sessions", "removed", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	c.Start()
	return c, nil
}
