package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/peckin/peckin/backend/go-services/internal/profiles"
	"github.com/segmentio/ksuid"
)

// Repository persists records. Get returns (nil, nil) when no record exists.
type Repository interface {
	Get(ctx context.Context, collection, id string) (*profiles.Record, error)
	Create(ctx context.Context, rec *profiles.Record) (string, error)
	Put(ctx context.Context, rec *profiles.Record) error
}

// MemoryRepo is an in-memory repository used when MongoDB is not configured
// and in unit tests. Data is copied on the way in and out.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]map[string]*profiles.Record
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]map[string]*profiles.Record)}
}

func copyData(in map[string]interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MemoryRepo) Get(ctx context.Context, collection, id string) (*profiles.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[collection][id]
	if !ok {
		return nil, nil
	}
	data, err := copyData(r.Data)
	if err != nil {
		return nil, err
	}
	cp := *r
	cp.Data = data
	return &cp, nil
}

func (m *MemoryRepo) Create(ctx context.Context, rec *profiles.Record) (string, error) {
	rec.ID = ksuid.New().String()
	if err := m.Put(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (m *MemoryRepo) Put(ctx context.Context, rec *profiles.Record) error {
	data, err := copyData(rec.Data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.store[rec.Collection]
	if !ok {
		col = make(map[string]*profiles.Record)
		m.store[rec.Collection] = col
	}
	now := time.Now().UTC()
	created := now
	if prev, ok := col[rec.ID]; ok {
		created = prev.CreatedAt
	}
	cp := *rec
	cp.Data = data
	cp.CreatedAt = created
	cp.UpdatedAt = now
	col[rec.ID] = &cp
	rec.CreatedAt, rec.UpdatedAt = created, now
	return nil
}
