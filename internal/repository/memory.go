package repository

import (
	"slices"
	"sync"
	"time"

	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/google/uuid"
)

type MemoryDraftRepository struct {
	drafts sync.Map
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{}
}

func (m *MemoryDraftRepository) CreateDraft() (*model.Draft, error) {
	draft := &model.Draft{
		ID:        model.DraftID(uuid.New().String()),
		UpdatedAt: time.Now().UTC(),
	}
	m.drafts.Store(draft.ID, *draft)
	return draft, nil
}

func (m *MemoryDraftRepository) SaveDraft(draft model.Draft) error {
	if _, ok := m.drafts.Load(draft.ID); !ok && draft.IsEmpty() {
		return nil
	}

	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}
	m.drafts.Store(draft.ID, draft)
	return nil
}

func (m *MemoryDraftRepository) GetDraft(id model.DraftID) (*model.Draft, error) {
	if v, ok := m.drafts.Load(id); ok {
		draft := v.(model.Draft)
		return &draft, nil
	}
	return nil, ErrDraftNotFound
}

func (m *MemoryDraftRepository) DeleteDraft(id model.DraftID) error {
	m.drafts.Delete(id)
	return nil
}

func (m *MemoryDraftRepository) ListDrafts() ([]model.Draft, error) {
	var drafts []model.Draft
	m.drafts.Range(func(_, v any) bool {
		if d := v.(model.Draft); !d.IsEmpty() {
			drafts = append(drafts, d)
		}
		return true
	})
	slices.SortStableFunc(drafts, func(a, b model.Draft) int {
		return -a.UpdatedAt.Compare(b.UpdatedAt)
	})
	return drafts, nil
}

type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
