package application

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

// --- In-memory port implementations shared by service tests ---

type mockCredentialStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]model.CredentialRecord
	updates []model.CredentialUpdate
	getErr  error
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{records: make(map[int64]model.CredentialRecord)}
}

func (m *mockCredentialStore) List(_ context.Context, query string) ([]model.CredentialSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.CredentialSummary, 0, len(m.records))
	for _, r := range m.records {
		if query != "" && !strings.Contains(r.Service+r.Username+r.Category, query) {
			continue
		}
		out = append(out, model.CredentialSummary{
			ID: r.ID, Service: r.Service, Username: r.Username, IconData: r.IconData, Category: r.Category,
		})
	}
	slices.SortFunc(out, func(a, b model.CredentialSummary) int { return int(a.ID - b.ID) })
	return out, nil
}

func (m *mockCredentialStore) Get(_ context.Context, id int64) (*model.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("get credential %d: %w", id, model.ErrNotFound)
	}
	return &r, nil
}

func (m *mockCredentialStore) Insert(_ context.Context, rec model.CredentialRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	rec.ID = m.nextID
	m.records[rec.ID] = rec
	return rec.ID, nil
}

func (m *mockCredentialStore) Update(_ context.Context, upd model.CredentialUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[upd.ID]
	if !ok {
		return model.ErrNotFound
	}
	m.updates = append(m.updates, upd)
	r.Service, r.Username, r.Category, r.IconData = upd.Service, upd.Username, upd.Category, upd.IconData
	if upd.Secret != nil {
		r.Secret = *upd.Secret
	}
	m.records[upd.ID] = r
	return nil
}

func (m *mockCredentialStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *mockCredentialStore) ListCategories(_ context.Context) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]bool{}
	var out []model.Category
	for _, r := range m.records {
		if r.Category != "" && !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, model.Category{ID: int64(len(out) + 1), Name: r.Category})
		}
	}
	return out, nil
}

type mockQuestionStore struct {
	mu        sync.Mutex
	questions []model.SecurityQuestion
	writes    int
	loadErr   error
}

func (m *mockQuestionStore) Load(_ context.Context) ([]model.SecurityQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return slices.Clone(m.questions), nil
}

func (m *mockQuestionStore) Update(_ context.Context, fn func([]model.SecurityQuestion) ([]model.SecurityQuestion, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	next, err := fn(slices.Clone(m.questions))
	if err != nil {
		return err
	}
	m.questions = next
	m.writes++
	return nil
}

type mockDatabaseFile struct {
	checkpoints int
	err         error
}

func (m *mockDatabaseFile) Checkpoint(_ context.Context) error {
	m.checkpoints++
	return m.err
}
