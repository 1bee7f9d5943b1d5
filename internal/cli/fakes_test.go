package cli

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/dtroode/vaultqa/database"
	"github.com/dtroode/vaultqa/internal/model"
)

type memUsers struct {
	users  []model.User
	nextID int64
}

func (m *memUsers) Create(_ context.Context, username, email string) (model.User, error) {
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return model.User{}, model.ErrAlreadyExists
		}
	}
	m.nextID++
	u := model.User{ID: m.nextID, Username: username, Email: email}
	m.users = append(m.users, u)
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (m *memUsers) List(_ context.Context) ([]model.User, error) {
	out := append([]model.User(nil), m.users...)
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memUsers) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	for i, u := range m.users {
		if u.ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

type memRecords struct {
	records []model.VaultRecord
	nextID  int64
}

func (m *memRecords) Create(_ context.Context, p model.CreateRecordParams) (model.VaultRecord, error) {
	m.nextID++
	r := model.VaultRecord{ID: m.nextID, UserID: p.UserID, Title: p.Title, EncryptedData: p.EncryptedData, RecordType: p.RecordType}
	m.records = append(m.records, r)
	return r, nil
}

func (m *memRecords) GetByTitle(_ context.Context, title string) (model.VaultRecord, error) {
	for _, r := range m.records {
		if r.Title == title {
			return r, nil
		}
	}
	return model.VaultRecord{}, model.ErrNotFound
}

func (m *memRecords) ListByUser(_ context.Context, userID int64) ([]model.VaultRecord, error) {
	var out []model.VaultRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecords) UpdateData(_ context.Context, title, data string) error {
	for i := range m.records {
		if m.records[i].Title == title {
			m.records[i].EncryptedData = data
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memRecords) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	kept := m.records[:0]
	var n int64
	for _, r := range m.records {
		if r.UserID == userID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return n, nil
}

func (m *memRecords) CountByUser(ctx context.Context, userID int64) (int64, error) {
	rs, _ := m.ListByUser(ctx, userID)
	return int64(len(rs)), nil
}

func (m *memRecords) Count(_ context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

// scriptedExecutor answers every statement with the same rows and records what it saw.
type scriptedExecutor struct {
	rows    model.Rows
	err     error
	queries []string
}

func (s *scriptedExecutor) Execute(_ context.Context, query string, _ ...any) (model.Rows, error) {
	s.queries = append(s.queries, query)
	return s.rows, s.err
}

type memStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	contentType map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, contentType: map[string]string{}}
}

func (m *memStorage) Upload(_ context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.contentType[key] = contentType
	return nil
}

func (m *memStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, model.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStorage) onlyKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.objects {
		return k
	}
	return ""
}

type fakeProvisioner struct {
	res   database.ProvisionResult
	err   error
	calls int
}

func (f *fakeProvisioner) Setup(context.Context) (database.ProvisionResult, error) {
	f.calls++
	return f.res, f.err
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
