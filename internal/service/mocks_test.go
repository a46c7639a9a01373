package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"account-service/internal/domain"
	"account-service/internal/notify"
	"account-service/internal/repository"
	"account-service/internal/storage"
)

type mockUserRepo struct {
	mu           sync.Mutex
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	findErr      error
	createErr    error
	updateErr    error
	skipPreCheck bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrDuplicate
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return domain.User{}, m.findErr
	}
	if m.skipPreCheck {
		return domain.User{}, repository.ErrNotFound
	}
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return m.usersByID[id], nil
}

func (m *mockUserRepo) GetByVerificationToken(_ context.Context, token string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.usersByID {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id, passwordHash, firstName, lastName string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	user, ok := m.usersByID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.FirstName = firstName
	user.LastName = lastName
	user.UpdatedAt = updatedAt
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) MarkVerified(_ context.Context, id, token string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok || user.Verified || user.VerificationToken == nil || *user.VerificationToken != token {
		return repository.ErrNotFound
	}
	user.Verified = true
	user.VerificationToken = nil
	user.VerificationTokenExpiresAt = nil
	user.UpdatedAt = updatedAt
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) tokenFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.usersByID[m.usersByEmail[email]]
	if u.VerificationToken == nil {
		return ""
	}
	return *u.VerificationToken
}

func (m *mockUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.usersByID)
}

type mockImageRepo struct {
	mu        sync.Mutex
	byUser    map[string]domain.ProfileImage
	findErr   error
	createErr error
	deleteErr error
	creates   int
	// hideOnFind simula la carrera: la fila existe pero la lectura previa no la ve.
	hideOnFind bool
}

func newMockImageRepo() *mockImageRepo {
	return &mockImageRepo{byUser: make(map[string]domain.ProfileImage)}
}

func (m *mockImageRepo) Create(_ context.Context, image domain.ProfileImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byUser[image.UserID]; ok {
		return repository.ErrDuplicate
	}
	m.byUser[image.UserID] = image
	return nil
}

func (m *mockImageRepo) GetByUserID(_ context.Context, userID string) (domain.ProfileImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return domain.ProfileImage{}, m.findErr
	}
	img, ok := m.byUser[userID]
	if !ok || m.hideOnFind {
		return domain.ProfileImage{}, repository.ErrNotFound
	}
	return img, nil
}

func (m *mockImageRepo) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.byUser[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byUser, userID)
	return nil
}

type mockObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	puts      int
	putErr    error
	listErr   error
	deleteErr error
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{objects: make(map[string][]byte)}
}

func (m *mockObjectStore) Put(_ context.Context, key, _ string, data []byte) (storage.PutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return storage.PutResult{}, m.putErr
	}
	if _, ok := m.objects[key]; ok {
		return storage.PutResult{}, storage.ErrObjectExists
	}
	m.objects[key] = data
	return storage.PutResult{Key: key, ID: "etag-" + key, URL: "https://bucket.s3.us-east-1.amazonaws.com/" + key}, nil
}

func (m *mockObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *mockObjectStore) DeleteMany(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *mockObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockObjectStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type mockNotifier struct {
	mu     sync.Mutex
	events []notify.VerificationEvent
	err    error
}

func (m *mockNotifier) PublishVerification(_ context.Context, event notify.VerificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockNotifier) last() (notify.VerificationEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return notify.VerificationEvent{}, false
	}
	return m.events[len(m.events)-1], true
}
