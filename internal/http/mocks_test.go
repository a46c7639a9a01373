package http

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

type memUserRepo struct {
	mu   sync.Mutex
	byID map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]domain.User)}
}

func (m *memUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.byID[user.ID] = user
	return nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (m *memUserRepo) GetByVerificationToken(_ context.Context, token string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (m *memUserRepo) UpdateProfile(_ context.Context, id, passwordHash, firstName, lastName string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash, u.FirstName, u.LastName, u.UpdatedAt = passwordHash, firstName, lastName, updatedAt
	m.byID[id] = u
	return nil
}

func (m *memUserRepo) MarkVerified(_ context.Context, id, token string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || u.Verified || u.VerificationToken == nil || *u.VerificationToken != token {
		return repository.ErrNotFound
	}
	u.Verified = true
	u.VerificationToken = nil
	u.VerificationTokenExpiresAt = nil
	u.UpdatedAt = updatedAt
	m.byID[id] = u
	return nil
}

func (m *memUserRepo) expireTokens(by time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.byID {
		if u.VerificationTokenExpiresAt != nil {
			past := u.VerificationTokenExpiresAt.Add(-by)
			u.VerificationTokenExpiresAt = &past
			m.byID[id] = u
		}
	}
}

type memImageRepo struct {
	mu     sync.Mutex
	byUser map[string]domain.ProfileImage
}

func newMemImageRepo() *memImageRepo {
	return &memImageRepo{byUser: make(map[string]domain.ProfileImage)}
}

func (m *memImageRepo) Create(_ context.Context, image domain.ProfileImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[image.UserID]; ok {
		return repository.ErrDuplicate
	}
	m.byUser[image.UserID] = image
	return nil
}

func (m *memImageRepo) GetByUserID(_ context.Context, userID string) (domain.ProfileImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.byUser[userID]
	if !ok {
		return domain.ProfileImage{}, repository.ErrNotFound
	}
	return img, nil
}

func (m *memImageRepo) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byUser, userID)
	return nil
}

type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (m *memObjectStore) Put(_ context.Context, key, _ string, data []byte) (storage.PutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return storage.PutResult{}, storage.ErrObjectExists
	}
	m.objects[key] = data
	return storage.PutResult{Key: key, ID: "etag-" + key, URL: "https://bucket.s3.us-east-1.amazonaws.com/" + key}, nil
}

func (m *memObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memObjectStore) DeleteMany(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *memObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjectStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.VerificationEvent
	err    error
}

func (n *captureNotifier) PublishVerification(_ context.Context, event notify.VerificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *captureNotifier) tokenFor(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].Email == email {
			return n.events[i].Token
		}
	}
	return ""
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }
