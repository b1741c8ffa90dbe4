package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/mihrab-app/mihrab/internal/model"
)

// MemStore is an in-memory Store used by tests.
type MemStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	users  map[int]model.User
	nextID int

	// FailWrites makes every SetBlob return an error, for exercising the
	// storage-failure path.
	FailWrites bool
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		blobs:  make(map[string][]byte),
		users:  make(map[int]model.User),
		nextID: 1,
	}
}

func (m *MemStore) GetBlob(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *MemStore) SetBlob(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return fmt.Errorf("simulated write failure for %q", key)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.blobs[key] = stored
	return nil
}

func (m *MemStore) DeleteBlob(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *MemStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return 0, fmt.Errorf("email %q already registered", email)
		}
	}
	id := m.nextID
	m.nextID++
	now := time.Now()
	m.users[id] = model.User{
		ID:             id,
		Email:          email,
		HashedPassword: hashedPassword,
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return id, nil
}

func (m *MemStore) GetUserByEmail(email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) GetUserByID(id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := u
	return &out, nil
}

func (m *MemStore) UpdateUserProfile(id int, email string, name *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Email = email
	u.Name = name
	u.UpdatedAt = time.Now()
	m.users[id] = u
	return nil
}
