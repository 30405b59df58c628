package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"orderdesk/internal/models"

	"github.com/google/uuid"
)

// MockAdminRepository is an in-memory implementation of AdminRepository.
type MockAdminRepository struct {
	admins map[string]models.Admin
	mu     sync.RWMutex
}

// NewMockAdminRepository creates a new instance of MockAdminRepository.
func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{
		admins: make(map[string]models.Admin),
	}
}

// Create adds a new admin; usernames are unique.
func (r *MockAdminRepository) Create(_ context.Context, admin *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.admins {
		if existing.Username == admin.Username {
			return fmt.Errorf("failed to create admin: username %s already exists", admin.Username)
		}
	}
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	r.admins[admin.ID] = *admin
	return nil
}

// GetByUsername returns an admin by username.
func (r *MockAdminRepository) GetByUsername(_ context.Context, username string) (*models.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, admin := range r.admins {
		if admin.Username == username {
			return &admin, nil
		}
	}
	return nil, ErrAdminNotFound
}

// UpdatePassword replaces the stored password hash of an admin.
func (r *MockAdminRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.admins[id]
	if !ok {
		return ErrAdminNotFound
	}
	admin.Password = passwordHash
	admin.UpdatedAt = time.Now().UTC()
	r.admins[id] = admin
	return nil
}
