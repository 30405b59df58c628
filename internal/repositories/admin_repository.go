package repositories

import (
	"context"
	"errors"

	"orderdesk/internal/models"
)

// ErrAdminNotFound is returned when no admin matches the lookup.
var ErrAdminNotFound = errors.New("admin not found")

// AdminRepository defines the interface for admin account access.
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
