package repository

import (
	"context"

	"dispatch/internal/domain"
)

// UserRepository defines the persistence operations for riders.
type UserRepository interface {
	// GetByID retrieves a rider by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
