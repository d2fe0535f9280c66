// Package repository defines data access interfaces.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ecotrack/backend/internal/model"
)

var (
	// ErrNotFound is returned by mutations that target a missing row.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail is returned when creating a user whose email is taken.
	ErrDuplicateEmail = errors.New("repository: email already registered")
)

// UserRepository defines user data access methods. Lookups return (nil, nil)
// when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, pagination model.Pagination) ([]*model.User, int, error)
	// Delete removes the user and all of their impact logs atomically.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImpactLogRepository defines impact log data access methods.
type ImpactLogRepository interface {
	Create(ctx context.Context, log *model.ImpactLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, pagination model.Pagination) ([]*model.ImpactLog, int, error)
	LatestByUser(ctx context.Context, userID uuid.UUID) (*model.ImpactLog, error)
	ListByUserBetween(ctx context.Context, userID uuid.UUID, r model.DateRange) ([]*model.ImpactLog, error)
	ListBetween(ctx context.Context, r model.DateRange) ([]*model.ImpactLog, error)
	ListWithOwners(ctx context.Context, pagination model.Pagination) ([]model.AdminLogView, int, error)
	Stats(ctx context.Context) (*model.ImpactStats, error)
}
