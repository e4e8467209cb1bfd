// Package repository declares the storage contracts the services depend on.
// The sqlite subpackage is the only implementation; tests use hand-written
// fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/nutri-track/internal/model"
)

// MealFilter selects one user's meals with LoggedAt in [From, To).
// A zero From or To leaves that side open. Limit <= 0 means no limit.
type MealFilter struct {
	UserID string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// MealRepository is the Meal Store. List returns meals newest first.
type MealRepository interface {
	Create(ctx context.Context, meal *model.Meal) error
	GetByID(ctx context.Context, id string) (*model.Meal, error)
	List(ctx context.Context, filter MealFilter) ([]model.Meal, error)
	Update(ctx context.Context, meal *model.Meal) error
	Delete(ctx context.Context, id string) error
}

// ProfileRepository stores one profile per user.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, profile *model.Profile) error
}

// UserRepository stores accounts created by email or by GitHub sign-in.
type UserRepository interface {
	// Upsert creates or refreshes a GitHub account, keyed by GitHubID.
	Upsert(ctx context.Context, user *model.User) error
	// CreateUser inserts an email account. A taken email is a conflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}
