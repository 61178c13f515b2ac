// Package storage defines the persistence contracts of the service and
// provides the in-memory and Redis backends.
package storage

import (
	"context"
	"errors"

	"github.com/atinyakov/go-link-gate/internal/models"
)

var (
	// ErrNotFound is returned when a link or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an (owner, code) pair or an account name
	// is already taken.
	ErrDuplicate = errors.New("already exists")
)

// LinkStore persists links and their click counters.
type LinkStore interface {
	// CreateLink stores a new link with zero clicks. It fails with
	// ErrDuplicate when owner already has a link with code.
	CreateLink(ctx context.Context, owner, code, destination string) (*models.Link, error)

	// FindByCode looks a link up by code alone. When several owners use the
	// same code the oldest link wins.
	FindByCode(ctx context.Context, code string) (*models.Link, error)

	FindByOwnerAndCode(ctx context.Context, owner, code string) (*models.Link, error)

	// IncrementClicks adds one to the click counter in a single atomic step.
	IncrementClicks(ctx context.Context, linkID string) error

	// ListByOwner returns the owner's links, newest first.
	ListByOwner(ctx context.Context, owner string) ([]models.Link, error)

	// CodeExists reports whether any owner uses code.
	CodeExists(ctx context.Context, code string) (bool, error)
}

// AccountStore is the account directory.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	FindByName(ctx context.Context, name string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	SetApproved(ctx context.Context, name string, approved bool) error
	SetPlan(ctx context.Context, name string, plan models.Plan) error
	DeleteAccount(ctx context.Context, name string) error
}

// VisitStore keeps the visit journal.
type VisitStore interface {
	SaveVisits(ctx context.Context, visits []models.Visit) error
}

// Store is implemented by every backend.
type Store interface {
	LinkStore
	AccountStore
	VisitStore
	PingContext(ctx context.Context) error
	Close() error
}
