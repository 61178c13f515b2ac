package service

import (
	"context"
	"net/http"

	"github.com/atinyakov/go-link-gate/internal/models"
)

// LinkStore is the part of the link store the service layer consumes.
type LinkStore interface {
	CreateLink(ctx context.Context, owner, code, destination string) (*models.Link, error)
	FindByCode(ctx context.Context, code string) (*models.Link, error)
	FindByOwnerAndCode(ctx context.Context, owner, code string) (*models.Link, error)
	IncrementClicks(ctx context.Context, linkID string) error
	ListByOwner(ctx context.Context, owner string) ([]models.Link, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// AccountDirectory looks up accounts by normalized name.
type AccountDirectory interface {
	FindByName(ctx context.Context, name string) (*models.Account, error)
}

// AccountStore adds the management mutations to AccountDirectory.
type AccountStore interface {
	AccountDirectory
	CreateAccount(ctx context.Context, a *models.Account) error
	ListAccounts(ctx context.Context) ([]models.Account, error)
	SetApproved(ctx context.Context, name string, approved bool) error
	SetPlan(ctx context.Context, name string, plan models.Plan) error
	DeleteAccount(ctx context.Context, name string) error
}

// ResolverIface resolves a host and path to an Outcome.
type ResolverIface interface {
	Resolve(ctx context.Context, host, path string) Outcome
}

// LinkServiceIface is consumed by the HTTP and gRPC handlers.
type LinkServiceIface interface {
	Shorten(ctx context.Context, owner, destination, alias string) (*models.Link, error)
	List(ctx context.Context, owner string) ([]models.Link, error)
	ShortURL(l models.Link) string
	TenantURL(l models.Link) string
	PingContext(ctx context.Context) error
}

// AccountServiceIface is consumed by the management handlers and the access
// gate.
type AccountServiceIface interface {
	Register(ctx context.Context, name, password string) (*models.Account, error)
	Authenticate(ctx context.Context, name, password string) (*models.Account, error)
	Find(ctx context.Context, name string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Approve(ctx context.Context, name string) error
	SetPlan(ctx context.Context, name string, plan models.Plan) error
	Delete(ctx context.Context, name string) error
}

// AuthIface issues and parses session tokens.
type AuthIface interface {
	BuildJWTString(p models.Principal) (string, error)
	ParseClaims(c *http.Cookie) (*Claims, error)
	ParseRawJWT(tokenString string) (*Claims, error)
}
