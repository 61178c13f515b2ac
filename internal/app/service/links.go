package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/metrics"
	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

var (
	ErrEmptyURL     = errors.New("url must not be empty")
	ErrInvalidAlias = errors.New("alias is not allowed")
)

// maxGenerateAttempts bounds the collision retries of generated codes.
const maxGenerateAttempts = 10

// reserved holds the first path segments served by the canonical host.
var reserved = map[string]bool{
	"register":  true,
	"login":     true,
	"dashboard": true,
	"shorten":   true,
	"admin":     true,
	"logout":    true,
	"api":       true,
	"ping":      true,
	"metrics":   true,
	"debug":     true,
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// LinkService creates and lists links for an owner.
type LinkService struct {
	store   LinkStore
	ping    pinger
	codes   *CodeGenerator
	logger  *zap.Logger
	baseURL string
	domain  string
}

// NewLinkService builds short URLs from baseURL (canonical form) and
// domain (tenant form). store may additionally implement PingContext.
func NewLinkService(store LinkStore, codes *CodeGenerator, logger *zap.Logger, baseURL, domain string) *LinkService {
	s := &LinkService{
		store:   store,
		codes:   codes,
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		domain:  domain,
	}
	if p, ok := store.(pinger); ok {
		s.ping = p
	}
	return s
}

// Shorten stores destination under alias, or under a generated code when
// alias is empty. Aliases are unique per owner; generated codes are unique
// across all owners.
func (s *LinkService) Shorten(ctx context.Context, owner, destination, alias string) (*models.Link, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, ErrEmptyURL
	}

	alias = strings.TrimSpace(alias)
	if alias != "" {
		if !validCode(alias) {
			return nil, ErrInvalidAlias
		}
		l, err := s.store.CreateLink(ctx, owner, alias, destination)
		if err != nil {
			return nil, err
		}
		metrics.IncLinkCreated(true)
		s.logger.Info("link created", zap.String("owner", owner), zap.String("code", l.Code), zap.Bool("alias", true))
		return l, nil
	}

	for i := 0; i < maxGenerateAttempts; i++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		if !validCode(code) {
			continue
		}

		exists, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			s.logger.Debug("generated code collision", zap.String("code", code))
			continue
		}

		l, err := s.store.CreateLink(ctx, owner, code, destination)
		if errors.Is(err, storage.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		metrics.IncLinkCreated(false)
		s.logger.Info("link created", zap.String("owner", owner), zap.String("code", l.Code), zap.Bool("alias", false))
		return l, nil
	}

	return nil, ErrCodeSpaceExhausted
}

// List returns the owner's links, newest first.
func (s *LinkService) List(ctx context.Context, owner string) ([]models.Link, error) {
	return s.store.ListByOwner(ctx, owner)
}

// ShortURL is the canonical form {baseURL}/{code}.
func (s *LinkService) ShortURL(l models.Link) string {
	return s.baseURL + "/" + url.PathEscape(l.Code)
}

// TenantURL is the tenant form {owner}.{domain}/{code}, using the scheme of
// the base URL.
func (s *LinkService) TenantURL(l models.Link) string {
	scheme := "http"
	port := ""
	if u, err := url.Parse(s.baseURL); err == nil && u.Scheme != "" {
		scheme = u.Scheme
		if p := u.Port(); p != "" {
			port = ":" + p
		}
	}
	return scheme + "://" + l.Owner + "." + s.domain + port + "/" + url.PathEscape(l.Code)
}

func (s *LinkService) PingContext(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping.PingContext(ctx)
}

// validCode rejects codes that would be shadowed by a management route or
// that span more than one path segment.
func validCode(code string) bool {
	if len(code) > 64 || strings.ContainsAny(code, "/?#\\ ") {
		return false
	}
	// dot segments are collapsed by clients before the request is sent
	if code == "." || code == ".." {
		return false
	}
	return !reserved[strings.ToLower(code)]
}
