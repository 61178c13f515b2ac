package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/mocks"
	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

func newLinkService(t *testing.T) (*service.LinkService, *storage.MemoryStorage) {
	t.Helper()
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)
	s := service.NewLinkService(store, service.NewCodeGenerator(service.CodeLength), zap.NewNop(), "http://links.example:8080/", domain)
	return s, store
}

func TestShorten_AliasCreateThenFind(t *testing.T) {
	s, store := newLinkService(t)
	ctx := context.Background()

	l, err := s.Shorten(ctx, "alice", "https://example.com", "promo")
	require.NoError(t, err)
	assert.Equal(t, "promo", l.Code)

	found, err := store.FindByOwnerAndCode(ctx, "alice", "promo")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", found.Destination)
	assert.Zero(t, found.Clicks)
}

func TestShorten_AliasOwnerScoped(t *testing.T) {
	s, _ := newLinkService(t)
	ctx := context.Background()

	a, err := s.Shorten(ctx, "alice", "https://a.example", "promo")
	require.NoError(t, err)
	b, err := s.Shorten(ctx, "bob", "https://b.example", "promo")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	_, err = s.Shorten(ctx, "alice", "https://other.example", "promo")
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestShorten_Validation(t *testing.T) {
	s, _ := newLinkService(t)
	ctx := context.Background()

	_, err := s.Shorten(ctx, "alice", "  ", "")
	assert.ErrorIs(t, err, service.ErrEmptyURL)

	for _, alias := range []string{"login", "Admin", "a/b", "with space", "api", ".", ".."} {
		_, err = s.Shorten(ctx, "alice", "https://example.com", alias)
		assert.ErrorIs(t, err, service.ErrInvalidAlias, alias)
	}

	for _, alias := range []string{".a", "a..b", "..."} {
		_, err = s.Shorten(ctx, "alice", "https://example.com", alias)
		assert.NoError(t, err, alias)
	}
}

func TestShorten_Generated(t *testing.T) {
	s, _ := newLinkService(t)

	l, err := s.Shorten(context.Background(), "alice", "https://example.com", "")
	require.NoError(t, err)
	assert.Len(t, l.Code, service.CodeLength)
}

func TestShorten_GeneratedRetriesOnCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLinkStore(ctrl)

	gomock.InOrder(
		store.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(true, nil),
		store.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(false, nil),
		store.EXPECT().CreateLink(gomock.Any(), "alice", gomock.Any(), "https://example.com").
			DoAndReturn(func(_ context.Context, owner, code, dst string) (*models.Link, error) {
				return &models.Link{ID: "id-1", Owner: owner, Code: code, Destination: dst}, nil
			}),
	)

	s := service.NewLinkService(store, service.NewCodeGenerator(service.CodeLength), zap.NewNop(), "http://links.example", domain)
	l, err := s.Shorten(context.Background(), "alice", "https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "id-1", l.ID)
}

func TestShorten_GeneratedGivesUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLinkStore(ctrl)
	store.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()

	s := service.NewLinkService(store, service.NewCodeGenerator(service.CodeLength), zap.NewNop(), "http://links.example", domain)
	_, err := s.Shorten(context.Background(), "alice", "https://example.com", "")
	assert.ErrorIs(t, err, service.ErrCodeSpaceExhausted)
}

func TestShorten_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLinkStore(ctrl)
	store.EXPECT().CodeExists(gomock.Any(), gomock.Any()).Return(false, errors.New("down"))

	s := service.NewLinkService(store, service.NewCodeGenerator(service.CodeLength), zap.NewNop(), "http://links.example", domain)
	_, err := s.Shorten(context.Background(), "alice", "https://example.com", "")
	assert.Error(t, err)
}

func TestLinkURLs(t *testing.T) {
	s, _ := newLinkService(t)
	l := models.Link{Owner: "alice", Code: "promo"}

	assert.Equal(t, "http://links.example:8080/promo", s.ShortURL(l))
	assert.Equal(t, "http://alice.links.example:8080/promo", s.TenantURL(l))
}

func TestList(t *testing.T) {
	s, _ := newLinkService(t)
	ctx := context.Background()

	_, err := s.Shorten(ctx, "alice", "https://one.example", "one")
	require.NoError(t, err)
	_, err = s.Shorten(ctx, "alice", "https://two.example", "two")
	require.NoError(t, err)

	links, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "two", links[0].Code)

	assert.NoError(t, s.PingContext(ctx))
}
