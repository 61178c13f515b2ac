package storage_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

// setupRedis connects to an in-process miniredis, or to REDIS_ADDR when it is
// set, under a random key prefix.
func setupRedis(t *testing.T) (*storage.RedisStorage, *redis.Client, string) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = miniredis.RunT(t).Addr()
	}

	prefix := "test:" + uuid.NewString() + ":"
	r, err := storage.NewRedisStorage(context.Background(), addr, "", 0, prefix)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	raw := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = raw.Close() })
	return r, raw, prefix
}

func TestRedisStorage_Links(t *testing.T) {
	r, _, _ := setupRedis(t)
	ctx := context.Background()

	_, err := r.CreateLink(ctx, "bob", "promo", "https://b.example")
	require.NoError(t, err)
	a, err := r.CreateLink(ctx, "alice", "promo", "https://a.example")
	require.NoError(t, err)

	_, err = r.CreateLink(ctx, "alice", "promo", "https://dup.example")
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	found, err := r.FindByOwnerAndCode(ctx, "alice", "promo")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	assert.Zero(t, found.Clicks)

	oldest, err := r.FindByCode(ctx, "promo")
	require.NoError(t, err)
	assert.Equal(t, "bob", oldest.Owner)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, r.IncrementClicks(ctx, a.ID))
		}()
	}
	wg.Wait()

	found, err = r.FindByOwnerAndCode(ctx, "alice", "promo")
	require.NoError(t, err)
	assert.Equal(t, int64(n), found.Clicks)

	assert.ErrorIs(t, r.IncrementClicks(ctx, uuid.NewString()), storage.ErrNotFound)

	_, err = r.CreateLink(ctx, "alice", "later", "https://a.example/later")
	require.NoError(t, err)
	links, err := r.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "later", links[0].Code)
}

func TestRedisStorage_Accounts(t *testing.T) {
	r, _, _ := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, r.CreateAccount(ctx, &models.Account{Name: "alice", Role: models.RoleUser, Plan: models.PlanFree}))
	assert.ErrorIs(t, r.CreateAccount(ctx, &models.Account{Name: "alice"}), storage.ErrDuplicate)

	require.NoError(t, r.SetApproved(ctx, "alice", true))
	require.NoError(t, r.SetPlan(ctx, "alice", models.PlanPremium))

	acc, err := r.FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, acc.Approved)
	assert.Equal(t, models.PlanPremium, acc.Plan)

	assert.ErrorIs(t, r.SetPlan(ctx, "ghost", models.PlanFree), storage.ErrNotFound)

	require.NoError(t, r.DeleteAccount(ctx, "alice"))
	_, err = r.FindByName(ctx, "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisStorage_AccountNamesNeverHitCounters(t *testing.T) {
	r, _, _ := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, r.CreateAccount(ctx, &models.Account{Name: "alice", Approved: true}))
	_, err := r.CreateLink(ctx, "alice", "promo", "https://a.example")
	require.NoError(t, err)

	for _, name := range []string{"seq", "accounts"} {
		_, err := r.FindByName(ctx, name)
		assert.ErrorIs(t, err, storage.ErrNotFound, name)

		require.NoError(t, r.CreateAccount(ctx, &models.Account{Name: name, Approved: true}), name)

		acc, err := r.FindByName(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, name, acc.Name)
	}

	accounts, err := r.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 3)

	// the link counter still works after an account took the name "seq"
	_, err = r.CreateLink(ctx, "seq", "promo", "https://seq.example")
	require.NoError(t, err)
}

func TestRedisStorage_UnknownTenantNamedLikeCounter(t *testing.T) {
	r, _, _ := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, r.CreateAccount(ctx, &models.Account{Name: "alice", Approved: true}))
	_, err := r.CreateLink(ctx, "alice", "promo", "https://a.example")
	require.NoError(t, err)

	resolver := service.NewResolver(r, r, "links.example", zap.NewNop())

	out := resolver.Resolve(ctx, "seq.links.example", "/promo")
	assert.Equal(t, service.OutcomeUnknownTenant, out.Kind)
	assert.NoError(t, out.Err)
}

func TestRedisStorage_SaveVisits(t *testing.T) {
	r, raw, prefix := setupRedis(t)
	ctx := context.Background()

	visits := []models.Visit{
		{LinkID: "id-1", Owner: "alice", Code: "promo", IPHash: "abc", Created: time.Now()},
		{LinkID: "id-1", Owner: "alice", Code: "promo", Created: time.Now()},
	}
	require.NoError(t, r.SaveVisits(ctx, visits))

	entries, err := raw.XRange(ctx, prefix+"visits", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "promo", entries[0].Values["code"])
	assert.Equal(t, "abc", entries[0].Values["ip_hash"])
}

func TestRedisStorage_Ping(t *testing.T) {
	r, _, _ := setupRedis(t)
	assert.NoError(t, r.PingContext(context.Background()))
}
