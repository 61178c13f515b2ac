package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/atinyakov/go-link-gate/internal/models"
)

var _ Store = (*RedisStorage)(nil)

// Key layout, relative to the configured prefix:
//
//	link:<id>                     hash of the link fields
//	link:owner:<owner>:<code>     id of the owner's link, claimed with SETNX
//	link:code:<code>              zset of link ids scored by creation sequence
//	link:byowner:<owner>          zset of link ids scored by creation sequence
//	account:<name>                hash of the account fields
//	accounts                      zset of account names scored by creation sequence
//	visits                        stream of visit records
//	seq:link, seq:account         creation sequence counters
//
// The counters live outside the link: and account: namespaces, so no account
// name or link id can collide with them.
type RedisStorage struct {
	cli    *redis.Client
	prefix string
}

// hincrIfExists increments a hash field only when the hash exists, so a
// stale id can never resurrect a half-written link.
var hincrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("HINCRBY", KEYS[1], ARGV[1], 1)
else
	return -1
end`)

var hsetIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
	return 1
else
	return 0
end`)

// NewRedisStorage connects to addr and verifies the connection.
func NewRedisStorage(ctx context.Context, addr, password string, db int, prefix string) (*RedisStorage, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStorage{cli: c, prefix: prefix}, nil
}

func (r *RedisStorage) key(parts ...string) string {
	k := r.prefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}

func (r *RedisStorage) CreateLink(ctx context.Context, owner, code, destination string) (*models.Link, error) {
	l := &models.Link{
		ID:          uuid.NewString(),
		Owner:       owner,
		Code:        code,
		Destination: destination,
		Created:     time.Now().UTC(),
	}

	ownerKey := r.key("link", "owner", owner, code)
	ok, err := r.cli.SetNX(ctx, ownerKey, l.ID, 0).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDuplicate
	}

	seq, err := r.cli.Incr(ctx, r.key("seq", "link")).Result()
	if err != nil {
		_ = r.cli.Del(ctx, ownerKey).Err()
		return nil, err
	}

	_, err = r.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key("link", l.ID),
			"id", l.ID,
			"owner", l.Owner,
			"code", l.Code,
			"destination", l.Destination,
			"clicks", 0,
			"created", l.Created.Format(time.RFC3339Nano),
		)
		pipe.ZAdd(ctx, r.key("link", "code", code), redis.Z{Score: float64(seq), Member: l.ID})
		pipe.ZAdd(ctx, r.key("link", "byowner", owner), redis.Z{Score: float64(seq), Member: l.ID})
		return nil
	})
	if err != nil {
		_ = r.cli.Del(ctx, ownerKey).Err()
		return nil, err
	}

	return l, nil
}

func (r *RedisStorage) loadLink(ctx context.Context, id string) (*models.Link, error) {
	fields, err := r.cli.HGetAll(ctx, r.key("link", id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	clicks, err := strconv.ParseInt(fields["clicks"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("link %s clicks: %w", id, err)
	}
	created, err := time.Parse(time.RFC3339Nano, fields["created"])
	if err != nil {
		return nil, fmt.Errorf("link %s created: %w", id, err)
	}

	return &models.Link{
		ID:          fields["id"],
		Owner:       fields["owner"],
		Code:        fields["code"],
		Destination: fields["destination"],
		Clicks:      clicks,
		Created:     created,
	}, nil
}

func (r *RedisStorage) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	ids, err := r.cli.ZRange(ctx, r.key("link", "code", code), 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return r.loadLink(ctx, ids[0])
}

func (r *RedisStorage) FindByOwnerAndCode(ctx context.Context, owner, code string) (*models.Link, error) {
	id, err := r.cli.Get(ctx, r.key("link", "owner", owner, code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadLink(ctx, id)
}

func (r *RedisStorage) IncrementClicks(ctx context.Context, linkID string) error {
	n, err := hincrIfExists.Run(ctx, r.cli, []string{r.key("link", linkID)}, "clicks").Int64()
	if err != nil {
		return err
	}
	if n < 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisStorage) ListByOwner(ctx context.Context, owner string) ([]models.Link, error) {
	ids, err := r.cli.ZRevRange(ctx, r.key("link", "byowner", owner), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	res := make([]models.Link, 0, len(ids))
	for _, id := range ids {
		l, err := r.loadLink(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res = append(res, *l)
	}
	return res, nil
}

func (r *RedisStorage) CodeExists(ctx context.Context, code string) (bool, error) {
	n, err := r.cli.Exists(ctx, r.key("link", "code", code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisStorage) CreateAccount(ctx context.Context, a *models.Account) error {
	created := a.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}

	accKey := r.key("account", a.Name)
	ok, err := r.cli.HSetNX(ctx, accKey, "name", a.Name).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}

	seq, err := r.cli.Incr(ctx, r.key("seq", "account")).Result()
	if err != nil {
		_ = r.cli.Del(ctx, accKey).Err()
		return err
	}

	_, err = r.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, accKey,
			"password", a.PasswordHash,
			"role", string(a.Role),
			"plan", string(a.Plan),
			"approved", strconv.FormatBool(a.Approved),
			"created", created.Format(time.RFC3339Nano),
		)
		pipe.ZAdd(ctx, r.key("accounts"), redis.Z{Score: float64(seq), Member: a.Name})
		return nil
	})
	if err != nil {
		_ = r.cli.Del(ctx, accKey).Err()
	}
	return err
}

func (r *RedisStorage) FindByName(ctx context.Context, name string) (*models.Account, error) {
	fields, err := r.cli.HGetAll(ctx, r.key("account", name)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	approved, _ := strconv.ParseBool(fields["approved"])
	created, _ := time.Parse(time.RFC3339Nano, fields["created"])

	return &models.Account{
		Name:         fields["name"],
		PasswordHash: fields["password"],
		Role:         models.Role(fields["role"]),
		Plan:         models.Plan(fields["plan"]),
		Approved:     approved,
		Created:      created,
	}, nil
}

func (r *RedisStorage) ListAccounts(ctx context.Context) ([]models.Account, error) {
	names, err := r.cli.ZRange(ctx, r.key("accounts"), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	res := make([]models.Account, 0, len(names))
	for _, name := range names {
		a, err := r.FindByName(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, nil
}

func (r *RedisStorage) setAccountField(ctx context.Context, name, field, value string) error {
	n, err := hsetIfExists.Run(ctx, r.cli, []string{r.key("account", name)}, field, value).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisStorage) SetApproved(ctx context.Context, name string, approved bool) error {
	return r.setAccountField(ctx, name, "approved", strconv.FormatBool(approved))
}

func (r *RedisStorage) SetPlan(ctx context.Context, name string, plan models.Plan) error {
	return r.setAccountField(ctx, name, "plan", string(plan))
}

func (r *RedisStorage) DeleteAccount(ctx context.Context, name string) error {
	n, err := r.cli.Del(ctx, r.key("account", name)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return r.cli.ZRem(ctx, r.key("accounts"), name).Err()
}

func (r *RedisStorage) SaveVisits(ctx context.Context, visits []models.Visit) error {
	_, err := r.cli.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, v := range visits {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: r.key("visits"),
				Values: map[string]interface{}{
					"link_id":    v.LinkID,
					"owner":      v.Owner,
					"code":       v.Code,
					"referer":    v.Referer,
					"user_agent": v.UserAgent,
					"ip_hash":    v.IPHash,
					"created":    v.Created.Format(time.RFC3339Nano),
				},
			})
		}
		return nil
	})
	return err
}

func (r *RedisStorage) PingContext(ctx context.Context) error {
	return r.cli.Ping(ctx).Err()
}

func (r *RedisStorage) Close() error {
	return r.cli.Close()
}
