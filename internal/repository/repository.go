// Package repository implements the PostgreSQL backend of the link store,
// the account directory and the visit journal.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

var _ storage.Store = (*Repository)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	name TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'user',
	plan TEXT NOT NULL DEFAULT 'free',
	approved BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS links (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	seq BIGSERIAL,
	owner TEXT NOT NULL,
	code TEXT NOT NULL,
	destination TEXT NOT NULL,
	clicks BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (owner, code)
);
CREATE INDEX IF NOT EXISTS idx_links_code ON links(code);
CREATE TABLE IF NOT EXISTS visits (
	id BIGSERIAL PRIMARY KEY,
	link_id UUID NOT NULL,
	owner TEXT NOT NULL,
	code TEXT NOT NULL,
	referer TEXT,
	user_agent TEXT,
	ip_hash TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_visits_link_id ON visits(link_id);`

// InitDB opens the database, checks the connection and makes sure the
// tables exist. It panics on failure: the service cannot start without it.
func InitDB(ps string, logger *zap.Logger) *sql.DB {
	db, err := sql.Open("pgx", ps)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	if err := Migrate(context.Background(), db); err != nil {
		logger.Fatal("cannot create tables", zap.Error(err))
	}

	return db
}

// Migrate creates the tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func CreateRepository(db *sql.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *Repository) CreateLink(ctx context.Context, owner, code, destination string) (*models.Link, error) {
	l := models.Link{
		Owner:       owner,
		Code:        code,
		Destination: destination,
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO links (owner, code, destination) VALUES ($1, $2, $3)
		ON CONFLICT (owner, code) DO NOTHING
		RETURNING id, created_at;`,
		owner, code, destination,
	).Scan(&l.ID, &l.Created)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert link: %w", err)
	}

	return &l, nil
}

const linkColumns = `id, owner, code, destination, clicks, created_at`

func scanLink(row interface{ Scan(...any) error }) (*models.Link, error) {
	var l models.Link
	err := row.Scan(&l.ID, &l.Owner, &l.Code, &l.Destination, &l.Clicks, &l.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE code = $1 ORDER BY seq LIMIT 1;`, code)
	return scanLink(row)
}

func (r *Repository) FindByOwnerAndCode(ctx context.Context, owner, code string) (*models.Link, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE owner = $1 AND code = $2;`, owner, code)
	return scanLink(row)
}

// IncrementClicks relies on the row lock taken by UPDATE, so concurrent
// visits never lose an increment.
func (r *Repository) IncrementClicks(ctx context.Context, linkID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE id = $1;`, linkID)
	if err != nil {
		return fmt.Errorf("increment clicks: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) ListByOwner(ctx context.Context, owner string) ([]models.Link, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE owner = $1 ORDER BY seq DESC;`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]models.Link, 0)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE code = $1);`, code).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateAccount(ctx context.Context, a *models.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, password_hash, role, plan, approved) VALUES ($1, $2, $3, $4, $5);`,
		a.Name, a.PasswordHash, string(a.Role), string(a.Plan), a.Approved,
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

const accountColumns = `name, password_hash, role, plan, approved, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	var (
		a          models.Account
		role, plan string
	)
	err := row.Scan(&a.Name, &a.PasswordHash, &role, &plan, &a.Approved, &a.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Role = models.Role(role)
	a.Plan = models.Plan(plan)
	return &a, nil
}

func (r *Repository) FindByName(ctx context.Context, name string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE name = $1;`, name)
	return scanAccount(row)
}

func (r *Repository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *Repository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) SetApproved(ctx context.Context, name string, approved bool) error {
	return r.execOne(ctx, `UPDATE accounts SET approved = $2 WHERE name = $1;`, name, approved)
}

func (r *Repository) SetPlan(ctx context.Context, name string, plan models.Plan) error {
	return r.execOne(ctx, `UPDATE accounts SET plan = $2 WHERE name = $1;`, name, string(plan))
}

func (r *Repository) DeleteAccount(ctx context.Context, name string) error {
	return r.execOne(ctx, `DELETE FROM accounts WHERE name = $1;`, name)
}

// SaveVisits writes a batch of visits in one transaction.
func (r *Repository) SaveVisits(ctx context.Context, visits []models.Visit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO visits (link_id, owner, code, referer, user_agent, ip_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, v := range visits {
		if _, err := stmt.ExecContext(ctx, v.LinkID, v.Owner, v.Code, v.Referer, v.UserAgent, v.IPHash, v.Created); err != nil {
			_ = tx.Rollback()
			r.logger.Error("visit batch rolled back", zap.Int("size", len(visits)), zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) PingContext(c context.Context) error {
	return r.db.PingContext(c)
}

func (r *Repository) Close() error {
	return r.db.Close()
}
