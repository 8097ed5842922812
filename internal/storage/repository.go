// Package storage provides the SQLite-backed store. It implements the same
// ports as store/memory, with durable records and the atomic default-category
// seeding guard expressed as a single SQL transaction.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339Nano
)

type SQLiteRepository struct {
	db  *sql.DB
	hub *store.Hub

	clock func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:    db,
		hub:   store.NewHub(),
		clock: time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Poke implements store.Notifier for external change feeds.
func (r *SQLiteRepository) Poke(collection, identity string) {
	r.hub.Notify(collection, identity)
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, identity string, fields store.TransactionFields) (string, error) {
	t := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      fields.Amount,
		Description: fields.Description,
		Category:    fields.Category,
		Type:        fields.Type,
		Date:        fields.Date,
		CreatedAt:   r.clock().UTC(),
	}
	if err := t.Validate(); err != nil {
		return "", err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, identity, amount_cents, description, category, type, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, identity, t.Amount.Cents, t.Description, t.Category, string(t.Type),
		t.Date.UTC().Format(dateLayout), t.CreatedAt.Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	r.hub.Notify(store.CollectionTransactions, identity)
	return t.ID, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, identity, id string, fields store.TransactionFields) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, description = ?, category = ?, type = ?, date = ?
		WHERE id = ? AND identity = ?`,
		fields.Amount.Cents, fields.Description, fields.Category, string(fields.Type),
		fields.Date.UTC().Format(dateLayout), id, identity)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	r.hub.Notify(store.CollectionTransactions, identity)
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, identity, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND identity = ?`, id, identity)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	r.hub.Notify(store.CollectionTransactions, identity)
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, identity string, order store.Order) ([]core.Transaction, error) {
	field := "date"
	if order.Field == store.OrderByCreatedAt {
		field = "created_at"
	}
	dir := "ASC"
	if order.Direction == store.Descending {
		dir = "DESC"
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, amount_cents, description, category, type, date, created_at
		FROM transactions
		WHERE identity = ?
		ORDER BY %s %s, created_at %s`, field, dir, dir), identity)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t                core.Transaction
			typ, date, creat string
		)
		if err := rows.Scan(&t.ID, &t.Amount.Cents, &t.Description, &t.Category, &typ, &date, &creat); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		if t.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = parseTime(creat); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) SubscribeTransactions(identity string, order store.Order, onSnapshot func([]core.Transaction), onError func(error)) store.Unsubscribe {
	return r.hub.Subscribe(store.CollectionTransactions, identity, func() {
		snap, err := r.ListTransactions(context.Background(), identity, order)
		if err != nil {
			onError(err)
			return
		}
		onSnapshot(snap)
	})
}

// --- categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, identity, name string) (string, error) {
	c := core.Category{ID: uuid.NewString(), Name: name}
	if err := c.Validate(); err != nil {
		return "", err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, identity, name) VALUES (?, ?, ?)`,
		c.ID, identity, c.Name)
	if err != nil {
		return "", fmt.Errorf("insert category: %w", err)
	}

	r.hub.Notify(store.CollectionCategories, identity)
	return c.ID, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, identity, id, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ? AND identity = ?`, name, id, identity)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	r.hub.Notify(store.CollectionCategories, identity)
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, identity, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND identity = ?`, id, identity)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	r.hub.Notify(store.CollectionCategories, identity)
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, identity string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM categories WHERE identity = ? ORDER BY name ASC`, identity)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// SeedDefaults creates the named categories iff the identity has none. The
// count check and the inserts share one transaction, so a concurrent seeder
// or a restart mid-seed cannot duplicate the set.
func (r *SQLiteRepository) SeedDefaults(ctx context.Context, identity string, names []string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE identity = ?`, identity).Scan(&count); err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, identity, name) VALUES (?, ?, ?)`,
			uuid.NewString(), identity, name); err != nil {
			return false, fmt.Errorf("insert default category %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed transaction: %w", err)
	}

	r.hub.Notify(store.CollectionCategories, identity)
	return true, nil
}

func (r *SQLiteRepository) SubscribeCategories(identity string, onSnapshot func([]core.Category), onError func(error)) store.Unsubscribe {
	return r.hub.Subscribe(store.CollectionCategories, identity, func() {
		snap, err := r.ListCategories(context.Background(), identity)
		if err != nil {
			onError(err)
			return
		}
		onSnapshot(snap)
	})
}

// --- recurring rules ---

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, identity string, fields store.RecurringFields) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_rules (id, identity, amount_cents, description, category, type, frequency, start_date, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, identity, fields.Amount.Cents, fields.Description, fields.Category,
		string(fields.Type), string(fields.Frequency),
		fields.StartDate.UTC().Format(dateLayout), boolToInt(fields.Active),
		r.clock().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("insert recurring rule: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, identity, id string, fields store.RecurringFields) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_rules
		SET amount_cents = ?, description = ?, category = ?, type = ?, frequency = ?, start_date = ?, active = ?
		WHERE id = ? AND identity = ?`,
		fields.Amount.Cents, fields.Description, fields.Category, string(fields.Type),
		string(fields.Frequency), fields.StartDate.UTC().Format(dateLayout),
		boolToInt(fields.Active), id, identity)
	if err != nil {
		return fmt.Errorf("update recurring rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, identity, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_rules WHERE id = ? AND identity = ?`, id, identity)
	if err != nil {
		return fmt.Errorf("delete recurring rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, identity string) ([]store.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, description, category, type, frequency, start_date, active, last_run, created_at
		FROM recurring_rules
		WHERE identity = ?
		ORDER BY created_at ASC`, identity)
	if err != nil {
		return nil, fmt.Errorf("query recurring rules: %w", err)
	}
	defer rows.Close()

	var out []store.RecurringRule
	for rows.Next() {
		rule, _, err := scanRule(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring rules: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ActiveRecurring(ctx context.Context) ([]store.OwnedRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT identity, id, amount_cents, description, category, type, frequency, start_date, active, last_run, created_at
		FROM recurring_rules
		WHERE active = 1
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query active recurring rules: %w", err)
	}
	defer rows.Close()

	var out []store.OwnedRule
	for rows.Next() {
		rule, identity, err := scanRule(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, store.OwnedRule{Identity: identity, Rule: rule})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active recurring rules: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkRecurringRun(ctx context.Context, identity, id string, ranAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules SET last_run = ? WHERE id = ? AND identity = ?`,
		ranAt.UTC().Format(timeLayout), id, identity)
	if err != nil {
		return fmt.Errorf("mark recurring run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanRule(rows *sql.Rows, withIdentity bool) (store.RecurringRule, string, error) {
	var (
		rule             store.RecurringRule
		identity         string
		typ, freq, start string
		active           int
		lastRun          sql.NullString
		created          string
	)

	dest := []any{&rule.ID, &rule.Amount.Cents, &rule.Description, &rule.Category,
		&typ, &freq, &start, &active, &lastRun, &created}
	if withIdentity {
		dest = append([]any{&identity}, dest...)
	}
	if err := rows.Scan(dest...); err != nil {
		return store.RecurringRule{}, "", fmt.Errorf("scan recurring rule: %w", err)
	}

	rule.Type = core.TransactionType(typ)
	rule.Frequency = core.Frequency(freq)
	rule.Active = active != 0

	var err error
	if rule.StartDate, err = parseDate(start); err != nil {
		return store.RecurringRule{}, "", err
	}
	if lastRun.Valid && lastRun.String != "" {
		if rule.LastRun, err = parseTime(lastRun.String); err != nil {
			return store.RecurringRule{}, "", err
		}
	}
	if rule.CreatedAt, err = parseTime(created); err != nil {
		return store.RecurringRule{}, "", err
	}
	return rule, identity, nil
}

// --- users and sessions ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash string) (string, error) {
	var exists int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER(?)`, email).Scan(&exists); err != nil {
		return "", fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return "", store.ErrEmailInUse
	}

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, email, passwordHash, r.clock().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (store.User, error) {
	var (
		u       store.User
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE LOWER(email) = LOWER(?)`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if err == sql.ErrNoRows {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("query user: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return store.User{}, err
	}
	return u, nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SessionUser(ctx context.Context, token string) (string, error) {
	var (
		userID  string
		expires string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&userID, &expires)
	if err == sql.ErrNoRows {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query session: %w", err)
	}

	expiresAt, err := parseTime(expires)
	if err != nil {
		return "", err
	}
	if r.clock().After(expiresAt) {
		return "", store.ErrNotFound
	}
	return userID, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
