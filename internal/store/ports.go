// Package store defines the document-store boundary: per-identity CRUD over
// transaction and category collections plus push-based snapshot
// subscriptions. Implementations live in store/memory and internal/storage.
package store

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Collection names used for subscription scoping and change notifications.
const (
	CollectionTransactions = "transactions"
	CollectionCategories   = "categories"
)

type (
	OrderField string
	Direction  string

	// Order names the field and direction a snapshot is sorted by.
	Order struct {
		Field     OrderField
		Direction Direction
	}
)

const (
	OrderByDate      OrderField = "date"
	OrderByCreatedAt OrderField = "createdAt"

	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// TransactionFields is the full set of caller-supplied fields. Updates
// overwrite all of them; CreatedAt stays store-assigned and immutable.
type TransactionFields struct {
	Amount      core.Money
	Description string
	Category    string
	Type        core.TransactionType
	Date        core.Date
}

// Unsubscribe tears down a subscription. After it returns, the callbacks it
// belonged to receive no further snapshots.
type Unsubscribe func()

// TransactionStore is the backing collection of transaction records for all
// identities. Every operation is scoped to exactly one identity; records are
// never visible across identities.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, identity string, fields TransactionFields) (string, error)
	UpdateTransaction(ctx context.Context, identity, id string, fields TransactionFields) error
	DeleteTransaction(ctx context.Context, identity, id string) error
	ListTransactions(ctx context.Context, identity string, order Order) ([]core.Transaction, error)

	// SubscribeTransactions registers a callback that receives a full
	// ordered snapshot immediately and again after every change to the
	// identity's collection. Snapshot load failures go to onError and the
	// previous snapshot stands.
	SubscribeTransactions(identity string, order Order, onSnapshot func([]core.Transaction), onError func(error)) Unsubscribe
}

// CategoryStore is the backing collection of category records, always
// ordered by name ascending.
type CategoryStore interface {
	CreateCategory(ctx context.Context, identity, name string) (string, error)
	UpdateCategory(ctx context.Context, identity, id, name string) error
	DeleteCategory(ctx context.Context, identity, id string) error
	ListCategories(ctx context.Context, identity string) ([]core.Category, error)

	// SeedDefaults atomically creates the named categories iff the identity
	// has none yet, and reports whether it did. The check and the creates
	// happen under one store-level guard so concurrent callers cannot
	// duplicate the set.
	SeedDefaults(ctx context.Context, identity string, names []string) (bool, error)

	SubscribeCategories(identity string, onSnapshot func([]core.Category), onError func(error)) Unsubscribe
}

// RecurringFields is the caller-supplied part of a recurring rule.
type RecurringFields struct {
	Amount      core.Money
	Description string
	Category    string
	Type        core.TransactionType
	Frequency   core.Frequency
	StartDate   core.Date
	Active      bool
}

// RecurringRule is a template that materializes into transactions on a
// schedule. LastRun is zero until the rule first fires.
type RecurringRule struct {
	ID          string
	Amount      core.Money
	Description string
	Category    string
	Type        core.TransactionType
	Frequency   core.Frequency
	StartDate   core.Date
	Active      bool
	LastRun     time.Time
	CreatedAt   time.Time
}

// OwnedRule pairs a rule with the identity that owns it, for cross-identity
// sweeps by the recurring processor.
type OwnedRule struct {
	Identity string
	Rule     RecurringRule
}

// RecurringStore persists recurring rules.
type RecurringStore interface {
	CreateRecurring(ctx context.Context, identity string, fields RecurringFields) (string, error)
	UpdateRecurring(ctx context.Context, identity, id string, fields RecurringFields) error
	DeleteRecurring(ctx context.Context, identity, id string) error
	ListRecurring(ctx context.Context, identity string) ([]RecurringRule, error)

	// ActiveRecurring returns every active rule across all identities.
	ActiveRecurring(ctx context.Context) ([]OwnedRule, error)

	// MarkRecurringRun records that the rule fired at ranAt.
	MarkRecurringRun(ctx context.Context, identity, id string, ranAt time.Time) error
}

// User is an authentication record. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists accounts and bearer-token sessions for the session
// boundary.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (string, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error

	// SessionUser resolves a session token to its user ID. Expired or
	// unknown tokens return ErrNotFound.
	SessionUser(ctx context.Context, token string) (string, error)
}

// Notifier lets external change feeds (the AMQP worker) poke a store into
// re-pushing snapshots for an identity's collection.
type Notifier interface {
	Poke(collection, identity string)
}
