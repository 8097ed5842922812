// Package memory provides an in-memory store backend. It mirrors the SQLite
// backend's semantics (per-identity scoping, snapshot subscriptions, atomic
// default seeding) and backs the unit tests and the default dev setup.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu        sync.Mutex
	txns      map[string][]core.Transaction // identity -> records
	cats      map[string][]core.Category
	recurring map[string][]store.RecurringRule
	users     map[string]store.User // email -> user
	sessions  map[string]session    // token -> session
	hub       *store.Hub

	clock func() time.Time
}

type session struct {
	userID    string
	expiresAt time.Time
}

func New() *Store {
	return &Store{
		txns:      make(map[string][]core.Transaction),
		cats:      make(map[string][]core.Category),
		recurring: make(map[string][]store.RecurringRule),
		users:     make(map[string]store.User),
		sessions:  make(map[string]session),
		hub:       store.NewHub(),
		clock:     time.Now,
	}
}

// Poke implements store.Notifier for external change feeds.
func (s *Store) Poke(collection, identity string) {
	s.hub.Notify(collection, identity)
}

// --- transactions ---

func (s *Store) CreateTransaction(ctx context.Context, identity string, fields store.TransactionFields) (string, error) {
	t := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      fields.Amount,
		Description: fields.Description,
		Category:    fields.Category,
		Type:        fields.Type,
		Date:        fields.Date,
		CreatedAt:   s.clock().UTC(),
	}
	if err := t.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.txns[identity] = append(s.txns[identity], t)
	s.mu.Unlock()

	s.hub.Notify(store.CollectionTransactions, identity)
	return t.ID, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, identity, id string, fields store.TransactionFields) error {
	s.mu.Lock()
	found := false
	for i, t := range s.txns[identity] {
		if t.ID != id {
			continue
		}
		// Full-field overwrite; CreatedAt is immutable.
		t.Amount = fields.Amount
		t.Description = fields.Description
		t.Category = fields.Category
		t.Type = fields.Type
		t.Date = fields.Date
		s.txns[identity][i] = t
		found = true
		break
	}
	s.mu.Unlock()

	if !found {
		return store.ErrNotFound
	}
	s.hub.Notify(store.CollectionTransactions, identity)
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, identity, id string) error {
	s.mu.Lock()
	found := false
	list := s.txns[identity]
	for i, t := range list {
		if t.ID == id {
			s.txns[identity] = append(list[:i:i], list[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return store.ErrNotFound
	}
	s.hub.Notify(store.CollectionTransactions, identity)
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, identity string, order store.Order) ([]core.Transaction, error) {
	s.mu.Lock()
	out := append([]core.Transaction(nil), s.txns[identity]...)
	s.mu.Unlock()

	sortTransactions(out, order)
	return out, nil
}

func (s *Store) SubscribeTransactions(identity string, order store.Order, onSnapshot func([]core.Transaction), onError func(error)) store.Unsubscribe {
	return s.hub.Subscribe(store.CollectionTransactions, identity, func() {
		snap, err := s.ListTransactions(context.Background(), identity, order)
		if err != nil {
			onError(err)
			return
		}
		onSnapshot(snap)
	})
}

func sortTransactions(txns []core.Transaction, order store.Order) {
	desc := order.Direction == store.Descending
	switch order.Field {
	case store.OrderByCreatedAt:
		sort.SliceStable(txns, func(i, j int) bool {
			if desc {
				return txns[i].CreatedAt.After(txns[j].CreatedAt)
			}
			return txns[i].CreatedAt.Before(txns[j].CreatedAt)
		})
	default: // date
		sort.SliceStable(txns, func(i, j int) bool {
			if desc {
				return txns[i].Date.After(txns[j].Date.Time)
			}
			return txns[i].Date.Before(txns[j].Date.Time)
		})
	}
}

// --- categories ---

func (s *Store) CreateCategory(ctx context.Context, identity, name string) (string, error) {
	c := core.Category{ID: uuid.NewString(), Name: name}
	if err := c.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cats[identity] = append(s.cats[identity], c)
	s.mu.Unlock()

	s.hub.Notify(store.CollectionCategories, identity)
	return c.ID, nil
}

func (s *Store) UpdateCategory(ctx context.Context, identity, id, name string) error {
	s.mu.Lock()
	found := false
	for i, c := range s.cats[identity] {
		if c.ID == id {
			s.cats[identity][i].Name = name
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return store.ErrNotFound
	}
	s.hub.Notify(store.CollectionCategories, identity)
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, identity, id string) error {
	s.mu.Lock()
	found := false
	list := s.cats[identity]
	for i, c := range list {
		if c.ID == id {
			s.cats[identity] = append(list[:i:i], list[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return store.ErrNotFound
	}
	s.hub.Notify(store.CollectionCategories, identity)
	return nil
}

func (s *Store) ListCategories(ctx context.Context, identity string) ([]core.Category, error) {
	s.mu.Lock()
	out := append([]core.Category(nil), s.cats[identity]...)
	s.mu.Unlock()

	// Name ascending, case-sensitive byte order, matching the SQLite
	// collation.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) SeedDefaults(ctx context.Context, identity string, names []string) (bool, error) {
	s.mu.Lock()
	if len(s.cats[identity]) > 0 {
		s.mu.Unlock()
		return false, nil
	}
	for _, name := range names {
		s.cats[identity] = append(s.cats[identity], core.Category{ID: uuid.NewString(), Name: name})
	}
	s.mu.Unlock()

	s.hub.Notify(store.CollectionCategories, identity)
	return true, nil
}

func (s *Store) SubscribeCategories(identity string, onSnapshot func([]core.Category), onError func(error)) store.Unsubscribe {
	return s.hub.Subscribe(store.CollectionCategories, identity, func() {
		snap, err := s.ListCategories(context.Background(), identity)
		if err != nil {
			onError(err)
			return
		}
		onSnapshot(snap)
	})
}

// --- recurring rules ---

func (s *Store) CreateRecurring(ctx context.Context, identity string, fields store.RecurringFields) (string, error) {
	r := store.RecurringRule{
		ID:          uuid.NewString(),
		Amount:      fields.Amount,
		Description: fields.Description,
		Category:    fields.Category,
		Type:        fields.Type,
		Frequency:   fields.Frequency,
		StartDate:   fields.StartDate,
		Active:      fields.Active,
		CreatedAt:   s.clock().UTC(),
	}

	s.mu.Lock()
	s.recurring[identity] = append(s.recurring[identity], r)
	s.mu.Unlock()
	return r.ID, nil
}

func (s *Store) UpdateRecurring(ctx context.Context, identity, id string, fields store.RecurringFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.recurring[identity] {
		if r.ID != id {
			continue
		}
		r.Amount = fields.Amount
		r.Description = fields.Description
		r.Category = fields.Category
		r.Type = fields.Type
		r.Frequency = fields.Frequency
		r.StartDate = fields.StartDate
		r.Active = fields.Active
		s.recurring[identity][i] = r
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) DeleteRecurring(ctx context.Context, identity, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.recurring[identity]
	for i, r := range list {
		if r.ID == id {
			s.recurring[identity] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListRecurring(ctx context.Context, identity string) ([]store.RecurringRule, error) {
	s.mu.Lock()
	out := append([]store.RecurringRule(nil), s.recurring[identity]...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ActiveRecurring(ctx context.Context) ([]store.OwnedRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.OwnedRule
	for identity, rules := range s.recurring {
		for _, r := range rules {
			if r.Active {
				out = append(out, store.OwnedRule{Identity: identity, Rule: r})
			}
		}
	}
	return out, nil
}

func (s *Store) MarkRecurringRun(ctx context.Context, identity, id string, ranAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.recurring[identity] {
		if r.ID == id {
			s.recurring[identity][i].LastRun = ranAt.UTC()
			return nil
		}
	}
	return store.ErrNotFound
}

// --- users and sessions ---

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (string, error) {
	key := strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; exists {
		return "", store.ErrEmailInUse
	}
	u := store.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.clock().UTC(),
	}
	s.users[key] = u
	return u.ID, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) SessionUser(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || s.clock().After(sess.expiresAt) {
		return "", store.ErrNotFound
	}
	return sess.userID, nil
}
