// Package auth is the session boundary: email/password accounts, opaque
// bearer-token sessions, and an observer for auth-state transitions. All
// category and transaction visibility is scoped by the identity it resolves.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/cache"
	"fintrack/internal/store"
)

// Provider error codes, surfaced verbatim to the user.
const (
	CodeInvalidEmail      = "invalid-email"
	CodeWeakPassword      = "weak-password"
	CodeEmailInUse        = "email-already-in-use"
	CodeInvalidCredential = "invalid-credential"
)

const minPasswordLen = 6

// Error is an auth-provider failure with a stable code. It never crashes the
// session; callers surface Message and let the user retry.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func authError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Session is an authenticated principal with its bearer token.
type Session struct {
	Token     string
	Identity  string
	ExpiresAt time.Time
}

// Service implements sign-up, sign-in, and sign-out against a user store,
// with a TTL cache fronting token lookups.
type Service struct {
	users store.UserStore
	ttl   time.Duration
	cache *cache.LRU[string] // token -> identity

	mu        sync.Mutex
	observers map[int64]func(identity string)
	nextObs   int64
	last      string // last identity announced, "" when signed out
}

func NewService(users store.UserStore, ttl time.Duration) *Service {
	return &Service{
		users:     users,
		ttl:       ttl,
		cache:     cache.NewLRU[string](1024, ttl),
		observers: make(map[int64]func(identity string)),
	}
}

// SignUp creates an account and signs it in. Failures are classified into
// provider codes: malformed email, short password, or an email that already
// has an account.
func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, authError(CodeInvalidEmail, "the email address is badly formatted")
	}
	if len(password) < minPasswordLen {
		return Session{}, authError(CodeWeakPassword, fmt.Sprintf("password should be at least %d characters", minPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	identity, err := s.users.CreateUser(ctx, email, string(hash))
	if errors.Is(err, store.ErrEmailInUse) {
		return Session{}, authError(CodeEmailInUse, "the email address is already in use by another account")
	}
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	return s.openSession(ctx, identity)
}

// SignIn verifies credentials and issues a session token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, authError(CodeInvalidCredential, "the supplied credential is incorrect")
	}
	if err != nil {
		return Session{}, fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, authError(CodeInvalidCredential, "the supplied credential is incorrect")
	}

	return s.openSession(ctx, user.ID)
}

// SignOut revokes the session token. Revoking an unknown token is a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	s.cache.Delete(token)
	if err := s.users.DeleteSession(ctx, token); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	s.announce("")
	return nil
}

// Identify resolves a bearer token to its identity, consulting the cache
// first. Expired and revoked tokens return store.ErrNotFound.
func (s *Service) Identify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", store.ErrNotFound
	}
	if identity, ok := s.cache.Get(token); ok {
		return identity, nil
	}
	identity, err := s.users.SessionUser(ctx, token)
	if err != nil {
		return "", err
	}
	s.cache.Set(token, identity)
	return identity, nil
}

// Observe registers a callback fired on every auth-state transition of this
// provider. The callback runs once immediately with the current state, so
// the initial resolution happens exactly once per registration. The returned
// func cancels the registration.
func (s *Service) Observe(cb func(identity string)) func() {
	s.mu.Lock()
	s.nextObs++
	id := s.nextObs
	s.observers[id] = cb
	last := s.last
	s.mu.Unlock()

	cb(last)

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Service) openSession(ctx context.Context, identity string) (Session, error) {
	sess := Session{
		Token:     uuid.NewString(),
		Identity:  identity,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	if err := s.users.CreateSession(ctx, sess.Token, identity, sess.ExpiresAt); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	s.cache.Set(sess.Token, identity)
	s.announce(identity)
	return sess, nil
}

func (s *Service) announce(identity string) {
	s.mu.Lock()
	s.last = identity
	cbs := make([]func(string), 0, len(s.observers))
	for _, cb := range s.observers {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(identity)
	}
}
