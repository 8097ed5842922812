// Package registry implements the category registry: listing, ad-hoc
// creation, renames, deletes, and one-time default seeding per identity.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Registry validates and forwards category operations to the store. All
// operations take the identity explicitly; the registry holds no per-user
// state.
type Registry struct {
	cats store.CategoryStore
}

func New(cats store.CategoryStore) *Registry {
	return &Registry{cats: cats}
}

// List returns the identity's categories sorted by name ascending.
func (r *Registry) List(ctx context.Context, identity string) ([]core.Category, error) {
	cats, err := r.cats.ListCategories(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Add creates a category with the trimmed name. Duplicate names are legal;
// no uniqueness check is performed.
func (r *Registry) Add(ctx context.Context, identity, rawName string) (core.Category, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return core.Category{}, core.ErrEmptyName
	}
	id, err := r.cats.CreateCategory(ctx, identity, name)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return core.Category{ID: id, Name: name}, nil
}

// Rename updates a category's name. Transactions already referencing the old
// name keep their stored string; there is no cascade.
func (r *Registry) Rename(ctx context.Context, identity, id, rawName string) error {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return core.ErrEmptyName
	}
	if err := r.cats.UpdateCategory(ctx, identity, id, name); err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	return nil
}

// Delete removes a category. Transactions referencing it by name are left
// untouched; the name lives on as an orphaned label on those records.
func (r *Registry) Delete(ctx context.Context, identity, id string) error {
	if err := r.cats.DeleteCategory(ctx, identity, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// EnsureDefaults seeds the fixed default set for identities that have no
// categories yet. The check-and-create is atomic in the store, so concurrent
// callers and process restarts cannot duplicate the set.
func (r *Registry) EnsureDefaults(ctx context.Context, identity string) (bool, error) {
	seeded, err := r.cats.SeedDefaults(ctx, identity, core.DefaultCategories)
	if err != nil {
		return false, fmt.Errorf("seed default categories: %w", err)
	}
	if seeded {
		slog.InfoContext(ctx, "Seeded default categories",
			"identity", identity,
			"count", len(core.DefaultCategories))
	}
	return seeded, nil
}

// Subscribe streams category snapshots for one identity. The returned func
// tears the subscription down; it must be called on scope exit.
func (r *Registry) Subscribe(identity string, onSnapshot func([]core.Category), onError func(error)) store.Unsubscribe {
	return r.cats.SubscribeCategories(identity, onSnapshot, onError)
}
