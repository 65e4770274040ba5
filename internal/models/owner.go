package models

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// OwnerKind names the type of record that owns uploads ("user", "post", ...).
type OwnerKind string

// OwnerRef is a polymorphic reference to the record owning an upload.
type OwnerRef struct {
	Kind OwnerKind `json:"type,omitempty"`
	ID   string    `json:"id,omitempty"`
}

func (r OwnerRef) IsZero() bool {
	return r.Kind == "" || r.ID == ""
}

func (r OwnerRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// AssetOwner lets a bare reference be used wherever an owner is expected.
func (r OwnerRef) AssetOwner() OwnerRef { return r }

// HasAssets is implemented by any record that can own uploads.
type HasAssets interface {
	AssetOwner() OwnerRef
}

// OwnerResolver loads an owner of one kind by id.
type OwnerResolver interface {
	FindOwner(ctx context.Context, id string) (HasAssets, error)
}

// OwnerResolverFunc adapts a function to OwnerResolver.
type OwnerResolverFunc func(ctx context.Context, id string) (HasAssets, error)

func (f OwnerResolverFunc) FindOwner(ctx context.Context, id string) (HasAssets, error) {
	return f(ctx, id)
}

var (
	ErrUnknownOwnerKind = errors.New("unknown owner kind")
	ErrOwnerNotFound    = errors.New("owner not found")
)

// OwnerRegistry maps owner kinds to the repositories able to load them.
type OwnerRegistry struct {
	mu        sync.RWMutex
	resolvers map[OwnerKind]OwnerResolver
}

func NewOwnerRegistry() *OwnerRegistry {
	return &OwnerRegistry{resolvers: make(map[OwnerKind]OwnerResolver)}
}

func (r *OwnerRegistry) Register(kind OwnerKind, resolver OwnerResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[kind] = resolver
}

// RegisterPassthrough registers kinds whose owners are not loaded from anywhere:
// the reference itself is the owner.
func (r *OwnerRegistry) RegisterPassthrough(kinds ...OwnerKind) {
	for _, kind := range kinds {
		k := kind
		r.Register(k, OwnerResolverFunc(func(_ context.Context, id string) (HasAssets, error) {
			if id == "" {
				return nil, ErrOwnerNotFound
			}
			return OwnerRef{Kind: k, ID: id}, nil
		}))
	}
}

func (r *OwnerRegistry) Kinds() []OwnerKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]OwnerKind, 0, len(r.resolvers))
	for k := range r.resolvers {
		kinds = append(kinds, k)
	}
	return kinds
}

// Known reports whether kind has a registered resolver.
func (r *OwnerRegistry) Known(kind OwnerKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.resolvers[kind]
	return ok
}

// Resolve loads the owner a reference points at.
func (r *OwnerRegistry) Resolve(ctx context.Context, ref OwnerRef) (HasAssets, error) {
	r.mu.RLock()
	resolver, ok := r.resolvers[ref.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOwnerKind, ref.Kind)
	}
	owner, err := resolver.FindOwner(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrOwnerNotFound
	}
	return owner, nil
}
