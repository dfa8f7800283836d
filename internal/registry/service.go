package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/discount-engine/internal/discount"
)

// Querier is the subset of Store used by the service. It exists so tests can
// substitute a fake without a database.
type Querier interface {
	Create(ctx context.Context, params DefinitionParams) (Definition, error)
	Get(ctx context.Context, id uuid.UUID) (Definition, error)
	Update(ctx context.Context, id uuid.UUID, params DefinitionParams) (Definition, error)
	List(ctx context.Context, limit, offset int) ([]Definition, error)
}

// Service layers the definition cache over the store and adapts lookups for
// the run endpoint.
type Service struct {
	Q     Querier
	Cache *Cache
}

// Create persists a new definition and primes the cache.
func (s *Service) Create(ctx context.Context, params DefinitionParams) (Definition, error) {
	if s == nil || s.Q == nil {
		return Definition{}, errors.New("registry service not configured")
	}
	def, err := s.Q.Create(ctx, params)
	if err != nil {
		return Definition{}, err
	}
	s.Cache.Set(ctx, def)
	return def, nil
}

// Get fetches a definition, consulting the cache first.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Definition, error) {
	if s == nil || s.Q == nil {
		return Definition{}, errors.New("registry service not configured")
	}
	if def, ok := s.Cache.Get(ctx, id.String()); ok {
		return def, nil
	}
	def, err := s.Q.Get(ctx, id)
	if err != nil {
		return Definition{}, err
	}
	s.Cache.Set(ctx, def)
	return def, nil
}

// Update replaces a definition and refreshes the cache entry.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params DefinitionParams) (Definition, error) {
	if s == nil || s.Q == nil {
		return Definition{}, errors.New("registry service not configured")
	}
	def, err := s.Q.Update(ctx, id, params)
	if err != nil {
		return Definition{}, err
	}
	s.Cache.Invalidate(ctx, id.String())
	s.Cache.Set(ctx, def)
	return def, nil
}

// List returns stored definitions.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Definition, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("registry service not configured")
	}
	return s.Q.List(ctx, limit, offset)
}

// Resolve implements the run endpoint's resolver contract. Unknown and
// malformed ids both report not-found rather than an error.
func (s *Service) Resolve(ctx context.Context, id string) (discount.Context, bool, error) {
	if s == nil || s.Q == nil {
		return discount.Context{}, false, errors.New("registry service not configured")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return discount.Context{}, false, nil
	}
	def, err := s.Get(ctx, parsed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return discount.Context{}, false, nil
		}
		return discount.Context{}, false, fmt.Errorf("resolve discount %s: %w", id, err)
	}
	return def.Context(), true, nil
}
