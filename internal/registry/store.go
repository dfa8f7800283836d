package registry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/discount-engine/internal/discount"
)

// ErrNotFound indicates the requested discount definition does not exist.
var ErrNotFound = errors.New("discount definition not found")

// Definition is a stored discount configuration: the classes it may apply and
// the optional percentage override carried as a free-form metafield value.
type Definition struct {
	ID              uuid.UUID                `json:"id"`
	Title           string                   `json:"title"`
	Classes         []discount.DiscountClass `json:"classes"`
	PercentageValue *string                  `json:"percentageValue,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

// Context converts the definition into the engine's discount context.
func (d Definition) Context() discount.Context {
	ctx := discount.Context{DiscountClasses: d.Classes}
	if d.PercentageValue != nil {
		ctx.Metafield = &discount.Metafield{Value: *d.PercentageValue}
	}
	return ctx
}

// DefinitionParams captures the mutable fields of a definition.
type DefinitionParams struct {
	Title           string
	Classes         []discount.DiscountClass
	PercentageValue *string
}

// Store persists discount definitions in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

const definitionColumns = `id, title, classes, percentage_value, created_at, updated_at`

// Create inserts a new definition and returns the stored row.
func (s *Store) Create(ctx context.Context, params DefinitionParams) (Definition, error) {
	if s == nil || s.Pool == nil {
		return Definition{}, errors.New("registry store not configured")
	}
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO discount_definitions (title, classes, percentage_value)
		 VALUES ($1, $2, $3)
		 RETURNING `+definitionColumns,
		params.Title, classesToText(params.Classes), textOrNull(params.PercentageValue))
	return scanDefinition(row)
}

// Get fetches a definition by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Definition, error) {
	if s == nil || s.Pool == nil {
		return Definition{}, errors.New("registry store not configured")
	}
	row := s.Pool.QueryRow(ctx,
		`SELECT `+definitionColumns+` FROM discount_definitions WHERE id = $1`, id)
	def, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Definition{}, ErrNotFound
		}
		return Definition{}, err
	}
	return def, nil
}

// Update replaces the mutable fields of a definition.
func (s *Store) Update(ctx context.Context, id uuid.UUID, params DefinitionParams) (Definition, error) {
	if s == nil || s.Pool == nil {
		return Definition{}, errors.New("registry store not configured")
	}
	row := s.Pool.QueryRow(ctx,
		`UPDATE discount_definitions
		 SET title = $2, classes = $3, percentage_value = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+definitionColumns,
		id, params.Title, classesToText(params.Classes), textOrNull(params.PercentageValue))
	def, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Definition{}, ErrNotFound
		}
		return Definition{}, err
	}
	return def, nil
}

// List returns definitions ordered by creation time, newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Definition, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("registry store not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+definitionColumns+` FROM discount_definitions
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Definition, 0, limit)
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

func scanDefinition(row pgx.Row) (Definition, error) {
	var (
		def     Definition
		classes []string
		value   pgtype.Text
	)
	if err := row.Scan(&def.ID, &def.Title, &classes, &value, &def.CreatedAt, &def.UpdatedAt); err != nil {
		return Definition{}, err
	}
	def.Classes = make([]discount.DiscountClass, 0, len(classes))
	for _, c := range classes {
		def.Classes = append(def.Classes, discount.DiscountClass(c))
	}
	if value.Valid {
		v := value.String
		def.PercentageValue = &v
	}
	return def, nil
}

func classesToText(classes []discount.DiscountClass) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		out = append(out, string(c))
	}
	return out
}

func textOrNull(v *string) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *v, Valid: true}
}
