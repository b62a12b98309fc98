package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pagecrest/domains/internal/registrar"
)

// ErrNotFound is returned when a tenant lookup finds no matching record.
var ErrNotFound = errors.New("tenant not found")

// ErrHostnameTaken is returned when a domain is already attached to another
// tenant.
var ErrHostnameTaken = errors.New("domain already attached to another tenant")

// Repository provides tenant persistence against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByID returns a single tenant by its UUID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return r.scanOne(ctx,
		`SELECT id, slug, name, hostname, domain_state, verification, created_at, updated_at
		 FROM tenants WHERE id = $1`, id)
}

// GetByHostname returns the tenant owning the given custom domain. This is
// the authoritative lookup behind the resolution cache.
func (r *Repository) GetByHostname(ctx context.Context, hostname string) (*Tenant, error) {
	return r.scanOne(ctx,
		`SELECT id, slug, name, hostname, domain_state, verification, created_at, updated_at
		 FROM tenants WHERE hostname = $1`, hostname)
}

// SetDomain attaches hostname and its verification payload to the tenant and
// moves the domain into the pending state.
func (r *Repository) SetDomain(ctx context.Context, id uuid.UUID, hostname string, verification []registrar.Verification) error {
	payload, err := json.Marshal(verification)
	if err != nil {
		return fmt.Errorf("encode verification data: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE tenants
		 SET hostname = $2, domain_state = $3, verification = $4, updated_at = now()
		 WHERE id = $1`,
		id, hostname, DomainPending, payload,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrHostnameTaken
		}
		return fmt.Errorf("set tenant domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDomainState records a lifecycle transition.
func (r *Repository) SetDomainState(ctx context.Context, id uuid.UUID, state DomainState) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tenants SET domain_state = $2, updated_at = now() WHERE id = $1`,
		id, state,
	)
	if err != nil {
		return fmt.Errorf("set domain state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearDomain detaches the custom domain, returning the tenant to the
// unconfigured state.
func (r *Repository) ClearDomain(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tenants
		 SET hostname = NULL, domain_state = $2, verification = NULL, updated_at = now()
		 WHERE id = $1`,
		id, DomainUnconfigured,
	)
	if err != nil {
		return fmt.Errorf("clear tenant domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) scanOne(ctx context.Context, q string, args ...any) (*Tenant, error) {
	t := &Tenant{}
	var hostname *string
	var verification []byte

	err := r.db.QueryRow(ctx, q, args...).Scan(
		&t.ID, &t.Slug, &t.Name, &hostname, &t.DomainState,
		&verification, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	if hostname != nil {
		t.Hostname = *hostname
	}
	if len(verification) > 0 {
		if err := json.Unmarshal(verification, &t.VerificationData); err != nil {
			return nil, fmt.Errorf("decode verification data: %w", err)
		}
	}
	return t, nil
}
