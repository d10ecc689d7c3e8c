package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-os/campus-os/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for policies.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const policyColumns = `id, policy_key, policy_value, COALESCE(description, ''), version, is_active, created_by, created_at`

// Advance deactivates the current active row for the key (if any) and inserts
// the next version in a single transaction. The active row is locked first so
// concurrent updates to one key serialise instead of racing to the same
// version number.
func (r *Repository) Advance(ctx context.Context, key string, value json.RawMessage, description string, createdBy int64) (prev *Policy, next Policy, err error) {
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT `+policyColumns+`
			FROM policies
			WHERE policy_key = $1 AND is_active
			FOR UPDATE`, key)
		current, scanErr := scanPolicy(row)
		switch {
		case scanErr == nil:
			prev = &current
		case errors.Is(scanErr, pgx.ErrNoRows):
			prev = nil
		default:
			return fmt.Errorf("policy: lock active row: %w", scanErr)
		}

		version := 1
		if prev != nil {
			version = prev.Version + 1
			if _, err := tx.Exec(ctx, `UPDATE policies SET is_active = FALSE WHERE id = $1`, prev.ID); err != nil {
				return fmt.Errorf("policy: deactivate version %d: %w", prev.Version, err)
			}
		}

		inserted := tx.QueryRow(ctx, `
			INSERT INTO policies (policy_key, policy_value, description, version, is_active, created_by, created_at)
			VALUES ($1, $2, NULLIF($3, ''), $4, TRUE, $5, NOW())
			RETURNING `+policyColumns, key, value, description, version, createdBy)
		next, scanErr = scanPolicy(inserted)
		if scanErr != nil {
			return fmt.Errorf("policy: insert version %d: %w", version, scanErr)
		}
		return nil
	})
	if err != nil {
		return nil, Policy{}, err
	}
	return prev, next, nil
}

// Active returns the active row for the key.
func (r *Repository) Active(ctx context.Context, key string) (Policy, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+policyColumns+`
		FROM policies
		WHERE policy_key = $1 AND is_active`, key)
	p, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Policy{}, ErrNotFound
		}
		return Policy{}, fmt.Errorf("policy: query active: %w", err)
	}
	return p, nil
}

// ActiveSet returns every active policy ordered by key.
func (r *Repository) ActiveSet(ctx context.Context) ([]Policy, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+policyColumns+`
		FROM policies
		WHERE is_active
		ORDER BY policy_key`)
	if err != nil {
		return nil, fmt.Errorf("policy: query active set: %w", err)
	}
	defer rows.Close()
	return collectPolicies(rows)
}

// History returns all versions for the key, newest first.
func (r *Repository) History(ctx context.Context, key string) ([]Policy, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+policyColumns+`
		FROM policies
		WHERE policy_key = $1
		ORDER BY version DESC`, key)
	if err != nil {
		return nil, fmt.Errorf("policy: query history: %w", err)
	}
	defer rows.Close()
	return collectPolicies(rows)
}

func scanPolicy(row pgx.Row) (Policy, error) {
	var p Policy
	err := row.Scan(&p.ID, &p.Key, &p.Value, &p.Description, &p.Version, &p.IsActive, &p.CreatedBy, &p.CreatedAt)
	return p, err
}

func collectPolicies(rows pgx.Rows) ([]Policy, error) {
	var policies []Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("policy: scan row: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return policies, nil
}
