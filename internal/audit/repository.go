package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides the read-only query surface over audit_events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns events matching the filters, newest first. The caller is
// responsible for clamping Limit; the repository applies it verbatim.
func (r *Repository) List(ctx context.Context, f Filters) ([]Row, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActorUserID != 0 {
		conds = append(conds, "e.actor_user_id = "+arg(f.ActorUserID))
	}
	if f.CommandType != "" {
		conds = append(conds, "e.command_type = "+arg(f.CommandType))
	}
	if f.EntityType != "" {
		conds = append(conds, "e.entity_type = "+arg(f.EntityType))
	}
	if f.Search != "" {
		pattern := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf(
			"(u.name ILIKE %s OR e.command_type ILIKE %s OR e.reason ILIKE %s)",
			pattern, pattern, pattern))
	}

	query := `
		SELECT e.id, e.created_at, e.actor_user_id, COALESCE(u.name, ''), e.actor_roles,
		       e.command_type, e.entity_type, COALESCE(e.entity_id, ''),
		       e.before_json, e.after_json, COALESCE(e.reason, ''), e.metadata_json,
		       COALESCE(e.device_id, '')
		FROM audit_events e
		LEFT JOIN users u ON u.id = e.actor_user_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.created_at DESC LIMIT " + arg(f.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.CreatedAt, &row.ActorUserID, &row.ActorName,
			&row.ActorRoles, &row.CommandType, &row.EntityType, &row.EntityID,
			&row.Before, &row.After, &row.Reason, &row.Metadata,
			&row.DeviceID); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
