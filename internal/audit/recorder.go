package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder appends events to audit_events. It exposes no update or delete;
// the table accumulates monotonically.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a Recorder backed by the pool.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record persists the event and returns its generated id. The created_at
// timestamp is server-assigned so ordering holds under concurrent writers.
func (r *Recorder) Record(ctx context.Context, ev Event) (uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return uuid.Nil, errors.New("audit: recorder not initialised")
	}
	if ev.CommandType == "" {
		return uuid.Nil, errors.New("audit: command type required")
	}
	if ev.EntityType == "" {
		return uuid.Nil, errors.New("audit: entity type required")
	}

	beforeJSON, err := marshalOptional(ev.Before)
	if err != nil {
		return uuid.Nil, fmt.Errorf("audit: marshal before state: %w", err)
	}
	afterJSON, err := marshalOptional(ev.After)
	if err != nil {
		return uuid.Nil, fmt.Errorf("audit: marshal after state: %w", err)
	}
	var metaJSON []byte
	if len(ev.Metadata) > 0 {
		metaJSON, err = json.Marshal(ev.Metadata)
		if err != nil {
			return uuid.Nil, fmt.Errorf("audit: marshal metadata: %w", err)
		}
	}

	id := ev.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_events
			(id, created_at, actor_user_id, actor_roles, command_type, entity_type, entity_id, before_json, after_json, reason, metadata_json, device_id)
		VALUES ($1, NOW(), $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''), $10, NULLIF($11, ''))`,
		id, ev.ActorUserID, ev.ActorRoles, ev.CommandType, ev.EntityType, ev.EntityID,
		beforeJSON, afterJSON, ev.Reason, metaJSON, ev.DeviceID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("audit: insert event: %w", err)
	}
	return id, nil
}

func marshalOptional(state any) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}
