package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campus-os/campus-os/internal/audit"
)

// AuditSink receives the audit event for a successful execution. Satisfied by
// *audit.Recorder.
type AuditSink interface {
	Record(ctx context.Context, ev audit.Event) (uuid.UUID, error)
}

// Metrics receives execution observability signals. Satisfied by
// *observability.Metrics; a nil Metrics is a no-op.
type Metrics interface {
	CommandProcessed(commandType, outcome string)
	AuditWriteFailure(commandType string)
}

const (
	outcomeDenied   = "denied"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
	outcomeSuccess  = "success"
)

// Bus is the authorization gate and execution pipeline. Permission failures
// short-circuit before any side effect; only successful domain execution
// produces an audit record.
type Bus struct {
	registry *Registry
	audits   AuditSink
	logger   *slog.Logger
	metrics  Metrics
}

// NewBus wires the bus. Registry and audit sink are mandatory; metrics may be
// nil.
func NewBus(registry *Registry, audits AuditSink, logger *slog.Logger, metrics Metrics) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{registry: registry, audits: audits, logger: logger, metrics: metrics}
}

// Execute runs one command for the calling principal and returns a structured
// result. It never panics and never writes an audit record for a denied or
// failed execution.
func (b *Bus) Execute(ctx context.Context, caller Caller, req Request) Result {
	perm, err := RequiredPermission(req.Type)
	if err != nil {
		b.count(req.Type, outcomeRejected)
		return Result{Success: false, Error: err.Error()}
	}

	if !caller.Actor.Can(perm) {
		b.count(req.Type, outcomeDenied)
		return Result{Success: false, Error: fmt.Sprintf("permission denied: requires %s", perm)}
	}

	handler, ok := b.registry.Handler(req.Type)
	if !ok {
		// Fail closed: an enumerated type without a handler is a wiring bug,
		// not an implicit success.
		b.count(req.Type, outcomeRejected)
		return Result{Success: false, Error: fmt.Sprintf("no handler registered for command type %s", req.Type)}
	}

	cmd := Command{
		ID:         uuid.New(),
		Type:       req.Type,
		Payload:    req.Payload,
		Entity:     req.Entity,
		Reason:     req.Reason,
		Metadata:   req.Metadata,
		ActorID:    caller.Actor.UserID,
		ActorRoles: caller.Actor.RoleNames(),
		CreatedAt:  time.Now().UTC(),
		DeviceID:   caller.DeviceID,
	}

	outcome, err := b.dispatch(ctx, handler, cmd)
	if err != nil {
		b.count(req.Type, outcomeFailed)
		return Result{Success: false, Error: err.Error()}
	}

	result := Result{Success: true, Data: outcome.Data}
	if id, ok := b.recordAudit(ctx, cmd, outcome); ok {
		result.AuditEventID = id.String()
	}
	b.count(req.Type, outcomeSuccess)
	return result
}

// dispatch invokes the handler, converting a panic into an error so no
// execution path escapes the bus unhandled.
func (b *Bus) dispatch(ctx context.Context, handler Handler, cmd Command) (outcome Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("command handler panic",
				slog.String("command_type", string(cmd.Type)),
				slog.Any("panic", rec))
			outcome = Outcome{}
			err = fmt.Errorf("command handler panic: %v", rec)
		}
	}()
	return handler.Handle(ctx, cmd)
}

// recordAudit persists the audit event for a successful execution. A failed
// write is surfaced through the logger and metrics but does not flip the
// command result: the domain mutation already committed, and losing it over
// an audit hiccup is the worse failure.
func (b *Bus) recordAudit(ctx context.Context, cmd Command, outcome Outcome) (uuid.UUID, bool) {
	entityType, entityID := auditEntity(cmd, outcome)
	ev := audit.Event{
		ActorUserID: cmd.ActorID,
		ActorRoles:  cmd.ActorRoles,
		CommandType: string(cmd.Type),
		EntityType:  entityType,
		EntityID:    entityID,
		Before:      outcome.Before,
		After:       outcome.After,
		Reason:      cmd.Reason,
		Metadata:    cmd.Metadata,
		DeviceID:    cmd.DeviceID,
	}
	id, err := b.audits.Record(ctx, ev)
	if err != nil {
		b.logger.Error("audit write failed after successful command",
			slog.String("command_type", string(cmd.Type)),
			slog.String("command_id", cmd.ID.String()),
			slog.Int64("actor_user_id", cmd.ActorID),
			slog.Any("error", err))
		if b.metrics != nil {
			b.metrics.AuditWriteFailure(string(cmd.Type))
		}
		return uuid.Nil, false
	}
	return id, true
}

// auditEntity resolves audit linkage: handler-refined ref wins, then the
// request's ref, then the command type's first segment.
func auditEntity(cmd Command, outcome Outcome) (string, string) {
	if outcome.Entity != nil && outcome.Entity.Type != "" {
		return outcome.Entity.Type, outcome.Entity.ID
	}
	if cmd.Entity != nil && cmd.Entity.Type != "" {
		return cmd.Entity.Type, cmd.Entity.ID
	}
	return cmd.Type.EntityType(), ""
}

func (b *Bus) count(t Type, outcome string) {
	if b.metrics != nil {
		b.metrics.CommandProcessed(string(t), outcome)
	}
}
