package students

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/campus-os/campus-os/internal/command"
)

// RepositoryPort defines persistence as needed by the command handlers.
type RepositoryPort interface {
	Insert(ctx context.Context, s Student) (Student, error)
	Get(ctx context.Context, id int64) (Student, error)
	Update(ctx context.Context, s Student) (Student, error)
	RecordAttendance(ctx context.Context, e AttendanceEntry) (AttendanceEntry, error)
}

// CreatePayload is the payload for student.create.
type CreatePayload struct {
	AdmissionNo string `json:"admission_no" validate:"required,max=32"`
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Classroom   string `json:"classroom" validate:"max=50"`
}

// UpdatePayload is the payload for student.update. Only provided fields
// change.
type UpdatePayload struct {
	StudentID int64   `json:"student_id" validate:"required,gt=0"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Classroom *string `json:"classroom,omitempty" validate:"omitempty,max=50"`
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=enrolled suspended withdrawn graduated"`
}

// AttendancePayload is the payload for attendance.record.
type AttendancePayload struct {
	StudentID   int64  `json:"student_id" validate:"required,gt=0"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Status      string `json:"status" validate:"required,oneof=present absent late"`
	MinutesLate int    `json:"minutes_late" validate:"gte=0"`
}

// CreateHandler executes student.create.
type CreateHandler struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewCreateHandler builds the handler.
func NewCreateHandler(repo RepositoryPort) *CreateHandler {
	return &CreateHandler{repo: repo, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Handle implements command.Handler.
func (h *CreateHandler) Handle(ctx context.Context, cmd command.Command) (command.Outcome, error) {
	var payload CreatePayload
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		return command.Outcome{}, fmt.Errorf("student.create: invalid payload: %w", err)
	}
	if err := h.validate.Struct(payload); err != nil {
		return command.Outcome{}, fmt.Errorf("student.create: %w", err)
	}

	created, err := h.repo.Insert(ctx, Student{
		AdmissionNo: payload.AdmissionNo,
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		Classroom:   payload.Classroom,
		Status:      "enrolled",
	})
	if err != nil {
		return command.Outcome{}, err
	}

	return command.Outcome{
		Data:   created,
		After:  created,
		Entity: &command.EntityRef{Type: "student", ID: strconv.FormatInt(created.ID, 10)},
	}, nil
}

// UpdateHandler executes student.update, supplying both before and after
// snapshots for the audit record.
type UpdateHandler struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewUpdateHandler builds the handler.
func NewUpdateHandler(repo RepositoryPort) *UpdateHandler {
	return &UpdateHandler{repo: repo, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Handle implements command.Handler.
func (h *UpdateHandler) Handle(ctx context.Context, cmd command.Command) (command.Outcome, error) {
	var payload UpdatePayload
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		return command.Outcome{}, fmt.Errorf("student.update: invalid payload: %w", err)
	}
	if err := h.validate.Struct(payload); err != nil {
		return command.Outcome{}, fmt.Errorf("student.update: %w", err)
	}

	before, err := h.repo.Get(ctx, payload.StudentID)
	if err != nil {
		return command.Outcome{}, err
	}

	next := before
	if payload.FirstName != nil {
		next.FirstName = *payload.FirstName
	}
	if payload.LastName != nil {
		next.LastName = *payload.LastName
	}
	if payload.Classroom != nil {
		next.Classroom = *payload.Classroom
	}
	if payload.Status != nil {
		next.Status = *payload.Status
	}

	after, err := h.repo.Update(ctx, next)
	if err != nil {
		return command.Outcome{}, err
	}

	return command.Outcome{
		Data:   after,
		Before: before,
		After:  after,
		Entity: &command.EntityRef{Type: "student", ID: strconv.FormatInt(after.ID, 10)},
	}, nil
}

// AttendanceHandler executes attendance.record.
type AttendanceHandler struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewAttendanceHandler builds the handler.
func NewAttendanceHandler(repo RepositoryPort) *AttendanceHandler {
	return &AttendanceHandler{repo: repo, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Handle implements command.Handler.
func (h *AttendanceHandler) Handle(ctx context.Context, cmd command.Command) (command.Outcome, error) {
	var payload AttendancePayload
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		return command.Outcome{}, fmt.Errorf("attendance.record: invalid payload: %w", err)
	}
	if err := h.validate.Struct(payload); err != nil {
		return command.Outcome{}, fmt.Errorf("attendance.record: %w", err)
	}
	day, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return command.Outcome{}, fmt.Errorf("attendance.record: invalid date: %w", err)
	}

	// The student must exist; a dangling attendance row is useless for audits.
	if _, err := h.repo.Get(ctx, payload.StudentID); err != nil {
		return command.Outcome{}, err
	}

	entry, err := h.repo.RecordAttendance(ctx, AttendanceEntry{
		StudentID:   payload.StudentID,
		Date:        day,
		Status:      AttendanceStatus(payload.Status),
		MinutesLate: payload.MinutesLate,
		RecordedBy:  cmd.ActorID,
	})
	if err != nil {
		return command.Outcome{}, err
	}

	return command.Outcome{
		Data:   entry,
		After:  entry,
		Entity: &command.EntityRef{Type: "attendance", ID: strconv.FormatInt(entry.ID, 10)},
	}, nil
}
