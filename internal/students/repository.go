package students

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for students.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const studentColumns = `id, admission_no, first_name, last_name, COALESCE(classroom, ''), status, created_at, updated_at`

// Insert stores a new student. Duplicate admission numbers surface as
// ErrAdmissionNoTaken.
func (r *Repository) Insert(ctx context.Context, s Student) (Student, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO students (admission_no, first_name, last_name, classroom, status, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW(), NOW())
		RETURNING `+studentColumns,
		s.AdmissionNo, s.FirstName, s.LastName, s.Classroom, s.Status)
	stored, err := scanStudent(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Student{}, ErrAdmissionNoTaken
		}
		return Student{}, fmt.Errorf("students: insert: %w", err)
	}
	return stored, nil
}

// Get fetches a student by id.
func (r *Repository) Get(ctx context.Context, id int64) (Student, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	s, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, fmt.Errorf("students: get: %w", err)
	}
	return s, nil
}

// Update persists mutable fields and returns the stored row.
func (r *Repository) Update(ctx context.Context, s Student) (Student, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE students
		SET first_name = $2, last_name = $3, classroom = NULLIF($4, ''), status = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+studentColumns,
		s.ID, s.FirstName, s.LastName, s.Classroom, s.Status)
	stored, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, fmt.Errorf("students: update: %w", err)
	}
	return stored, nil
}

// RecordAttendance appends one attendance entry.
func (r *Repository) RecordAttendance(ctx context.Context, e AttendanceEntry) (AttendanceEntry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO attendance_entries (student_id, entry_date, status, minutes_late, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, student_id, entry_date, status, minutes_late, recorded_by, created_at`,
		e.StudentID, e.Date, string(e.Status), e.MinutesLate, e.RecordedBy)
	var (
		stored AttendanceEntry
		status string
	)
	if err := row.Scan(&stored.ID, &stored.StudentID, &stored.Date, &status, &stored.MinutesLate, &stored.RecordedBy, &stored.CreatedAt); err != nil {
		return AttendanceEntry{}, fmt.Errorf("students: record attendance: %w", err)
	}
	stored.Status = AttendanceStatus(status)
	return stored, nil
}

func scanStudent(row pgx.Row) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.AdmissionNo, &s.FirstName, &s.LastName, &s.Classroom, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
