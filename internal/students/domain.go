// Package students holds the student records domain: the example command
// handlers that every mutation-path test exercises end to end.
package students

import (
	"errors"
	"time"
)

// ErrNotFound indicates the student does not exist.
var ErrNotFound = errors.New("students: not found")

// ErrAdmissionNoTaken indicates a duplicate admission number.
var ErrAdmissionNoTaken = errors.New("students: admission number already taken")

// Student is one enrolled student record.
type Student struct {
	ID          int64     `json:"id"`
	AdmissionNo string    `json:"admission_no"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Classroom   string    `json:"classroom,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AttendanceStatus enumerates attendance outcomes.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// AttendanceEntry records one student's attendance for one day.
type AttendanceEntry struct {
	ID          int64            `json:"id"`
	StudentID   int64            `json:"student_id"`
	Date        time.Time        `json:"date"`
	Status      AttendanceStatus `json:"status"`
	MinutesLate int              `json:"minutes_late,omitempty"`
	RecordedBy  int64            `json:"recorded_by"`
	CreatedAt   time.Time        `json:"created_at"`
}
