package students

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-os/campus-os/internal/command"
)

type memoryStudentRepo struct {
	students    map[int64]Student
	byAdmission map[string]int64
	attendance  []AttendanceEntry
	nextID      int64
}

func newMemoryStudentRepo() *memoryStudentRepo {
	return &memoryStudentRepo{
		students:    make(map[int64]Student),
		byAdmission: make(map[string]int64),
		nextID:      1,
	}
}

func (m *memoryStudentRepo) Insert(ctx context.Context, s Student) (Student, error) {
	if _, dup := m.byAdmission[s.AdmissionNo]; dup {
		return Student{}, ErrAdmissionNoTaken
	}
	s.ID = m.nextID
	m.nextID++
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	m.students[s.ID] = s
	m.byAdmission[s.AdmissionNo] = s.ID
	return s, nil
}

func (m *memoryStudentRepo) Get(ctx context.Context, id int64) (Student, error) {
	s, ok := m.students[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStudentRepo) Update(ctx context.Context, s Student) (Student, error) {
	if _, ok := m.students[s.ID]; !ok {
		return Student{}, ErrNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	m.students[s.ID] = s
	return s, nil
}

func (m *memoryStudentRepo) RecordAttendance(ctx context.Context, e AttendanceEntry) (AttendanceEntry, error) {
	e.ID = int64(len(m.attendance) + 1)
	e.CreatedAt = time.Now().UTC()
	m.attendance = append(m.attendance, e)
	return e, nil
}

func payloadCommand(t *testing.T, typ command.Type, payload any) command.Command {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return command.Command{Type: typ, Payload: raw, ActorID: 42}
}

func TestCreateHandlerStoresStudent(t *testing.T) {
	repo := newMemoryStudentRepo()
	handler := NewCreateHandler(repo)

	outcome, err := handler.Handle(context.Background(), payloadCommand(t, command.TypeStudentCreate, CreatePayload{
		AdmissionNo: "ADM-001",
		FirstName:   "Amina",
		LastName:    "Okafor",
		Classroom:   "4B",
	}))
	require.NoError(t, err)

	created, ok := outcome.Data.(Student)
	require.True(t, ok)
	assert.Equal(t, "enrolled", created.Status)
	assert.Equal(t, "ADM-001", created.AdmissionNo)
	assert.Nil(t, outcome.Before)
	assert.Equal(t, created, outcome.After)
	require.NotNil(t, outcome.Entity)
	assert.Equal(t, "student", outcome.Entity.Type)
	assert.Equal(t, "1", outcome.Entity.ID)
}

func TestCreateHandlerDuplicateAdmissionNo(t *testing.T) {
	repo := newMemoryStudentRepo()
	handler := NewCreateHandler(repo)
	payload := CreatePayload{AdmissionNo: "ADM-001", FirstName: "A", LastName: "B"}

	_, err := handler.Handle(context.Background(), payloadCommand(t, command.TypeStudentCreate, payload))
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), payloadCommand(t, command.TypeStudentCreate, payload))
	require.ErrorIs(t, err, ErrAdmissionNoTaken)
}

func TestCreateHandlerValidation(t *testing.T) {
	handler := NewCreateHandler(newMemoryStudentRepo())

	_, err := handler.Handle(context.Background(), payloadCommand(t, command.TypeStudentCreate, CreatePayload{
		AdmissionNo: "ADM-002",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "student.create")
}

func TestUpdateHandlerReturnsBeforeAndAfter(t *testing.T) {
	repo := newMemoryStudentRepo()
	created, err := repo.Insert(context.Background(), Student{
		AdmissionNo: "ADM-003", FirstName: "Kofi", LastName: "Mensah", Status: "enrolled",
	})
	require.NoError(t, err)

	handler := NewUpdateHandler(repo)
	status := "graduated"
	outcome, err := handler.Handle(context.Background(), payloadCommand(t, command.TypeStudentUpdate, UpdatePayload{
		StudentID: created.ID,
		Status:    &status,
	}))
	require.NoError(t, err)

	before := outcome.Before.(Student)
	after := outcome.After.(Student)
	assert.Equal(t, "enrolled", before.Status)
	assert.Equal(t, "graduated", after.Status)
	assert.Equal(t, before.FirstName, after.FirstName, "untouched fields preserved")
}

func TestUpdateHandlerUnknownStudent(t *testing.T) {
	handler := NewUpdateHandler(newMemoryStudentRepo())
	name := "X"

	_, err := handler.Handle(context.Background(), payloadCommand(t, command.TypeStudentUpdate, UpdatePayload{
		StudentID: 404,
		FirstName: &name,
	}))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAttendanceHandlerRecordsEntry(t *testing.T) {
	repo := newMemoryStudentRepo()
	created, err := repo.Insert(context.Background(), Student{
		AdmissionNo: "ADM-004", FirstName: "Lia", LastName: "Chen", Status: "enrolled",
	})
	require.NoError(t, err)

	handler := NewAttendanceHandler(repo)
	outcome, err := handler.Handle(context.Background(), payloadCommand(t, command.TypeAttendanceRecord, AttendancePayload{
		StudentID:   created.ID,
		Date:        "2026-03-02",
		Status:      "late",
		MinutesLate: 12,
	}))
	require.NoError(t, err)

	entry := outcome.Data.(AttendanceEntry)
	assert.Equal(t, AttendanceLate, entry.Status)
	assert.Equal(t, 12, entry.MinutesLate)
	assert.Equal(t, int64(42), entry.RecordedBy, "recorded by the acting principal")
	require.NotNil(t, outcome.Entity)
	assert.Equal(t, "attendance", outcome.Entity.Type)
}

func TestAttendanceHandlerRejectsUnknownStudent(t *testing.T) {
	handler := NewAttendanceHandler(newMemoryStudentRepo())

	_, err := handler.Handle(context.Background(), payloadCommand(t, command.TypeAttendanceRecord, AttendancePayload{
		StudentID: 404,
		Date:      "2026-03-02",
		Status:    "present",
	}))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAttendanceHandlerValidatesStatus(t *testing.T) {
	handler := NewAttendanceHandler(newMemoryStudentRepo())

	_, err := handler.Handle(context.Background(), payloadCommand(t, command.TypeAttendanceRecord, AttendancePayload{
		StudentID: 1,
		Date:      "2026-03-02",
		Status:    "tardy",
	}))
	require.Error(t, err)
}
