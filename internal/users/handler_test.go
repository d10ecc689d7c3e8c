package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	users []User
	err   error
}

func (s *stubRepo) ListUsers(context.Context) ([]User, error) {
	return s.users, s.err
}

func TestListUsers(t *testing.T) {
	h := NewHandler(nil, NewService(&stubRepo{users: []User{
		{ID: 1, Email: "a@school.test", Name: "Ada", IsActive: true, Roles: []string{"clerk"}},
		{ID: 2, Email: "b@school.test", Name: "Ben", IsActive: true, Roles: []string{}},
	}}))

	rec := httptest.NewRecorder()
	h.listUsers(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Users, 2)
	assert.Equal(t, []string{"clerk"}, body.Users[0].Roles)
}

func TestListUsersEmptyIsArray(t *testing.T) {
	h := NewHandler(nil, NewService(&stubRepo{}))
	rec := httptest.NewRecorder()
	h.listUsers(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"users":[]}`, rec.Body.String())
}

func TestListUsersError(t *testing.T) {
	h := NewHandler(nil, NewService(&stubRepo{err: errors.New("down")}))
	rec := httptest.NewRecorder()
	h.listUsers(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
