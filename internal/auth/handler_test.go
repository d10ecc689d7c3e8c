package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-os/campus-os/internal/shared"
)

type stubRepo struct {
	users    map[string]*User
	sessions map[string]int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[string]*User), sessions: make(map[string]int64)}
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func testHandler(t *testing.T, repo *stubRepo) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "campus_session", "test-secret", time.Hour, false)
	return NewHandler(nil, NewService(repo), sm), sm
}

func loginRequest(body string, sess *shared.Session) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestLoginSuccess(t *testing.T) {
	repo := newStubRepo()
	repo.users["jane@school.test"] = &User{
		ID: 7, Name: "Jane", Email: "jane@school.test",
		PasswordHash: hashFor(t, "correct horse"), IsActive: true,
	}
	h, _ := testHandler(t, repo)

	sess := &shared.Session{ID: "sess-1"}
	rec := httptest.NewRecorder()
	h.handleLogin(rec, loginRequest(`{"email":"jane@school.test","password":"correct horse"}`, sess))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", sess.User())
	assert.Equal(t, int64(7), repo.sessions["sess-1"])
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubRepo()
	repo.users["jane@school.test"] = &User{
		ID: 7, Email: "jane@school.test",
		PasswordHash: hashFor(t, "correct horse"), IsActive: true,
	}
	h, _ := testHandler(t, repo)

	sess := &shared.Session{ID: "sess-1"}
	rec := httptest.NewRecorder()
	h.handleLogin(rec, loginRequest(`{"email":"jane@school.test","password":"wrong password"}`, sess))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sess.User())
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newStubRepo()
	repo.users["gone@school.test"] = &User{
		ID: 8, Email: "gone@school.test",
		PasswordHash: hashFor(t, "correct horse"), IsActive: false,
	}
	h, _ := testHandler(t, repo)

	rec := httptest.NewRecorder()
	h.handleLogin(rec, loginRequest(`{"email":"gone@school.test","password":"correct horse"}`, &shared.Session{ID: "s"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	h, _ := testHandler(t, newStubRepo())
	for _, body := range []string{`{not json`, `{}`, `{"email":"not-an-email","password":"longenough"}`, `{"email":"a@b.test","password":"short"}`} {
		rec := httptest.NewRecorder()
		h.handleLogin(rec, loginRequest(body, &shared.Session{ID: "s"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	repo := newStubRepo()
	repo.sessions["sess-9"] = 7
	h, _ := testHandler(t, repo)

	sess := &shared.Session{ID: "sess-9"}
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h.handleLogout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, repo.sessions, "sess-9")
}
