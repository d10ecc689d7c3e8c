package policyhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-os/campus-os/internal/policy"
)

type stubReadService struct {
	active  map[string]policy.Policy
	history map[string][]policy.Policy
}

func (s *stubReadService) Active(_ context.Context, key string) (policy.Policy, error) {
	p, ok := s.active[key]
	if !ok {
		return policy.Policy{}, policy.ErrNotFound
	}
	return p, nil
}

func (s *stubReadService) ActiveSet(context.Context) ([]policy.Policy, error) {
	var out []policy.Policy
	for _, p := range s.active {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubReadService) History(_ context.Context, key string) ([]policy.Policy, error) {
	return s.history[key], nil
}

func testRouter(svc ReadService) chi.Router {
	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Get("/policies", h.handleActiveSet)
	r.Get("/policies/{key}", h.handleActive)
	r.Get("/policies/{key}/history", h.handleHistory)
	return r
}

func TestActivePolicyByKey(t *testing.T) {
	svc := &stubReadService{active: map[string]policy.Policy{
		"grading.scale": {ID: 1, Key: "grading.scale", Value: json.RawMessage(`{"max":100}`), Version: 3, IsActive: true},
	}}
	r := testRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/policies/grading.scale", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var p policy.Policy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "grading.scale", p.Key)
	assert.Equal(t, 3, p.Version)
	assert.JSONEq(t, `{"max":100}`, string(p.Value))
}

func TestActivePolicyNotFound(t *testing.T) {
	r := testRouter(&stubReadService{active: map[string]policy.Policy{}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/policies/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActiveSetEmptyIsArray(t *testing.T) {
	r := testRouter(&stubReadService{active: map[string]policy.Policy{}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/policies", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"policies":[]}`, rec.Body.String())
}

func TestHistoryListsVersions(t *testing.T) {
	svc := &stubReadService{history: map[string][]policy.Policy{
		"terms.calendar": {
			{Key: "terms.calendar", Version: 2, IsActive: true},
			{Key: "terms.calendar", Version: 1},
		},
	}}
	r := testRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/policies/terms.calendar/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body setResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Policies, 2)
	assert.Equal(t, 2, body.Policies[0].Version)
	assert.True(t, body.Policies[0].IsActive)
}

func TestHistoryUnknownKeyNotFound(t *testing.T) {
	r := testRouter(&stubReadService{history: map[string][]policy.Policy{}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/policies/missing/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
