package api

import (
	"context"
	"dispatcher/internal/domain"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	report domain.CycleReport
	err    error
	calls  int
}

func (s *stubRunner) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	s.calls++
	return s.report, s.err
}

type stubReports struct {
	reports []domain.CycleReport
	err     error
	limit   int
}

func (s *stubReports) Save(ctx context.Context, r domain.CycleReport) error { return nil }

func (s *stubReports) Last(ctx context.Context) (*domain.CycleReport, error) {
	if s.err != nil || len(s.reports) == 0 {
		return nil, s.err
	}
	return &s.reports[0], nil
}

func (s *stubReports) Recent(ctx context.Context, limit int) ([]domain.CycleReport, error) {
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.reports, nil
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	ok := NewServer(&stubRunner{}, nil, nil)
	assert.Equal(t, http.StatusOK, do(t, ok.Handler(), http.MethodGet, "/healthz").Code)

	down := NewServer(&stubRunner{}, nil, func(context.Context) error { return errors.New("redis down") })
	rec := do(t, down.Handler(), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis down")
}

func TestRunCycle(t *testing.T) {
	runner := &stubRunner{report: domain.CycleReport{ID: "abc", Users: 2}}
	s := NewServer(runner, nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/cycles")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.CycleReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, 2, got.Users)

	runner.err = domain.ErrCycleInFlight
	assert.Equal(t, http.StatusConflict, do(t, s.Handler(), http.MethodPost, "/cycles").Code)

	runner.err = errors.New("lock unavailable")
	assert.Equal(t, http.StatusInternalServerError, do(t, s.Handler(), http.MethodPost, "/cycles").Code)
}

func TestRunCycle_RateLimited(t *testing.T) {
	s := NewServer(&stubRunner{}, nil, nil)

	for i := 0; i < 6; i++ {
		require.Equal(t, http.StatusOK, do(t, s.Handler(), http.MethodPost, "/cycles").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(t, s.Handler(), http.MethodPost, "/cycles").Code)
}

func TestCycles(t *testing.T) {
	reports := &stubReports{reports: []domain.CycleReport{{ID: "b"}, {ID: "a"}}}
	s := NewServer(&stubRunner{}, reports, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/cycles/last")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"b"`)

	rec = do(t, s.Handler(), http.MethodGet, "/cycles?limit=500")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxHistory, reports.limit)

	var list []domain.CycleReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	assert.Equal(t, http.StatusBadRequest, do(t, s.Handler(), http.MethodGet, "/cycles?limit=-1").Code)

	reports.reports = nil
	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), http.MethodGet, "/cycles/last").Code)

	rec = do(t, s.Handler(), http.MethodGet, "/cycles")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, 10, reports.limit)
}

func TestCycles_NoHistory(t *testing.T) {
	s := NewServer(&stubRunner{}, nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, s.Handler(), http.MethodGet, "/cycles").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s.Handler(), http.MethodGet, "/cycles/last").Code)
}
