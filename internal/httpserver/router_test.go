package httpserver

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"focusflow/internal/handler"
	"focusflow/internal/service/goal"
	"focusflow/internal/service/recurrence"
	"focusflow/pkg/rbac"
	"focusflow/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

type stubRunner struct{ calls int }

func (s *stubRunner) RunSweep(context.Context, recurrence.SweepRequest) (*recurrence.SweepReport, error) {
	s.calls++
	return &recurrence.SweepReport{}, nil
}

type stubGoals struct{}

func (stubGoals) RecalculateAll(context.Context) (*goal.PassReport, error) {
	return &goal.PassReport{}, nil
}

func (stubGoals) RecalculateGoal(_ context.Context, id uuid.UUID) (goal.Outcome, error) {
	return goal.Outcome{GoalID: id, Kind: goal.OutcomeUnchanged}, nil
}

func (stubGoals) BootstrapInitialCounts(context.Context) (*goal.PassReport, error) {
	return &goal.PassReport{}, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(runner *stubRunner, db Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	return NewRouter(Deps{
		Sweeps:    handler.NewSweepHandler(runner, logger),
		Goals:     handler.NewGoalHandler(stubGoals{}, logger),
		JWTSecret: secret,
		DB:        db,
		Logger:    logger,
	})
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := util.GenerateJWT("cron", role, secret, time.Minute)
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, method, path, tok, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_SweepRequiresAuthAndRole(t *testing.T) {
	runner := &stubRunner{}
	r := newTestRouter(runner, nil)

	w := do(r, http.MethodPost, "/api/v1/recurrence/sweeps", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/v1/recurrence/sweeps", "garbage", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/v1/recurrence/sweeps", token(t, "guest"), `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/v1/recurrence/sweeps", token(t, rbac.RoleScheduler), `{}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/v1/recurrence/sweeps", token(t, rbac.RoleScheduler), `{"force_check": true}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/v1/recurrence/sweeps", token(t, rbac.RoleAdmin), `{"force_check": true}`)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 2, runner.calls)
}

func TestRouter_BootstrapIsAdminOnly(t *testing.T) {
	r := newTestRouter(&stubRunner{}, nil)

	w := do(r, http.MethodPost, "/api/v1/goals/bootstrap", token(t, rbac.RoleScheduler), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/v1/goals/bootstrap", token(t, rbac.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/v1/goals/"+uuid.NewString()+"/recalculate", token(t, rbac.RoleScheduler), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_HealthAndReadiness(t *testing.T) {
	healthy := newTestRouter(&stubRunner{}, pingFunc(func(context.Context) error { return nil }))
	assert.Equal(t, http.StatusOK, do(healthy, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, do(healthy, http.MethodGet, "/readyz", "", "").Code)
	assert.Equal(t, http.StatusOK, do(healthy, http.MethodGet, "/metrics", "", "").Code)

	down := newTestRouter(&stubRunner{}, pingFunc(func(context.Context) error { return errors.New("refused") }))
	w := do(down, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db_not_ready")
}

func TestRouter_PropagatesTraceHeader(t *testing.T) {
	r := newTestRouter(&stubRunner{}, pingFunc(func(context.Context) error { return nil }))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Trace-ID", "upstream-trace")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-trace", w.Header().Get("X-Trace-ID"))

	w = do(r, http.MethodGet, "/healthz", "", "")
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}
