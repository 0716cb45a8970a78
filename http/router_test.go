package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/auth"
	"fintrack/domain"
	"fintrack/observability"
	"fintrack/repository"
	"fintrack/service"
)

type testServer struct {
	handler http.Handler
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, limit int) *testServer {
	t.Helper()

	tokens, err := auth.NewTokenIssuer("router-test-secret-0123", time.Hour)
	require.NoError(t, err)
	metrics := observability.NewMetrics("test")
	advisor, err := service.NewAIService(context.Background(), "", "", "LKR", metrics)
	require.NoError(t, err)

	limiter := NewRateLimiter(limit, time.Minute)
	t.Cleanup(limiter.Stop)

	handler := NewRouter(Services{
		Simulations: service.NewDebtSimulationService(
			service.NewDebtSimulator(nil, 0),
			repository.NewSimulationRepositoryMemory(),
			repository.NewMemoryCache(),
			time.Hour,
			metrics,
		),
		Advisor:      advisor,
		Transactions: service.NewTransactionService(repository.NewTransactionRepositoryMemory()),
		Auth:         service.NewAuthService(repository.NewUserRepositoryMemory(), tokens, auth.NewHasher(bcrypt.MinCost)),
		Tokens:       tokens,
		Limiter:      limiter,
		Metrics:      metrics,
		Currency:     "LKR",
	})
	return &testServer{handler: handler, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "",
		`{"name": "Test User", "email": "`+email+`", "password": "password123"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session service.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestRouter_RequiresToken(t *testing.T) {
	srv := newTestServer(t, 100)

	w := srv.do(t, http.MethodPost, "/ai/debt-simulation", "", `{"debtAmount": 5000, "interestRate": 18}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "no token")

	w = srv.do(t, http.MethodGet, "/income", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token failed")
}

func TestRouter_AuthFlow(t *testing.T) {
	srv := newTestServer(t, 100)
	srv.register(t, "kamal@example.com")

	w := srv.do(t, http.MethodPost, "/auth/register", "",
		`{"name": "Again", "email": "KAMAL@example.com", "password": "password123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, http.MethodPost, "/auth/login", "", `{"email": "kamal@example.com", "password": "wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodPost, "/auth/login", "", `{"email": "kamal@example.com", "password": "password123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = srv.do(t, http.MethodPost, "/auth/register", "", `{"name": "", "email": "x@example.com", "password": "password123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_DebtSimulation(t *testing.T) {
	srv := newTestServer(t, 100)
	token := srv.register(t, "sim@example.com")

	w := srv.do(t, http.MethodPost, "/ai/debt-simulation", token,
		`{"debtAmount": 5000, "interestRate": 18, "monthlyPayment": 200}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp debtSimulationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 32, resp.Months)
	assert.Equal(t, 1313.96, resp.TotalInterest)

	w = srv.do(t, http.MethodGet, "/ai/debt-simulation", token, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = srv.do(t, http.MethodGet, "/ai/debt-simulation/history", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var history []simulationHistoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		srv.metrics.RequestsTotal.WithLabelValues("/ai/debt-simulation", http.MethodPost, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		srv.metrics.SimulationsTotal.WithLabelValues(observability.OutcomeOK)))
}

func TestRouter_TransactionsCRUD(t *testing.T) {
	srv := newTestServer(t, 100)
	token := srv.register(t, "owner@example.com")
	other := srv.register(t, "other@example.com")

	for _, body := range []string{
		`{"title": "Salary", "amount": 1500, "category": "Salary"}`,
		`{"title": "Bonus", "amount": 300, "category": "Salary"}`,
		`{"title": "Gig", "amount": 400, "category": "Freelance"}`,
	} {
		w := srv.do(t, http.MethodPost, "/income", token, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := srv.do(t, http.MethodPost, "/income", token, `{"title": "", "amount": 10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodGet, "/income", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var incomes []domain.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &incomes))
	require.Len(t, incomes, 3)

	w = srv.do(t, http.MethodGet, "/income/summary", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), `[{"_id":"Salary","total":1800`), w.Body.String())

	w = srv.do(t, http.MethodGet, "/expense", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	id := incomes[0].ID
	w = srv.do(t, http.MethodPut, "/income/"+id, other, `{"title": "Stolen", "amount": 1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodPut, "/expense/"+id, token, `{"title": "Wrong kind", "amount": 1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodPut, "/income/"+id, token, `{"title": "Updated", "amount": 99.999, "category": "Other"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated domain.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Updated", updated.Title)
	assert.Equal(t, 100.0, updated.Amount)

	w = srv.do(t, http.MethodDelete, "/income/"+id, token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = srv.do(t, http.MethodDelete, "/income/"+id, token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RateLimited(t *testing.T) {
	srv := newTestServer(t, 2)
	token := srv.register(t, "busy@example.com")

	for i := 0; i < 2; i++ {
		w := srv.do(t, http.MethodGet, "/income", token, "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := srv.do(t, http.MethodGet, "/income", token, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, 100)

	w := srv.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	srv.do(t, http.MethodPost, "/auth/login", "", `{"email": "nobody@example.com", "password": "password123"}`)

	w = srv.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_http_requests_total{code="401",method="POST",route="/auth/login"} 1`)
}
