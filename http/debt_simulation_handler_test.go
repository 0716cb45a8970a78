package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/auth"
	"fintrack/domain"
	"fintrack/repository"
	"fintrack/service"
)

type failingSimulationRepository struct{}

func (failingSimulationRepository) Save(context.Context, domain.SimulationRecord) error {
	return errors.New("connection reset")
}

func (failingSimulationRepository) ListByUser(context.Context, string, int) ([]domain.SimulationRecord, error) {
	return nil, errors.New("connection reset")
}

func newTestDebtHandler(t *testing.T) *DebtSimulationHandler {
	t.Helper()
	return newDebtHandlerWith(t, service.NewDebtSimulator(nil, 0), repository.NewSimulationRepositoryMemory())
}

func newDebtHandlerWith(t *testing.T, simulator *service.DebtSimulator, repo repository.SimulationRepository) *DebtSimulationHandler {
	t.Helper()
	svc := service.NewDebtSimulationService(simulator, repo, repository.NewMemoryCache(), time.Hour, nil)
	advisor, err := service.NewAIService(context.Background(), "", "", "LKR", nil)
	require.NoError(t, err)
	return NewDebtSimulationHandler(svc, advisor, "LKR")
}

func postAs(userID, target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func decodeSimulation(t *testing.T, w *httptest.ResponseRecorder) debtSimulationResponse {
	t.Helper()
	var resp debtSimulationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDebtSimulationHandler_OK(t *testing.T) {
	handler := newTestDebtHandler(t)

	w := httptest.NewRecorder()
	handler.Simulate(w, postAs("u1", "/ai/debt-simulation",
		`{"debtAmount": 5000, "interestRate": 18, "monthlyPayment": 200}`))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeSimulation(t, w)
	assert.Equal(t, 32, resp.Months)
	assert.Equal(t, 1313.96, resp.TotalInterest)
	assert.Equal(t, 200.0, resp.MonthlyPayment)
	assert.Equal(t, "override", resp.PaymentSource)
	assert.Contains(t, resp.Narration, "32 months")
	assert.Contains(t, resp.Narration, "LKR 5,000.00")
	assert.Empty(t, resp.Schedule)
}

func TestDebtSimulationHandler_DefaultPayment(t *testing.T) {
	handler := newTestDebtHandler(t)

	w := httptest.NewRecorder()
	handler.Simulate(w, postAs("u1", "/ai/debt-simulation", `{"debtAmount": 5000, "interestRate": 18}`))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeSimulation(t, w)
	assert.Equal(t, 24, resp.Months)
	assert.Equal(t, 989.13, resp.TotalInterest)
	assert.Equal(t, 250.0, resp.MonthlyPayment)
	assert.Equal(t, "default", resp.PaymentSource)
}

func TestDebtSimulationHandler_Schedule(t *testing.T) {
	handler := newTestDebtHandler(t)

	w := httptest.NewRecorder()
	handler.Simulate(w, postAs("u1", "/ai/debt-simulation",
		`{"debtAmount": 1200, "interestRate": 0, "monthlyPayment": 100, "includeSchedule": true}`))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeSimulation(t, w)
	require.Len(t, resp.Schedule, 12)
	assert.Equal(t, 1, resp.Schedule[0].Month)
	assert.Equal(t, 1100.0, resp.Schedule[0].Balance)
	assert.Equal(t, 0.0, resp.Schedule[11].Balance)
	assert.Equal(t, 0.0, resp.TotalInterest)
}

func TestDebtSimulationHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestDebtHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/ai/debt-simulation", nil)
	w := httptest.NewRecorder()
	handler.Simulate(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestDebtSimulationHandler_BadRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "invalid json", body: `{invalid-json}`, message: "invalid request body"},
		{name: "zero debt", body: `{"debtAmount": 0, "interestRate": 18}`, message: "invalid input"},
		{name: "negative rate", body: `{"debtAmount": 100, "interestRate": -1}`, message: "invalid input"},
		{name: "zero payment", body: `{"debtAmount": 100, "interestRate": 5, "monthlyPayment": 0}`, message: "invalid input"},
		{name: "payment equals interest", body: `{"debtAmount": 1000, "interestRate": 12, "monthlyPayment": 10}`, message: "does not cover"},
		{name: "default payment too small", body: `{"debtAmount": 1000, "interestRate": 60}`, message: "does not cover"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestDebtHandler(t)
			w := httptest.NewRecorder()
			handler.Simulate(w, postAs("u1", "/ai/debt-simulation", tt.body))

			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp.Message, tt.message)
		})
	}
}

func TestDebtSimulationHandler_AdviceFallback(t *testing.T) {
	handler := newTestDebtHandler(t)

	w := httptest.NewRecorder()
	handler.Advice(w, postAs("u1", "/ai/debt-advice",
		`{"debtAmount": 5000, "interestRate": 18, "monthlyPayment": 200}`))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeSimulation(t, w)
	assert.Equal(t, 32, resp.Months)
	assert.Equal(t, service.AdviceSourceFallback, resp.AdviceSource)
	assert.NotEmpty(t, resp.Advice)
}

func TestDebtSimulationHandler_History(t *testing.T) {
	handler := newTestDebtHandler(t)

	for _, body := range []string{
		`{"debtAmount": 5000, "interestRate": 18, "monthlyPayment": 200}`,
		`{"debtAmount": 10000, "interestRate": 12, "monthlyPayment": 500}`,
	} {
		w := httptest.NewRecorder()
		handler.Simulate(w, postAs("u1", "/ai/debt-simulation", body))
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ai/debt-simulation/history?limit=5", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "u1"))
	w := httptest.NewRecorder()
	handler.History(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var items []simulationHistoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, 23, items[0].Months)
	assert.Equal(t, 1213.48, items[0].TotalInterest)
	assert.Equal(t, 32, items[1].Months)

	other := httptest.NewRequest(http.MethodGet, "/ai/debt-simulation/history", nil)
	other = other.WithContext(auth.WithUserID(other.Context(), "u2"))
	w = httptest.NewRecorder()
	handler.History(w, other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestDebtSimulationHandler_HistoryBadLimit(t *testing.T) {
	handler := newTestDebtHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/ai/debt-simulation/history?limit=abc", nil)
	w := httptest.NewRecorder()
	handler.History(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDebtSimulationHandler_HorizonExceeded(t *testing.T) {
	handler := newDebtHandlerWith(t, service.NewDebtSimulator(nil, 12), repository.NewSimulationRepositoryMemory())

	w := httptest.NewRecorder()
	handler.Simulate(w, postAs("u1", "/ai/debt-simulation",
		`{"debtAmount": 5000, "interestRate": 18, "monthlyPayment": 200}`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "payoff horizon exceeded")
	assert.Contains(t, resp.Message, "12 months")
}

func TestDebtSimulationHandler_StoreFailures(t *testing.T) {
	handler := newDebtHandlerWith(t, service.NewDebtSimulator(nil, 0), failingSimulationRepository{})

	// A failed history save does not fail the simulation.
	w := httptest.NewRecorder()
	handler.Simulate(w, postAs("u1", "/ai/debt-simulation",
		`{"debtAmount": 5000, "interestRate": 18, "monthlyPayment": 200}`))
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/ai/debt-simulation/history", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "u1"))
	w = httptest.NewRecorder()
	handler.History(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Message)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
