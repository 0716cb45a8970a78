package http

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/auth"
	"fintrack/domain"
	"fintrack/service"
)

type DebtSimulationHandler struct {
	service  *service.DebtSimulationService
	advisor  *service.AIService
	currency string
}

func NewDebtSimulationHandler(
	service *service.DebtSimulationService,
	advisor *service.AIService,
	currency string,
) *DebtSimulationHandler {
	return &DebtSimulationHandler{service: service, advisor: advisor, currency: currency}
}

// debtSimulationRequest is the dashboard's form. interestRate is the annual
// rate in percent.
type debtSimulationRequest struct {
	DebtAmount      decimal.Decimal     `json:"debtAmount"`
	InterestRate    decimal.Decimal     `json:"interestRate"`
	MonthlyPayment  decimal.NullDecimal `json:"monthlyPayment"`
	IncludeSchedule bool                `json:"includeSchedule"`
}

func (r debtSimulationRequest) input() domain.SimulationInput {
	return domain.SimulationInput{
		DebtAmount:                r.DebtAmount,
		AnnualInterestRatePercent: r.InterestRate,
		MonthlyPayment:            r.MonthlyPayment,
		IncludeSchedule:           r.IncludeSchedule,
	}
}

type scheduleRow struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
	Balance   float64 `json:"balance"`
}

// debtSimulationResponse uses monthlyPayment as the one name for the payment.
type debtSimulationResponse struct {
	Months         int           `json:"months"`
	TotalInterest  float64       `json:"totalInterest"`
	MonthlyPayment float64       `json:"monthlyPayment"`
	PaymentSource  string        `json:"paymentSource"`
	Narration      string        `json:"narration"`
	Advice         string        `json:"advice,omitempty"`
	AdviceSource   string        `json:"adviceSource,omitempty"`
	Schedule       []scheduleRow `json:"schedule,omitempty"`
}

type simulationHistoryItem struct {
	ID             string    `json:"id"`
	DebtAmount     float64   `json:"debtAmount"`
	InterestRate   float64   `json:"interestRate"`
	MonthlyPayment float64   `json:"monthlyPayment"`
	PaymentSource  string    `json:"paymentSource"`
	Months         int       `json:"months"`
	TotalInterest  float64   `json:"totalInterest"`
	CreatedAt      time.Time `json:"createdAt"`
}

// money2 rounds for display. Nothing upstream of the response rounds.
func money2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func (h *DebtSimulationHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	input, result, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.response(input, result))
}

// Advice runs the simulation and adds a written explanation of the plan.
func (h *DebtSimulationHandler) Advice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	input, result, ok := h.run(w, r)
	if !ok {
		return
	}
	resp := h.response(input, result)
	resp.Advice, resp.AdviceSource = h.advisor.DebtAdvice(r.Context(), input, result)
	writeJSON(w, http.StatusOK, resp)
}

func (h *DebtSimulationHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.service.History(r.Context(), userID, limit)
	if err != nil {
		log.Printf("Error loading simulation history: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items := make([]simulationHistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, simulationHistoryItem{
			ID:             rec.ID,
			DebtAmount:     money2(rec.Input.DebtAmount),
			InterestRate:   rec.Input.AnnualInterestRatePercent.InexactFloat64(),
			MonthlyPayment: money2(rec.Result.MonthlyPayment),
			PaymentSource:  rec.Result.PaymentSource,
			Months:         rec.Result.Months,
			TotalInterest:  money2(rec.Result.TotalInterest),
			CreatedAt:      rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *DebtSimulationHandler) run(w http.ResponseWriter, r *http.Request) (domain.SimulationInput, domain.SimulationResult, bool) {
	var req debtSimulationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return domain.SimulationInput{}, domain.SimulationResult{}, false
	}

	userID, _ := auth.UserID(r.Context())
	input := req.input()

	result, err := h.service.Simulate(r.Context(), userID, input)
	if err != nil {
		if service.IsInputError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return domain.SimulationInput{}, domain.SimulationResult{}, false
		}
		log.Printf("Error simulating debt payoff: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to simulate debt payoff")
		return domain.SimulationInput{}, domain.SimulationResult{}, false
	}
	return input, result, true
}

func (h *DebtSimulationHandler) response(input domain.SimulationInput, result domain.SimulationResult) debtSimulationResponse {
	resp := debtSimulationResponse{
		Months:         result.Months,
		TotalInterest:  money2(result.TotalInterest),
		MonthlyPayment: money2(result.MonthlyPayment),
		PaymentSource:  result.PaymentSource,
		Narration:      service.Narrate(input, result, h.currency),
	}
	for _, e := range result.Schedule {
		resp.Schedule = append(resp.Schedule, scheduleRow{
			Month:     e.Month,
			Payment:   money2(e.Payment),
			Interest:  money2(e.Interest),
			Principal: money2(e.Principal),
			Balance:   money2(e.Balance),
		})
	}
	return resp
}
