package http

import (
	"net/http"

	"fintrack/auth"
	"fintrack/domain"
	"fintrack/observability"
	"fintrack/service"
)

// Services is everything the router needs to build its handlers.
type Services struct {
	Simulations  *service.DebtSimulationService
	Advisor      *service.AIService
	Transactions *service.TransactionService
	Auth         *service.AuthService
	Tokens       *auth.TokenIssuer
	Limiter      *RateLimiter
	Metrics      *observability.Metrics
	Currency     string
}

func NewRouter(s Services) http.Handler {
	mux := http.NewServeMux()

	public := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, Instrument(s.Metrics, route,
			RateLimitMiddleware(s.Limiter, s.Metrics, h)))
	}
	protected := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, Instrument(s.Metrics, route,
			RequireAuth(s.Tokens,
				RateLimitMiddleware(s.Limiter, s.Metrics, h))))
	}

	authHandler := NewAuthHandler(s.Auth)
	public("POST /auth/register", "/auth/register", authHandler.Register)
	public("POST /auth/login", "/auth/login", authHandler.Login)

	debtHandler := NewDebtSimulationHandler(s.Simulations, s.Advisor, s.Currency)
	protected("/ai/debt-simulation", "/ai/debt-simulation", debtHandler.Simulate)
	protected("/ai/debt-advice", "/ai/debt-advice", debtHandler.Advice)
	protected("GET /ai/debt-simulation/history", "/ai/debt-simulation/history", debtHandler.History)

	for _, kind := range []domain.TransactionKind{domain.KindIncome, domain.KindExpense} {
		h := NewTransactionHandler(s.Transactions, kind)
		base := "/" + string(kind)
		protected("POST "+base, base, h.Create)
		protected("GET "+base, base, h.List)
		protected("GET "+base+"/summary", base+"/summary", h.Summary)
		protected("PUT "+base+"/{id}", base+"/{id}", h.Update)
		protected("DELETE "+base+"/{id}", base+"/{id}", h.Delete)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}

	return mux
}
