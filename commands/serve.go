package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fintrack/auth"
	"fintrack/config"
	httpLayer "fintrack/http"
	"fintrack/observability"
	"fintrack/repository"
	"fintrack/service"
)

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger := log.New(os.Stdout, "[fintrack] ", log.LstdFlags|log.Lmsgprefix)
			return runServe(cmd.Context(), cfg, logger)
		},
	}
}

// stores is the storage picked for this run plus whatever must be closed
// on shutdown.
type stores struct {
	users        repository.UserRepository
	transactions repository.TransactionRepository
	simulations  repository.SimulationRepository
	cache        repository.CacheRepository
	closers      []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*stores, error) {
	s := &stores{}

	if cfg.Database.URL != "" {
		pool, err := repository.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)

		applied, err := repository.Migrate(ctx, pool)
		if err != nil {
			s.Close()
			return nil, err
		}
		logger.Printf("PostgreSQL ready (%d migrations applied)", len(applied))

		s.users = repository.NewUserRepositoryPostgres(pool)
		s.transactions = repository.NewTransactionRepositoryPostgres(pool)
		s.simulations = repository.NewSimulationRepositoryPostgres(pool)
	} else {
		logger.Println("No database configured, using in-memory storage")
		s.users = repository.NewUserRepositoryMemory()
		s.transactions = repository.NewTransactionRepositoryMemory()
		s.simulations = repository.NewSimulationRepositoryMemory()
	}

	s.cache = repository.NewMemoryCache()
	if cfg.Redis.Addr != "" {
		redisCache := repository.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "fintrack:")
		if err := redisCache.Ping(ctx); err != nil {
			// The cache is optional; keep serving with the in-memory one.
			logger.Printf("Warning: %v, falling back to in-memory cache", err)
			_ = redisCache.Close()
		} else {
			s.cache = redisCache
			s.closers = append(s.closers, func() { _ = redisCache.Close() })
		}
	}

	return s, nil
}

func runServe(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	metrics := observability.NewMetrics("fintrack")

	simulator, err := newSimulator(cfg.Simulation)
	if err != nil {
		return err
	}
	simulationService := service.NewDebtSimulationService(simulator, st.simulations, st.cache, cfg.Redis.CacheTTL, metrics)

	advisor, err := service.NewAIService(ctx, cfg.AI.GeminiAPIKey, cfg.AI.Model, cfg.Simulation.Currency, metrics)
	if err != nil {
		return err
	}
	if !advisor.Enabled() {
		logger.Println("GEMINI_API_KEY not set, debt advice uses the built-in explanation")
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(st.users, tokens, auth.NewHasher(cfg.Auth.BcryptCost))

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Window)
	defer rateLimiter.Stop()

	router := httpLayer.NewRouter(httpLayer.Services{
		Simulations:  simulationService,
		Advisor:      advisor,
		Transactions: service.NewTransactionService(st.transactions),
		Auth:         authService,
		Tokens:       tokens,
		Limiter:      rateLimiter,
		Metrics:      metrics,
		Currency:     cfg.Simulation.Currency,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     logger,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("API listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("starting server: %w", err)
	case <-quit:
		logger.Println("Shutting down server...")
	case <-ctx.Done():
		logger.Println("Context cancelled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Error during server shutdown: %v", err)
	}

	logger.Println("Server exited")
	return nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
