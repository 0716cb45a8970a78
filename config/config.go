package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level fintrack.yaml configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Simulation SimulationConfig `yaml:"simulation"`
	AI         AIConfig         `yaml:"ai"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret,omitempty"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// DatabaseConfig selects the persistent store. An empty URL keeps
// everything in memory.
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty"`
}

// RedisConfig selects the simulation cache. An empty address uses an
// in-process cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// SimulationConfig tunes the debt payoff simulator.
type SimulationConfig struct {
	DefaultPayment DefaultPaymentConfig `yaml:"default_payment"`
	MaxMonths      int                  `yaml:"max_months"`
	Currency       string               `yaml:"currency"`
}

// DefaultPaymentConfig picks the payment used when the caller gives none.
type DefaultPaymentConfig struct {
	Policy     string  `yaml:"policy"` // "principal_fraction" or "fixed_term"
	Fraction   float64 `yaml:"fraction"`
	TermMonths int     `yaml:"term_months"`
}

// AIConfig configures the Gemini advisor. Without a key the advisor falls
// back to a fixed explanation.
type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`
	Model        string `yaml:"model"`
}

// RateLimitConfig sizes the per-caller token bucket.
type RateLimitConfig struct {
	Capacity int           `yaml:"capacity"`
	Window   time.Duration `yaml:"window"`
}

// Load reads a fintrack.yaml file from disk. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config that runs fully in memory.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    45 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:   30 * 24 * time.Hour,
			BcryptCost: 10,
		},
		Redis: RedisConfig{
			CacheTTL: time.Hour,
		},
		Simulation: SimulationConfig{
			DefaultPayment: DefaultPaymentConfig{
				Policy:     "principal_fraction",
				Fraction:   0.05,
				TermMonths: 36,
			},
			MaxMonths: 1200,
			Currency:  "LKR",
		},
		AI: AIConfig{
			Model: "gemini-2.5-flash",
		},
		RateLimit: RateLimitConfig{
			Capacity: 60,
			Window:   time.Minute,
		},
	}
}

// Resolve loads path (or the defaults when path is empty) and applies
// environment overrides.
func Resolve(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv("GEMINI_API_KEY"); v != "" {
		c.AI.GeminiAPIKey = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks everything the server needs before it starts.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters (set JWT_SECRET)"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.RateLimit.Capacity < 1 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.capacity and rate_limit.window must be positive"))
	}
	if err := c.Simulation.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks the simulator settings on their own, for commands that
// only simulate.
func (s SimulationConfig) Validate() error {
	if s.MaxMonths < 1 {
		return fmt.Errorf("simulation.max_months must be positive, got %d", s.MaxMonths)
	}
	switch s.DefaultPayment.Policy {
	case "principal_fraction":
		if s.DefaultPayment.Fraction <= 0 || s.DefaultPayment.Fraction > 1 {
			return fmt.Errorf("simulation.default_payment.fraction must be in (0, 1], got %v", s.DefaultPayment.Fraction)
		}
	case "fixed_term":
		if s.DefaultPayment.TermMonths < 1 {
			return fmt.Errorf("simulation.default_payment.term_months must be positive, got %d", s.DefaultPayment.TermMonths)
		}
	default:
		return fmt.Errorf("unknown simulation.default_payment.policy %q", s.DefaultPayment.Policy)
	}
	return nil
}
