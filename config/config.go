package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Transport names accepted by FIREMCP_TRANSPORT.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Defaults applied when the environment leaves a knob unset.
const (
	DefaultHTTPAddr     = ":8080"
	DefaultCacheTTL     = 5 * time.Minute
	DefaultCacheMaxSize = 500
	DefaultCallTimeout  = 30 * time.Second
)

// Configuration errors.
var (
	ErrMissingProjectID = errors.New("config: FIRESTORE_PROJECT_ID is required")
	ErrInvalidTransport = errors.New("config: invalid transport")
)

// Config is the full server configuration.
type Config struct {
	// ProjectID is the Google Cloud project holding the Firestore database.
	ProjectID string

	// CredentialsFile points at a service-account key. Empty means
	// Application Default Credentials.
	CredentialsFile string

	// Transport selects stdio or http serving.
	Transport string

	// HTTPAddr is the listen address for the http transport.
	HTTPAddr string

	// MemoryStore swaps the Firestore client for the in-process store.
	// Useful for local runs and tests.
	MemoryStore bool

	// CacheTTL and CacheMaxSize bound the document cache. Fixed at startup;
	// not runtime-configurable through the tool surface.
	CacheTTL     time.Duration
	CacheMaxSize int

	// CallTimeout caps a single tool call.
	CallTimeout time.Duration

	// MaxConcurrent bounds in-flight store work. Zero leaves it uncapped.
	MaxConcurrent int

	// RateLimit is requests per second on the tool surface. Zero disables.
	RateLimit float64

	// LogLevel is debug, info, warn, or error.
	LogLevel string

	// TracingExporter and MetricsExporter pick OpenTelemetry exporters
	// (otlp, prometheus, stdout, none). Empty disables the subsystem.
	TracingExporter string
	MetricsExporter string
	SamplePct       float64

	// APIKeys are accepted on the HTTP transport's X-API-Key header.
	APIKeys []string

	// JWTSecret enables HMAC bearer auth on the HTTP transport.
	JWTSecret string
	JWTIssuer string

	// Version is stamped at build time.
	Version string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ProjectID:       strings.TrimSpace(os.Getenv("FIRESTORE_PROJECT_ID")),
		Transport:       envDefault("FIREMCP_TRANSPORT", TransportStdio),
		HTTPAddr:        envDefault("FIREMCP_HTTP_ADDR", DefaultHTTPAddr),
		MemoryStore:     envBool("FIREMCP_MEMORY_STORE"),
		CacheTTL:        DefaultCacheTTL,
		CacheMaxSize:    DefaultCacheMaxSize,
		CallTimeout:     DefaultCallTimeout,
		LogLevel:        envDefault("FIREMCP_LOG_LEVEL", "info"),
		TracingExporter: os.Getenv("FIREMCP_TRACING_EXPORTER"),
		MetricsExporter: os.Getenv("FIREMCP_METRICS_EXPORTER"),
		SamplePct:       1.0,
		JWTIssuer:       os.Getenv("FIREMCP_JWT_ISSUER"),
		Version:         envDefault("FIREMCP_VERSION", "dev"),
	}

	// The credentials path may reference other variables, e.g.
	// ${HOME}/keys/firestore.json.
	if raw := os.Getenv("SERVICE_ACCOUNT_KEY_PATH"); raw != "" {
		expanded, err := ExpandEnvStrict(raw)
		if err != nil {
			return nil, fmt.Errorf("config: SERVICE_ACCOUNT_KEY_PATH: %w", err)
		}
		cfg.CredentialsFile = expanded
	}

	if raw := os.Getenv("FIREMCP_JWT_SECRET"); raw != "" {
		expanded, err := ExpandEnvStrict(raw)
		if err != nil {
			return nil, fmt.Errorf("config: FIREMCP_JWT_SECRET: %w", err)
		}
		cfg.JWTSecret = expanded
	}

	if raw := os.Getenv("FIREMCP_API_KEYS"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				cfg.APIKeys = append(cfg.APIKeys, k)
			}
		}
	}

	var err error
	if cfg.CacheTTL, err = envDuration("FIREMCP_CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.CallTimeout, err = envDuration("FIREMCP_CALL_TIMEOUT", cfg.CallTimeout); err != nil {
		return nil, err
	}
	if cfg.CacheMaxSize, err = envInt("FIREMCP_CACHE_MAX_SIZE", cfg.CacheMaxSize); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrent, err = envInt("FIREMCP_MAX_CONCURRENT", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = envFloat("FIREMCP_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	if cfg.SamplePct, err = envFloat("FIREMCP_TRACE_SAMPLE_PCT", cfg.SamplePct); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		return fmt.Errorf("%w: %q", ErrInvalidTransport, c.Transport)
	}
	if !c.MemoryStore && c.ProjectID == "" {
		return ErrMissingProjectID
	}
	return nil
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

// ExpandEnvStrict substitutes ${VAR} references in s from the environment.
// Referencing an unset variable is an error rather than an empty string, so
// a typo in a credentials path fails at startup instead of at the first
// store call. "$$" produces a literal dollar; the bare $VAR form is not
// recognized.
func ExpandEnvStrict(s string) (string, error) {
	var (
		out     strings.Builder
		missing []string
		seen    = map[string]bool{}
	)
	for i := 0; i < len(s); {
		if s[i] != '$' {
			out.WriteByte(s[i])
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '$' {
			out.WriteByte('$')
			i += 2
			continue
		}
		if i+1 < len(s) && s[i+1] == '{' {
			if end := strings.IndexByte(s[i+2:], '}'); end >= 0 {
				name := s[i+2 : i+2+end]
				if v, ok := os.LookupEnv(name); ok {
					out.WriteString(v)
				} else if !seen[name] {
					seen[name] = true
					missing = append(missing, name)
				}
				i += end + 3
				continue
			}
		}
		out.WriteByte(s[i])
		i++
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return out.String(), nil
}
