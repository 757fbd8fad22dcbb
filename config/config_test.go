package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FIRESTORE_PROJECT_ID", "SERVICE_ACCOUNT_KEY_PATH",
		"FIREMCP_TRANSPORT", "FIREMCP_HTTP_ADDR", "FIREMCP_MEMORY_STORE",
		"FIREMCP_CACHE_TTL", "FIREMCP_CACHE_MAX_SIZE", "FIREMCP_CALL_TIMEOUT",
		"FIREMCP_MAX_CONCURRENT", "FIREMCP_RATE_LIMIT", "FIREMCP_LOG_LEVEL",
		"FIREMCP_TRACING_EXPORTER", "FIREMCP_METRICS_EXPORTER",
		"FIREMCP_TRACE_SAMPLE_PCT", "FIREMCP_API_KEYS",
		"FIREMCP_JWT_SECRET", "FIREMCP_JWT_ISSUER", "FIREMCP_VERSION",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIRESTORE_PROJECT_ID", "demo")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Transport != TransportStdio {
		t.Errorf("Transport = %q", cfg.Transport)
	}
	if cfg.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.CacheTTL != DefaultCacheTTL || cfg.CacheMaxSize != DefaultCacheMaxSize {
		t.Errorf("cache defaults = %v / %d", cfg.CacheTTL, cfg.CacheMaxSize)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIRESTORE_PROJECT_ID", "demo")
	t.Setenv("FIREMCP_TRANSPORT", "http")
	t.Setenv("FIREMCP_HTTP_ADDR", ":9999")
	t.Setenv("FIREMCP_CACHE_TTL", "250ms")
	t.Setenv("FIREMCP_CACHE_MAX_SIZE", "10")
	t.Setenv("FIREMCP_RATE_LIMIT", "2.5")
	t.Setenv("FIREMCP_API_KEYS", "k1, k2 ,,k3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Transport != TransportHTTP || cfg.HTTPAddr != ":9999" {
		t.Errorf("transport = %q %q", cfg.Transport, cfg.HTTPAddr)
	}
	if cfg.CacheTTL != 250*time.Millisecond || cfg.CacheMaxSize != 10 {
		t.Errorf("cache = %v / %d", cfg.CacheTTL, cfg.CacheMaxSize)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v", cfg.RateLimit)
	}
	if len(cfg.APIKeys) != 3 || cfg.APIKeys[0] != "k1" || cfg.APIKeys[2] != "k3" {
		t.Errorf("APIKeys = %v", cfg.APIKeys)
	}
}

func TestLoadMissingProject(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); !errors.Is(err, ErrMissingProjectID) {
		t.Errorf("err = %v, want ErrMissingProjectID", err)
	}

	// The in-process store needs no project.
	t.Setenv("FIREMCP_MEMORY_STORE", "true")
	if _, err := Load(); err != nil {
		t.Errorf("memory store load failed: %v", err)
	}
}

func TestLoadInvalidTransport(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIRESTORE_PROJECT_ID", "demo")
	t.Setenv("FIREMCP_TRANSPORT", "carrier-pigeon")
	if _, err := Load(); !errors.Is(err, ErrInvalidTransport) {
		t.Errorf("err = %v, want ErrInvalidTransport", err)
	}
}

func TestLoadCredentialsExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIRESTORE_PROJECT_ID", "demo")
	t.Setenv("KEYDIR", "/keys")
	t.Setenv("SERVICE_ACCOUNT_KEY_PATH", "${KEYDIR}/sa.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CredentialsFile != "/keys/sa.json" {
		t.Errorf("CredentialsFile = %q", cfg.CredentialsFile)
	}

	t.Setenv("SERVICE_ACCOUNT_KEY_PATH", "${NOT_SET_ANYWHERE}/sa.json")
	if _, err := Load(); err == nil {
		t.Error("missing expansion variable not reported")
	}
}

func TestExpandEnvStrictMissingVarErrors(t *testing.T) {
	t.Setenv("PRESENT", "ok")

	_, err := ExpandEnvStrict("a=${PRESENT} b=${MISSING}")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "MISSING") {
		t.Fatalf("expected missing var name in error, got: %v", err)
	}
}

func TestExpandEnvStrictBracedOnly(t *testing.T) {
	t.Setenv("X", "y")

	// Bare $VAR is not a reference.
	out, err := ExpandEnvStrict("$X/${X}")
	if err != nil {
		t.Fatalf("ExpandEnvStrict() error = %v", err)
	}
	if out != "$X/y" {
		t.Fatalf("ExpandEnvStrict() = %q, want %q", out, "$X/y")
	}

	// An unterminated brace stays literal.
	out, err = ExpandEnvStrict("${unterminated")
	if err != nil {
		t.Fatalf("ExpandEnvStrict() error = %v", err)
	}
	if out != "${unterminated" {
		t.Fatalf("ExpandEnvStrict() = %q", out)
	}

	// A variable missing twice is reported once.
	_, err = ExpandEnvStrict("${GONE} ${GONE}")
	if err == nil || strings.Count(err.Error(), "GONE") != 1 {
		t.Fatalf("duplicate missing var not deduplicated: %v", err)
	}
}

func TestExpandEnvStrictDollarEscape(t *testing.T) {
	t.Setenv("X", "y")

	out, err := ExpandEnvStrict("$$${X}")
	if err != nil {
		t.Fatalf("ExpandEnvStrict() error = %v", err)
	}
	if out != "$y" {
		t.Fatalf("ExpandEnvStrict() = %q, want %q", out, "$y")
	}
}
