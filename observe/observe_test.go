package observe

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{
			name: "minimal valid",
			cfg:  Config{ServiceName: "firemcp"},
		},
		{
			name: "missing service name",
			cfg:  Config{},
			want: ErrMissingServiceName,
		},
		{
			name: "bad tracing exporter",
			cfg: Config{
				ServiceName: "firemcp",
				Tracing:     TracingConfig{Enabled: true, Exporter: "carrier-pigeon"},
			},
			want: ErrInvalidTracingExporter,
		},
		{
			name: "sample pct out of range",
			cfg: Config{
				ServiceName: "firemcp",
				Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.5},
			},
			want: ErrInvalidSamplePct,
		},
		{
			name: "bad metrics exporter",
			cfg: Config{
				ServiceName: "firemcp",
				Metrics:     MetricsConfig{Enabled: true, Exporter: "statsd"},
			},
			want: ErrInvalidMetricsExporter,
		},
		{
			name: "bad log level",
			cfg: Config{
				ServiceName: "firemcp",
				Logging:     LoggingConfig{Enabled: true, Level: "loud"},
			},
			want: ErrInvalidLogLevel,
		},
		{
			name: "disabled subsystems skip validation",
			cfg: Config{
				ServiceName: "firemcp",
				Tracing:     TracingConfig{Enabled: false, Exporter: "carrier-pigeon"},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if c.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, c.want) {
				t.Fatalf("Validate() = %v, want %v", err, c.want)
			}
		})
	}
}

func TestNewObserverDisabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "firemcp"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	if obs.Tracer() == nil {
		t.Error("Tracer() is nil")
	}
	if obs.Meter() == nil {
		t.Error("Meter() is nil")
	}
	if obs.Logger() == nil {
		t.Error("Logger() is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := obs.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNewObserverEnabledNone(t *testing.T) {
	cfg := Config{
		ServiceName: "firemcp",
		Version:     "test",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.0},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "info"},
	}
	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}
	defer obs.Shutdown(context.Background())

	m, err := NewMetrics(obs.Meter())
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	meta := CallMeta{Tool: "firestore_get_document", Collection: "users"}
	m.RecordCall(context.Background(), meta, 5*time.Millisecond, nil)
	m.RecordCall(context.Background(), meta, 5*time.Millisecond, errors.New("boom"))

	if err := RegisterCacheGauges(obs.Meter(), func() CacheSample {
		return CacheSample{Size: 1, MaxSize: 500, Hits: 3, Misses: 1, HitRatio: 0.75}
	}); err != nil {
		t.Fatalf("RegisterCacheGauges failed: %v", err)
	}
}

func TestCallMetaSpanName(t *testing.T) {
	m := CallMeta{Tool: "firestore_query_collection"}
	if got := m.SpanName(); got != "firestore.firestore_query_collection" {
		t.Errorf("SpanName() = %q", got)
	}
}

func TestTracerSpans(t *testing.T) {
	tr := NewNoopTracer()
	ctx, span := tr.StartSpan(context.Background(), CallMeta{Tool: "firestore_get_document"})
	if ctx == nil || span == nil {
		t.Fatal("StartSpan returned nil")
	}
	tr.EndSpan(span, errors.New("boom"))

	_, span = tr.StartSpan(context.Background(), CallMeta{Tool: "firestore_get_document"})
	tr.EndSpan(span, nil)
}
