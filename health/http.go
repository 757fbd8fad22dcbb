package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// RegisterHandlers mounts the probe endpoints: /healthz answers as long as
// the process serves HTTP, /readyz gates on the aggregate status, /health
// carries the full report.
func RegisterHandlers(mux *http.ServeMux, agg *Aggregator) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/readyz", ReadyHandler(agg))
	mux.HandleFunc("/health", ReportHandler(agg))
}

// ReadyHandler reports readiness: 200 while the aggregate status is
// healthy or degraded, 503 once any checker is unhealthy. A degraded cache
// must not take the server out of rotation.
func ReadyHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := agg.Run(r.Context())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if rep.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write([]byte(rep.Status.String() + "\n"))
	}
}

// ReportHandler serves the full sweep as JSON, one entry per checker.
func ReportHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := agg.Run(r.Context())

		payload := reportPayload{
			Status:    rep.Status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]checkPayload, len(rep.Checks)),
		}
		for name, res := range rep.Checks {
			cp := checkPayload{
				Status:   res.Status.String(),
				Message:  res.Message,
				Duration: res.Duration.String(),
				Details:  res.Details,
			}
			if res.Error != nil {
				cp.Error = res.Error.Error()
			}
			payload.Checks[name] = cp
		}

		w.Header().Set("Content-Type", "application/json")
		if rep.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type reportPayload struct {
	Status    string                  `json:"status"`
	Timestamp string                  `json:"timestamp"`
	Checks    map[string]checkPayload `json:"checks,omitempty"`
}

type checkPayload struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}
