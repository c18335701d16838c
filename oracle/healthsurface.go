package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// HealthSurface serves /healthcheck and /metrics. There is no ecosystem
// HTTP router anywhere in this module's dependency tree, so it is built
// directly on net/http rather than pulling one in for two routes.
//
// REST_API_SERVER_PORT and PROMETHEUS_METRICS_PORT name independent
// settings, but in the common/default configuration they're equal: one
// listener then serves both paths. A second listener is only opened when
// the two ports actually differ.
type HealthSurface struct {
	log      *slog.Logger
	cfg      *Config
	reporter *Reporter
	metrics  *Metrics

	mux *http.ServeMux

	primary  *http.Server
	secondary *http.Server
}

func NewHealthSurface(log *slog.Logger, cfg *Config, reporter *Reporter, metrics *Metrics) *HealthSurface {
	h := &HealthSurface{log: log, cfg: cfg, reporter: reporter, metrics: metrics}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthcheck", h.serveHealthcheck)

	if cfg.RestAPIServerPort == cfg.PrometheusMetricsPort {
		healthMux.HandleFunc("/metrics", h.serveMetrics)
		h.primary = &http.Server{Handler: healthMux}
		return h
	}

	h.primary = &http.Server{Handler: healthMux}

	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/metrics", h.serveMetrics)
	h.secondary = &http.Server{Handler: metricsMux}

	return h
}

type healthcheckResponse struct {
	Status          string `json:"status"`
	LastEraReported uint64 `json:"last_era_reported"`
	LastFailedEra   uint64 `json:"last_failed_era,omitempty"`
}

func (h *HealthSurface) serveHealthcheck(w http.ResponseWriter, r *http.Request) {
	h.reporter.mu.RLock()
	resp := healthcheckResponse{
		Status:          h.reporter.status.healthcheckLabel(),
		LastEraReported: h.reporter.lastEraReported,
		LastFailedEra:   h.reporter.lastFailedEra,
	}
	recovering := h.reporter.recovering
	h.reporter.mu.RUnlock()
	if recovering {
		resp.Status = StatusRecovering.healthcheckLabel()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("oracle: failed encoding healthcheck response", "error", err)
	}
}

func (h *HealthSurface) serveMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if _, err := h.metrics.WriteTo(w); err != nil {
		h.log.Error("oracle: failed writing metrics response", "error", err)
	}
}

// Run starts the listener(s) and blocks until ctx is cancelled, then
// shuts them down with a bounded grace period.
func (h *HealthSurface) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	primaryAddr := net.JoinHostPort(h.cfg.RestAPIServerIPAddress, fmt.Sprintf("%d", h.cfg.RestAPIServerPort))
	h.primary.Addr = primaryAddr
	go func() {
		h.log.Info("oracle: health surface listening", "addr", primaryAddr)
		if err := h.primary.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	if h.secondary != nil {
		secondaryAddr := net.JoinHostPort(h.cfg.RestAPIServerIPAddress, fmt.Sprintf("%d", h.cfg.PrometheusMetricsPort))
		h.secondary.Addr = secondaryAddr
		go func() {
			h.log.Info("oracle: metrics surface listening", "addr", secondaryAddr)
			if err := h.secondary.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			errCh <- nil
		}()
	} else {
		errCh <- nil
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.primary.Shutdown(shutdownCtx); err != nil {
		h.log.Warn("oracle: error shutting down health surface", "error", err)
	}
	if h.secondary != nil {
		if err := h.secondary.Shutdown(shutdownCtx); err != nil {
			h.log.Warn("oracle: error shutting down metrics surface", "error", err)
		}
	}

	return nil
}
