// Package api exposes the supervisor's HTTP endpoint: daemon health,
// Prometheus metrics, a small daemon status proxy, and pprof.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"electrumd/internal/config"
	"electrumd/pkg/controller"
	"electrumd/pkg/electrumrpc"
	"electrumd/pkg/logger"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Options holds configuration for the HTTP server. Zero durations fall back
// to net/http defaults.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":8320".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
}

// NewOptions constructs an Options value from the provided application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MetricsPath:       cfg.HTTP.MetricsPath,
	}
}

// Deps are the runtime collaborators the endpoint reports on.
type Deps struct {
	// Ready reports whether the supervised daemon is currently answering RPC.
	Ready func() bool
	// RPC is the client used to proxy daemon status queries. Nil disables the
	// /daemon/info route.
	RPC *electrumrpc.Client
}

// NewServer wires up and returns a configured *http.Server exposing:
// - Prometheus metrics (MetricsPath), backed by the OTel prometheus exporter
// - /healthz reflecting daemon readiness
// - /daemon/info proxying the daemon's getinfo call
// - pprof under /debug/pprof/
// The mux is wrapped with the request logging middleware.
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	mux := http.NewServeMux()

	// prometheus metrics endpoint
	mux.Handle(opts.MetricsPath, promhttp.Handler())

	// otel meters (supervisor counters) flow into the same registry
	exp, err := otelprom.New(otelprom.WithRegisterer(prometheus.DefaultRegisterer))
	if err != nil {
		return nil, errors.Wrap(err, "create otel exporter")
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := "starting"
		code := http.StatusServiceUnavailable
		if deps.Ready != nil && deps.Ready() {
			status = "ready"
			code = http.StatusOK
		}

		writeJSON(w, code, map[string]string{"status": status})
	})

	if deps.RPC != nil {
		mux.HandleFunc("/daemon/info", func(w http.ResponseWriter, r *http.Request) {
			info, err := deps.RPC.GetInfo(r.Context())
			if err != nil {
				logger.Error(r.Context(), "could not query daemon info", zap.Error(err))
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": "daemon unreachable"})

				return
			}

			writeJSON(w, http.StatusOK, info)
		})
	}

	// pprof
	mux.Handle("/debug/pprof/", controller.PprofMux())

	handler := controller.WithLogger(mux)

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}, nil
}

// writeJSON renders v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
