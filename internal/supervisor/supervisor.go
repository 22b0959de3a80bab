// Package supervisor owns the run-time lifecycle of the wrapped Electrum
// daemon: it applies RPC configuration through the daemon's setconfig
// sub-command, launches the daemon detached, waits for its RPC endpoint to
// come up, and requests a clean stop when the surrounding context is
// canceled. The sequence is linear with no branching back; every startup
// failure is fatal, only the shutdown request is best-effort.
package supervisor

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"electrumd/internal/config"
	"electrumd/internal/network"
	"electrumd/pkg/logger"
	"electrumd/pkg/serrors"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Options configure one supervision run. They are derived from application
// configuration once at startup; the supervisor never reads the environment.
type Options struct {
	// Bin is the daemon executable.
	Bin string
	// Network is the resolved network mode; its flag is appended to every
	// daemon invocation.
	Network network.Network
	// RPCUser, RPCPassword, RPCHost and RPCPort are written into the daemon's
	// persisted config before launch.
	RPCUser     string
	RPCPassword string
	RPCHost     string
	RPCPort     int
	// ReadyTimeout bounds how long the daemon may take to answer RPC after
	// launch before startup is declared failed.
	ReadyTimeout time.Duration
	// ReadyInterval is the delay between readiness probes.
	ReadyInterval time.Duration
	// StopTimeout bounds the best-effort stop request during shutdown.
	StopTimeout time.Duration
}

// NewOptions constructs Options from the application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Bin:           cfg.Electrum.Bin,
		Network:       cfg.Network(),
		RPCUser:       cfg.Electrum.User,
		RPCPassword:   cfg.Electrum.Password,
		RPCHost:       cfg.Electrum.RPCHost,
		RPCPort:       cfg.Electrum.RPCPort,
		ReadyTimeout:  cfg.Supervisor.ReadyTimeout,
		ReadyInterval: cfg.Supervisor.ReadyInterval,
		StopTimeout:   cfg.Supervisor.StopTimeout,
	}
}

// Supervisor drives the daemon lifecycle. Ready reports readiness to the
// health endpoint; everything else happens inside Run.
type Supervisor struct {
	options Options
	runner  Runner
	prober  Prober

	ready atomic.Bool

	probes metric.Int64Counter
	stops  metric.Int64Counter
}

// New creates a Supervisor using the provided runner and readiness prober.
func New(runner Runner, prober Prober, options Options) *Supervisor {
	meter := otel.Meter("electrumd/supervisor")
	probes, _ := meter.Int64Counter("electrumd_ready_probes_total",
		metric.WithDescription("Readiness probes sent to the daemon RPC endpoint"))
	stops, _ := meter.Int64Counter("electrumd_stop_requests_total",
		metric.WithDescription("Best-effort daemon stop requests issued during shutdown"))

	return &Supervisor{
		options: options,
		runner:  runner,
		prober:  prober,
		probes:  probes,
		stops:   stops,
	}
}

// Ready reports whether the daemon has answered a readiness probe and has not
// yet been asked to stop.
func (s *Supervisor) Ready() bool {
	return s.ready.Load()
}

// networkArgs appends the network flag, if any, to the given argument list.
func (s *Supervisor) networkArgs(args []string) []string {
	if flag := s.options.Network.Flag(); flag != "" {
		args = append(args, flag)
	}

	return args
}

// ApplyConfig persists the RPC settings into the daemon's config store using
// its offline setconfig sub-command. The daemon must not be running yet; the
// four calls are idempotent and any failure aborts startup.
func (s *Supervisor) ApplyConfig(ctx context.Context) error {
	settings := [][2]string{
		{"rpcuser", s.options.RPCUser},
		{"rpcpassword", s.options.RPCPassword},
		{"rpchost", s.options.RPCHost},
		{"rpcport", strconv.Itoa(s.options.RPCPort)},
	}

	for _, kv := range settings {
		args := s.networkArgs([]string{"setconfig", kv[0], kv[1]})
		args = append(args, "--offline")

		if err := s.runner.Run(ctx, s.options.Bin, args...); err != nil {
			return errors.Wrapf(err, "setconfig %s", kv[0])
		}
	}

	return nil
}

// StartDaemon launches the daemon in detached mode. The sub-command returns
// once the daemon has forked; readiness is established separately.
func (s *Supervisor) StartDaemon(ctx context.Context) error {
	args := s.networkArgs([]string{"daemon", "-d"})

	if err := s.runner.Run(ctx, s.options.Bin, args...); err != nil {
		return errors.Wrap(err, "launch daemon")
	}

	return nil
}

// WaitReady polls the daemon RPC endpoint until it answers or ReadyTimeout
// elapses. A context cancellation while waiting is not an error; the caller
// decides whether to proceed to shutdown.
func (s *Supervisor) WaitReady(ctx context.Context) error {
	deadline := time.Now().Add(s.options.ReadyTimeout)

	ticker := time.NewTicker(s.options.ReadyInterval)
	defer ticker.Stop()

	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = s.prober.Probe(ctx)
		s.probes.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", lastErr == nil)))

		if lastErr == nil {
			s.ready.Store(true)
			logger.Info(ctx, "daemon is ready", zap.Int("attempts", attempt))

			return nil
		}

		logger.Debug(ctx, "daemon not ready yet", zap.Int("attempt", attempt), zap.Error(lastErr))

		if time.Now().After(deadline) {
			return serrors.Wrap(serrors.ErrNotReady, lastErr,
				"daemon did not answer rpc within %s", s.options.ReadyTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err() //nolint: wrapcheck
		case <-ticker.C:
		}
	}
}

// Stop asks the daemon to shut down via its stop sub-command. The request is
// bounded by StopTimeout and never fails the shutdown path: a hung or already
// dead daemon must not keep the container from terminating.
func (s *Supervisor) Stop(ctx context.Context) {
	s.ready.Store(false)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.options.StopTimeout)
	defer cancel()

	args := s.networkArgs([]string{"daemon", "stop"})

	err := s.runner.Run(stopCtx, s.options.Bin, args...)
	s.stops.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", err == nil)))
	if err != nil {
		logger.Warn(ctx, "daemon stop request failed", zap.Error(err))

		return
	}

	logger.Info(ctx, "daemon stop requested")
}

// Run performs the whole supervision sequence: configure, launch, wait for
// readiness, idle until ctx is canceled, then request a stop. It returns nil
// on a signal-initiated shutdown so the process exits 0; any startup failure
// is returned as-is and aborts the container.
func (s *Supervisor) Run(ctx context.Context) error {
	logger.Info(ctx, "applying daemon configuration",
		zap.Stringer("network", s.options.Network),
		zap.String("rpc_host", s.options.RPCHost),
		zap.Int("rpc_port", s.options.RPCPort))

	if err := s.ApplyConfig(ctx); err != nil {
		return errors.Wrap(err, "apply config")
	}

	logger.Info(ctx, "launching daemon", zap.String("bin", s.options.Bin))

	if err := s.StartDaemon(ctx); err != nil {
		return errors.Wrap(err, "start daemon")
	}

	if err := s.WaitReady(ctx); err != nil {
		// A termination signal during startup is still honored: attempt the
		// stop sequence and exit cleanly.
		if ctx.Err() != nil {
			s.Stop(ctx)

			return nil
		}

		return errors.Wrap(err, "wait for daemon")
	}

	<-ctx.Done()

	logger.Info(ctx, "termination signal received, stopping daemon")
	s.Stop(ctx)

	return nil
}
