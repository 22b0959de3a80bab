// Package config loads the application configuration once at startup. All
// daemon-facing settings come from the ELECTRUM_* environment variables the
// container contract defines; an optional YAML file can supply the rest.
package config

import (
	"fmt"
	"os"
	"time"

	"electrumd/internal/network"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure. It is populated
// once in main and passed down explicitly; nothing below main reads the
// environment directly.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// Electrum contains everything needed to configure and launch the wrapped daemon.
	Electrum struct {
		// Bin is the daemon executable to invoke.
		Bin string `env:"ELECTRUM_BIN" env-default:"electrum" yaml:"bin"`
		// Testnet is the raw ELECTRUM_TESTNET value; only the literal string "true" selects testnet.
		Testnet string `env:"ELECTRUM_TESTNET" yaml:"testnet"`
		// Network is the raw ELECTRUM_NETWORK value (testnet, regtest or simnet).
		Network string `env:"ELECTRUM_NETWORK" yaml:"network"`
		// User is the RPC username written into the daemon config.
		User string `env:"ELECTRUM_USER" env-default:"electrum" yaml:"user"`
		// Password is the RPC password written into the daemon config.
		Password string `env:"ELECTRUM_PASSWORD" yaml:"password"`
		// RPCHost is the address the daemon RPC server binds to.
		RPCHost string `env:"ELECTRUM_RPC_HOST" env-default:"0.0.0.0" yaml:"rpcHost"`
		// RPCPort is the daemon RPC port.
		RPCPort int `env:"ELECTRUM_RPC_PORT" env-default:"7000" yaml:"rpcPort"`
		// DataDir is the mounted data volume holding per-network wallet directories.
		DataDir string `env:"ELECTRUM_DATA" env-default:"/data" yaml:"dataDir"`
	} `yaml:"electrum"`

	// Release controls fetching and verifying the pinned daemon release at image build time.
	Release struct {
		// Version is the pinned release version to download.
		Version string `env:"ELECTRUM_VERSION" env-default:"4.5.8" yaml:"version"`
		// Mirror is the distribution host serving release archives and signatures.
		Mirror string `env:"ELECTRUM_MIRROR" env-default:"https://download.electrum.org" yaml:"mirror"`
		// KeyringPath points at the armored public key used to verify release signatures.
		KeyringPath string `env:"ELECTRUM_PGP_KEYRING" env-default:"/etc/electrumd/thomasv.asc" yaml:"keyringPath"`
		// Fingerprint pins the primary key fingerprint the keyring must carry.
		// Default is the Electrum release signing key (ThomasV).
		Fingerprint string `env:"ELECTRUM_PGP_FINGERPRINT" env-default:"6694D8DE7BE8EE5631BED9502BD5824B7F9470E6" yaml:"fingerprint"` //nolint: lll
		// InstallDir is where the verified archive is unpacked.
		InstallDir string `env:"ELECTRUM_INSTALL_DIR" env-default:"/usr/local/lib/electrum" yaml:"installDir"`
		// Home is the daemon's config directory that the data volume symlink points to.
		Home string `env:"ELECTRUM_HOME" env-default:"/home/electrum/.electrum" yaml:"home"`
		// OwnerUID and OwnerGID identify the unprivileged runtime account that
		// must own the data directory tree. Negative values skip chown.
		OwnerUID int `env:"ELECTRUM_OWNER_UID" env-default:"-1" yaml:"ownerUID"`
		OwnerGID int `env:"ELECTRUM_OWNER_GID" env-default:"-1" yaml:"ownerGID"`
	} `yaml:"release"`

	// HTTP configures the supervisor's health and metrics endpoint.
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on.
		Addr string `env:"HTTP_ADDR" env-default:":8320" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request.
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers.
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response.
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request.
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// MetricsPath defines the URL path where metrics are exposed.
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"http"`

	// Supervisor bounds the daemon lifecycle phases.
	Supervisor struct {
		// ReadyTimeout is how long to wait for the daemon RPC endpoint to answer after launch.
		ReadyTimeout time.Duration `env:"SUPERVISOR_READY_TIMEOUT" env-default:"30s" yaml:"readyTimeout"`
		// ReadyInterval is the delay between readiness probes.
		ReadyInterval time.Duration `env:"SUPERVISOR_READY_INTERVAL" env-default:"1s" yaml:"readyInterval"`
		// StopTimeout bounds the best-effort daemon stop request during shutdown.
		StopTimeout time.Duration `env:"SUPERVISOR_STOP_TIMEOUT" env-default:"10s" yaml:"stopTimeout"`
	} `yaml:"supervisor"`

	// GracefulShutdownTimeout is the maximum duration to wait for the HTTP
	// server to drain during shutdown.
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Network resolves the configured network mode. Exactly one mode results;
// see network.Resolve for the priority order.
func (c *Config) Network() network.Network {
	return network.Resolve(c.Electrum.Testnet, c.Electrum.Network)
}

// Load returns a filled Config. When the YAML file at configPath exists it is
// read first with environment overrides applied by cleanenv; inside the
// container only the environment is present, so a missing file falls back to
// pure env loading.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}

		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("could not read config from environment: %w", err)
	}

	return &cfg, nil
}
