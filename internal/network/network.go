// Package network models the blockchain network mode the daemon operates
// against. Exactly one mode is ever active; it selects both the daemon
// command-line flag and the wallet subdirectory inside the data volume.
package network

import "path/filepath"

// Network identifies a blockchain network namespace. The zero value is
// Mainnet, which is also the default when no mode is requested.
type Network int

const (
	// Mainnet is the default network; it has no command-line flag and uses
	// the top-level wallets directory.
	Mainnet Network = iota
	// Testnet selects the public test network.
	Testnet
	// Regtest selects a local regression-test network.
	Regtest
	// Simnet selects a simulation network.
	Simnet
)

// Resolve maps the recognized environment values onto a single Network.
// testnet is the raw ELECTRUM_TESTNET value; only the literal string "true"
// counts. name is the raw ELECTRUM_NETWORK value. The first match in priority
// order {testnet-by-boolean, testnet-by-name, regtest, simnet} wins; anything
// else yields Mainnet. The chain is deliberately if/else so that setting
// several variables at once still produces exactly one mode.
func Resolve(testnet, name string) Network {
	switch {
	case testnet == "true":
		return Testnet
	case name == "testnet":
		return Testnet
	case name == "regtest":
		return Regtest
	case name == "simnet":
		return Simnet
	default:
		return Mainnet
	}
}

// String returns the canonical lowercase name of the network.
func (n Network) String() string {
	switch n {
	case Testnet:
		return "testnet"
	case Regtest:
		return "regtest"
	case Simnet:
		return "simnet"
	default:
		return "mainnet"
	}
}

// Flag returns the daemon command-line flag selecting this network, or the
// empty string for Mainnet (the daemon's own default).
func (n Network) Flag() string {
	switch n {
	case Testnet:
		return "--testnet"
	case Regtest:
		return "--regtest"
	case Simnet:
		return "--simnet"
	default:
		return ""
	}
}

// WalletDir returns the wallet directory for this network under the given
// data directory: base/wallets for mainnet, base/<network>/wallets otherwise.
func (n Network) WalletDir(base string) string {
	if n == Mainnet {
		return filepath.Join(base, "wallets")
	}

	return filepath.Join(base, n.String(), "wallets")
}

// All lists every supported network, mainnet first. Used when preparing the
// data directory tree.
func All() []Network {
	return []Network{Mainnet, Testnet, Regtest, Simnet}
}
