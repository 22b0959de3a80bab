package network_test

import (
	"path/filepath"
	"testing"

	"electrumd/internal/network"

	"github.com/stretchr/testify/require"
)

func TestResolve_Priority(t *testing.T) {
	tests := []struct {
		name    string
		testnet string
		netName string
		want    network.Network
	}{
		{name: "nothing set defaults to mainnet", want: network.Mainnet},
		{name: "testnet boolean", testnet: "true", want: network.Testnet},
		{name: "testnet by name", netName: "testnet", want: network.Testnet},
		{name: "regtest", netName: "regtest", want: network.Regtest},
		{name: "simnet", netName: "simnet", want: network.Simnet},
		{
			name:    "testnet boolean beats regtest name",
			testnet: "true",
			netName: "regtest",
			want:    network.Testnet,
		},
		{
			name:    "testnet boolean beats simnet name",
			testnet: "true",
			netName: "simnet",
			want:    network.Testnet,
		},
		{name: "unknown network name falls through to mainnet", netName: "signet", want: network.Mainnet},
		{name: "non-true testnet value is ignored", testnet: "1", want: network.Mainnet},
		{name: "uppercase TRUE is ignored", testnet: "TRUE", want: network.Mainnet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, network.Resolve(tt.testnet, tt.netName))
		})
	}
}

func TestFlag_ExactlyOnePerNetwork(t *testing.T) {
	require.Equal(t, "", network.Mainnet.Flag())
	require.Equal(t, "--testnet", network.Testnet.Flag())
	require.Equal(t, "--regtest", network.Regtest.Flag())
	require.Equal(t, "--simnet", network.Simnet.Flag())
}

func TestWalletDir(t *testing.T) {
	base := "/data"

	require.Equal(t, filepath.Join(base, "wallets"), network.Mainnet.WalletDir(base))
	require.Equal(t, filepath.Join(base, "testnet", "wallets"), network.Testnet.WalletDir(base))
	require.Equal(t, filepath.Join(base, "regtest", "wallets"), network.Regtest.WalletDir(base))
	require.Equal(t, filepath.Join(base, "simnet", "wallets"), network.Simnet.WalletDir(base))
}

func TestString(t *testing.T) {
	require.Equal(t, "mainnet", network.Mainnet.String())
	require.Equal(t, "testnet", network.Testnet.String())
	require.Equal(t, "regtest", network.Regtest.String())
	require.Equal(t, "simnet", network.Simnet.String())
}
