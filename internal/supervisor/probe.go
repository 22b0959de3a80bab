package supervisor

import (
	"context"
	"errors"

	"electrumd/pkg/electrumrpc"
	"electrumd/pkg/serrors"
)

// RPCProber checks daemon readiness by asking it for its version over
// JSON-RPC. Any answer, including an RPC-level error object or rejected
// credentials, means the daemon is up and serving; only transport failures
// count as not ready.
type RPCProber struct {
	client *electrumrpc.Client
}

// NewRPCProber constructs a prober around the given RPC client.
func NewRPCProber(client *electrumrpc.Client) *RPCProber {
	return &RPCProber{client: client}
}

// Probe performs a single version call against the daemon.
func (p *RPCProber) Probe(ctx context.Context) error {
	_, err := p.client.Version(ctx)
	if err != nil && (errors.Is(err, serrors.ErrRPC) || errors.Is(err, serrors.ErrUnauthorized)) {
		return nil
	}

	return err
}

// Ensure RPCProber conforms to the Prober interface at compile time.
var _ Prober = (*RPCProber)(nil)
