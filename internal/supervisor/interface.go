package supervisor

import "context"

//go:generate mockgen -package mocksupervisor -source=interface.go -destination=mock/mocksupervisor.go *

// Runner executes an external command and waits for it to finish. The daemon
// launch itself goes through Run as well: the daemon's -d flag makes it
// detach on its own, so every invocation the supervisor makes is short-lived.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// Prober answers whether the daemon RPC endpoint is accepting calls.
type Prober interface {
	Probe(ctx context.Context) error
}
