package supervisor

import (
	"context"
	"os/exec"
	"strings"

	"electrumd/pkg/logger"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// ExecRunner runs commands through os/exec. Child output is captured and
// logged so daemon diagnostics end up in the container log stream.
type ExecRunner struct{}

// Run executes name with args and waits for completion. On failure the
// combined output is folded into the error so startup aborts carry the
// daemon's own diagnostic text.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		logger.Debug(ctx, "command output",
			zap.String("command", name),
			zap.Strings("args", args),
			zap.String("output", strings.TrimSpace(string(out))))
	}
	if err != nil {
		return errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), strings.TrimSpace(string(out)))
	}

	return nil
}
