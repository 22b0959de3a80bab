package release

import (
	"context"
	"os"
	"path/filepath"

	"electrumd/internal/network"
	"electrumd/pkg/logger"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// DataDirOptions configure preparation of the persistent data directory tree.
type DataDirOptions struct {
	// Home is the daemon's config directory, e.g. /home/electrum/.electrum.
	Home string
	// Link is the well-known top-level path symlinked to Home, e.g. /data.
	// Empty disables the symlink.
	Link string
	// OwnerUID and OwnerGID identify the unprivileged account that must own
	// the tree. Negative values skip the chown, which lets the same code run
	// in tests and on hosts where the account does not exist.
	OwnerUID int
	OwnerGID int
}

// PrepareDataDir creates the per-network wallet directories under Home,
// symlinks Link to Home, and chowns the whole tree to the unprivileged
// account. It is idempotent: re-running against an existing tree succeeds.
func PrepareDataDir(ctx context.Context, opts DataDirOptions) error {
	for _, n := range network.All() {
		dir := n.WalletDir(opts.Home)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}

		logger.Debug(ctx, "wallet directory ready", zap.Stringer("network", n), zap.String("dir", dir))
	}

	if opts.Link != "" {
		if err := ensureSymlink(opts.Home, opts.Link); err != nil {
			return errors.Wrap(err, "link data path")
		}
	}

	if opts.OwnerUID >= 0 {
		if err := chownTree(opts.Home, opts.OwnerUID, opts.OwnerGID); err != nil {
			return errors.Wrap(err, "chown data dir")
		}
	}

	return nil
}

// ensureSymlink makes link point at target. An existing symlink already
// pointing at target is fine; anything else at that path is an error rather
// than something to silently replace.
func ensureSymlink(target, link string) error {
	existing, err := os.Readlink(link)
	switch {
	case err == nil:
		if existing == target {
			return nil
		}

		return errors.Errorf("%s already links to %s, want %s", link, existing, target)
	case os.IsNotExist(err):
		if err := os.Symlink(target, link); err != nil {
			return errors.Wrap(err, "create symlink")
		}

		return nil
	default:
		return errors.Wrapf(err, "inspect %s", link)
	}
}

// chownTree recursively changes ownership of every entry under root,
// including root itself. Symlinks are chowned, not followed.
func chownTree(root string, uid, gid int) error {
	return filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error { //nolint: wrapcheck
		if err != nil {
			return err
		}

		if err := os.Lchown(path, uid, gid); err != nil {
			return errors.Wrapf(err, "chown %s", path)
		}

		return nil
	})
}
