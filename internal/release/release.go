// Package release fetches the pinned daemon release at image build time,
// verifies its detached PGP signature against a pinned key fingerprint, and
// installs the verified archive. Signature verification is the only integrity
// control in the whole image pipeline; every failure here aborts the build.
package release

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"electrumd/internal/config"
	"electrumd/pkg/logger"
	"electrumd/pkg/serrors"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/go-faster/errors"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// Options configure a release fetch.
type Options struct {
	// Version is the pinned release version, e.g. "4.5.8".
	Version string
	// Mirror is the distribution host, e.g. "https://download.electrum.org".
	Mirror string
	// KeyringPath points at the armored public key of the release signer.
	KeyringPath string
	// Fingerprint pins the hex fingerprint the signing key must have. Spaces
	// are ignored and comparison is case-insensitive.
	Fingerprint string
	// InstallDir is where the verified archive gets unpacked.
	InstallDir string
}

// NewOptions constructs Options from the application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Version:     cfg.Release.Version,
		Mirror:      cfg.Release.Mirror,
		KeyringPath: cfg.Release.KeyringPath,
		Fingerprint: cfg.Release.Fingerprint,
		InstallDir:  cfg.Release.InstallDir,
	}
}

// Fetcher downloads, verifies and installs one pinned release.
type Fetcher struct {
	httpClient *http.Client
	options    Options
}

// NewFetcher constructs a Fetcher that downloads through the provided
// http.Client.
func NewFetcher(httpClient *http.Client, options Options) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		options:    options,
	}
}

// ArchiveName returns the release archive file name for the pinned version.
func (f *Fetcher) ArchiveName() string {
	return fmt.Sprintf("Electrum-%s.tar.gz", f.options.Version)
}

// archiveURL returns the download URL of the release archive. The detached
// signature lives at the same URL with an .asc suffix.
func (f *Fetcher) archiveURL() string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(f.options.Mirror, "/"), f.options.Version, f.ArchiveName())
}

// Fetch downloads the release archive and its detached signature, verifies
// the signature against the pinned keyring, and unpacks the archive into the
// install directory. Nothing is written to disk before verification passes.
func (f *Fetcher) Fetch(ctx context.Context) error {
	archiveURL := f.archiveURL()

	logger.Info(ctx, "downloading release archive",
		zap.String("version", f.options.Version),
		zap.String("url", archiveURL))

	archive, err := f.download(ctx, archiveURL)
	if err != nil {
		return errors.Wrap(err, "download archive")
	}

	sig, err := f.download(ctx, archiveURL+".asc")
	if err != nil {
		return errors.Wrap(err, "download signature")
	}

	keyring, err := os.ReadFile(f.options.KeyringPath)
	if err != nil {
		return errors.Wrap(err, "read keyring")
	}

	if err := Verify(keyring, f.options.Fingerprint, archive, sig); err != nil {
		return errors.Wrap(err, "verify archive")
	}

	logger.Info(ctx, "signature verified, installing",
		zap.String("archive", f.ArchiveName()),
		zap.String("dir", f.options.InstallDir))

	if err := unpack(archive, f.options.InstallDir); err != nil {
		return errors.Wrap(err, "install archive")
	}

	return nil
}

// download fetches url and returns the body bytes. Any non-200 status is an
// error; release downloads have no retry policy, a failed build should fail
// loudly.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, serrors.With(serrors.ErrNotFound, "%s not found", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	return body, nil
}

// Verify checks the armored detached signature sig over archive against the
// armored keyring, and requires the signing key's fingerprint to equal the
// pinned fingerprint. Every failure is reported as a verification error;
// there is no skip path.
func Verify(keyring []byte, fingerprint string, archive, sig []byte) error {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(keyring))
	if err != nil {
		return serrors.Wrap(serrors.ErrVerification, err, "read keyring")
	}

	want := normalizeFingerprint(fingerprint)
	if want == "" {
		return serrors.With(serrors.ErrVerification, "no fingerprint pinned")
	}

	signer, err := openpgp.CheckArmoredDetachedSignature(
		entities, bytes.NewReader(archive), bytes.NewReader(sig), nil)
	if err != nil {
		return serrors.Wrap(serrors.ErrVerification, err, "signature check failed")
	}

	got := normalizeFingerprint(fmt.Sprintf("%X", signer.PrimaryKey.Fingerprint))
	if got != want {
		return serrors.With(serrors.ErrVerification,
			"archive signed by %s, expected %s", got, want)
	}

	return nil
}

// normalizeFingerprint strips spaces and uppercases a hex fingerprint.
func normalizeFingerprint(fp string) string {
	return strings.ToUpper(strings.ReplaceAll(fp, " ", ""))
}

// unpack extracts a tar.gz archive into dir, refusing entries that would
// escape it.
func unpack(archive []byte, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create install dir")
	}

	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return errors.Wrap(err, "open gzip stream")
	}
	defer func() {
		_ = gz.Close()
	}()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read tar entry")
		}

		target, err := safeJoin(dir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := ensureRealParent(dir, target, hdr.Name); err != nil {
				return err
			}
			if err := refuseSymlink(target, hdr.Name); err != nil {
				return err
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "create dir %s", hdr.Name)
			}
		case tar.TypeReg:
			if err := ensureRealParent(dir, target, hdr.Name); err != nil {
				return err
			}
			if err := refuseSymlink(target, hdr.Name); err != nil {
				return err
			}
			if err := writeFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return errors.Wrapf(err, "write %s", hdr.Name)
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return errors.Errorf("tar entry %q links to absolute path %q", hdr.Name, hdr.Linkname)
			}
			if _, err := safeJoin(filepath.Dir(target), hdr.Linkname); err != nil {
				return err
			}
			if err := ensureRealParent(dir, target, hdr.Name); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return errors.Wrapf(err, "symlink %s", hdr.Name)
			}
		default:
			// hard links, devices etc. have no business in a release tarball
			return errors.Errorf("unsupported tar entry type %d for %s", hdr.Typeflag, hdr.Name)
		}
	}
}

// safeJoin joins name onto dir and rejects path traversal outside dir. The
// check is lexical; ensureRealParent covers escapes through symlinks planted
// by earlier entries.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, name)
	if target != dir && !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", errors.Errorf("tar entry %q escapes install dir", name)
	}

	return target, nil
}

// ensureRealParent creates the parent directory of target and verifies that,
// with all symlinks resolved, it still lies inside dir. A lexically clean
// entry name can otherwise route a write through a symlink created earlier
// and land outside the install dir.
func ensureRealParent(dir, target, name string) error {
	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrapf(err, "create parent of %s", name)
	}

	realParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		return errors.Wrapf(err, "resolve parent of %s", name)
	}
	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return errors.Wrap(err, "resolve install dir")
	}
	if realParent != realDir && !strings.HasPrefix(realParent, realDir+string(os.PathSeparator)) {
		return errors.Errorf("tar entry %q routes through a symlink leaving the install dir", name)
	}

	return nil
}

// refuseSymlink rejects creating an entry on top of a symlink, which would
// otherwise follow the link on open.
func refuseSymlink(target, name string) error {
	info, err := os.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return errors.Wrapf(err, "inspect %s", name)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return errors.Errorf("tar entry %q would replace a symlink", name)
	}

	return nil
}

// writeFile streams a tar entry to disk with the entry's mode.
func writeFile(target string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := io.Copy(f, r); err != nil {
		return errors.Wrap(err, "copy")
	}

	return nil
}
