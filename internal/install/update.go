// Package install downloads the Fabric install script and drives it to
// fetch binaries, images and samples.
package install

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/randomizedcoder/go-fabric-cmd/internal/logging"
)

// DefaultScriptURL is the upstream location of install-fabric.sh.
const DefaultScriptURL = "https://raw.githubusercontent.com/hyperledger/fabric/main/scripts/install-fabric.sh"

// DefaultScriptName is the file name the script is saved under.
const DefaultScriptName = "install-fabric.sh"

// UpdateOptions configures Update.
type UpdateOptions struct {
	// URL defaults to DefaultScriptURL.
	URL string

	// Dest defaults to DefaultScriptName in the current directory.
	Dest string

	// Client defaults to http.DefaultClient.
	Client *http.Client

	Logger *slog.Logger
}

// Update downloads the install script to opts.Dest and makes it executable.
// The file is replaced atomically, so a failed download keeps the previous
// script.
func Update(ctx context.Context, opts UpdateOptions) (string, error) {
	if opts.URL == "" {
		opts.URL = DefaultScriptURL
	}
	if opts.Dest == "" {
		opts.Dest = DefaultScriptName
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	resp, err := opts.Client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "download %s", opts.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Errorf("download %s: unexpected status %s", opts.URL, resp.Status)
	}

	dir := filepath.Dir(opts.Dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".install-fabric-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return "", errors.Wrapf(err, "download %s", opts.URL)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return "", errors.Wrap(err, "chmod script")
	}
	if err := os.Rename(tmp.Name(), opts.Dest); err != nil {
		return "", errors.Wrapf(err, "install %s", opts.Dest)
	}

	opts.Logger.Info("install_script_updated",
		"url", opts.URL,
		"dest", opts.Dest,
		"bytes", n,
	)
	return opts.Dest, nil
}
