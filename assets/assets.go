// Package assets downloads result artifacts named by a task's manifest.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/vinayprograms/meshkit/errors"
	"github.com/vinayprograms/meshkit/logging"
)

// DefaultTimeout bounds a single artifact download.
const DefaultTimeout = 5 * time.Minute

// Downloader fetches artifacts from the URLs a finished task reports.
// Artifact URLs are pre-signed, so no credential is attached.
type Downloader struct {
	// HTTPClient overrides the underlying transport.
	HTTPClient *http.Client

	// Logger receives download events; nil disables them.
	Logger *logging.Logger
}

// Download fetches url and writes it to dest, creating parent
// directories as needed. It writes through a temp file so a failed
// download never leaves a truncated artifact at dest. Returns the
// number of bytes written.
func (d *Downloader) Download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrCodeBadRequest, "building download request")
	}

	client := d.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, fmt.Sprintf("downloading %s", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, errors.Classify(resp.StatusCode, body)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("creating destination directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".partial-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return 0, errors.Wrap(err, fmt.Sprintf("writing %s", dest))
	}

	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("finalizing %s: %w", dest, err)
	}

	if d.Logger != nil {
		d.Logger.AssetDownloaded(url, dest, n)
	}
	return n, nil
}

// Download fetches url to dest with a default Downloader.
func Download(ctx context.Context, url, dest string) (int64, error) {
	d := &Downloader{}
	return d.Download(ctx, url, dest)
}
