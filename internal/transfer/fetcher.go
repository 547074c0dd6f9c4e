package transfer

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/dustin/go-humanize"

	"github.com/oshokin/sdk-provisioner/internal/logger"
	"github.com/oshokin/sdk-provisioner/internal/version"

	// Ensure SHA256 is available for checksum verification.
	_ "crypto/sha256"
)

const (
	// ArchiveFileMode is applied to downloaded archives.
	ArchiveFileMode os.FileMode = 0o644

	// ChecksumFunction verifies downloads when a checksum is configured.
	ChecksumFunction crypto.Hash = crypto.SHA256

	// stagingSuffix marks an in-flight download.
	stagingSuffix = ".part"
)

var (
	// errBadHTTPStatus is returned for any non-200 response.
	errBadHTTPStatus = errors.New("unexpected http status")
	// errHashUnavailable is returned when the checksum function is not linked in.
	errHashUnavailable = errors.New("hash function unavailable")
)

// HTTPFetcher downloads artifacts with an http.Client.
type HTTPFetcher struct {
	client   *http.Client
	checksum []byte
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient replaces the HTTP client.
func WithClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout bounds each download.
func WithTimeout(timeout time.Duration) Option {
	return func(f *HTTPFetcher) {
		if timeout > 0 {
			f.client.Timeout = timeout
		}
	}
}

// WithChecksum makes the fetcher verify downloads against a SHA-256 digest.
func WithChecksum(sum []byte) Option {
	return func(f *HTTPFetcher) {
		f.checksum = sum
	}
}

// NewHTTPFetcher creates a fetcher with its own http.Client.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch downloads url into destination. The destination only appears after
// the whole body was received and verified.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, destination string) error {
	if f.checksum != nil && !ChecksumFunction.Available() {
		return errHashUnavailable
	}

	staging := stagingPath(destination)
	removeStaging(staging)

	response, err := f.get(ctx, url)
	if response != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}

	if err != nil {
		return err
	}

	// go-update swaps an existing target, so the staging file must exist first.
	if err = os.WriteFile(staging, nil, ArchiveFileMode); err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}

	body := &countingReader{reader: response.Body}

	options := goupdate.Options{
		TargetPath: staging,
		TargetMode: ArchiveFileMode,
		Checksum:   f.checksum,
		Hash:       ChecksumFunction,
	}

	if err = goupdate.Apply(body, options); err != nil {
		removeStaging(staging)
		return fmt.Errorf("apply download: %w", err)
	}

	if err = os.Rename(staging, destination); err != nil {
		removeStaging(staging)
		return fmt.Errorf("move download into place: %w", err)
	}

	logger.InfoKV(ctx, "Downloaded archive",
		"destination", destination,
		"size", humanize.Bytes(body.n),
		"verified", f.checksum != nil)

	return nil
}

// get issues the GET request.
func (f *HTTPFetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.UserAgent())

	logger.InfoKV(ctx, "Downloading archive", "url", url)

	response, err := f.client.Do(req)
	if err != nil {
		return response, err
	}

	if response.StatusCode != http.StatusOK {
		return response, fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	return response, nil
}

// stagingPath is a hidden sibling of destination.
func stagingPath(destination string) string {
	return filepath.Join(filepath.Dir(destination), "."+filepath.Base(destination)+stagingSuffix)
}

// removeStaging deletes the staging file and the temporary files go-update leaves beside it.
func removeStaging(staging string) {
	dir, base := filepath.Split(staging)

	for _, leftover := range []string{
		staging,
		filepath.Join(dir, "."+base+".new"),
		filepath.Join(dir, "."+base+".old"),
	} {
		_ = os.Remove(leftover)
	}
}

// countingReader counts the bytes read through it.
type countingReader struct {
	reader io.Reader
	n      uint64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += uint64(n) //nolint:gosec // n is never negative.

	return n, err
}
