// Package blob turns an image source into a publisher blob id.
//
// An upload first resolves its source to bytes (download, file read, or
// in-memory) with no retry, then runs a bounded Session: every attempt picks
// a random publisher, draws the next proxy, and PUTs the bytes. Any failure
// waits a fixed delay and tries again until the attempt ceiling is reached.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dmagro/seal-blob-bot/internal/output"
	"github.com/dmagro/seal-blob-bot/internal/proxy"
	"github.com/dmagro/seal-blob-bot/internal/publisher"
)

const (
	DefaultDelay   = 5 * time.Second
	DefaultTimeout = 60 * time.Second

	maxResponseBytes = 1 << 20
	maxSourceBytes   = 64 << 20
)

var (
	// ErrExhausted is returned after MaxAttempts consecutive failures.
	ErrExhausted = errors.New("could not upload blob after maximum attempts")
	// ErrInvalidEpochs rejects retention periods below one epoch.
	ErrInvalidEpochs = errors.New("epochs must be >= 1")
	// ErrEmptyBlob rejects sources that resolved to zero bytes.
	ErrEmptyBlob = errors.New("blob source is empty")
	// ErrSourceTooLarge rejects sources above the size limit instead of
	// uploading a truncated prefix.
	ErrSourceTooLarge = errors.New("blob source exceeds size limit")
)

// ProxySource yields the proxy for the next request, if any.
type ProxySource interface {
	Next() (proxy.Descriptor, bool)
}

// Config tunes the retry loop.
type Config struct {
	MaxAttempts int           // attempt ceiling, default 15
	Delay       time.Duration // fixed wait between attempts, default 5s, negative disables
	Timeout     time.Duration // per-request HTTP timeout, default 60s
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Delay < 0 {
		c.Delay = 0
	} else if c.Delay == 0 {
		c.Delay = DefaultDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Uploader uploads blobs to a publisher pool.
type Uploader struct {
	pool    *publisher.Pool
	proxies ProxySource
	cfg     Config
	log     *output.Logger
	base    *http.Transport
	sleep   func(ctx context.Context, d time.Duration) error

	maxSource int64
}

// Option customises an Uploader.
type Option func(*Uploader)

// WithSleep replaces the delay function between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(u *Uploader) { u.sleep = fn }
}

// WithTransport sets the base transport cloned for every request.
func WithTransport(t *http.Transport) Option {
	return func(u *Uploader) { u.base = t }
}

// NewUploader builds an uploader. proxies may be nil.
func NewUploader(pool *publisher.Pool, proxies ProxySource, cfg Config, log *output.Logger, opts ...Option) *Uploader {
	u := &Uploader{
		pool:    pool,
		proxies: proxies,
		cfg:     cfg.withDefaults(),
		log:     log,
		base:    http.DefaultTransport.(*http.Transport).Clone(),
		sleep:   sleepContext,

		maxSource: maxSourceBytes,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Config returns the effective configuration.
func (u *Uploader) Config() Config { return u.cfg }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Upload resolves src and stores it for the given number of epochs,
// returning the publisher blob id.
func (u *Uploader) Upload(ctx context.Context, src Source, epochs int) (string, error) {
	if epochs < 1 {
		return "", fmt.Errorf("%w (got %d)", ErrInvalidEpochs, epochs)
	}

	data, err := u.Resolve(ctx, src)
	if err != nil {
		return "", err
	}

	u.log.Upload("Uploading blob for %d epochs", epochs)
	return u.run(ctx, NewSession(u.cfg.MaxAttempts), data, epochs)
}

func (u *Uploader) run(ctx context.Context, sess *Session, data []byte, epochs int) (string, error) {
	for {
		attempt := sess.Attempt()
		_, ep := u.pool.Choose()
		u.log.Processing("Attempt %d: Using %s", attempt, ep.Name)

		res := u.attempt(ctx, ep, data, epochs)
		if res.Err != nil {
			u.log.Error("Upload failed on attempt %d: %v", attempt, res.Err)
		}

		state, err := sess.Record(res)
		if err != nil {
			return "", err
		}

		switch state {
		case StateSucceeded:
			u.log.Success("Successfully uploaded blob")
			u.log.Result("Blob ID", sess.BlobID())
			return sess.BlobID(), nil
		case StateExhausted:
			u.log.Error("Reached maximum attempts (%d). Giving up.", sess.MaxAttempts())
			return "", fmt.Errorf("%w (%d): %w", ErrExhausted, sess.MaxAttempts(), sess.LastErr())
		}

		u.log.Warning("Retrying in %s...", u.cfg.Delay)
		if err := u.sleep(ctx, u.cfg.Delay); err != nil {
			return "", fmt.Errorf("upload interrupted after attempt %d: %w", attempt, err)
		}
	}
}

func (u *Uploader) attempt(ctx context.Context, ep publisher.Endpoint, data []byte, epochs int) Result {
	client, done := u.client()
	defer done()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ep.BlobURL(epochs), bytes.NewReader(data))
	if err != nil {
		return Result{Err: err}
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	blobID, kind, err := ParseResponse(body)
	if err != nil {
		return Result{Kind: kind, Err: err}
	}
	u.log.Info("Publisher response: %s", kind)
	return Result{BlobID: blobID, Kind: kind}
}

// client draws the next proxy, if any, and returns an HTTP client routed
// through it together with a cleanup func for the per-proxy transport.
func (u *Uploader) client() (*http.Client, func()) {
	if u.proxies != nil {
		if d, ok := u.proxies.Next(); ok {
			u.log.Network("Using proxy: %s", d)
			tr := d.Transport(u.base)
			return &http.Client{Transport: tr, Timeout: u.cfg.Timeout}, tr.CloseIdleConnections
		}
	}
	return &http.Client{Transport: u.base, Timeout: u.cfg.Timeout}, func() {}
}

// Resolve loads the bytes behind src. Download and read failures are
// returned immediately; they are not retried.
func (u *Uploader) Resolve(ctx context.Context, src Source) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch src.Kind {
	case SourceURL:
		data, err = u.fetch(ctx, src.Location)
	case SourceFile:
		data, err = u.readFile(src.Location)
	default:
		data = src.Data
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyBlob
	}
	return data, nil
}

func (u *Uploader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u.log.Download("Downloading image from URL")

	client, done := u.client()
	defer done()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		u.log.Error("Error downloading image: %v", err)
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		u.log.Error("Error downloading image: HTTP %d", resp.StatusCode)
		return nil, fmt.Errorf("download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, u.maxSource+1))
	if err != nil {
		u.log.Error("Error downloading image: %v", err)
		return nil, fmt.Errorf("download image: %w", err)
	}
	if int64(len(data)) > u.maxSource {
		u.log.Error("Error downloading image: larger than %s", output.FormatKB(int(u.maxSource)))
		return nil, fmt.Errorf("download image: %w (limit %d bytes)", ErrSourceTooLarge, u.maxSource)
	}

	u.log.Success("Downloaded image: %s", output.FormatKB(len(data)))
	return data, nil
}

func (u *Uploader) readFile(path string) ([]byte, error) {
	u.log.Download("Loading local image")
	data, err := os.ReadFile(path)
	if err != nil {
		u.log.Error("Error loading local image: %v", err)
		return nil, fmt.Errorf("load local image: %w", err)
	}
	if int64(len(data)) > u.maxSource {
		u.log.Error("Error loading local image: larger than %s", output.FormatKB(int(u.maxSource)))
		return nil, fmt.Errorf("load local image: %w (limit %d bytes)", ErrSourceTooLarge, u.maxSource)
	}
	u.log.Success("Loaded image: %s", output.FormatKB(len(data)))
	return data, nil
}
