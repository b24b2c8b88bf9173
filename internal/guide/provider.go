package guide

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"ifs-actionplan/internal/shared/telemetry"
)

// SnapshotKey is where the last fetched guide CSV is kept in the object store.
const SnapshotKey = "guide/latest.csv"

const (
	defaultMaxBytes    = 16 << 20
	defaultLoadTimeout = time.Minute
)

// Sources the table can come from.
const (
	SourceFile     = "file"
	SourceURL      = "url"
	SourceSnapshot = "snapshot"
	SourceStatic   = "static"
)

// Snapshots is the subset of the object store used to keep a copy of the guide.
type Snapshots interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// Options configures a Provider. Path wins over URL.
type Options struct {
	Path       string
	URL        string
	HTTPClient *http.Client
	Snapshots  Snapshots
	// MaxBytes caps the fetched CSV; a larger body fails the load.
	MaxBytes int64
	// LoadTimeout bounds a shared load independently of any caller.
	LoadTimeout time.Duration
}

// Status describes the provider for health checks.
type Status struct {
	Loaded bool   `json:"loaded"`
	Source string `json:"source,omitempty"`
	Rows   int    `json:"rows"`
}

// Provider loads the guide table once and serves lookups from memory.
type Provider struct {
	opts Options

	mu      sync.Mutex
	table   *Table
	source  string
	loading *loadCall
}

type loadCall struct {
	done  chan struct{}
	table *Table
	err   error
}

func NewProvider(opts Options) *Provider {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	return &Provider{opts: opts}
}

// NewStaticProvider serves an already parsed table.
func NewStaticProvider(t *Table) *Provider {
	return &Provider{table: t, source: SourceStatic}
}

// Lookup loads the table if needed and finds guidance for requirementNo.
func (p *Provider) Lookup(ctx context.Context, requirementNo string) (Row, error) {
	t, err := p.Table(ctx)
	if err != nil {
		return Row{}, err
	}
	return t.Lookup(requirementNo)
}

// Table returns the cached table, loading it on first use. Concurrent callers
// share one load that runs detached from their contexts, so a caller giving up
// does not fail the others. A failed load is retried by the next caller.
func (p *Provider) Table(ctx context.Context) (*Table, error) {
	p.mu.Lock()
	if p.table != nil {
		t := p.table
		p.mu.Unlock()
		return t, nil
	}
	call := p.loading
	if call == nil {
		call = &loadCall{done: make(chan struct{})}
		p.loading = call
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.LoadTimeout)
		go func() {
			defer cancel()
			p.runLoad(loadCtx, call)
		}()
	}
	p.mu.Unlock()

	select {
	case <-call.done:
		return call.table, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Provider) runLoad(ctx context.Context, call *loadCall) {
	t, source, err := p.load(ctx)

	p.mu.Lock()
	p.loading = nil
	if err == nil {
		p.table = t
		p.source = source
	}
	p.mu.Unlock()

	call.table, call.err = t, err
	close(call.done)

	if err != nil {
		telemetry.Error("guide.load_failed", map[string]any{"error": err})
		return
	}
	telemetry.Info("guide.loaded", map[string]any{"source": source, "rows": t.Len()})
}

// Status reports whether the table is loaded without triggering a load.
func (p *Provider) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.table == nil {
		return Status{}
	}
	return Status{Loaded: true, Source: p.source, Rows: p.table.Len()}
}

func (p *Provider) load(ctx context.Context) (*Table, string, error) {
	if path := strings.TrimSpace(p.opts.Path); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("open guide %s: %w", path, err)
		}
		defer f.Close()
		t, err := Parse(f)
		if err != nil {
			return nil, "", fmt.Errorf("parse guide %s: %w", path, err)
		}
		return t, SourceFile, nil
	}

	if strings.TrimSpace(p.opts.URL) == "" {
		return nil, "", fmt.Errorf("guide source not configured")
	}

	body, fetchErr := p.fetch(ctx)
	if fetchErr == nil {
		t, err := Parse(bytes.NewReader(body))
		if err != nil {
			return nil, "", fmt.Errorf("parse guide %s: %w", p.opts.URL, err)
		}
		p.saveSnapshot(ctx, body)
		return t, SourceURL, nil
	}

	if p.opts.Snapshots == nil {
		return nil, "", fetchErr
	}
	t, err := p.readSnapshot(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w (snapshot: %v)", fetchErr, err)
	}
	telemetry.Warn("guide.snapshot_fallback", map[string]any{"error": fetchErr})
	return t, SourceSnapshot, nil
}

func (p *Provider) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build guide request: %w", err)
	}
	resp, err := p.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch guide: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch guide: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read guide body: %w", err)
	}
	if int64(len(body)) > p.opts.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrGuideTooLarge, p.opts.MaxBytes)
	}
	return body, nil
}

func (p *Provider) saveSnapshot(ctx context.Context, body []byte) {
	if p.opts.Snapshots == nil {
		return
	}
	if _, err := p.opts.Snapshots.SaveWithKey(ctx, SnapshotKey, "text/csv; charset=utf-8", bytes.NewReader(body)); err != nil {
		telemetry.Warn("guide.snapshot_save_failed", map[string]any{"error": err})
	}
}

func (p *Provider) readSnapshot(ctx context.Context) (*Table, error) {
	rc, err := p.opts.Snapshots.Open(ctx, SnapshotKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Parse(rc)
}
