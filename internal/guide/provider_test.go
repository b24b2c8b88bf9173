package guide

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"ifs-actionplan/internal/shared/storage/object/local"
	"ifs-actionplan/internal/shared/telemetry"
)

func quietLogs(t *testing.T) {
	t.Helper()
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)
}

func TestProviderFetchesOnceAndSnapshots(t *testing.T) {
	quietLogs(t)
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	store := local.New(t.TempDir())
	p := NewProvider(Options{URL: srv.URL, Snapshots: store})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Lookup(context.Background(), "1.1.1"); err != nil {
				t.Errorf("Lookup: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
	if st := p.Status(); !st.Loaded || st.Source != SourceURL || st.Rows != 4 {
		t.Fatalf("unexpected status %+v", st)
	}

	rc, err := store.Open(context.Background(), SnapshotKey)
	if err != nil {
		t.Fatalf("snapshot not saved: %v", err)
	}
	saved, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(saved, []byte(sampleCSV)) {
		t.Fatalf("snapshot content mismatch")
	}
}

func TestProviderFallsBackToSnapshot(t *testing.T) {
	quietLogs(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := local.New(t.TempDir())
	if _, err := store.SaveWithKey(context.Background(), SnapshotKey, "text/csv", bytes.NewReader([]byte(sampleCSV))); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	p := NewProvider(Options{URL: srv.URL, Snapshots: store})
	row, err := p.Lookup(context.Background(), "4.1.2")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if row.GoodPractice != "Cahier des charges à jour" {
		t.Fatalf("unexpected row %+v", row)
	}
	if st := p.Status(); st.Source != SourceSnapshot {
		t.Fatalf("expected snapshot source, got %+v", st)
	}
}

func TestProviderRetriesAfterFailedLoad(t *testing.T) {
	quietLogs(t)
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	p := NewProvider(Options{URL: srv.URL})
	if _, err := p.Table(context.Background()); err == nil {
		t.Fatalf("expected first load to fail")
	}
	if p.Status().Loaded {
		t.Fatalf("failed load must not be cached")
	}

	healthy.Store(true)
	if _, err := p.Table(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}

func TestProviderLoadsFromPath(t *testing.T) {
	quietLogs(t)
	path := filepath.Join(t.TempDir(), "guide.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write guide: %v", err)
	}

	p := NewProvider(Options{Path: path, URL: "http://127.0.0.1:1/unused.csv"})
	if _, err := p.Lookup(context.Background(), "9.9.9"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
	if st := p.Status(); st.Source != SourceFile {
		t.Fatalf("expected file source, got %+v", st)
	}
}

func TestProviderLoadSurvivesFirstCallerCancel(t *testing.T) {
	quietLogs(t)
	var hits int32
	started := make(chan struct{})
	release := make(chan struct{})
	var releaseOnce sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			close(started)
		}
		<-release
		_, _ = io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()
	defer releaseOnce.Do(func() { close(release) })

	p := NewProvider(Options{URL: srv.URL})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := p.Table(firstCtx)
		firstErr <- err
	}()
	<-started

	secondErr := make(chan error, 1)
	go func() {
		_, err := p.Lookup(context.Background(), "4.1.2")
		secondErr <- err
	}()

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected first caller to see context.Canceled, got %v", err)
	}

	releaseOnce.Do(func() { close(release) })
	if err := <-secondErr; err != nil {
		t.Fatalf("second caller failed after first caller gave up: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
	if st := p.Status(); !st.Loaded || st.Source != SourceURL {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestProviderRejectsOversizedGuide(t *testing.T) {
	quietLogs(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	p := NewProvider(Options{URL: srv.URL, MaxBytes: int64(len(sampleCSV) - 1)})
	if _, err := p.Table(context.Background()); !errors.Is(err, ErrGuideTooLarge) {
		t.Fatalf("expected ErrGuideTooLarge, got %v", err)
	}
	if p.Status().Loaded {
		t.Fatalf("truncated guide must not be cached")
	}

	exact := NewProvider(Options{URL: srv.URL, MaxBytes: int64(len(sampleCSV))})
	if _, err := exact.Table(context.Background()); err != nil {
		t.Fatalf("guide at the limit should load: %v", err)
	}
}
