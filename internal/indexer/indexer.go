package indexer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"pdfshelf/internal/logging"
	"pdfshelf/internal/metrics"
	"pdfshelf/internal/pdf"
	"pdfshelf/internal/progress"
	"pdfshelf/internal/store"
)

// ErrScanInProgress is returned when a scan is requested while another
// scan is still running. Scans are exclusive per store instance.
var ErrScanInProgress = errors.New("scan already in progress")

// Indexer coordinates full scans across the configured roots: parallel
// directory walks, deterministic ordering, extraction fan-out, and the
// progress stream feeding the status snapshot.
type Indexer struct {
	store   *store.Store
	opener  pdf.Opener
	covers  *pdf.CoverRenderer
	roots   []string
	workers int

	scanInterval time.Duration
	verifyHits   bool

	stopChan chan struct{}
	stopOnce sync.Once

	scanMu       sync.Mutex
	isScanning   bool
	lastScanTime time.Time

	// status holds the consumer-owned accumulator snapshot. Producers
	// never touch it; only the consume goroutine stores updates.
	status atomic.Value

	// Callback when a scan completes, carrying the final list.
	onScanComplete func([]store.PdfMetadata)
}

// ScanStatus is a snapshot of scan progress, folded from progress
// events by the single consumer goroutine.
type ScanStatus struct {
	Scanning       bool      `json:"scanning"`
	StartedAt      time.Time `json:"startedAt,omitempty"`
	FilesFound     int64     `json:"filesFound"`
	FilesProcessed int64     `json:"filesProcessed"`
	Duplicates     int64     `json:"duplicates"`
	Errors         int64     `json:"errors"`
	LastError      string    `json:"lastError,omitempty"`
	CurrentPath    string    `json:"currentPath,omitempty"`
	TotalIndexed   int       `json:"totalIndexed"`
	Duration       string    `json:"duration,omitempty"`
}

// New creates an Indexer. workers bounds both the parallel walk and
// the extraction pool.
func New(st *store.Store, opener pdf.Opener, covers *pdf.CoverRenderer, roots []string, workers int, scanInterval time.Duration, verifyHits bool) *Indexer {
	if workers < 1 {
		workers = 1
	}
	idx := &Indexer{
		store:        st,
		opener:       opener,
		covers:       covers,
		roots:        append([]string(nil), roots...),
		workers:      workers,
		scanInterval: scanInterval,
		verifyHits:   verifyHits,
		stopChan:     make(chan struct{}),
	}
	idx.status.Store(ScanStatus{})
	return idx
}

// SetOnScanComplete sets a callback invoked with the final metadata
// list after each completed scan.
func (idx *Indexer) SetOnScanComplete(callback func([]store.PdfMetadata)) {
	idx.onScanComplete = callback
}

// Start kicks off the initial scan in the background and, when a scan
// interval is configured, periodic re-scans after it.
func (idx *Indexer) Start() {
	go func() {
		logging.Info("Starting initial scan in background...")
		if _, err := idx.Scan(context.Background()); err != nil && !errors.Is(err, ErrScanInProgress) {
			logging.Error("Initial scan error: %v", err)
		}
	}()

	if idx.scanInterval > 0 {
		go idx.periodicScan()
	}
}

// Stop stops periodic re-scanning. An in-flight scan runs to
// completion; the core has no mid-scan cancellation.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() { close(idx.stopChan) })
}

func (idx *Indexer) periodicScan() {
	ticker := time.NewTicker(idx.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic re-scan triggered")
			if _, err := idx.Scan(context.Background()); err != nil && !errors.Is(err, ErrScanInProgress) {
				logging.Error("Periodic re-scan failed: %v", err)
			}
		case <-idx.stopChan:
			return
		}
	}
}

// TriggerScan starts a scan in the background. A scan already in
// progress makes this a no-op.
func (idx *Indexer) TriggerScan() {
	go func() {
		if _, err := idx.Scan(context.Background()); err != nil && !errors.Is(err, ErrScanInProgress) {
			logging.Error("Triggered scan failed: %v", err)
		}
	}()
}

// IsScanning returns whether a scan is currently running.
func (idx *Indexer) IsScanning() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	return idx.isScanning
}

// LastScanTime returns the completion time of the last scan.
func (idx *Indexer) LastScanTime() time.Time {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	return idx.lastScanTime
}

// Status returns the current scan status snapshot.
func (idx *Indexer) Status() ScanStatus {
	if st, ok := idx.status.Load().(ScanStatus); ok {
		return st
	}
	return ScanStatus{}
}

func (idx *Indexer) tryStartScanning() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()

	if idx.isScanning {
		return false
	}
	idx.isScanning = true
	return true
}

func (idx *Indexer) finishScanning() {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()

	idx.isScanning = false
	idx.lastScanTime = time.Now()
}

// Scan performs one full scan across all roots and returns the final
// metadata list, sorted by path. Failed files are reported through the
// progress stream and excluded from the list.
func (idx *Indexer) Scan(ctx context.Context) ([]store.PdfMetadata, error) {
	if !idx.tryStartScanning() {
		logging.Info("Scan already in progress, skipping...")
		return nil, ErrScanInProgress
	}
	defer idx.finishScanning()

	metrics.ScanIsRunning.Set(1)
	defer metrics.ScanIsRunning.Set(0)
	metrics.ScanRunsTotal.Inc()
	metrics.ScanWorkers.Set(float64(idx.workers))

	start := time.Now()
	logging.Info("Starting scan of %d root(s) with %d workers", len(idx.roots), idx.workers)

	events := progress.NewChannel()
	consumerDone := make(chan struct{})
	go idx.consume(events, consumerDone, start)

	paths := idx.discover(events)

	// Deterministic processing order: duplicate-detection outcomes and
	// the final list become reproducible across runs.
	sort.Strings(paths)

	list := idx.extractAll(ctx, events, paths)

	duration := time.Since(start)
	events.Send(progress.Event{
		Kind:     progress.EventComplete,
		Results:  list,
		Duration: duration,
	})
	events.Close()
	<-consumerDone

	metrics.ScanLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.ScanLastRunDuration.Set(duration.Seconds())
	idx.store.UpdateDBMetrics()
	if _, err := idx.store.Count(ctx); err != nil {
		logging.Warn("Failed to refresh record count: %v", err)
	}

	logging.Info("Scan complete: %d PDFs in %v", len(list), duration)

	if idx.onScanComplete != nil {
		idx.onScanComplete(list)
	}

	return list, nil
}

// discover walks all roots in parallel and returns the combined path
// list. Per-subtree walk errors are forwarded as Error events.
func (idx *Indexer) discover(events *progress.Channel) []string {
	scanner := NewScanner(idx.workers, events)

	var mu sync.Mutex
	var paths []string

	g := new(errgroup.Group)
	for _, root := range idx.roots {
		g.Go(func() error {
			result := scanner.Scan(root)
			for _, se := range result.Errors {
				events.Send(progress.Event{
					Kind:    progress.EventError,
					Path:    se.Dir,
					Message: "directory unreadable: " + se.Err.Error(),
				})
			}
			mu.Lock()
			paths = append(paths, result.Paths...)
			mu.Unlock()
			return nil
		})
	}
	// Walk errors are folded into results, never returned.
	_ = g.Wait()

	return paths
}

// extractAll fans the sorted paths out to the worker pool and collects
// successful records, preserving input order.
func (idx *Indexer) extractAll(ctx context.Context, events *progress.Channel, paths []string) []store.PdfMetadata {
	pipeline := NewPipeline(idx.store, idx.opener, idx.covers, events, idx.verifyHits)

	// Indexed result slots: workers write disjoint entries, order
	// falls out for free.
	results := make([]*store.PdfMetadata, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < idx.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				path := paths[i]
				events.Send(progress.Event{Kind: progress.EventProcessing, Path: path})
				metrics.ScanFilesProcessed.Inc()

				m, err := pipeline.Extract(ctx, path)
				if err != nil {
					metrics.ScanErrors.WithLabelValues("extract").Inc()
					events.Send(progress.Event{
						Kind:    progress.EventError,
						Path:    path,
						Message: "extraction failed: " + err.Error(),
					})
					continue
				}

				events.Send(progress.Event{
					Kind:     progress.EventExtracted,
					Path:     path,
					Hash:     m.Hash,
					Metadata: &m,
				})
				results[i] = &m
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	list := make([]store.PdfMetadata, 0, len(paths))
	for _, r := range results {
		if r != nil {
			list = append(list, *r)
		}
	}
	return list
}

// consume is the single consumer of the progress stream. All
// accumulator state lives here; producers only ever send events.
func (idx *Indexer) consume(events *progress.Channel, done chan<- struct{}, startedAt time.Time) {
	defer close(done)

	st := ScanStatus{Scanning: true, StartedAt: startedAt}
	idx.status.Store(st)

	for {
		e, ok := events.Next()
		if !ok {
			return
		}

		switch e.Kind {
		case progress.EventFound:
			st.FilesFound++
		case progress.EventProcessing:
			st.FilesProcessed++
			st.CurrentPath = e.Path
		case progress.EventExtracted:
			// Snapshot carries the record; nothing to accumulate
			// beyond the processed count.
		case progress.EventDuplicateDetected:
			st.Duplicates++
			logging.Info("Duplicate detected: %s supersedes %s", e.NewPath, e.OriginalPath)
		case progress.EventError:
			st.Errors++
			st.LastError = e.Path + ": " + e.Message
			logging.Error("Scan error for %s: %s", e.Path, e.Message)
		case progress.EventComplete:
			st.Scanning = false
			st.CurrentPath = ""
			st.TotalIndexed = len(e.Results)
			st.Duration = e.Duration.String()
		}

		idx.status.Store(st)
	}
}
