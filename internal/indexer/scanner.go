package indexer

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"pdfshelf/internal/logging"
	"pdfshelf/internal/metrics"
	"pdfshelf/internal/progress"
)

// ScanError records a directory that could not be read during a walk.
// The subtree below it is skipped; siblings are unaffected.
type ScanError struct {
	Dir string
	Err error
}

// ScanResult is the outcome of walking one root: every PDF path found
// plus every directory that could not be entered.
type ScanResult struct {
	Paths  []string
	Errors []ScanError
}

// Scanner enumerates PDF files under a root with a fork-join parallel
// walk: each directory's files are reported immediately, then its
// subdirectories are descended concurrently, bounded by a shared
// semaphore. When no permit is available the walk continues inline on
// the current goroutine, so progress never depends on permit
// availability.
type Scanner struct {
	sem    *semaphore.Weighted
	events *progress.Channel
}

// NewScanner creates a scanner allowing up to parallelism concurrent
// directory descents.
func NewScanner(parallelism int, events *progress.Channel) *Scanner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Scanner{
		sem:    semaphore.NewWeighted(int64(parallelism)),
		events: events,
	}
}

// scanCollector accumulates walk output across goroutines.
type scanCollector struct {
	mu     sync.Mutex
	paths  []string
	errors []ScanError
}

func (c *scanCollector) addPath(path string) {
	c.mu.Lock()
	c.paths = append(c.paths, path)
	c.mu.Unlock()
}

func (c *scanCollector) addError(dir string, err error) {
	c.mu.Lock()
	c.errors = append(c.errors, ScanError{Dir: dir, Err: err})
	c.mu.Unlock()
}

// Scan walks root recursively and returns all PDF paths found.
// Each discovered file is also reported through the progress channel
// as a Found event. Unreadable directories are folded into the result
// as errors rather than aborting sibling subtrees.
func (s *Scanner) Scan(root string) ScanResult {
	c := &scanCollector{}
	s.walk(root, c)
	return ScanResult{Paths: c.paths, Errors: c.errors}
}

func (s *Scanner) walk(dir string, c *scanCollector) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("Skipping unreadable directory %s: %v", dir, err)
		metrics.ScanErrors.WithLabelValues("walk").Inc()
		c.addError(dir, err)
		return
	}

	var subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.Type()&os.ModeSymlink != 0 {
			// Follow symlinks through Stat; dangling links are skipped.
			info, err := os.Stat(path)
			if err != nil {
				logging.Debug("Skipping unresolvable symlink %s: %v", path, err)
				continue
			}
			if info.IsDir() {
				subdirs = append(subdirs, path)
			} else if info.Mode().IsRegular() && isPdf(entry.Name()) {
				s.found(path, c)
			}
			continue
		}

		if entry.IsDir() {
			subdirs = append(subdirs, path)
		} else if entry.Type().IsRegular() && isPdf(entry.Name()) {
			s.found(path, c)
		}
	}

	// Fork per subdirectory when a permit is available, else descend
	// inline. Join before returning so every result below dir is in.
	var wg sync.WaitGroup
	for _, sub := range subdirs {
		if s.sem.TryAcquire(1) {
			wg.Add(1)
			go func(sub string) {
				defer wg.Done()
				defer s.sem.Release(1)
				s.walk(sub, c)
			}(sub)
		} else {
			s.walk(sub, c)
		}
	}
	wg.Wait()
}

func (s *Scanner) found(path string, c *scanCollector) {
	c.addPath(path)
	metrics.ScanFilesFound.Inc()
	if s.events != nil {
		s.events.Send(progress.Event{Kind: progress.EventFound, Path: path})
	}
}

// isPdf reports whether name has a .pdf extension, case-insensitively.
func isPdf(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
