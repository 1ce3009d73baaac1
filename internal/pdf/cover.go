package pdf

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"pdfshelf/internal/logging"
	"pdfshelf/internal/metrics"
	"pdfshelf/internal/store"
)

const (
	coverMaxWidth  = 400
	coverMaxHeight = 600
	coverQuality   = 85
)

// CoverRenderer writes first-page thumbnails into a covers directory,
// named by content-hash prefix. Filenames are keyed on content, so
// concurrent renders for different content never collide and a
// re-render of the same content is idempotent.
type CoverRenderer struct {
	coversDir string
	enabled   bool
}

// NewCoverRenderer creates a renderer targeting coversDir, creating the
// directory if needed. When disabled, Render always reports an error
// and the pipeline records covers as absent.
func NewCoverRenderer(coversDir string, enabled bool) *CoverRenderer {
	if enabled {
		logging.Debug("CoverRenderer: enabled, covers dir: %s", coversDir)
		if err := os.MkdirAll(coversDir, 0o755); err != nil {
			logging.Warn("CoverRenderer: failed to create covers dir: %v", err)
			enabled = false
		}
	} else {
		logging.Debug("CoverRenderer: disabled")
	}
	return &CoverRenderer{
		coversDir: coversDir,
		enabled:   enabled,
	}
}

// IsEnabled returns whether covers can be rendered.
func (r *CoverRenderer) IsEnabled() bool {
	return r.enabled
}

// Dir returns the covers directory.
func (r *CoverRenderer) Dir() string {
	return r.coversDir
}

// CoverPath returns the full on-disk path for a cover filename.
func (r *CoverRenderer) CoverPath(filename string) string {
	return filepath.Join(r.coversDir, filename)
}

// Render rasterizes page 0 of doc and saves it as
// <first 16 hex chars of hash>.jpg under the covers directory,
// returning the filename. An existing cover for the same hash
// short-circuits: same content, same bytes.
func (r *CoverRenderer) Render(doc Document, hash string) (string, error) {
	if !r.enabled {
		return "", fmt.Errorf("covers disabled")
	}

	start := time.Now()
	filename := store.CoverFilename(hash)
	coverPath := filepath.Join(r.coversDir, filename)

	if _, err := os.Stat(coverPath); err == nil {
		logging.Debug("Cover cache hit: %s", filename)
		metrics.CoverRendersTotal.WithLabelValues("cached").Inc()
		return filename, nil
	}

	img, err := doc.RenderFirstPage()
	if err != nil {
		metrics.CoverRendersTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to render first page: %w", err)
	}

	thumb := imaging.Fit(img, coverMaxWidth, coverMaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: coverQuality}); err != nil {
		metrics.CoverRendersTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to encode cover: %w", err)
	}

	if err := os.WriteFile(coverPath, buf.Bytes(), 0o644); err != nil {
		metrics.CoverRendersTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to write cover %s: %w", coverPath, err)
	}

	metrics.CoverRendersTotal.WithLabelValues("success").Inc()
	metrics.CoverRenderDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Cover written: %s (%d bytes)", filename, buf.Len())
	return filename, nil
}
