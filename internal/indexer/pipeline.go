package indexer

import (
	"context"
	"fmt"
	"time"

	"pdfshelf/internal/hasher"
	"pdfshelf/internal/logging"
	"pdfshelf/internal/metrics"
	"pdfshelf/internal/pdf"
	"pdfshelf/internal/progress"
	"pdfshelf/internal/store"
)

// Pipeline resolves one discovered file against the dedup cache and
// extracts metadata on a miss. Safe to call concurrently for different
// paths; the store serializes writes.
type Pipeline struct {
	store  *store.Store
	opener pdf.Opener
	covers *pdf.CoverRenderer
	events *progress.Channel

	// verifyHits forces full-hash verification of single-candidate
	// fingerprint matches. Off by default: a lone (fingerprint, size)
	// match is trusted as identity, accepting a small false-positive
	// risk in exchange for skipping a full-file hash on every cache
	// hit.
	verifyHits bool
}

// NewPipeline assembles an extraction pipeline.
func NewPipeline(st *store.Store, opener pdf.Opener, covers *pdf.CoverRenderer, events *progress.Channel, verifyHits bool) *Pipeline {
	return &Pipeline{
		store:      st,
		opener:     opener,
		covers:     covers,
		events:     events,
		verifyHits: verifyHits,
	}
}

// Extract produces the metadata record for path, from cache when
// possible.
//
// Resolution order: partial fingerprint lookup; a single candidate is
// returned as-is (unless verifyHits is set); multiple candidates are
// disambiguated by full hash, updating the stored path and emitting a
// DuplicateDetected event when the content was seen elsewhere before;
// otherwise the document is parsed, a cover rendered, and the new
// record upserted.
func (p *Pipeline) Extract(ctx context.Context, path string) (store.PdfMetadata, error) {
	partialHash, fileSize, err := hasher.PartialFingerprint(path)
	if err != nil {
		return store.PdfMetadata{}, err
	}

	candidates, err := p.store.LookupByPartial(ctx, partialHash, fileSize)
	if err != nil {
		metrics.ScanErrors.WithLabelValues("store").Inc()
		return store.PdfMetadata{}, err
	}

	if len(candidates) == 1 && !p.verifyHits {
		// Single-candidate fast path: trust the fingerprint without
		// hashing the whole file. No path update, no duplicate event.
		metrics.CacheHits.WithLabelValues("partial").Inc()
		logging.Debug("Cache hit (fingerprint): %s", path)
		return candidates[0], nil
	}

	var fullHash string
	if len(candidates) > 0 {
		fullHash, err = hasher.FullHash(path)
		if err != nil {
			return store.PdfMetadata{}, err
		}

		for _, cand := range candidates {
			if cand.Hash != fullHash {
				continue
			}
			metrics.CacheHits.WithLabelValues("full").Inc()
			if cand.Path != path {
				// Same content, new location: the old path is
				// superseded.
				metrics.DuplicatesDetected.Inc()
				if p.events != nil {
					p.events.Send(progress.Event{
						Kind:         progress.EventDuplicateDetected,
						OriginalPath: cand.Path,
						NewPath:      path,
					})
				}
				cand.Path = path
				if err := p.store.Upsert(ctx, &cand); err != nil {
					metrics.ScanErrors.WithLabelValues("store").Inc()
					return store.PdfMetadata{}, err
				}
			}
			return cand, nil
		}
		// Fingerprint collision across different content; extract.
	}

	metrics.CacheMisses.Inc()
	logging.Debug("New file detected: %s", path)
	return p.extractFull(ctx, path, partialHash, fileSize, fullHash)
}

// extractFull parses the document, renders its cover, and stores the
// assembled record. fullHash may be empty when not computed yet.
func (p *Pipeline) extractFull(ctx context.Context, path, partialHash string, fileSize int64, fullHash string) (store.PdfMetadata, error) {
	start := time.Now()

	doc, err := p.opener.Open(path)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		return store.PdfMetadata{}, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	if fullHash == "" {
		fullHash, err = hasher.FullHash(path)
		if err != nil {
			metrics.ExtractionsTotal.WithLabelValues("error").Inc()
			return store.PdfMetadata{}, err
		}
	}

	m := store.PdfMetadata{
		Hash:        fullHash,
		PartialHash: partialHash,
		Path:        path,
		PageCount:   doc.PageCount(),
		FileSize:    fileSize,
	}
	m.Title, _ = doc.Metadata(pdf.FieldTitle)
	m.Author, _ = doc.Metadata(pdf.FieldAuthor)
	m.Subject, _ = doc.Metadata(pdf.FieldSubject)
	m.Keywords, _ = doc.Metadata(pdf.FieldKeywords)
	m.Creator, _ = doc.Metadata(pdf.FieldCreator)
	m.Producer, _ = doc.Metadata(pdf.FieldProducer)
	m.CreationDate, _ = doc.Metadata(pdf.FieldCreationDate)
	m.ModificationDate, _ = doc.Metadata(pdf.FieldModDate)

	if m.PageCount > 0 {
		filename, err := p.covers.Render(doc, fullHash)
		if err != nil {
			// A missing cover is not worth failing the record over.
			logging.Warn("No cover for %s: %v", path, err)
		} else {
			m.CoverPath = filename
		}
	}

	if err := p.store.Upsert(ctx, &m); err != nil {
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		metrics.ScanErrors.WithLabelValues("store").Inc()
		return store.PdfMetadata{}, err
	}

	metrics.ExtractionsTotal.WithLabelValues("success").Inc()
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	return m, nil
}
