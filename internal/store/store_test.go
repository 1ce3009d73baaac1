package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

// newTestStore opens a store against a fresh database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "pdf_cache.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

func sampleRecord(hash string) PdfMetadata {
	return PdfMetadata{
		Hash:             hash,
		PartialHash:      "partial-" + hash,
		Path:             "/books/" + hash + ".pdf",
		Title:            "The Go Programming Language",
		Author:           "Donovan & Kernighan",
		Subject:          "Programming",
		Keywords:         "go, golang",
		Creator:          "LaTeX",
		Producer:         "pdfTeX",
		CreationDate:     "D:20151026090000Z",
		ModificationDate: "D:20160101120000Z",
		PageCount:        380,
		CoverPath:        CoverFilename(hash),
		FileSize:         4_194_304,
	}
}

func TestInitializeIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "pdf_cache.db")

	s1, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if err := s1.Upsert(context.Background(), &PdfMetadata{Hash: "h1", PartialHash: "p1", Path: "/a.pdf", PageCount: 1, FileSize: 10}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Re-opening must not fail or lose data.
	s2, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.LookupByHash(context.Background(), "h1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil || got.Path != "/a.pdf" {
		t.Errorf("record lost across reopen: %+v", got)
	}
}

func TestUpsertLookupRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	want := sampleRecord("aaaa1111bbbb2222cccc3333dddd4444")
	if err := s.Upsert(ctx, &want); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := s.LookupByHash(ctx, want.Hash)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil {
		t.Fatal("lookup returned nil for existing hash")
	}
	if *got != want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *got, want)
	}
}

func TestUpsertReplacesByHash(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("feedfacefeedfacefeedfacefeedface")
	if err := s.Upsert(ctx, &rec); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Same content moved to a new path: one row, last writer wins.
	rec.Path = "/moved/elsewhere.pdf"
	if err := s.Upsert(ctx, &rec); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want exactly 1 row per content hash", count)
	}

	got, err := s.LookupByHash(ctx, rec.Hash)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Path != "/moved/elsewhere.pdf" {
		t.Errorf("path = %s, want /moved/elsewhere.pdf", got.Path)
	}
}

func TestLookupByHashMissing(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	got, err := s.LookupByHash(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("lookup of missing hash should not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing hash, got %+v", got)
	}
}

func TestLookupByPartial(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	// Two distinct contents sharing fingerprint and size (a collision),
	// plus one with the same fingerprint but a different size.
	a := sampleRecord("hash-a")
	a.PartialHash = "collide"
	a.FileSize = 1000
	b := sampleRecord("hash-b")
	b.PartialHash = "collide"
	b.FileSize = 1000
	c := sampleRecord("hash-c")
	c.PartialHash = "collide"
	c.FileSize = 2000

	for _, rec := range []*PdfMetadata{&a, &b, &c} {
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert %s failed: %v", rec.Hash, err)
		}
	}

	got, err := s.LookupByPartial(ctx, "collide", 1000)
	if err != nil {
		t.Fatalf("partial lookup failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2 (size must narrow the match)", len(got))
	}
	hashes := map[string]bool{got[0].Hash: true, got[1].Hash: true}
	if !hashes["hash-a"] || !hashes["hash-b"] {
		t.Errorf("unexpected candidate set: %v", hashes)
	}

	none, err := s.LookupByPartial(ctx, "unknown", 1000)
	if err != nil {
		t.Fatalf("partial lookup failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d candidates for unknown fingerprint, want 0", len(none))
	}
}

func TestOptionalFieldsRoundTripEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	// A document supplying no properties at all.
	want := PdfMetadata{
		Hash:        "bare-hash",
		PartialHash: "bare-partial",
		Path:        "/bare.pdf",
		PageCount:   0,
		FileSize:    0,
	}
	if err := s.Upsert(ctx, &want); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := s.LookupByHash(ctx, "bare-hash")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if *got != want {
		t.Errorf("empty optional fields mismatch:\n got  %+v\n want %+v", *got, want)
	}
}

func TestAllOrderedByPath(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	paths := []string{"/z.pdf", "/a.pdf", "/m/inner.pdf"}
	for i, p := range paths {
		rec := sampleRecord(fmt.Sprintf("hash-%d", i))
		rec.Path = p
		if err := s.Upsert(ctx, &rec); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Path > got[i].Path {
			t.Errorf("All not sorted by path: %s before %s", got[i-1].Path, got[i].Path)
		}
	}
}

func TestConcurrentUpserts(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				rec := sampleRecord(fmt.Sprintf("w%d-i%d", w, i))
				if err := s.Upsert(ctx, &rec); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent upsert failed: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != writers*perWriter {
		t.Errorf("count = %d, want %d", count, writers*perWriter)
	}
}

func TestCoverFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hash string
		want string
	}{
		{"0123456789abcdef0123456789abcdef", "0123456789abcdef.jpg"},
		{"short", "short.jpg"},
	}

	for _, tt := range tests {
		if got := CoverFilename(tt.hash); got != tt.want {
			t.Errorf("CoverFilename(%q) = %q, want %q", tt.hash, got, tt.want)
		}
	}
}
