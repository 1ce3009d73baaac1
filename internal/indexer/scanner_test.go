package indexer

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"pdfshelf/internal/progress"
)

// writeFile creates a file with content under dir, creating parent
// directories as needed.
func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create parent dirs for %s: %v", name, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestScanFindsNestedPdfs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	want := []string{
		writeFile(t, root, "a.pdf", []byte("a")),
		writeFile(t, root, "sub/b.pdf", []byte("b")),
		writeFile(t, root, "sub/deep/nested/c.pdf", []byte("c")),
	}
	sort.Strings(want)

	s := NewScanner(4, nil)
	result := s.Scan(root)

	if len(result.Errors) != 0 {
		t.Fatalf("Expected no scan errors, got %v", result.Errors)
	}
	got := append([]string(nil), result.Paths...)
	sort.Strings(got)
	if len(got) != len(want) {
		t.Fatalf("Expected %d paths, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Path %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestScanExtensionMatching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		file  string
		found bool
	}{
		{"lowercase", "book.pdf", true},
		{"uppercase", "BOOK.PDF", true},
		{"mixed case", "Book.Pdf", true},
		{"zero-byte pdf", "empty.pdf", true},
		{"text file", "notes.txt", false},
		{"no extension", "README", false},
		{"pdf infix", "book.pdf.bak", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeFile(t, root, tt.file, nil)

			s := NewScanner(2, nil)
			result := s.Scan(root)

			if tt.found && len(result.Paths) != 1 {
				t.Errorf("Expected %s to be found, got paths %v", tt.file, result.Paths)
			}
			if !tt.found && len(result.Paths) != 0 {
				t.Errorf("Expected %s to be skipped, got paths %v", tt.file, result.Paths)
			}
		})
	}
}

func TestScanMixedDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "real.pdf", make([]byte, 200*1024))
	writeFile(t, root, "empty.pdf", nil)
	writeFile(t, root, "cover.jpg", []byte("jpeg"))

	s := NewScanner(2, nil)
	result := s.Scan(root)

	if len(result.Paths) != 2 {
		t.Fatalf("Expected 2 PDFs (including the zero-byte one), got %v", result.Paths)
	}
}

func TestScanEmitsFoundEvents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.pdf", []byte("a"))
	writeFile(t, root, "sub/b.pdf", []byte("b"))

	events := progress.NewChannel()
	s := NewScanner(2, events)
	result := s.Scan(root)
	events.Close()

	found := map[string]bool{}
	for {
		e, ok := events.Next()
		if !ok {
			break
		}
		if e.Kind != progress.EventFound {
			t.Errorf("Unexpected event kind %s", e.Kind)
		}
		found[e.Path] = true
	}

	if len(found) != len(result.Paths) {
		t.Fatalf("Expected %d Found events, got %d", len(result.Paths), len(found))
	}
	for _, p := range result.Paths {
		if !found[p] {
			t.Errorf("No Found event for %s", p)
		}
	}
}

func TestScanUnreadableDirSkipsSubtreeOnly(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("Directory permissions are not enforced for root")
	}

	root := t.TempDir()
	writeFile(t, root, "visible/a.pdf", []byte("a"))
	writeFile(t, root, "locked/hidden.pdf", []byte("h"))

	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("Failed to chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	s := NewScanner(2, nil)
	result := s.Scan(root)

	if len(result.Paths) != 1 {
		t.Fatalf("Expected the sibling subtree to survive, got paths %v", result.Paths)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 scan error, got %v", result.Errors)
	}
	if result.Errors[0].Dir != locked {
		t.Errorf("Expected error for %s, got %s", locked, result.Errors[0].Dir)
	}
}

func TestScanMissingRoot(t *testing.T) {
	t.Parallel()

	s := NewScanner(2, nil)
	result := s.Scan(filepath.Join(t.TempDir(), "does-not-exist"))

	if len(result.Paths) != 0 {
		t.Errorf("Expected no paths, got %v", result.Paths)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Expected 1 error for the missing root, got %v", result.Errors)
	}
}

func TestScanFollowsSymlinkedDirs(t *testing.T) {
	t.Parallel()

	real := t.TempDir()
	writeFile(t, real, "linked.pdf", []byte("x"))

	root := t.TempDir()
	link := filepath.Join(root, "shelf")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("Symlinks unavailable: %v", err)
	}
	// A dangling link should be skipped silently.
	if err := os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling.pdf")); err != nil {
		t.Fatalf("Failed to create dangling symlink: %v", err)
	}

	s := NewScanner(2, nil)
	result := s.Scan(root)

	if len(result.Errors) != 0 {
		t.Fatalf("Expected no errors, got %v", result.Errors)
	}
	if len(result.Paths) != 1 {
		t.Fatalf("Expected 1 path through the symlinked dir, got %v", result.Paths)
	}
}

func TestScanHighFanout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	const dirs, perDir = 20, 5
	for d := 0; d < dirs; d++ {
		for f := 0; f < perDir; f++ {
			writeFile(t, root, filepath.Join("shelf", string(rune('a'+d)), "book"+string(rune('0'+f))+".pdf"), []byte{byte(d), byte(f)})
		}
	}

	// More subtrees than permits exercises the inline-descent path.
	s := NewScanner(2, nil)
	result := s.Scan(root)

	if len(result.Paths) != dirs*perDir {
		t.Fatalf("Expected %d paths, got %d", dirs*perDir, len(result.Paths))
	}
	if len(result.Errors) != 0 {
		t.Fatalf("Expected no errors, got %v", result.Errors)
	}
}
