package hasher

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates a file with the given contents in a temp dir.
func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

// patternData returns size bytes of a deterministic non-repeating pattern.
func patternData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i*7 + i/251)
	}
	return data
}

func TestPartialFingerprintDeterministic(t *testing.T) {
	t.Parallel()

	data := patternData(200 * 1024)
	path := writeFile(t, "a.pdf", data)

	fp1, size1, err := PartialFingerprint(path)
	if err != nil {
		t.Fatalf("PartialFingerprint failed: %v", err)
	}
	fp2, size2, err := PartialFingerprint(path)
	if err != nil {
		t.Fatalf("PartialFingerprint failed on second call: %v", err)
	}

	if fp1 != fp2 {
		t.Errorf("fingerprint not deterministic: %s != %s", fp1, fp2)
	}
	if size1 != int64(len(data)) || size2 != int64(len(data)) {
		t.Errorf("size = %d/%d, want %d", size1, size2, len(data))
	}
	if len(fp1) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(fp1))
	}
}

func TestPartialFingerprintIgnoresMiddleBytes(t *testing.T) {
	t.Parallel()

	// File larger than head + tail windows: a change strictly between
	// them must not affect the fingerprint.
	data := patternData(200 * 1024)
	pathA := writeFile(t, "a.pdf", data)

	modified := append([]byte(nil), data...)
	modified[100*1024] ^= 0xFF
	pathB := writeFile(t, "b.pdf", modified)

	fpA, _, err := PartialFingerprint(pathA)
	if err != nil {
		t.Fatalf("PartialFingerprint(a) failed: %v", err)
	}
	fpB, _, err := PartialFingerprint(pathB)
	if err != nil {
		t.Fatalf("PartialFingerprint(b) failed: %v", err)
	}

	if fpA != fpB {
		t.Errorf("middle-byte change altered fingerprint: %s != %s", fpA, fpB)
	}
}

func TestPartialFingerprintSensitiveToWindows(t *testing.T) {
	t.Parallel()

	data := patternData(200 * 1024)

	tests := []struct {
		name   string
		offset int
	}{
		{"first byte", 0},
		{"inside head window", 60 * 1024},
		{"inside tail window", 200*1024 - 1024},
		{"last byte", 200*1024 - 1},
	}

	base, _, err := PartialFingerprint(writeFile(t, "base.pdf", data))
	if err != nil {
		t.Fatalf("PartialFingerprint(base) failed: %v", err)
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			modified := append([]byte(nil), data...)
			modified[tt.offset] ^= 0xFF
			fp, _, err := PartialFingerprint(writeFile(t, "mod.pdf", modified))
			if err != nil {
				t.Fatalf("PartialFingerprint failed: %v", err)
			}
			if fp == base {
				t.Errorf("change at offset %d did not alter fingerprint", tt.offset)
			}
		})
	}
}

func TestPartialFingerprintSensitiveToSize(t *testing.T) {
	t.Parallel()

	// Two files with identical head bytes but different sizes must not
	// collide, even though the shorter one fits entirely in the window.
	data := patternData(1024)
	fpShort, _, err := PartialFingerprint(writeFile(t, "short.pdf", data))
	if err != nil {
		t.Fatalf("PartialFingerprint(short) failed: %v", err)
	}
	fpLong, _, err := PartialFingerprint(writeFile(t, "long.pdf", append(data, data...)))
	if err != nil {
		t.Fatalf("PartialFingerprint(long) failed: %v", err)
	}
	if fpShort == fpLong {
		t.Error("files of different sizes produced the same fingerprint")
	}
}

func TestPartialFingerprintZeroByteFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "empty.pdf", nil)

	fp, size, err := PartialFingerprint(path)
	if err != nil {
		t.Fatalf("PartialFingerprint on empty file failed: %v", err)
	}
	if size != 0 {
		t.Errorf("size = %d, want 0", size)
	}
	if len(fp) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(fp))
	}

	// Size-only fingerprint is still deterministic.
	fp2, _, err := PartialFingerprint(path)
	if err != nil {
		t.Fatalf("second PartialFingerprint failed: %v", err)
	}
	if fp != fp2 {
		t.Error("empty-file fingerprint not deterministic")
	}
}

func TestPartialFingerprintSmallFileMatchesManual(t *testing.T) {
	t.Parallel()

	// For a file smaller than the window the fingerprint is just
	// sha256(size_le || contents).
	data := []byte("%PDF-1.4 tiny test document")
	path := writeFile(t, "tiny.pdf", data)

	fp, _, err := PartialFingerprint(path)
	if err != nil {
		t.Fatalf("PartialFingerprint failed: %v", err)
	}

	h := sha256.New()
	sizeLE := []byte{byte(len(data)), 0, 0, 0, 0, 0, 0, 0}
	h.Write(sizeLE)
	h.Write(data)
	want := hex.EncodeToString(h.Sum(nil))

	if fp != want {
		t.Errorf("fingerprint = %s, want %s", fp, want)
	}
}

func TestFullHashMatchesSHA256(t *testing.T) {
	t.Parallel()

	data := patternData(300 * 1024)
	path := writeFile(t, "full.pdf", data)

	got, err := FullHash(path)
	if err != nil {
		t.Fatalf("FullHash failed: %v", err)
	}

	sum := sha256.Sum256(data)
	want := hex.EncodeToString(sum[:])

	if got != want {
		t.Errorf("FullHash = %s, want %s", got, want)
	}
}

func TestFullHashSensitiveToEveryByte(t *testing.T) {
	t.Parallel()

	data := patternData(200 * 1024)
	base, err := FullHash(writeFile(t, "base.pdf", data))
	if err != nil {
		t.Fatalf("FullHash(base) failed: %v", err)
	}

	// A change in the middle, invisible to the partial fingerprint,
	// must change the full hash.
	modified := append([]byte(nil), data...)
	modified[100*1024] ^= 0x01
	changed, err := FullHash(writeFile(t, "mod.pdf", modified))
	if err != nil {
		t.Fatalf("FullHash(mod) failed: %v", err)
	}

	if !bytes.Equal(data[:100*1024], modified[:100*1024]) {
		t.Fatal("test setup broken: head windows should match")
	}
	if base == changed {
		t.Error("middle-byte change did not alter full hash")
	}
}

func TestHashMissingFile(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.pdf")

	if _, _, err := PartialFingerprint(missing); err == nil {
		t.Error("PartialFingerprint on missing file should fail")
	}
	if _, err := FullHash(missing); err == nil {
		t.Error("FullHash on missing file should fail")
	}
}
