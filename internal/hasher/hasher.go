package hasher

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"pdfshelf/internal/metrics"
)

const (
	// windowSize is the number of bytes hashed from each end of the file
	// for the partial fingerprint.
	windowSize = 65536

	// chunkSize is the read size used when streaming a full hash.
	chunkSize = 65536
)

// PartialFingerprint computes a cheap fingerprint of the file at path:
// SHA-256 over the 8-byte little-endian file size, the first 64KB, and
// (for files larger than 64KB) the last 64KB. The cost is O(128KB)
// regardless of file size. The fingerprint is a pre-filter for the
// dedup cache, not a uniqueness guarantee; only a full hash proves
// identity.
//
// A zero-byte file is valid and fingerprints from its size alone.
func PartialFingerprint(path string) (string, int64, error) {
	start := time.Now()
	defer func() {
		metrics.HashDuration.WithLabelValues("partial").Observe(time.Since(start).Seconds())
	}()

	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	size := info.Size()

	h := sha256.New()

	// File size first: it is the strongest cheap discriminator.
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(size))
	h.Write(sizeBuf[:])

	buf := make([]byte, windowSize)

	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", 0, fmt.Errorf("failed to read head of %s: %w", path, err)
	}
	h.Write(buf[:n])

	if size > windowSize {
		if _, err := f.Seek(-windowSize, io.SeekEnd); err != nil {
			return "", 0, fmt.Errorf("failed to seek tail of %s: %w", path, err)
		}
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return "", 0, fmt.Errorf("failed to read tail of %s: %w", path, err)
		}
		h.Write(buf[:n])
	}

	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// FullHash streams the entire file at path through SHA-256 in 64KB
// chunks and returns the hex-encoded digest. This is the true identity
// key for a piece of content; compute it only when the fingerprint
// pre-filter is ambiguous or on a cache miss.
func FullHash(path string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.HashDuration.WithLabelValues("full").Observe(time.Since(start).Seconds())
	}()

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)

	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
