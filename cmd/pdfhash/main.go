// Command pdfhash prints the content fingerprints used by the indexer.
//
// For each file argument it computes the partial fingerprint (size plus
// head and tail windows) and the full content hash, in the same form
// the scan pipeline stores them. Useful for checking whether two files
// would be treated as duplicates without running a scan.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"pdfshelf/internal/hasher"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	exitCode := 0
	for _, path := range os.Args[1:] {
		if err := printHashes(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func printHashes(path string) error {
	partial, size, err := hasher.PartialFingerprint(path)
	if err != nil {
		return err
	}
	full, err := hasher.FullHash(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", filepath.Clean(path))
	fmt.Printf("  size:        %d\n", size)
	fmt.Printf("  fingerprint: %s\n", partial)
	fmt.Printf("  full hash:   %s\n", full)
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: pdfhash <file> [<file>...]

Prints the partial fingerprint and full content hash for each file,
matching the values the indexer stores in its metadata cache.
`)
}
