// Package hasher computes the two content hashes used by the dedup
// cache: a cheap partial fingerprint (file size + first/last 64KB) and
// a full streaming SHA-256 of the whole file.
//
// Full-file hashing of large PDFs is prohibitively slow when scanning
// thousands of files; size plus head and tail windows is an excellent
// discriminator in practice, so the full hash is reserved for true
// fingerprint collisions and cache misses.
package hasher
