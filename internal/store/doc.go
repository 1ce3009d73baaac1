/*
Package store persists extracted PDF metadata in SQLite.

One table, keyed by the full content hash, with secondary indexes on
(partial_hash, file_size) and on path. The (partial_hash, file_size)
index backs the scanner's cheap dedup pre-filter; the path index backs
API lookups. A last_seen column is maintained on every upsert for
future eviction but is not part of the logical record and is never
exposed to callers.

Initialization is idempotent (CREATE TABLE IF NOT EXISTS) and the
database runs in WAL mode with a busy timeout so concurrent extraction
workers can upsert without external locking.
*/
package store
