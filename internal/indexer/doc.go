/*
Package indexer discovers and indexes PDF files.

A scan has three phases. The Scanner walks every configured root with a
bounded fork-join parallel walk, collecting .pdf paths and tolerating
unreadable directories. The combined path list is sorted so every run
processes files in the same order. A worker pool then runs each path
through the Pipeline, which resolves it against the content-hash cache
in the store and only parses, renders, and upserts files whose content
has not been seen before.

The Indexer ties the phases together, guards against overlapping scans,
optionally re-scans on an interval, and folds the progress stream into
a status snapshot that handlers can serve without touching scan
internals.
*/
package indexer
