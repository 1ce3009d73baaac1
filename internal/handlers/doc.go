/*
Package handlers implements the HTTP API.

Library routes under /api expose the indexed records, cover
thumbnails, and scan control; operational routes (/healthz, /livez,
/readyz, /version, /metrics) serve probes and observability. Handlers
read through the store and the indexer's status snapshot and never
touch scan internals.
*/
package handlers
