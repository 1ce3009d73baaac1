/*
Package middleware provides HTTP middleware for the API server:
request metrics and access logging.

The metrics middleware records request counts and latencies per method
and normalized path; per-document path segments are collapsed so
content hashes never explode metric cardinality. The logging middleware
writes one access log line per request with user-controlled fields
sanitized against log injection.
*/
package middleware
