/*
Package startup handles application startup: configuration from
environment variables, directory validation, and the structured startup
and shutdown logging that frames the service lifecycle.

LoadConfig is the single entry point for configuration. It resolves the
scan directories and cache layout, probes write access where the
application needs it, and downgrades optional features (covers) instead
of failing when their directories are unusable. The Log* helpers keep
main.go readable and the startup output consistent.
*/
package startup
