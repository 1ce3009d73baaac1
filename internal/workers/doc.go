/*
Package workers provides utilities for determining worker pool sizes
in containerized environments.

While Go 1.19+ automatically sets GOMAXPROCS based on container CPU
limits, runtime.NumCPU() still returns the host machine's CPU count.
The helpers here size pools from GOMAXPROCS instead, so a pod limited
to 2 cores on a 64-core node spawns 2 hashing workers, not 64.

Scanning and extraction mix file I/O (reading 64KB hash windows,
SQLite writes) with CPU work (SHA-256, page rasterization), so the
coordinator uses ForMixed. All functions respect the SCAN_WORKERS
environment variable as a manual override.
*/
package workers
