/*
Package metrics declares the Prometheus collectors for the PDF shelf
service.

Metrics cover the four stages that matter operationally:

  - scanning (runs, duration, files found, per-stage errors)
  - the two-tier dedup cache (partial vs. verified hits, misses,
    duplicates, hash timings)
  - extraction and cover rendering
  - the metadata store (query counts, durations, open connections)

All collectors are registered with the default registry via promauto.
Expose them by mounting promhttp.Handler() on /metrics:

	import "github.com/prometheus/client_golang/prometheus/promhttp"

	r.Handle("/metrics", promhttp.Handler())

To record metrics from other packages, import this package and use the
exported variables directly:

	metrics.CacheHits.WithLabelValues("partial").Inc()
	metrics.HashDuration.WithLabelValues("full").Observe(elapsed.Seconds())
*/
package metrics
