// Package progress provides the event primitives, non-blocking hub, and emitter
// interfaces the crawl engine uses to report run milestones. It batches events
// on a background goroutine and fans them out to pluggable sinks such as
// structured logs or Prometheus metrics.
package progress
