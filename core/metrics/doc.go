// Package metrics defines the sink interface lifecycle metrics are recorded
// through. Implementations register themselves by name and are selected by
// the metrics.sinks configuration list.
package metrics
