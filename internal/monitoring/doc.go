// Package monitoring provides Prometheus metrics for pause invocations.
//
// Metrics live on a private registry rather than the global default, so a
// host embedding several provider stacks (or a test binary) can create as
// many collectors as it needs without duplicate-registration panics.
//
// Exposed Metrics:
//   - pausekit_pauses_total{outcome}: invocation count by terminal outcome
//   - pausekit_pause_duration_seconds: invocation duration histogram
//   - pausekit_pauses_active: gauge of invocations waiting on input
package monitoring
