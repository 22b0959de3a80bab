package metrics

// DefaultBuckets are the latency histogram boundaries, in seconds, used by
// the supervisor's HTTP instrumentation. They span sub-millisecond mux hits
// up to slow proxied daemon calls.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals
