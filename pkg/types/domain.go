package types

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Model name served by this process.
	// example: resnet
	Model string `json:"model"`
	// Handler entry point.
	// example: echo
	Handler string `json:"handler"`
	// Lifecycle phase of the handler (uninitialized, ready, ...).
	// example: ready
	State       string `json:"state"`
	Initialized bool   `json:"initialized"`
	// example: 4
	BatchSize int `json:"batch_size"`
	// Error raised by the most recent batch, if any.
	LastError string `json:"last_error,omitempty"`
	// Most recent stage timings in milliseconds keyed by metric name.
	LastTimingsMS map[string]float64 `json:"last_timings_ms,omitempty"`
	// Current queue length for incoming batches.
	QueueLen int `json:"queue_len"`
	// Number of batches currently being handled (0 or 1).
	Inflight int `json:"inflight"`
	// example: 32
	MaxQueueDepth int    `json:"max_queue_depth"`
	BatchesTotal  uint64 `json:"batches_total"`
	FailuresTotal uint64 `json:"failures_total"`
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds"`
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix"`
}
