package types

// ------------------------
// Monitor service
// ------------------------

// MonitorConfig is supplied on topic config/monitor. Zero fields keep the
// current value.
type MonitorConfig struct {
	IntervalMs uint32 `json:"interval_ms"`
	Channels   []int  `json:"channels,omitempty"`
	RefMilliV  int32  `json:"ref_mV,omitempty"`
	Oversample int    `json:"oversample,omitempty"` // conversions per sample, averaged
}

// Link of the monitored board.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

// MonitorStatus is retained on monitor/status.
type MonitorStatus struct {
	Link   Link   `json:"link"`
	Cycles uint32 `json:"cycles"`
	TS     int64  `json:"ts_ns"`
	Error  string `json:"error,omitempty"` // machine-readable short code
}
