// Package metrics records per-operation counters and latencies for the
// wallet facade and chain adapters, exported in a Prometheus-compatible
// text format.
package metrics

import "time"

// Metrics is the interface the wallet facade and adapters record against.
// RecordOperation is generic over an op name ("wallet.send",
// "wallet.balance", "adapter.rpc_call", ...) rather than one method per
// operation, since SPEC_FULL's operation set is considerably larger than
// the teacher's fixed Build/Sign/Broadcast triad.
type Metrics interface {
	RecordOperation(op string, duration time.Duration, success bool)
	GetOperation(op string) *OperationStats
	Export() string
	Reset()
}

// OperationStats is the aggregated view of one operation's recorded calls.
type OperationStats struct {
	Op                 string
	TotalCalls         int64
	SuccessfulCalls    int64
	FailedCalls        int64
	SuccessRate        float64
	AvgDuration        time.Duration
	LastSuccessfulCall time.Time
	LastFailedCall     time.Time
}
