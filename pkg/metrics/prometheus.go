package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type opStats struct {
	totalCalls         int64
	successfulCalls    int64
	failedCalls        int64
	totalDuration      time.Duration
	lastSuccessfulCall time.Time
	lastFailedCall     time.Time
}

// Prometheus is a thread-safe, in-process Metrics implementation that
// exports counters and average durations in Prometheus text format.
type Prometheus struct {
	mu   sync.RWMutex
	ops  map[string]*opStats
}

// NewPrometheus creates an empty Prometheus metrics recorder.
func NewPrometheus() *Prometheus {
	return &Prometheus{ops: make(map[string]*opStats)}
}

func (p *Prometheus) RecordOperation(op string, duration time.Duration, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.ops[op]
	if !ok {
		s = &opStats{}
		p.ops[op] = s
	}
	s.totalCalls++
	s.totalDuration += duration
	if success {
		s.successfulCalls++
		s.lastSuccessfulCall = time.Now()
	} else {
		s.failedCalls++
		s.lastFailedCall = time.Now()
	}
}

func (p *Prometheus) GetOperation(op string) *OperationStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.ops[op]
	if !ok {
		return nil
	}
	return toOperationStats(op, s)
}

func toOperationStats(op string, s *opStats) *OperationStats {
	out := &OperationStats{
		Op:                 op,
		TotalCalls:         s.totalCalls,
		SuccessfulCalls:    s.successfulCalls,
		FailedCalls:        s.failedCalls,
		LastSuccessfulCall: s.lastSuccessfulCall,
		LastFailedCall:     s.lastFailedCall,
	}
	if s.totalCalls > 0 {
		out.SuccessRate = float64(s.successfulCalls) / float64(s.totalCalls)
		out.AvgDuration = s.totalDuration / time.Duration(s.totalCalls)
	}
	return out
}

// Export renders every recorded operation as Prometheus text exposition
// format, e.g.:
//
//	drxa_operations_total{op="wallet.send",status="success"} 12
//	drxa_operation_duration_seconds_avg{op="wallet.send"} 0.842000
func (p *Prometheus) Export() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ops := make([]string, 0, len(p.ops))
	for op := range p.ops {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	var b strings.Builder
	b.WriteString("# HELP drxa_operations_total Total number of SDK operations\n")
	b.WriteString("# TYPE drxa_operations_total counter\n")
	for _, op := range ops {
		s := p.ops[op]
		fmt.Fprintf(&b, "drxa_operations_total{op=%q,status=\"success\"} %d\n", op, s.successfulCalls)
		fmt.Fprintf(&b, "drxa_operations_total{op=%q,status=\"failure\"} %d\n", op, s.failedCalls)
	}

	b.WriteString("# HELP drxa_operation_duration_seconds_avg Average operation duration\n")
	b.WriteString("# TYPE drxa_operation_duration_seconds_avg gauge\n")
	for _, op := range ops {
		avg := toOperationStats(op, p.ops[op]).AvgDuration
		fmt.Fprintf(&b, "drxa_operation_duration_seconds_avg{op=%q} %f\n", op, avg.Seconds())
	}

	return b.String()
}

func (p *Prometheus) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = make(map[string]*opStats)
}

var _ Metrics = (*Prometheus)(nil)
