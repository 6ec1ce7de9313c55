package metrics

import "time"

// NoOp discards everything recorded. It is the default Metrics
// implementation when an SDK instance is built without an explicit one.
type NoOp struct{}

func (NoOp) RecordOperation(op string, duration time.Duration, success bool) {}
func (NoOp) GetOperation(op string) *OperationStats                          { return nil }
func (NoOp) Export() string                                                  { return "" }
func (NoOp) Reset()                                                          {}

var _ Metrics = NoOp{}
