// Package eventbus is the typed publish/subscribe layer the wallet facade
// and subscription engine use to fan transaction, block, error, and status
// events out to caller-registered handlers.
package eventbus

import (
	"time"

	"github.com/drxa/sdk/pkg/config"
)

// Event is the sum type every published value implements. It mirrors the
// TypeScript discriminated union with one concrete struct per kind rather
// than a shared envelope, so handlers can type-switch exhaustively.
type Event interface {
	isEvent()
	EventChain() config.ChainTag
	EventTime() time.Time
}

// TransactionEvent reports an observed or submitted transaction.
type TransactionEvent struct {
	Chain     config.ChainTag
	TxHash    string
	Address   string
	Direction string // "incoming" or "outgoing"
	Time      time.Time
}

func (TransactionEvent) isEvent()                         {}
func (e TransactionEvent) EventChain() config.ChainTag     { return e.Chain }
func (e TransactionEvent) EventTime() time.Time            { return e.Time }

// BlockEvent reports a new block observed by a subscription loop.
type BlockEvent struct {
	Chain       config.ChainTag
	BlockNumber uint64
	Time        time.Time
}

func (BlockEvent) isEvent()                      {}
func (e BlockEvent) EventChain() config.ChainTag { return e.Chain }
func (e BlockEvent) EventTime() time.Time        { return e.Time }

// ErrorEvent reports an adapter or subscription-loop error that callers
// should be able to observe without it interrupting wallet operations.
type ErrorEvent struct {
	Chain   config.ChainTag
	Err     error
	Source  string
	Time    time.Time
}

func (ErrorEvent) isEvent()                      {}
func (e ErrorEvent) EventChain() config.ChainTag { return e.Chain }
func (e ErrorEvent) EventTime() time.Time        { return e.Time }

// StatusEvent reports a lifecycle change, e.g. an adapter finishing
// initialization or a subscription starting/stopping.
type StatusEvent struct {
	Chain   config.ChainTag
	Status  string
	Detail  string
	Time    time.Time
}

func (StatusEvent) isEvent()                      {}
func (e StatusEvent) EventChain() config.ChainTag { return e.Chain }
func (e StatusEvent) EventTime() time.Time        { return e.Time }
