package generation

import "errors"

var (
	ErrQueueDisabled   = errors.New("regeneration queue is not configured")
	ErrLedgerDisabled  = errors.New("run ledger is not configured")
	ErrUnknownCategory = errors.New("unknown category")
)
