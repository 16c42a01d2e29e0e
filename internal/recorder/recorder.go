package recorder

import "time"

// PassRecord summarizes one screening pass for the audit trail.
type PassRecord struct {
	Benchmark    string
	MarketChange float64
	Screened     int
	Alerted      int
	Notified     int
	Skipped      int
	Duration     time.Duration
}

// OrderRecord records one order submission attempt.
type OrderRecord struct {
	Symbol     string
	Side       string
	Quantity   int
	LimitPrice float64
	Accepted   bool
	Note       string
}

// Recorder persists run history for auditing.
type Recorder interface {
	RecordPass(rec *PassRecord) error
	RecordOrder(rec *OrderRecord) error
	Close() error
}
