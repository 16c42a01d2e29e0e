package model

import "time"

// StockSnapshot is a single fetch of a ticker's intraday state.
// It is built fresh on every screening pass and never mutated.
type StockSnapshot struct {
	Symbol        string
	DisplayName   string
	CurrentPrice  float64
	Open          float64
	PreviousClose float64
	DayHigh       float64
	PriorDayLow   float64
	LongTermSlope float64 // normalized trend over a multi-month daily window
	IsBenchmark   bool    // benchmark-class instrument (ETF vs single name)
	FetchedAt     time.Time
}

// MarketContext carries the benchmark's own intraday move, computed once
// per screening pass and read-only thereafter.
type MarketContext struct {
	BenchmarkSymbol string
	// Change is (current - open) / open for the benchmark.
	Change float64
}

// DipSignal is a ticker that passed every screening filter.
type DipSignal struct {
	Symbol   string
	Snapshot *StockSnapshot
}
