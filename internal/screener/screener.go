package screener

import (
	"errors"
	"fmt"
	"log"

	"github.com/himanshuo/buy-the-dip/internal/model"
	"github.com/himanshuo/buy-the-dip/internal/quote"
)

const (
	// rapidGrowthFactor disqualifies tickers that ran up hard off the prior
	// day's low: a big run-up today is not a dip.
	rapidGrowthFactor = 1.07

	// Base dip thresholds before the market adjustment. Benchmark-class
	// instruments (ETFs) move less, so they get a tighter bar.
	baseThresholdETF   = 0.01
	baseThresholdStock = 0.03
)

// ExclusionReason says which filter removed a ticker from the pass.
type ExclusionReason string

const (
	ReasonRapidGrowth ExclusionReason = "RAPID_GROWTH"
	ReasonDowntrend   ExclusionReason = "DOWNTREND"
	ReasonNoDip       ExclusionReason = "NO_DIP"
	ReasonNone        ExclusionReason = ""
)

// Screener runs the per-ticker dip filters against live snapshots.
type Screener struct {
	Fetcher quote.Fetcher
}

// New creates a Screener.
func New(fetcher quote.Fetcher) *Screener {
	return &Screener{Fetcher: fetcher}
}

// MarketContext fetches the benchmark and derives its intraday change. A
// benchmark fetch failure is fatal to the pass: without it no threshold is valid.
func (s *Screener) MarketContext(benchmark string) (*model.MarketContext, error) {
	snap, err := s.Fetcher.FetchSnapshot(benchmark)
	if err != nil {
		return nil, fmt.Errorf("fetch benchmark %s: %w", benchmark, err)
	}
	if snap.Open == 0 {
		return nil, fmt.Errorf("benchmark %s: zero open price", benchmark)
	}
	return &model.MarketContext{
		BenchmarkSymbol: benchmark,
		Change:          (snap.CurrentPrice - snap.Open) / snap.Open,
	}, nil
}

// Screen fetches every watch-list ticker and returns the ones that pass all
// filters, in watch-list order. A fetch failure for a single ticker is logged
// and skipped; a rate-limit failure aborts the remaining pass.
func (s *Screener) Screen(watchlist []string, benchmark string) ([]model.DipSignal, error) {
	mkt, err := s.MarketContext(benchmark)
	if err != nil {
		return nil, err
	}
	return s.ScreenWith(mkt, watchlist)
}

// ScreenWith runs the per-ticker filters against an already-computed market
// context.
func (s *Screener) ScreenWith(mkt *model.MarketContext, watchlist []string) ([]model.DipSignal, error) {
	log.Printf("[INFO] market context: %s %+.2f%%", mkt.BenchmarkSymbol, mkt.Change*100)

	var signals []model.DipSignal
	for _, symbol := range watchlist {
		snap, err := s.Fetcher.FetchSnapshot(symbol)
		if err != nil {
			if errors.Is(err, quote.ErrRateLimited) {
				return signals, fmt.Errorf("fetch %s: %w", symbol, err)
			}
			log.Printf("[WARN] fetch %s failed, skipping: %v", symbol, err)
			continue
		}

		if reason := Evaluate(snap, mkt); reason != ReasonNone {
			log.Printf("[INFO] %s excluded: %s (current=%.2f)", symbol, reason, snap.CurrentPrice)
			continue
		}

		log.Printf("[INFO] %s dip detected (current=%.2f, open=%.2f, high=%.2f)",
			symbol, snap.CurrentPrice, snap.Open, snap.DayHigh)
		signals = append(signals, model.DipSignal{Symbol: symbol, Snapshot: snap})
	}
	return signals, nil
}

// Evaluate applies the filters in fixed order and returns the first exclusion
// reason, or ReasonNone when the ticker qualifies as a dip candidate.
func Evaluate(snap *model.StockSnapshot, mkt *model.MarketContext) ExclusionReason {
	// Rapid-growth guard: already well above the prior day's low.
	if snap.CurrentPrice > snap.PriorDayLow*rapidGrowthFactor {
		return ReasonRapidGrowth
	}

	// Downward-trend guard: structurally declining instruments are not
	// buy-the-dip candidates.
	if snap.LongTermSlope < 0 {
		return ReasonDowntrend
	}

	if !dipTriggered(snap, mkt) {
		return ReasonNoDip
	}
	return ReasonNone
}

// dipTriggered runs the market-relative dip test. A falling market raises the
// bar so only relative underperformance triggers; a rising market lowers it.
func dipTriggered(snap *model.StockSnapshot, mkt *model.MarketContext) bool {
	base := baseThresholdStock
	if snap.IsBenchmark {
		base = baseThresholdETF
	}
	effective := base - mkt.Change

	reference := snap.Open
	if snap.PreviousClose > reference {
		reference = snap.PreviousClose
	}
	if snap.DayHigh > reference {
		reference = snap.DayHigh
	}
	return reference*(1-effective) > snap.CurrentPrice
}
