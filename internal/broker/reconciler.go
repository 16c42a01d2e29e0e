package broker

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/himanshuo/buy-the-dip/internal/model"
	"github.com/himanshuo/buy-the-dip/internal/quote"
	"github.com/himanshuo/buy-the-dip/internal/recorder"
)

// protectiveSellMarkup places the protective limit 4% above the higher of
// cost basis and live price.
const protectiveSellMarkup = 1.04

// Brokerage is the subset of brokerage operations the reconciler needs.
type Brokerage interface {
	Positions() ([]model.Position, error)
	OpenOrders() ([]model.OpenOrder, error)
	PlaceOrder(intent model.OrderIntent) error
}

// Reconciler compares current positions to current open orders and issues at
// most one corrective order per ticker per run.
type Reconciler struct {
	Broker   Brokerage
	Quotes   quote.Fetcher
	Recorder recorder.Recorder
}

// NewReconciler creates a Reconciler.
func NewReconciler(b Brokerage, quotes quote.Fetcher, rec recorder.Recorder) *Reconciler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Reconciler{Broker: b, Quotes: quotes, Recorder: rec}
}

// EnsureProtectiveSells places one protective limit-sell per position whose
// ticker has no open order yet. Re-running with unchanged state is a no-op:
// the open-order lookup guarantees at most one open order per position.
// A rate-limited quote provider aborts the remaining run.
func (r *Reconciler) EnsureProtectiveSells() error {
	positions, err := r.Broker.Positions()
	if err != nil {
		return fmt.Errorf("reconcile sells: %w", err)
	}
	openOrders, err := r.Broker.OpenOrders()
	if err != nil {
		return fmt.Errorf("reconcile sells: %w", err)
	}

	covered := make(map[string]bool, len(openOrders))
	for _, o := range openOrders {
		covered[o.Symbol] = true
	}

	for _, pos := range positions {
		if covered[pos.Symbol] {
			log.Printf("[INFO] %s already has an open order, skipping", pos.Symbol)
			continue
		}

		qty := int(math.Floor(pos.Quantity))
		if qty == 0 {
			log.Printf("[INFO] %s holds only fractional shares, skipping", pos.Symbol)
			continue
		}

		snap, err := r.Quotes.FetchSnapshot(pos.Symbol)
		if err != nil {
			if errors.Is(err, quote.ErrRateLimited) {
				return fmt.Errorf("fetch live price for %s: %w", pos.Symbol, err)
			}
			log.Printf("[WARN] fetch live price for %s failed, skipping: %v", pos.Symbol, err)
			continue
		}

		base := pos.AverageCost
		if snap.CurrentPrice > base {
			base = snap.CurrentPrice
		}
		intent := model.OrderIntent{
			Symbol:     pos.Symbol,
			Side:       model.SideSell,
			Quantity:   qty,
			LimitPrice: round2(base * protectiveSellMarkup),
		}
		r.submit(intent)
	}
	return nil
}

// PlaceBuyOrders submits a limit-buy at the live price for each intent.
// Intents with quantity 0 are skipped without a brokerage call.
func (r *Reconciler) PlaceBuyOrders(intents []model.OrderIntent) error {
	for _, intent := range intents {
		if intent.Quantity == 0 {
			log.Printf("[INFO] skipping BUY for %s: quantity is 0", intent.Symbol)
			continue
		}

		snap, err := r.Quotes.FetchSnapshot(intent.Symbol)
		if err != nil {
			if errors.Is(err, quote.ErrRateLimited) {
				return fmt.Errorf("fetch live price for %s: %w", intent.Symbol, err)
			}
			log.Printf("[WARN] fetch live price for %s failed, skipping buy: %v", intent.Symbol, err)
			continue
		}

		intent.Side = model.SideBuy
		intent.LimitPrice = round2(snap.CurrentPrice)
		r.submit(intent)
	}
	return nil
}

// submit places one order, logging and recording the outcome. Failures never
// abort the remaining batch.
func (r *Reconciler) submit(intent model.OrderIntent) {
	err := r.Broker.PlaceOrder(intent)
	rec := &recorder.OrderRecord{
		Symbol:     intent.Symbol,
		Side:       string(intent.Side),
		Quantity:   intent.Quantity,
		LimitPrice: intent.LimitPrice,
		Accepted:   err == nil,
	}
	if err != nil {
		rec.Note = err.Error()
		log.Printf("[ERROR] place %s %s x%d @ %.2f: %v", intent.Side, intent.Symbol, intent.Quantity, intent.LimitPrice, err)
	} else {
		log.Printf("[INFO] placed %s %s x%d @ %.2f", intent.Side, intent.Symbol, intent.Quantity, intent.LimitPrice)
	}
	if recErr := r.Recorder.RecordOrder(rec); recErr != nil {
		log.Printf("[ERROR] record order: %v", recErr)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
