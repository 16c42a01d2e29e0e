package notifier

import (
	"strings"
	"testing"

	"github.com/himanshuo/buy-the-dip/internal/model"
)

func TestFormatAlert(t *testing.T) {
	sig := model.DipSignal{
		Symbol: "NFLX",
		Snapshot: &model.StockSnapshot{
			Symbol:        "NFLX",
			DisplayName:   "Netflix",
			CurrentPrice:  95.50,
			Open:          100,
			PreviousClose: 99,
			DayHigh:       101,
		},
	}
	verdict := &model.Verdict{
		Rationale:       "The drop followed a subscriber miss.",
		IsConfirmedDrop: true,
	}

	body := FormatAlert(sig, verdict)

	for _, want := range []string{
		"NFLX (Netflix)",
		"- Current Price: $95.50",
		"- Price at Open: $100.00 (current price is -4.50%)",
		"- Previous Close: $99.00 (current price is -3.54%)",
		"- Day's High: $101.00 (current price is -5.45%)",
		"The drop followed a subscriber miss.",
		"Your Buy-The-Dip Bot",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestFormatAlert_ZeroReferencePrice(t *testing.T) {
	sig := model.DipSignal{
		Symbol: "NFLX",
		Snapshot: &model.StockSnapshot{
			Symbol:       "NFLX",
			DisplayName:  "Netflix",
			CurrentPrice: 95.50,
			Open:         100,
			DayHigh:      101,
			// PreviousClose missing from the provider response.
		},
	}
	verdict := &model.Verdict{Rationale: "analysis"}

	body := FormatAlert(sig, verdict)
	if strings.Contains(body, "Inf") || strings.Contains(body, "NaN") {
		t.Errorf("zero reference leaked a non-finite percent:\n%s", body)
	}
	if !strings.Contains(body, "- Previous Close: $0.00\n") {
		t.Errorf("zero reference should render without a percent:\n%s", body)
	}
}
