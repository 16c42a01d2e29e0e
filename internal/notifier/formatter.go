package notifier

import (
	"fmt"
	"strings"

	"github.com/himanshuo/buy-the-dip/internal/model"
)

// FormatAlert builds the alert body for one actionable dip.
func FormatAlert(sig model.DipSignal, verdict *model.Verdict) string {
	snap := sig.Snapshot
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s (%s)\n\n", sig.Symbol, snap.DisplayName))

	b.WriteString("Price Details:\n")
	b.WriteString(fmt.Sprintf("- Current Price: $%.2f\n", snap.CurrentPrice))
	b.WriteString(fmt.Sprintf("- Price at Open: %s\n", diffLine(snap.CurrentPrice, snap.Open)))
	b.WriteString(fmt.Sprintf("- Previous Close: %s\n", diffLine(snap.CurrentPrice, snap.PreviousClose)))
	b.WriteString(fmt.Sprintf("- Day's High: %s\n", diffLine(snap.CurrentPrice, snap.DayHigh)))

	b.WriteString("\nAnalysis:\n")
	b.WriteString(verdict.Rationale)

	b.WriteString("\n\nRegards,\nYour Buy-The-Dip Bot\n")
	return b.String()
}

// diffLine renders a reference price with the current price's percent
// distance from it. A zero reference has no meaningful distance.
func diffLine(current, other float64) string {
	if other == 0 {
		return fmt.Sprintf("$%.2f", other)
	}
	pct := (current - other) / other * 100
	return fmt.Sprintf("$%.2f (current price is %.2f%%)", other, pct)
}
