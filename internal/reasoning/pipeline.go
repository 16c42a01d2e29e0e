package reasoning

import (
	"context"
	"fmt"
	"log"

	"github.com/himanshuo/buy-the-dip/internal/model"
)

const (
	rationalePrompt = `Why was there a drop in stock price for %s (%s) in the past two days? ` +
		`Please consult financial news sources, analyst reports, and SEC filings related to %s ` +
		`for the past two days to figure out why it dropped.`

	confirmationPrompt = `Here is an analysis of recent movement in %s's stock price:

%s

Based on this analysis, conclude whether a real drop in %s's stock price actually occurred. ` +
		`End your answer with the single word "yes" or "no".`

	horizonPrompt = `Here is an analysis of a recent drop in %s's stock price:

%s

Is the cause of this drop long-term, medium-term, or short-term? ` +
		`End your answer with exactly one of the words "long", "medium", or "short".`
)

// Pipeline runs the three-question protocol for one dip candidate.
type Pipeline struct {
	Reasoner Reasoner
}

// NewPipeline creates a Pipeline.
func NewPipeline(r Reasoner) *Pipeline {
	return &Pipeline{Reasoner: r}
}

// Evaluate drives the three sequential reasoning calls for a signal and
// returns the resulting verdict. A verdict that is not Actionable terminates
// processing for the ticker; a query error skips the ticker without touching
// the rest of the pass.
func (p *Pipeline) Evaluate(ctx context.Context, sig model.DipSignal) (*model.Verdict, error) {
	snap := sig.Snapshot

	rationale, err := p.Reasoner.Query(ctx, fmt.Sprintf(rationalePrompt, sig.Symbol, snap.DisplayName, snap.DisplayName))
	if err != nil {
		return nil, fmt.Errorf("rationale query for %s: %w", sig.Symbol, err)
	}
	verdict := &model.Verdict{Rationale: rationale}

	confirmResp, err := p.Reasoner.Query(ctx, fmt.Sprintf(confirmationPrompt, snap.DisplayName, rationale, snap.DisplayName))
	if err != nil {
		return nil, fmt.Errorf("confirmation query for %s: %w", sig.Symbol, err)
	}
	outcome := ParseConfirmation(confirmResp)
	verdict.IsConfirmedDrop = outcome == OutcomeYes
	log.Printf("[INFO] %s confirmation: %s", sig.Symbol, outcome)

	// An unconfirmed drop terminates processing; the horizon question is
	// never asked for it.
	if !verdict.IsConfirmedDrop {
		return verdict, nil
	}

	horizonResp, err := p.Reasoner.Query(ctx, fmt.Sprintf(horizonPrompt, snap.DisplayName, rationale))
	if err != nil {
		return nil, fmt.Errorf("horizon query for %s: %w", sig.Symbol, err)
	}
	verdict.IsLongTerm = ParseHorizonLong(horizonResp)
	log.Printf("[INFO] %s long-term cause: %v", sig.Symbol, verdict.IsLongTerm)

	return verdict, nil
}
