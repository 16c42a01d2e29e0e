package reasoning

import "strings"

// Outcome is the closed set of results from parsing a yes/no response.
type Outcome int

const (
	OutcomeAmbiguous Outcome = iota
	OutcomeYes
	OutcomeNo
)

func (o Outcome) String() string {
	switch o {
	case OutcomeYes:
		return "yes"
	case OutcomeNo:
		return "no"
	default:
		return "ambiguous"
	}
}

// trailingToken takes the last n bytes of a response, lower-cases them, and
// strips surrounding whitespace and trailing periods. The result is compared
// exactly, never by substring: "yes please" must not read as "yes".
func trailingToken(resp string, n int) string {
	if len(resp) > n {
		resp = resp[len(resp)-n:]
	}
	s := strings.ToLower(resp)
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".")
	return strings.TrimSpace(s)
}

// ParseConfirmation reads the trailing 4 characters of a confirmation answer.
// Anything that is not exactly "yes" or "no" after normalization is Ambiguous;
// callers treat Ambiguous as "no" so unclear output never triggers an action.
func ParseConfirmation(resp string) Outcome {
	switch trailingToken(resp, 4) {
	case "yes":
		return OutcomeYes
	case "no":
		return OutcomeNo
	default:
		return OutcomeAmbiguous
	}
}

// ParseHorizonLong reads the trailing 5 characters of a horizon answer and
// reports whether the cause is long-term. Only an exact "long" counts;
// "medium", "short", or anything unparseable is not long-term.
func ParseHorizonLong(resp string) bool {
	return trailingToken(resp, 5) == "long"
}
