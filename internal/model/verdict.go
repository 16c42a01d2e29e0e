package model

// Verdict is the outcome of the three-question reasoning protocol for one
// dip candidate. Rationale comes first; both booleans are derived from
// follow-up queries keyed on the rationale text.
type Verdict struct {
	Rationale       string
	IsConfirmedDrop bool
	IsLongTerm      bool
}

// Actionable reports whether the verdict should reach the notifier / order
// path: a confirmed drop whose cause is not structural.
func (v *Verdict) Actionable() bool {
	return v.IsConfirmedDrop && !v.IsLongTerm
}
