// Package notifier delivers dip alerts to a human.
package notifier

// Notifier delivers one formatted alert. Delivery failure is logged by the
// caller and never aborts a pass.
type Notifier interface {
	Send(ticker, body string) error
	Name() string
}
