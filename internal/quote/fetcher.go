package quote

import (
	"errors"

	"github.com/himanshuo/buy-the-dip/internal/model"
)

// ErrRateLimited marks a provider throttling response. Unlike ordinary fetch
// failures it must abort the remainder of a screening pass.
var ErrRateLimited = errors.New("quote: rate limited")

// ErrUnavailable marks a recoverable fetch failure for a single ticker.
var ErrUnavailable = errors.New("quote: data unavailable")

// Fetcher defines the interface for fetching market snapshots.
type Fetcher interface {
	FetchSnapshot(symbol string) (*model.StockSnapshot, error)
	Name() string
}
