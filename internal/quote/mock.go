package quote

import (
	"fmt"

	"github.com/himanshuo/buy-the-dip/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Snapshots map[string]*model.StockSnapshot
	Errors    map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSnapshot(symbol string) (*model.StockSnapshot, error) {
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if s, ok := m.Snapshots[symbol]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("mock: no snapshot for %s: %w", symbol, ErrUnavailable)
}
