package calculator

import (
	"errors"

	"github.com/himanshuo/buy-the-dip/internal/model"
)

// CalculateTrendSlope fits a least-squares line through the daily closes and
// returns its slope normalized by the mean close, so instruments at different
// price levels are comparable. A positive value means a rising long-term trend.
func CalculateTrendSlope(bars []model.OHLCV) (float64, error) {
	if len(bars) < 2 {
		return 0, errors.New("not enough data for trend slope")
	}

	n := float64(len(bars))
	var sumX, sumY, sumXY, sumXX float64
	for i, b := range bars {
		x := float64(i)
		sumX += x
		sumY += b.Close
		sumXY += x * b.Close
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, errors.New("degenerate series for trend slope")
	}
	slope := (n*sumXY - sumX*sumY) / denom

	mean := sumY / n
	if mean == 0 {
		return 0, errors.New("zero mean price for trend slope")
	}
	return slope / mean, nil
}
