package model

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// Position is a brokerage-reported holding.
type Position struct {
	Symbol      string
	Quantity    float64
	AverageCost float64
}

// OpenOrder is a brokerage-reported pending order.
type OpenOrder struct {
	Symbol string
	Status string // WORKING or PENDING_ACTIVATION
	Side   OrderSide
}

// OrderIntent is a desired order computed by the reconciler.
type OrderIntent struct {
	Symbol     string
	Side       OrderSide
	Quantity   int
	LimitPrice float64
}
