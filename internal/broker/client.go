package broker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/himanshuo/buy-the-dip/internal/model"
)

// ErrOrderRejected marks a rejected or failed order submission. It is logged
// with the response body and never aborts the remaining batch.
var ErrOrderRejected = errors.New("broker: order rejected")

// openOrderStatuses are the pending states that count as "open" when
// reconciling: an order in either state already protects its ticker.
var openOrderStatuses = []string{"WORKING", "PENDING_ACTIVATION"}

// Client issues authenticated brokerage REST calls through a Session.
type Client struct {
	Session *Session
	client  *http.Client
}

// NewClient creates a Client bound to an authenticated session.
func NewClient(session *Session) *Client {
	return &Client{
		Session: session,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(url string, out interface{}) error {
	if !c.Session.Authenticated() {
		return ErrAuthFailed
	}
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return err
	}
	c.Session.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("brokerage request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("brokerage read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("brokerage: status %d, body: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

// Positions fetches the account's current holdings.
func (c *Client) Positions() ([]model.Position, error) {
	var payload struct {
		SecuritiesAccount struct {
			Positions []struct {
				AveragePrice float64 `json:"averagePrice"`
				LongQuantity float64 `json:"longQuantity"`
				Instrument   struct {
					Symbol string `json:"symbol"`
				} `json:"instrument"`
			} `json:"positions"`
		} `json:"securitiesAccount"`
	}
	url := fmt.Sprintf("%s/trader/v1/accounts/%s?fields=positions", c.Session.BaseURL, c.Session.AccountHash())
	if err := c.get(url, &payload); err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}

	positions := make([]model.Position, 0, len(payload.SecuritiesAccount.Positions))
	for _, p := range payload.SecuritiesAccount.Positions {
		positions = append(positions, model.Position{
			Symbol:      p.Instrument.Symbol,
			Quantity:    p.LongQuantity,
			AverageCost: p.AveragePrice,
		})
	}
	return positions, nil
}

// brokerOrder is the order shape shared by retrieval and submission.
type brokerOrder struct {
	Status             string `json:"status,omitempty"`
	OrderLegCollection []struct {
		Instruction string `json:"instruction"`
		Instrument  struct {
			Symbol string `json:"symbol"`
		} `json:"instrument"`
	} `json:"orderLegCollection"`
}

// OpenOrders fetches pending orders, merging the WORKING and
// PENDING_ACTIVATION status sets into one open-order list.
func (c *Client) OpenOrders() ([]model.OpenOrder, error) {
	var open []model.OpenOrder
	for _, status := range openOrderStatuses {
		orders, err := c.fetchOrders(status)
		if err != nil {
			return nil, fmt.Errorf("fetch %s orders: %w", status, err)
		}
		open = append(open, orders...)
	}
	return open, nil
}

func (c *Client) fetchOrders(status string) ([]model.OpenOrder, error) {
	from := time.Now().AddDate(0, -3, 0).UTC().Format("2006-01-02T15:04:05.000Z")
	to := time.Now().Add(24 * time.Hour).UTC().Format("2006-01-02T15:04:05.000Z")
	url := fmt.Sprintf("%s/trader/v1/accounts/%s/orders?fromEnteredTime=%s&toEnteredTime=%s&status=%s",
		c.Session.BaseURL, c.Session.AccountHash(), from, to, status)

	var raw []brokerOrder
	if err := c.get(url, &raw); err != nil {
		return nil, err
	}

	orders := make([]model.OpenOrder, 0, len(raw))
	for _, o := range raw {
		if len(o.OrderLegCollection) == 0 {
			continue
		}
		leg := o.OrderLegCollection[0]
		orders = append(orders, model.OpenOrder{
			Symbol: leg.Instrument.Symbol,
			Status: status,
			Side:   model.OrderSide(leg.Instruction),
		})
	}
	return orders, nil
}

// PlaceOrder submits a single-leg limit order with a 60-day good-till-cancel
// window. Rejections are returned as ErrOrderRejected with the response body.
func (c *Client) PlaceOrder(intent model.OrderIntent) error {
	if !c.Session.Authenticated() {
		return ErrAuthFailed
	}

	cancelTime := time.Now().Add(60 * 24 * time.Hour).UTC().Format("2006-01-02T15:04:05.000Z")
	body := map[string]interface{}{
		"session":                  "NORMAL",
		"duration":                 "GOOD_TILL_CANCEL",
		"orderType":                "LIMIT",
		"cancelTime":               cancelTime,
		"complexOrderStrategyType": "NONE",
		"quantity":                 intent.Quantity,
		"price":                    intent.LimitPrice,
		"activationPrice":          0,
		"orderStrategyType":        "SINGLE",
		"orderLegCollection": []map[string]interface{}{
			{
				"orderLegType": "EQUITY",
				"instruction":  string(intent.Side),
				"quantity":     intent.Quantity,
				"quantityType": "SHARES",
				"instrument": map[string]string{
					"symbol":    intent.Symbol,
					"assetType": "EQUITY",
				},
				"positionEffect": "AUTOMATIC",
				"legId":          "1",
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	url := fmt.Sprintf("%s/trader/v1/accounts/%s/orders", c.Session.BaseURL, c.Session.AccountHash())
	req, err := http.NewRequest("POST", url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.Session.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit order: %v: %w", err, ErrOrderRejected)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("submit order: status %d, body: %s: %w", resp.StatusCode, string(respBody), ErrOrderRejected)
	}
	return nil
}
