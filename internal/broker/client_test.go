package broker

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/himanshuo/buy-the-dip/internal/model"
)

func authedSession(baseURL string) *Session {
	return &Session{
		BaseURL:     baseURL,
		client:      &http.Client{Timeout: 5 * time.Second},
		state:       stateAuthenticated,
		accessToken: "test-access",
		accountHash: "HASH1",
	}
}

func TestClient_Positions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trader/v1/accounts/HASH1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("fields") != "positions" {
			t.Errorf("missing fields=positions")
		}
		w.Write([]byte(`{"securitiesAccount":{"positions":[
			{"averagePrice":101.5,"longQuantity":4.0,"instrument":{"symbol":"AAPL"}},
			{"averagePrice":55.25,"longQuantity":2.5,"instrument":{"symbol":"WMT"}}
		]}}`))
	}))
	defer srv.Close()

	c := NewClient(authedSession(srv.URL))
	positions, err := c.Positions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].Symbol != "AAPL" || positions[0].AverageCost != 101.5 || positions[0].Quantity != 4.0 {
		t.Errorf("position = %+v", positions[0])
	}
}

func TestClient_OpenOrders_MergesStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("fromEnteredTime") == "" || q.Get("toEnteredTime") == "" {
			t.Error("missing entered-time window")
		}
		switch q.Get("status") {
		case "WORKING":
			w.Write([]byte(`[{"status":"WORKING","orderLegCollection":[{"instruction":"SELL","instrument":{"symbol":"AAPL"}}]}]`))
		case "PENDING_ACTIVATION":
			w.Write([]byte(`[{"status":"PENDING_ACTIVATION","orderLegCollection":[{"instruction":"SELL","instrument":{"symbol":"WMT"}}]}]`))
		default:
			t.Errorf("unexpected status query: %s", q.Get("status"))
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	c := NewClient(authedSession(srv.URL))
	orders, err := c.OpenOrders()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected both status sets merged, got %d orders", len(orders))
	}
	symbols := map[string]bool{}
	for _, o := range orders {
		symbols[o.Symbol] = true
	}
	if !symbols["AAPL"] || !symbols["WMT"] {
		t.Errorf("merged orders = %v", orders)
	}
}

func TestClient_PlaceOrder_BuildsLimitOrder(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode order body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(authedSession(srv.URL))
	err := c.PlaceOrder(model.OrderIntent{
		Symbol: "NFLX", Side: model.SideSell, Quantity: 3, LimitPrice: 104.52,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["orderType"] != "LIMIT" || got["duration"] != "GOOD_TILL_CANCEL" || got["orderStrategyType"] != "SINGLE" {
		t.Errorf("order shape = %v", got)
	}
	if got["price"] != 104.52 {
		t.Errorf("price = %v", got["price"])
	}
	if got["activationPrice"] != 0.0 {
		t.Errorf("activationPrice = %v, want 0", got["activationPrice"])
	}
	legs, ok := got["orderLegCollection"].([]interface{})
	if !ok || len(legs) != 1 {
		t.Fatalf("expected single leg, got %v", got["orderLegCollection"])
	}
	leg := legs[0].(map[string]interface{})
	if leg["instruction"] != "SELL" {
		t.Errorf("instruction = %v", leg["instruction"])
	}
	if inst := leg["instrument"].(map[string]interface{}); inst["symbol"] != "NFLX" || inst["assetType"] != "EQUITY" {
		t.Errorf("instrument = %v", inst)
	}
}

func TestClient_PlaceOrder_RejectionIsOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"insufficient buying power"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(authedSession(srv.URL))
	err := c.PlaceOrder(model.OrderIntent{Symbol: "NFLX", Side: model.SideBuy, Quantity: 1, LimitPrice: 10})
	if !errors.Is(err, ErrOrderRejected) {
		t.Fatalf("expected ErrOrderRejected, got %v", err)
	}
}

func TestClient_UnauthenticatedSessionFails(t *testing.T) {
	s := &Session{state: stateUnauthenticated, client: http.DefaultClient}
	c := NewClient(s)
	if _, err := c.Positions(); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if err := c.PlaceOrder(model.OrderIntent{Symbol: "X", Quantity: 1}); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}
