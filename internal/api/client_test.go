package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL:       server.URL,
		RatePerMinute: 60000,
		Burst:         100,
		CoinListTTL:   time.Minute,
	}, zap.NewNop())
	return client, server
}

func TestClient_Markets(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[
			{"id":"bitcoin","name":"Bitcoin","symbol":"btc","current_price":67000.5,"total_volume":1000,"market_cap":1300000000000,"image":"https://img/btc.png"},
			{"id":"weird","name":"Weird","symbol":"wrd","current_price":null,"total_volume":null,"market_cap":null,"image":""}
		]`))
	})

	coins, err := client.Markets(context.Background(), MarketsParams{Page: 1})
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}
	want := "order=market_cap_desc&page=1&per_page=50&vs_currency=usd"
	if gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
	if len(coins) != 2 {
		t.Fatalf("got %d coins, want 2", len(coins))
	}
	if !coins[0].CurrentPrice.Equal(decimal.RequireFromString("67000.5")) {
		t.Errorf("price = %s", coins[0].CurrentPrice)
	}
	if !coins[1].CurrentPrice.IsZero() {
		t.Errorf("null price should decode to zero, got %s", coins[1].CurrentPrice)
	}
}

func TestClient_CoinIDsCached(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`[{"id":"a","symbol":"a","name":"A"},{"id":"b","symbol":"b","name":"B"}]`))
	})

	for i := 0; i < 3; i++ {
		ids, err := client.CoinIDs(context.Background())
		if err != nil {
			t.Fatalf("CoinIDs failed: %v", err)
		}
		if len(ids) != 2 {
			t.Fatalf("got %d ids, want 2", len(ids))
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server called %d times, want 1", n)
	}

	// 过期后重新拉取
	client.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := client.CoinIDs(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("server called %d times after expiry, want 2", n)
	}
}

func TestClient_Search(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("query"); q != "eth" {
			t.Errorf("query = %q", q)
		}
		w.Write([]byte(`{"coins":[{"id":"ethereum","name":"Ethereum","symbol":"ETH","thumb":"t.png"}],"exchanges":[]}`))
	})

	hits, err := client.Search(context.Background(), "eth")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "ethereum" || hits[0].ThumbURL != "t.png" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestClient_Coin(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("localization") != "false" {
			t.Error("expected localization=false")
		}
		w.Write([]byte(`{
			"id":"bitcoin","name":"Bitcoin","symbol":"btc",
			"image":{"thumb":"t","small":"s","large":"l"},
			"description":{"en":"Digital gold","de":"Digitales Gold"},
			"market_data":{"current_price":{"usd":67000},"high_24h":{"usd":68000},"low_24h":{"usd":null}}
		}`))
	})

	detail, err := client.Coin(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("Coin failed: %v", err)
	}
	if detail.Name != "Bitcoin" || detail.ImageURL != "l" || detail.Description != "Digital gold" {
		t.Errorf("detail = %+v", detail)
	}
	if !detail.CurrentPrice.Valid || !detail.High24h.Valid {
		t.Error("current/high price should be present")
	}
	if detail.Low24h.Valid {
		t.Error("low price should be absent")
	}
}

func TestClient_CoinIncomplete(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"bitcoin","name":"Bitcoin","symbol":"btc"}`))
	})

	_, err := client.Coin(context.Background(), "bitcoin")
	if !errors.Is(err, ErrIncompleteData) {
		t.Fatalf("err = %v, want ErrIncompleteData", err)
	}
}

func TestClient_StatusError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"coin not found"}`, http.StatusNotFound)
	})

	_, err := client.Coin(context.Background(), "nope")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", statusErr.StatusCode)
	}
}

func TestClient_APIKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-cg-demo-api-key"); got != "secret" {
			t.Errorf("api key header = %q", got)
		}
		w.Write([]byte(`{"coins":[]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret", RatePerMinute: 6000, Burst: 10}, zap.NewNop())
	if _, err := client.Search(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Markets(ctx, MarketsParams{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
