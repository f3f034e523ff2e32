package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListOpenMarkets(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			http.NotFound(w, r)
			return
		}
		gotQuery = map[string]string{
			"open":  r.URL.Query().Get("open"),
			"base":  r.URL.Query().Get("base"),
			"quote": r.URL.Query().Get("quote"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]marketRow{
			{
				Base: struct {
					Address  string `json:"address"`
					Symbol   string `json:"symbol"`
					Decimals int32  `json:"decimals"`
				}{Address: "0x00000000000000000000000000000000000000B1", Symbol: "WETH", Decimals: 18},
				Quote: struct {
					Address  string `json:"address"`
					Symbol   string `json:"symbol"`
					Decimals int32  `json:"decimals"`
				}{Address: "0x00000000000000000000000000000000000000B2", Symbol: "USDC", Decimals: 6},
				TickSpacing: 1,
			},
		})
	}))
	defer srv.Close()

	mc := NewMarketsClient(srv.URL)
	markets, err := mc.ListOpenMarkets(context.Background(), MarketFilter{BaseSymbol: "WETH", QuoteSymbol: "USDC"})
	if err != nil {
		t.Fatalf("ListOpenMarkets: %v", err)
	}

	if gotQuery["open"] != "true" || gotQuery["base"] != "WETH" || gotQuery["quote"] != "USDC" {
		t.Errorf("query = %v", gotQuery)
	}
	if len(markets) != 1 {
		t.Fatalf("got %d markets, want 1", len(markets))
	}
	m := markets[0]
	if m.Base.Symbol != "WETH" || m.Base.Decimals != 18 {
		t.Errorf("base = %+v", m.Base)
	}
	if m.Quote.Symbol != "USDC" || m.Quote.Decimals != 6 {
		t.Errorf("quote = %+v", m.Quote)
	}
	if m.TickSpacing != 1 {
		t.Errorf("tick spacing = %d, want 1", m.TickSpacing)
	}
}

func TestListOpenMarketsCachesPerFilter(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode([]marketRow{})
	}))
	defer srv.Close()

	mc := NewMarketsClient(srv.URL)
	ctx := context.Background()

	if _, err := mc.ListOpenMarkets(ctx, MarketFilter{BaseSymbol: "WETH"}); err != nil {
		t.Fatal(err)
	}
	if _, err := mc.ListOpenMarkets(ctx, MarketFilter{BaseSymbol: "WETH"}); err != nil {
		t.Fatal(err)
	}
	if requests != 1 {
		t.Errorf("indexer hit %d times, want the second call cached", requests)
	}

	if _, err := mc.ListOpenMarkets(ctx, MarketFilter{BaseSymbol: "WBTC"}); err != nil {
		t.Fatal(err)
	}
	if requests != 2 {
		t.Errorf("different filter served from cache (%d requests)", requests)
	}
}

func TestListOpenMarketsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	mc := NewMarketsClient(srv.URL)
	if _, err := mc.ListOpenMarkets(context.Background(), MarketFilter{}); err == nil {
		t.Fatal("want an error on HTTP 500")
	}
}
