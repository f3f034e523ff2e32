package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betbot/godex/lob/types"
	"github.com/betbot/godex/pkg/cache"
)

// marketCacheTTL bounds how stale a discovery result may be served. Markets
// open and close rarely; a minute is plenty.
const marketCacheTTL = time.Minute

// MarketsClient discovers open markets through the indexer's REST API. The
// engine itself never lists markets; callers resolve a Market here once and
// pass it into intents. Results are cached briefly per filter.
type MarketsClient struct {
	c     *resty.Client
	cache *cache.TTL[string, []types.Market]
}

// MarketFilter narrows a discovery query. Empty fields match everything.
type MarketFilter struct {
	BaseSymbol  string
	QuoteSymbol string
}

// NewMarketsClient builds a discovery client with the retry posture used for
// all indexer traffic.
func NewMarketsClient(baseURL string) *MarketsClient {
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(15 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second)
	return &MarketsClient{
		c:     c,
		cache: cache.NewTTL[string, []types.Market](marketCacheTTL),
	}
}

func (f MarketFilter) cacheKey() string {
	return f.BaseSymbol + "/" + f.QuoteSymbol
}

// marketRow is the indexer's wire shape for one market.
type marketRow struct {
	Base struct {
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals int32  `json:"decimals"`
	} `json:"base"`
	Quote struct {
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals int32  `json:"decimals"`
	} `json:"quote"`
	TickSpacing uint64 `json:"tickSpacing"`
}

// ListOpenMarkets returns the currently tradable markets matching the filter.
func (m *MarketsClient) ListOpenMarkets(ctx context.Context, filter MarketFilter) ([]types.Market, error) {
	if cached, ok := m.cache.Get(filter.cacheKey()); ok {
		return cached, nil
	}

	req := m.c.R().
		SetContext(ctx).
		SetQueryParam("open", "true")
	if filter.BaseSymbol != "" {
		req.SetQueryParam("base", filter.BaseSymbol)
	}
	if filter.QuoteSymbol != "" {
		req.SetQueryParam("quote", filter.QuoteSymbol)
	}

	var rows []marketRow
	resp, err := req.SetResult(&rows).Get("/markets")
	if err != nil {
		return nil, errors.Wrap(err, "list markets")
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list markets: indexer returned %s", resp.Status())
	}

	markets := make([]types.Market, 0, len(rows))
	for _, r := range rows {
		markets = append(markets, types.Market{
			Base: types.Asset{
				Address:  common.HexToAddress(r.Base.Address),
				Symbol:   r.Base.Symbol,
				Decimals: r.Base.Decimals,
			},
			Quote: types.Asset{
				Address:  common.HexToAddress(r.Quote.Address),
				Symbol:   r.Quote.Symbol,
				Decimals: r.Quote.Decimals,
			},
			TickSpacing: r.TickSpacing,
		})
	}
	m.cache.Set(filter.cacheKey(), markets, 0)
	return markets, nil
}
