package catalog

import (
	"context"
	"fmt"
	"sync"

	"coin-catalog/internal/api"
	"coin-catalog/internal/model"

	"github.com/shopspring/decimal"
)

// fakeSource 可编程的行情数据源
type fakeSource struct {
	mu sync.Mutex

	ids    []string
	idsErr error

	markets func(ctx context.Context, p api.MarketsParams) ([]model.CoinSummary, error)
	search  func(ctx context.Context, q string) ([]model.SearchHit, error)
	coin    func(ctx context.Context, id string) (*model.CoinDetail, error)

	marketCalls []api.MarketsParams
	searchCalls []string
	coinCalls   []string
}

func (f *fakeSource) CoinIDs(ctx context.Context) ([]string, error) {
	return f.ids, f.idsErr
}

func (f *fakeSource) Markets(ctx context.Context, p api.MarketsParams) ([]model.CoinSummary, error) {
	f.mu.Lock()
	f.marketCalls = append(f.marketCalls, p)
	fn := f.markets
	f.mu.Unlock()
	if fn == nil {
		return pageOf(p.Page, 3), nil
	}
	return fn(ctx, p)
}

func (f *fakeSource) Search(ctx context.Context, q string) ([]model.SearchHit, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, q)
	fn := f.search
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, q)
}

func (f *fakeSource) Coin(ctx context.Context, id string) (*model.CoinDetail, error) {
	f.mu.Lock()
	f.coinCalls = append(f.coinCalls, id)
	fn := f.coin
	f.mu.Unlock()
	return fn(ctx, id)
}

func (f *fakeSource) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searchCalls)
}

func (f *fakeSource) lastMarketCall() api.MarketsParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marketCalls[len(f.marketCalls)-1]
}

// pageOf 生成第 page 页的 n 条数据，id 形如 p2-0
func pageOf(page, n int) []model.CoinSummary {
	coins := make([]model.CoinSummary, n)
	for i := range coins {
		coins[i] = model.CoinSummary{
			ID:           fmt.Sprintf("p%d-%d", page, i),
			Name:         fmt.Sprintf("Coin %c", 'C'-rune(i)),
			Symbol:       fmt.Sprintf("c%d", i),
			CurrentPrice: decimal.NewFromInt(int64(100 - i*10)),
			TotalVolume:  decimal.NewFromInt(int64(i)),
			MarketCap:    decimal.NewFromInt(int64(1000 - i)),
		}
	}
	return coins
}

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("coin-%d", i)
	}
	return ids
}

func makeHits(n int) []model.SearchHit {
	hits := make([]model.SearchHit, n)
	for i := range hits {
		hits[i] = model.SearchHit{ID: fmt.Sprintf("hit-%d", i), Name: fmt.Sprintf("Hit %d", i)}
	}
	return hits
}

// fakeNavigator 记录跳转
type fakeNavigator struct {
	mu      sync.Mutex
	details []string
	lists   int
}

func (n *fakeNavigator) ToDetail(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.details = append(n.details, id)
}

func (n *fakeNavigator) ToList() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lists++
}

func (n *fakeNavigator) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.details) == 0 {
		return ""
	}
	return n.details[len(n.details)-1]
}
