package api

import (
	"coin-catalog/internal/model"

	"github.com/shopspring/decimal"
)

// MarketsParams /coins/markets 的请求参数
type MarketsParams struct {
	Currency string // vs_currency
	Order    string // 例如 market_cap_desc
	PerPage  int
	Page     int // 从 1 开始
}

// geckoCoinRef /coins/list 中的一项，只关心 id
type geckoCoinRef struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// geckoSearchResponse /search 的响应
type geckoSearchResponse struct {
	Coins []geckoSearchCoin `json:"coins"`
}

type geckoSearchCoin struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Thumb  string `json:"thumb"`
}

func (c geckoSearchCoin) toHit() model.SearchHit {
	return model.SearchHit{ID: c.ID, Name: c.Name, Symbol: c.Symbol, ThumbURL: c.Thumb}
}

// geckoCoinDetail /coins/{id} 的响应，缺失字段用指针区分
type geckoCoinDetail struct {
	ID          string            `json:"id"`
	Name        *string           `json:"name"`
	Symbol      *string           `json:"symbol"`
	Description map[string]string `json:"description"` // 按语言区分
	Image       *struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
	MarketData *geckoMarketData `json:"market_data"`
}

// geckoMarketData 价格按计价货币区分
type geckoMarketData struct {
	CurrentPrice map[string]decimal.NullDecimal `json:"current_price"`
	High24h      map[string]decimal.NullDecimal `json:"high_24h"`
	Low24h       map[string]decimal.NullDecimal `json:"low_24h"`
}

func (d *geckoCoinDetail) complete() bool {
	return d.Name != nil && d.Symbol != nil && d.MarketData != nil
}

// toDetail 把响应转换为 CoinDetail，取指定语言和计价货币
func (d *geckoCoinDetail) toDetail(locale, currency string) *model.CoinDetail {
	out := &model.CoinDetail{
		ID:     d.ID,
		Name:   *d.Name,
		Symbol: *d.Symbol,
	}
	if d.Image != nil {
		switch {
		case d.Image.Large != "":
			out.ImageURL = d.Image.Large
		case d.Image.Small != "":
			out.ImageURL = d.Image.Small
		default:
			out.ImageURL = d.Image.Thumb
		}
	}
	if text, ok := d.Description[locale]; ok {
		out.Description = text
	}
	out.CurrentPrice = d.MarketData.CurrentPrice[currency]
	out.High24h = d.MarketData.High24h[currency]
	out.Low24h = d.MarketData.Low24h[currency]
	return out
}
