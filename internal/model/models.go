package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PageSize 每页展示的币种数量 (与 /coins/markets 的 per_page 一致)
const PageSize = 50

// CoinSummary 代表列表页中的一行市场快照
type CoinSummary struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	TotalVolume  decimal.Decimal `json:"total_volume"`
	MarketCap    decimal.Decimal `json:"market_cap"`
	ImageURL     string          `json:"image"`
}

// CoinDetail 代表详情页的完整数据
// 价格字段可能缺失，使用 NullDecimal 表示，默认值在展示层解析
type CoinDetail struct {
	ID           string
	Name         string
	Symbol       string
	ImageURL     string // 空字符串表示没有图片
	Description  string // 空字符串表示没有描述
	CurrentPrice decimal.NullDecimal
	High24h      decimal.NullDecimal
	Low24h       decimal.NullDecimal
}

// SearchHit 搜索下拉框中的一条结果
type SearchHit struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	ThumbURL string `json:"thumb"`
}

// PaginationState 分页状态，TotalPages 由总数一次性推导
type PaginationState struct {
	CurrentPage int
	TotalPages  int
	PageSize    int
}

// SortKey 可排序的列
type SortKey string

const (
	SortNone         SortKey = ""
	SortName         SortKey = "name"
	SortCurrentPrice SortKey = "currentPrice"
	SortTotalVolume  SortKey = "totalVolume"
	SortMarketCap    SortKey = "marketCap"
)

// SortDirection 排序方向
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

func (d SortDirection) String() string {
	return string(d)
}

// SortState 当前排序状态，零值表示未排序
type SortState struct {
	Key       SortKey
	Direction SortDirection
}

// Active 是否有生效的排序
func (s SortState) Active() bool {
	return s.Key != SortNone
}

func (s SortState) String() string {
	if !s.Active() {
		return "none"
	}
	return fmt.Sprintf("%s:%s", s.Key, s.Direction)
}

// ParseSortKey 解析来自 URL 的排序列
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.TrimSpace(s)) {
	case SortName:
		return SortName, nil
	case SortCurrentPrice:
		return SortCurrentPrice, nil
	case SortTotalVolume:
		return SortTotalVolume, nil
	case SortMarketCap:
		return SortMarketCap, nil
	case SortNone:
		return SortNone, nil
	}
	return SortNone, fmt.Errorf("unsupported sort key: %s", s)
}

// ParseSortDirection 解析排序方向，无法识别时按升序处理
func ParseSortDirection(s string) SortDirection {
	if SortDirection(strings.ToLower(strings.TrimSpace(s))) == Descending {
		return Descending
	}
	return Ascending
}
