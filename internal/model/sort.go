package model

import (
	"sort"
	"strings"
)

// NextSort 根据当前状态和点击的列计算新的排序状态
// 同一列且当前为升序 -> 降序；其他情况 -> 新列升序
func NextSort(cur SortState, key SortKey) SortState {
	if cur.Key == key && cur.Direction == Ascending {
		return SortState{Key: key, Direction: Descending}
	}
	return SortState{Key: key, Direction: Ascending}
}

// CompareCoins 按指定列比较两条记录，返回 -1 / 0 / 1 (升序语义)
func CompareCoins(a, b CoinSummary, key SortKey) int {
	switch key {
	case SortName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortCurrentPrice:
		return a.CurrentPrice.Cmp(b.CurrentPrice)
	case SortTotalVolume:
		return a.TotalVolume.Cmp(b.TotalVolume)
	case SortMarketCap:
		return a.MarketCap.Cmp(b.MarketCap)
	}
	return 0
}

// SortCoins 在当前页数据上做稳定的原地排序，不会触发重新请求
func SortCoins(coins []CoinSummary, s SortState) {
	if !s.Active() || len(coins) < 2 {
		return
	}
	sort.SliceStable(coins, func(i, j int) bool {
		c := CompareCoins(coins[i], coins[j], s.Key)
		if s.Direction == Descending {
			return c > 0
		}
		return c < 0
	})
}
