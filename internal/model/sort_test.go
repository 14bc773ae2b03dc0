package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func coin(id, name string, price int64) CoinSummary {
	return CoinSummary{
		ID:           id,
		Name:         name,
		CurrentPrice: decimal.NewFromInt(price),
		TotalVolume:  decimal.NewFromInt(price * 10),
		MarketCap:    decimal.NewFromInt(price * 100),
	}
}

func ids(coins []CoinSummary) []string {
	out := make([]string, len(coins))
	for i, c := range coins {
		out[i] = c.ID
	}
	return out
}

func TestNextSort(t *testing.T) {
	s := SortState{}

	s = NextSort(s, SortName)
	if s != (SortState{SortName, Ascending}) {
		t.Fatalf("first click = %v, want name:asc", s)
	}
	s = NextSort(s, SortName)
	if s != (SortState{SortName, Descending}) {
		t.Fatalf("second click = %v, want name:desc", s)
	}
	s = NextSort(s, SortName)
	if s != (SortState{SortName, Ascending}) {
		t.Fatalf("third click = %v, want name:asc", s)
	}

	// 切换到其他列总是回到升序
	s = NextSort(SortState{SortName, Descending}, SortMarketCap)
	if s != (SortState{SortMarketCap, Ascending}) {
		t.Fatalf("switch key = %v, want marketCap:asc", s)
	}
}

func TestSortCoins(t *testing.T) {
	coins := []CoinSummary{
		coin("b", "bitcoin", 60000),
		coin("e", "Ethereum", 3000),
		coin("d", "dogecoin", 1),
	}

	SortCoins(coins, SortState{SortCurrentPrice, Ascending})
	if got := ids(coins); got[0] != "d" || got[1] != "e" || got[2] != "b" {
		t.Errorf("price asc = %v", got)
	}

	SortCoins(coins, SortState{SortMarketCap, Descending})
	if got := ids(coins); got[0] != "b" || got[1] != "e" || got[2] != "d" {
		t.Errorf("market cap desc = %v", got)
	}

	SortCoins(coins, SortState{SortName, Ascending})
	if got := ids(coins); got[0] != "b" || got[1] != "d" || got[2] != "e" {
		t.Errorf("name asc = %v", got)
	}
}

func TestSortCoins_StableOnEqualKeys(t *testing.T) {
	coins := []CoinSummary{
		coin("a", "A", 5),
		coin("b", "B", 5),
		coin("c", "C", 1),
		coin("d", "D", 5),
	}

	SortCoins(coins, SortState{SortCurrentPrice, Ascending})
	got := ids(coins)
	want := []string{"c", "a", "b", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stable asc = %v, want %v", got, want)
		}
	}

	SortCoins(coins, SortState{SortCurrentPrice, Descending})
	got = ids(coins)
	want = []string{"a", "b", "d", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stable desc = %v, want %v", got, want)
		}
	}
}

func TestSortCoins_NoSortIsNoop(t *testing.T) {
	coins := []CoinSummary{coin("z", "Z", 1), coin("a", "A", 2)}
	SortCoins(coins, SortState{})
	if coins[0].ID != "z" {
		t.Errorf("inactive sort reordered coins: %v", ids(coins))
	}
}

func TestParseSortKey(t *testing.T) {
	if k, err := ParseSortKey("marketCap"); err != nil || k != SortMarketCap {
		t.Errorf("ParseSortKey(marketCap) = %v, %v", k, err)
	}
	if _, err := ParseSortKey("rank"); err == nil {
		t.Error("expected error for unknown key")
	}
	if d := ParseSortDirection("DESC"); d != Descending {
		t.Errorf("ParseSortDirection(DESC) = %v", d)
	}
	if d := ParseSortDirection("bogus"); d != Ascending {
		t.Errorf("ParseSortDirection(bogus) = %v", d)
	}
}
