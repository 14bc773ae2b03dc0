package service

import (
	"html"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable 缺失数值的展示文本
const NotAvailable = "N/A"

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`[ \t]+`)
)

// FormatPrice 格式化价格，>= 1 保留两位小数，小额币种保留更多有效位
func FormatPrice(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return "$" + groupThousands(d.StringFixed(2))
	}
	if d.IsZero() {
		return "$0.00"
	}
	return "$" + d.Round(8).String()
}

// FormatAmount 格式化成交量、市值等大数字 (取整并加千分位)
func FormatAmount(d decimal.Decimal) string {
	return "$" + groupThousands(d.Round(0).String())
}

// FormatOptionalPrice 价格缺失时返回 N/A
func FormatOptionalPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return NotAvailable
	}
	return FormatPrice(d.Decimal)
}

// PlainText 去掉描述中的 HTML 标签 (CoinGecko 描述里带 <a> 链接)
func PlainText(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// groupThousands 给整数部分加上千分位逗号，例如 "1234567.89" -> "1,234,567.89"
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
