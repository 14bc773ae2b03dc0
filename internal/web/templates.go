package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"coin-catalog/internal/catalog"
	"coin-catalog/internal/model"
	"coin-catalog/internal/service"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageTemplates struct {
	list   *template.Template
	detail *template.Template
}

func loadTemplates() (*pageTemplates, error) {
	list, err := template.ParseFS(templateFS, "templates/layout.html", "templates/list.html")
	if err != nil {
		return nil, fmt.Errorf("parse list template: %w", err)
	}
	detail, err := template.ParseFS(templateFS, "templates/layout.html", "templates/detail.html")
	if err != nil {
		return nil, fmt.Errorf("parse detail template: %w", err)
	}
	return &pageTemplates{list: list, detail: detail}, nil
}

// render 先写入缓冲区，模板出错时不会输出半个页面
func (s *Server) render(w http.ResponseWriter, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("Template execution failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

type coinRow struct {
	ID        string
	Name      string
	Symbol    string
	Price     string
	Volume    string
	MarketCap string
	ImageURL  string
	Href      string
}

type sortHeader struct {
	Label     string
	Href      string
	Indicator string
}

type pageLink struct {
	Number  int
	Href    string
	Current bool
}

// listPage 列表页模板数据
type listPage struct {
	Title      string
	State      catalog.ListState
	Rows       []coinRow
	NameHeader sortHeader
	Headers    []sortHeader
	Pages      []pageLink
	PrevHref   string
	NextHref   string
	ReloadHref string
}

var numericColumns = []struct {
	key   model.SortKey
	label string
}{
	{model.SortCurrentPrice, "Price"},
	{model.SortTotalVolume, "24h Volume"},
	{model.SortMarketCap, "Market Cap"},
}

// listHref 列表页链接，保留排序状态
func listHref(page int, s model.SortState) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if s.Active() {
		q.Set("sort", string(s.Key))
		q.Set("dir", s.Direction.String())
	}
	return catalog.ListPath + "?" + q.Encode()
}

func newSortHeader(label string, key model.SortKey, cur model.SortState, page int) sortHeader {
	h := sortHeader{
		Label: label,
		Href:  listHref(page, model.NextSort(cur, key)),
	}
	if cur.Key == key {
		h.Indicator = "▲"
		if cur.Direction == model.Descending {
			h.Indicator = "▼"
		}
	}
	return h
}

func newListPage(state catalog.ListState) listPage {
	page := state.Pagination.CurrentPage

	p := listPage{
		Title:      "Crypto List",
		State:      state,
		NameHeader: newSortHeader("Name", model.SortName, state.Sort, page),
		ReloadHref: listHref(page, state.Sort),
	}
	for _, col := range numericColumns {
		p.Headers = append(p.Headers, newSortHeader(col.label, col.key, state.Sort, page))
	}

	for _, c := range state.Coins {
		p.Rows = append(p.Rows, coinRow{
			ID:        c.ID,
			Name:      c.Name,
			Symbol:    strings.ToUpper(c.Symbol),
			Price:     service.FormatPrice(c.CurrentPrice),
			Volume:    service.FormatAmount(c.TotalVolume),
			MarketCap: service.FormatAmount(c.MarketCap),
			ImageURL:  c.ImageURL,
			Href:      catalog.DetailPath(c.ID),
		})
	}

	for _, n := range state.Window {
		p.Pages = append(p.Pages, pageLink{Number: n, Href: listHref(n, state.Sort), Current: n == page})
	}
	if state.Pagination.HasPrev() {
		p.PrevHref = listHref(page-1, state.Sort)
	}
	if state.Pagination.HasNext() {
		p.NextHref = listHref(page+1, state.Sort)
	}
	return p
}

// detailPage 详情页模板数据
type detailPage struct {
	Title     string
	View      catalog.DetailView
	RetryHref string
	BackHref  string
}

func newDetailPage(v catalog.DetailView) detailPage {
	title := v.Name
	if title == "" {
		title = v.ID
	}
	return detailPage{
		Title:     title,
		View:      v,
		RetryHref: catalog.DetailPath(v.ID),
		BackHref:  catalog.ListPath,
	}
}
