package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"coin-catalog/internal/model"
	"coin-catalog/internal/service"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrIncompleteData 详情响应缺少 name / symbol / market_data
var ErrIncompleteData = errors.New("incomplete coin data")

// StatusError 行情服务返回了非 2xx 状态码
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error [%s]: %d %s - %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// maxErrorBody 错误信息中保留的响应体长度
const maxErrorBody = 256

// Config 定义 Client 所需的全部配置
type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerMinute int
	Burst         int
	CoinListTTL   time.Duration
	Locale        string
	Currency      string
}

// ConfigFrom 从全局配置构造 Client 配置
func ConfigFrom(cfg *service.Config) Config {
	return Config{
		BaseURL:       cfg.API.BaseURL,
		APIKey:        cfg.API.APIKey,
		Timeout:       cfg.API.Timeout,
		RatePerMinute: cfg.API.RatePerMinute,
		Burst:         cfg.API.Burst,
		CoinListTTL:   cfg.API.CoinListTTL,
		Locale:        cfg.Catalog.Locale,
		Currency:      cfg.Catalog.Currency,
	}
}

// Client CoinGecko v3 REST 客户端，所有请求共享同一个限流器
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	// /coins/list 结果缓存
	mu        sync.Mutex
	ids       []string
	idsExpiry time.Time
	now       func() time.Time
}

// NewClient 创建客户端
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 30
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if logger == nil {
		logger = service.Logger
	}

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), cfg.Burst),
		logger:  logger.With(zap.String("component", "coingecko")),
		now:     time.Now,
	}
}

// CoinIDs 返回所有已知币种的 id，只用于计算总页数
func (c *Client) CoinIDs(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	if c.ids != nil && c.now().Before(c.idsExpiry) {
		ids := c.ids
		c.mu.Unlock()
		return ids, nil
	}
	c.mu.Unlock()

	var refs []geckoCoinRef
	if err := c.getJSON(ctx, "/coins/list", nil, &refs); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}

	if c.cfg.CoinListTTL > 0 {
		c.mu.Lock()
		c.ids = ids
		c.idsExpiry = c.now().Add(c.cfg.CoinListTTL)
		c.mu.Unlock()
	}
	return ids, nil
}

// Markets 拉取一页市场快照
func (c *Client) Markets(ctx context.Context, p MarketsParams) ([]model.CoinSummary, error) {
	if p.Currency == "" {
		p.Currency = c.cfg.Currency
	}
	if p.Order == "" {
		p.Order = "market_cap_desc"
	}
	if p.PerPage <= 0 {
		p.PerPage = model.PageSize
	}
	if p.Page <= 0 {
		p.Page = 1
	}

	q := url.Values{}
	q.Set("vs_currency", p.Currency)
	q.Set("order", p.Order)
	q.Set("per_page", strconv.Itoa(p.PerPage))
	q.Set("page", strconv.Itoa(p.Page))

	var coins []model.CoinSummary
	if err := c.getJSON(ctx, "/coins/markets", q, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// Search 按关键字搜索币种
func (c *Client) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	q := url.Values{}
	q.Set("query", query)

	var resp geckoSearchResponse
	if err := c.getJSON(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}

	hits := make([]model.SearchHit, 0, len(resp.Coins))
	for _, coin := range resp.Coins {
		hits = append(hits, coin.toHit())
	}
	return hits, nil
}

// Coin 拉取单个币种详情，缺少必要字段时返回 ErrIncompleteData
func (c *Client) Coin(ctx context.Context, id string) (*model.CoinDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("coin id is required")
	}

	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")

	var raw geckoCoinDetail
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id), q, &raw); err != nil {
		return nil, err
	}
	if !raw.complete() {
		return nil, fmt.Errorf("coin %s: %w", id, ErrIncompleteData)
	}
	if raw.ID == "" {
		raw.ID = id
	}
	return raw.toDetail(c.cfg.Locale, c.cfg.Currency), nil
}

// getJSON 发送 GET 请求并把响应体解码到 out
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter [%s]: %w", path, err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request [%s]: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed [%s]: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API request",
		zap.String("endpoint", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Endpoint: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("JSON parse error [%s]: %w", path, err)
	}
	return nil
}
