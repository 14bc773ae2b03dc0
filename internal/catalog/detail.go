package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"coin-catalog/internal/api"
	"coin-catalog/internal/model"
	"coin-catalog/internal/service"

	"go.uber.org/zap"
)

// NoDescription 没有描述时的占位文本
const NoDescription = "No description available."

// DetailSource 详情页数据接口，由 api.Client 实现
type DetailSource interface {
	Coin(ctx context.Context, id string) (*model.CoinDetail, error)
}

// DetailView 详情页的展示数据，所有缺省值已在这里解析
type DetailView struct {
	ID           string
	Name         string
	Symbol       string // 大写
	ImageURL     string
	CurrentPrice string
	High24h      string
	Low24h       string
	Description  string

	Loading bool
	Error   string
}

// HasImage 是否有图片可展示
func (v DetailView) HasImage() bool {
	return v.ImageURL != ""
}

// DetailController 根据币种 id 拉取并展示一个币种的完整信息
type DetailController struct {
	mu     sync.Mutex
	src    DetailSource
	nav    Navigator
	logger *zap.Logger

	id   string
	coin *model.CoinDetail
	seq  uint64
	flow *flowState
}

// NewDetailController 创建详情控制器
func NewDetailController(src DetailSource, nav Navigator, logger *zap.Logger) *DetailController {
	if logger == nil {
		logger = service.Logger
	}
	logger = logger.With(zap.String("view", "detail"))
	return &DetailController{
		src:    src,
		nav:    nav,
		logger: logger,
		flow:   newFlowState("coin-detail", logger),
	}
}

// Load id 变化 (包括首次激活) 时拉取数据
func (c *DetailController) Load(ctx context.Context, id string) {
	id = strings.TrimSpace(id)

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.id = id
	c.coin = nil
	c.flow.transition(StatusLoading, "")
	c.mu.Unlock()

	var (
		coin *model.CoinDetail
		err  error
	)
	if id == "" {
		err = errors.New("empty coin id")
	} else {
		coin, err = c.src.Coin(ctx, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logger.Debug("Discarding stale detail response", zap.String("id", id))
		return
	}
	if err != nil {
		c.logger.Warn("Coin detail fetch failed", zap.String("id", id), zap.Error(err))
		c.flow.transition(StatusFailed, detailMessage(id, err))
		return
	}
	c.coin = coin
	c.flow.transition(StatusLoaded, "")
}

// Retry 重新执行同一个请求
func (c *DetailController) Retry(ctx context.Context) {
	c.mu.Lock()
	id := c.id
	c.mu.Unlock()
	c.Load(ctx, id)
}

// Back 返回列表页
func (c *DetailController) Back() {
	if c.nav != nil {
		c.nav.ToList()
	}
}

// Status 当前请求状态
func (c *DetailController) Status() FetchStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flow.status
}

// Coin 已加载的数据，未加载或失败时为 nil
func (c *DetailController) Coin() *model.CoinDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coin
}

// View 展示层：解析所有缺省值
func (c *DetailController) View() DetailView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := DetailView{
		ID:      c.id,
		Loading: c.flow.status == StatusLoading,
		Error:   c.flow.err,
	}
	if c.coin == nil {
		return v
	}

	v.Name = c.coin.Name
	v.Symbol = strings.ToUpper(c.coin.Symbol)
	v.ImageURL = c.coin.ImageURL
	v.CurrentPrice = service.FormatOptionalPrice(c.coin.CurrentPrice)
	v.High24h = service.FormatOptionalPrice(c.coin.High24h)
	v.Low24h = service.FormatOptionalPrice(c.coin.Low24h)
	v.Description = service.PlainText(c.coin.Description)
	if v.Description == "" {
		v.Description = NoDescription
	}
	return v
}

func detailMessage(id string, err error) string {
	if errors.Is(err, api.ErrIncompleteData) {
		return fmt.Sprintf("Incomplete data received for %q", id)
	}
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return "Coin not found"
	}
	return describe(err, "Failed to load coin data")
}
