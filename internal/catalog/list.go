package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"coin-catalog/internal/api"
	"coin-catalog/internal/model"
	"coin-catalog/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MarketSource 列表页需要的三个数据接口，由 api.Client 实现
type MarketSource interface {
	CoinIDs(ctx context.Context) ([]string, error)
	Markets(ctx context.Context, p api.MarketsParams) ([]model.CoinSummary, error)
	Search(ctx context.Context, query string) ([]model.SearchHit, error)
}

// ListOptions 列表页的行为参数
type ListOptions struct {
	PageSize      int
	SearchDelay   time.Duration
	DropdownLimit int
	Currency      string
	Order         string
}

// DefaultListOptions 默认参数：每页 50 条，400ms 防抖，下拉框 8 条
func DefaultListOptions() ListOptions {
	return ListOptions{
		PageSize:      model.PageSize,
		SearchDelay:   400 * time.Millisecond,
		DropdownLimit: 8,
		Currency:      "usd",
		Order:         "market_cap_desc",
	}
}

// ListOptionsFrom 从全局配置构造
func ListOptionsFrom(cfg *service.Config) ListOptions {
	return ListOptions{
		PageSize:      cfg.Catalog.PageSize,
		SearchDelay:   cfg.Catalog.SearchDelay,
		DropdownLimit: cfg.Catalog.DropdownLimit,
		Currency:      cfg.Catalog.Currency,
		Order:         cfg.Catalog.Order,
	}
}

// ListState 列表页某一时刻的状态快照，用于渲染
type ListState struct {
	Coins      []model.CoinSummary
	Pagination model.PaginationState
	Window     []int
	Sort       model.SortState

	PageStatus  FetchStatus
	PageError   string
	CountStatus FetchStatus
	CountError  string

	Query        string
	Hits         []model.SearchHit // 已按下拉框上限截断
	TotalHits    int
	DropdownOpen bool
	Highlighted  int // -1 表示没有选中
	SearchStatus FetchStatus
	SearchError  string
}

// Loading 当前页数据是否在加载中
func (s ListState) Loading() bool {
	return s.PageStatus == StatusLoading
}

// ListController 管理列表页的分页、排序、搜索和当前页数据
// 每次视图激活创建一个实例，视图销毁时调用 Close
type ListController struct {
	mu     sync.Mutex
	src    MarketSource
	nav    Navigator
	opts   ListOptions
	logger *zap.Logger

	// 生命周期 context，Close 时取消进行中的搜索
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	pagination model.PaginationState
	sort       model.SortState
	coins      []model.CoinSummary
	pageSeq    uint64 // 只有最新发出的页请求结果会被采用
	fetched    int    // 当前 coins 对应的页码

	countFlow  *flowState
	pageFlow   *flowState
	searchFlow *flowState

	query       string
	hits        []model.SearchHit
	hitsQuery   string // 产生 hits 的查询，与 query 不一致时 hits 已过期
	dropdown    bool
	highlighted int
	searchSeq   uint64
	debouncer   *Debouncer

	listener func(ListState)
}

// NewListController 创建列表控制器
func NewListController(src MarketSource, nav Navigator, opts ListOptions, logger *zap.Logger) *ListController {
	def := DefaultListOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = def.PageSize
	}
	if opts.SearchDelay <= 0 {
		opts.SearchDelay = def.SearchDelay
	}
	if opts.DropdownLimit <= 0 {
		opts.DropdownLimit = def.DropdownLimit
	}
	if opts.Currency == "" {
		opts.Currency = def.Currency
	}
	if opts.Order == "" {
		opts.Order = def.Order
	}
	if logger == nil {
		logger = service.Logger
	}
	logger = logger.With(zap.String("view", "list"))

	ctx, cancel := context.WithCancel(context.Background())
	return &ListController{
		src:    src,
		nav:    nav,
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		pagination: model.PaginationState{
			CurrentPage: 1,
			TotalPages:  1,
			PageSize:    opts.PageSize,
		},
		countFlow:   newFlowState("total-count", logger),
		pageFlow:    newFlowState("page-data", logger),
		searchFlow:  newFlowState("search", logger),
		highlighted: -1,
		debouncer:   NewDebouncer(opts.SearchDelay),
	}
}

// OnChange 注册异步状态变化 (搜索结果返回) 的监听器
func (c *ListController) OnChange(fn func(ListState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = fn
}

// Mount 视图激活：并行执行总数流程和当前页数据流程，两者互不影响
// page 为初始页码 (来自 URL)，在总数返回后会被限制在合法范围内
func (c *ListController) Mount(ctx context.Context, page int) error {
	c.mu.Lock()
	if page < 1 {
		page = 1
	}
	c.pagination.CurrentPage = page
	c.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		c.loadCount(ctx)
		return ctx.Err()
	})
	g.Go(func() error {
		c.loadPage(ctx, page)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// 请求的页码超出总页数时，按限制后的页码重新加载
	c.mu.Lock()
	current, fetched := c.pagination.CurrentPage, c.fetched
	c.mu.Unlock()
	if current != fetched {
		c.loadPage(ctx, current)
	}
	return ctx.Err()
}

// SetPage 切换页码并加载该页数据
func (c *ListController) SetPage(ctx context.Context, page int) {
	c.mu.Lock()
	page = model.ClampPage(page, c.pagination.TotalPages)
	c.pagination.CurrentPage = page
	c.mu.Unlock()

	c.loadPage(ctx, page)
}

// NextPage 下一页
func (c *ListController) NextPage(ctx context.Context) {
	c.mu.Lock()
	page := c.pagination.CurrentPage + 1
	c.mu.Unlock()
	c.SetPage(ctx, page)
}

// PrevPage 上一页
func (c *ListController) PrevPage(ctx context.Context) {
	c.mu.Lock()
	page := c.pagination.CurrentPage - 1
	c.mu.Unlock()
	c.SetPage(ctx, page)
}

// Reload 重新加载当前页 (用户手动重试)
func (c *ListController) Reload(ctx context.Context) {
	c.mu.Lock()
	page := c.pagination.CurrentPage
	c.mu.Unlock()
	c.loadPage(ctx, page)
}

func (c *ListController) loadCount(ctx context.Context) {
	c.mu.Lock()
	c.countFlow.transition(StatusLoading, "")
	c.mu.Unlock()

	ids, err := c.src.CoinIDs(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err != nil {
		c.logger.Warn("Total coin count fetch failed", zap.Error(err))
		c.countFlow.transition(StatusFailed, describe(err, "Failed to load total coin count"))
		// 总数未知时不限制已请求的页码
		c.pagination.TotalPages = max(c.pagination.TotalPages, c.pagination.CurrentPage)
		return
	}

	c.pagination.TotalPages = model.PagesFor(len(ids), c.opts.PageSize)
	c.pagination.CurrentPage = model.ClampPage(c.pagination.CurrentPage, c.pagination.TotalPages)
	c.countFlow.transition(StatusLoaded, "")
	c.logger.Debug("Total coin count loaded",
		zap.Int("coins", len(ids)),
		zap.Int("pages", c.pagination.TotalPages),
	)
}

func (c *ListController) loadPage(ctx context.Context, page int) {
	c.mu.Lock()
	c.pageSeq++
	seq := c.pageSeq
	c.coins = nil
	c.pageFlow.transition(StatusLoading, "")
	params := api.MarketsParams{
		Currency: c.opts.Currency,
		Order:    c.opts.Order,
		PerPage:  c.opts.PageSize,
		Page:     page,
	}
	c.mu.Unlock()

	coins, err := c.src.Markets(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if seq != c.pageSeq {
		c.logger.Debug("Discarding stale page response", zap.Int("page", page), zap.Uint64("seq", seq))
		return
	}
	c.fetched = page
	if err != nil {
		c.logger.Warn("Page data fetch failed", zap.Int("page", page), zap.Error(err))
		c.coins = nil
		c.pageFlow.transition(StatusFailed, describe(err, "Failed to load market data"))
		return
	}

	model.SortCoins(coins, c.sort)
	c.coins = coins
	c.pageFlow.transition(StatusLoaded, "")
}

// Sort 点击列头：计算新的排序状态并对当前页重新排序，不会重新请求
func (c *ListController) Sort(key model.SortKey) model.SortState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sort = model.NextSort(c.sort, key)
	model.SortCoins(c.coins, c.sort)
	return c.sort
}

// RestoreSort 直接应用一个排序状态 (例如来自 URL)
func (c *ListController) RestoreSort(s model.SortState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.Active() && s.Direction != model.Descending {
		s.Direction = model.Ascending
	}
	c.sort = s
	model.SortCoins(c.coins, c.sort)
}

// SetQuery 输入框内容变化；空白查询立即清空结果并关闭下拉框，不发请求
func (c *ListController) SetQuery(q string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query = q
	c.highlighted = -1

	if strings.TrimSpace(q) == "" {
		c.clearSearchLocked()
		c.mu.Unlock()
		c.debouncer.Cancel()
		return
	}
	c.mu.Unlock()

	c.debouncer.Trigger(func() {
		c.runSearch(c.ctx, q, true)
	})
}

// SearchNow 跳过防抖立即搜索 (表单提交时使用)
func (c *ListController) SearchNow(ctx context.Context, q string) {
	c.debouncer.Cancel()

	c.mu.Lock()
	c.query = q
	c.highlighted = -1
	if strings.TrimSpace(q) == "" {
		c.clearSearchLocked()
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.runSearch(ctx, q, false)
}

func (c *ListController) runSearch(ctx context.Context, q string, notify bool) {
	c.mu.Lock()
	if c.closed || c.query != q {
		c.mu.Unlock()
		return
	}
	c.searchSeq++
	seq := c.searchSeq
	c.searchFlow.transition(StatusLoading, "")
	c.mu.Unlock()

	hits, err := c.src.Search(ctx, strings.TrimSpace(q))

	c.mu.Lock()
	if c.closed || seq != c.searchSeq || c.query != q {
		c.mu.Unlock()
		c.logger.Debug("Discarding stale search response", zap.String("query", q))
		return
	}
	if err != nil {
		c.logger.Warn("Search failed", zap.String("query", q), zap.Error(err))
		c.hits = nil
		c.hitsQuery = q
		c.dropdown = false
		c.searchFlow.transition(StatusFailed, describe(err, "Search failed"))
	} else {
		c.hits = hits
		c.hitsQuery = q
		c.dropdown = true
		c.searchFlow.transition(StatusLoaded, "")
	}
	state := c.snapshotLocked()
	listener := c.listener
	c.mu.Unlock()

	if notify && listener != nil {
		listener(state)
	}
}

// Highlight 键盘上下选择下拉框中的结果
func (c *ListController) Highlight(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.visibleHitsLocked()
	if i < 0 || i >= n {
		c.highlighted = -1
		return
	}
	c.highlighted = i
}

// SelectHit 明确选中某个搜索结果
func (c *ListController) SelectHit(id string) bool {
	return c.navigate(id)
}

// SelectRow 点击表格中的一行
func (c *ListController) SelectRow(id string) bool {
	return c.navigate(id)
}

// Submit 回车：选中高亮的结果，没有高亮时选第一条
func (c *ListController) Submit() bool {
	c.mu.Lock()
	n := c.visibleHitsLocked()
	var id string
	switch {
	case c.highlighted >= 0 && c.highlighted < n:
		id = c.hits[c.highlighted].ID
	case n > 0:
		id = c.hits[0].ID
	}
	c.mu.Unlock()

	if id == "" {
		return false
	}
	return c.navigate(id)
}

func (c *ListController) navigate(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}

	c.mu.Lock()
	c.query = ""
	c.clearSearchLocked()
	c.mu.Unlock()
	c.debouncer.Cancel()

	c.logger.Debug("Navigate to detail", zap.String("id", id))
	if c.nav != nil {
		c.nav.ToDetail(id)
	}
	return true
}

// clearSearchLocked 清空搜索结果并关闭下拉框，使进行中的搜索失效
func (c *ListController) clearSearchLocked() {
	c.searchSeq++
	c.hits = nil
	c.hitsQuery = ""
	c.dropdown = false
	c.highlighted = -1
	c.searchFlow.transition(StatusIdle, "")
}

// visibleHitsLocked 可供选择的结果数，输入已变化而新结果未返回时为 0
func (c *ListController) visibleHitsLocked() int {
	if !c.dropdown || c.hitsQuery != c.query {
		return 0
	}
	return min(len(c.hits), c.opts.DropdownLimit)
}

// Snapshot 返回当前状态的副本
func (c *ListController) Snapshot() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *ListController) snapshotLocked() ListState {
	coins := make([]model.CoinSummary, len(c.coins))
	copy(coins, c.coins)

	n := min(len(c.hits), c.opts.DropdownLimit)
	hits := make([]model.SearchHit, n)
	copy(hits, c.hits[:n])

	return ListState{
		Coins:        coins,
		Pagination:   c.pagination,
		Window:       c.pagination.Window(),
		Sort:         c.sort,
		PageStatus:   c.pageFlow.status,
		PageError:    c.pageFlow.err,
		CountStatus:  c.countFlow.status,
		CountError:   c.countFlow.err,
		Query:        c.query,
		Hits:         hits,
		TotalHits:    len(c.hits),
		DropdownOpen: c.dropdown,
		Highlighted:  c.highlighted,
		SearchStatus: c.searchFlow.status,
		SearchError:  c.searchFlow.err,
	}
}

// Close 视图销毁：停止防抖计时器，取消进行中的搜索，之后到达的结果全部丢弃
func (c *ListController) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.debouncer.Stop()
	c.cancel()
}
