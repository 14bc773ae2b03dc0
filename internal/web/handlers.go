package web

import (
	"net/http"
	"strconv"

	"coin-catalog/internal/catalog"
	"coin-catalog/internal/model"

	"go.uber.org/zap"
)

// handleList 列表页：每个请求就是一次视图激活
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	var sortState model.SortState
	if key, err := model.ParseSortKey(q.Get("sort")); err == nil && key != model.SortNone {
		sortState = model.SortState{Key: key, Direction: model.ParseSortDirection(q.Get("dir"))}
	}

	ctrl := catalog.NewListController(s.src, nil, s.listOpts, s.logger)
	defer ctrl.Close()

	ctrl.RestoreSort(sortState)
	if err := ctrl.Mount(r.Context(), page); err != nil {
		s.logger.Debug("List request aborted", zap.Error(err))
		return
	}

	s.render(w, s.pages.list, newListPage(ctrl.Snapshot()))
}

// handleDetail 详情页
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ctrl := catalog.NewDetailController(s.src, nil, s.logger)
	ctrl.Load(r.Context(), id)
	if r.Context().Err() != nil {
		return
	}

	s.render(w, s.pages.detail, newDetailPage(ctrl.View()))
}

// handleSearch 无 JS 时的表单提交：搜索后跳到第一个结果
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	nav := &catalog.RecordingNavigator{}
	ctrl := catalog.NewListController(s.src, nav, s.listOpts, s.logger)
	defer ctrl.Close()

	ctrl.SearchNow(r.Context(), r.URL.Query().Get("q"))
	if !ctrl.Submit() {
		nav.ToList()
	}
	http.Redirect(w, r, nav.Target(), http.StatusSeeOther)
}
