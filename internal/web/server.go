package web

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"coin-catalog/internal/catalog"
	"coin-catalog/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DataSource 两个视图所需的全部数据接口
type DataSource interface {
	catalog.MarketSource
	catalog.DetailSource
}

// Server 渲染列表页、详情页，并提供搜索用的 WebSocket
type Server struct {
	cfg      service.ServerConfig
	src      DataSource
	listOpts catalog.ListOptions
	logger   *zap.Logger
	pages    *pageTemplates
	upgrader websocket.Upgrader
}

// NewServer 创建服务
func NewServer(cfg service.ServerConfig, src DataSource, listOpts catalog.ListOptions, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = service.Logger
	}
	pages, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		src:      src,
		listOpts: listOpts,
		logger:   logger.With(zap.String("component", "web")),
		pages:    pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}, nil
}

// Handler 路由表
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleList)
	mux.HandleFunc("GET /coins/{id}", s.handleDetail)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return s.logRequests(mux)
}

// Run 启动 HTTP 服务，ctx 取消后优雅退出
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server...")
	return srv.Shutdown(shutdownCtx)
}

// statusRecorder 记录响应状态码用于访问日志
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack websocket 升级需要拿到底层连接
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
