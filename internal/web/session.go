package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"coin-catalog/internal/catalog"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// wsInbound 浏览器发来的消息
type wsInbound struct {
	Type  string `json:"type"` // query / highlight / select / submit
	Query string `json:"query"`
	Index int    `json:"index"`
	ID    string `json:"id"`
}

type wsHit struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Thumb  string `json:"thumb"`
}

// wsOutbound 推送给浏览器的消息
type wsOutbound struct {
	Type        string  `json:"type"` // results / navigate / error
	Open        bool    `json:"open"`
	Hits        []wsHit `json:"hits,omitempty"`
	Total       int     `json:"total"`
	Highlighted int     `json:"highlighted"`
	Error       string  `json:"error,omitempty"`
	URL         string  `json:"url,omitempty"`
}

func resultsMessage(s catalog.ListState) wsOutbound {
	msg := wsOutbound{
		Type:        "results",
		Open:        s.DropdownOpen,
		Total:       s.TotalHits,
		Highlighted: s.Highlighted,
		Error:       s.SearchError,
	}
	for _, h := range s.Hits {
		msg.Hits = append(msg.Hits, wsHit{ID: h.ID, Name: h.Name, Symbol: strings.ToUpper(h.Symbol), Thumb: h.ThumbURL})
	}
	return msg
}

// session 一个 WebSocket 连接对应一个搜索框，连接关闭即视图销毁
type session struct {
	conn   *websocket.Conn
	ctrl   *catalog.ListController
	send   chan wsOutbound
	done   chan struct{}
	logger *zap.Logger
}

// ToDetail 实现 catalog.Navigator：通知浏览器跳转
func (s *session) ToDetail(id string) {
	s.push(wsOutbound{Type: "navigate", URL: catalog.DetailPath(id)})
}

func (s *session) ToList() {
	s.push(wsOutbound{Type: "navigate", URL: catalog.ListPath})
}

// push 使用 select/default 防止阻塞控制器
func (s *session) push(msg wsOutbound) {
	select {
	case s.send <- msg:
	case <-s.done:
	default:
		s.logger.Warn("Session send buffer full! Dropping message", zap.String("type", msg.Type))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sess := &session{
		conn:   conn,
		send:   make(chan wsOutbound, 16),
		done:   make(chan struct{}),
		logger: s.logger.With(zap.String("remote", r.RemoteAddr)),
	}
	sess.ctrl = catalog.NewListController(s.src, sess, s.listOpts, sess.logger)
	sess.ctrl.OnChange(func(state catalog.ListState) {
		sess.push(resultsMessage(state))
	})

	sess.logger.Debug("Search session opened")
	go sess.writeLoop()
	sess.readLoop(r.Context())

	sess.ctrl.Close()
	close(sess.done)
	conn.Close()
	sess.logger.Debug("Search session closed")
}

// readLoop 持续读取浏览器消息，连接出错即退出
func (s *session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Error reading WS message", zap.Error(err))
			}
			return
		}

		var in wsInbound
		if err := json.Unmarshal(message, &in); err != nil {
			s.push(wsOutbound{Type: "error", Error: "malformed message"})
			continue
		}
		s.handle(ctx, in)
	}
}

func (s *session) handle(ctx context.Context, in wsInbound) {
	switch in.Type {
	case "query":
		s.ctrl.SetQuery(in.Query)
		// 空白查询是同步清空的，不会触发 OnChange
		if strings.TrimSpace(in.Query) == "" {
			s.push(resultsMessage(s.ctrl.Snapshot()))
		}
	case "highlight":
		s.ctrl.Highlight(in.Index)
		s.push(resultsMessage(s.ctrl.Snapshot()))
	case "select":
		s.ctrl.SelectHit(in.ID)
	case "submit":
		if s.ctrl.Submit() {
			return
		}
		// 防抖还没触发时按当前输入立即搜索一次
		if q := s.ctrl.Snapshot().Query; strings.TrimSpace(q) != "" {
			s.ctrl.SearchNow(ctx, q)
			if s.ctrl.Submit() {
				return
			}
		}
		s.push(resultsMessage(s.ctrl.Snapshot()))
	default:
		s.push(wsOutbound{Type: "error", Error: "unknown message type: " + in.Type})
	}
}

// writeLoop 唯一的写协程，负责推送消息和心跳
func (s *session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					s.logger.Warn("Error writing WS message", zap.Error(err))
				}
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
