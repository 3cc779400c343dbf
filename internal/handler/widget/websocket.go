package widget

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/tdcarpool/carpool/backend/internal/model/chat"
	chatservice "github.com/tdcarpool/carpool/backend/internal/service/chat"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// 入站消息类型
const (
	TypeToggle = "toggle"
	TypeText   = "text"
	TypeSync   = "sync"
)

// 出站消息类型
const (
	TypeState      = "state"
	TypeMessage    = "message"
	TypeTranscript = "transcript"
	TypeRejected   = "rejected"
	TypeError      = "error"
)

// Handler 助手会话的WebSocket处理器
type Handler struct {
	chatSvc  *chatservice.Service
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc *chatservice.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		log:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由 GET /ws/{sessionID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// peer serialises writes; gorilla connections allow one concurrent writer.
type peer struct {
	conn      *websocket.Conn
	sessionID string
	log       zerolog.Logger
	mu        sync.Mutex
}

func (p *peer) send(kind string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	msg := outgoingMessage{Type: kind, SessionID: p.sessionID, Data: data, Timestamp: time.Now().Unix()}
	if err := p.conn.WriteJSON(msg); err != nil {
		p.log.Debug().Err(err).Str("type", kind).Msg("[websocket] write failed")
	}
}

func (p *peer) ping() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.Session(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("[websocket] upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.With().Str("session", sessionID).Logger()
	log.Info().Msg("[websocket] connected")

	ctx, cancel := context.WithCancel(r.Context())
	var replies conc.WaitGroup
	defer func() {
		cancel()
		replies.Wait()
		log.Info().Msg("[websocket] disconnected")
	}()

	p := &peer{conn: conn, sessionID: sessionID, log: log}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.pingLoop(ctx, p)

	h.sync(p, session)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("[websocket] read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			p.send(TypeError, map[string]string{"message": "session mismatch"})
			continue
		}

		switch msg.Type {
		case TypeToggle:
			p.send(TypeState, session.Toggle())
			p.send(TypeTranscript, session.Transcript())
		case TypeSync:
			h.sync(p, session)
		case TypeText:
			h.handleText(ctx, p, session, msg.Data, &replies)
		default:
			p.send(TypeError, map[string]string{"message": "unknown message type"})
		}

		if session.Discarded() {
			p.send(TypeError, map[string]string{"message": chatservice.ErrSessionDiscarded.Error()})
			return
		}
	}
}

func (h *Handler) sync(p *peer, session *chatservice.Session) {
	p.send(TypeState, session.View())
	p.send(TypeTranscript, session.Transcript())
}

// handleText 处理文本消息，先回显用户消息，回复完成后再推送回复与状态
func (h *Handler) handleText(ctx context.Context, p *peer, session *chatservice.Session, raw json.RawMessage, replies *conc.WaitGroup) {
	var payload TextMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		p.send(TypeError, map[string]string{"message": "invalid text payload"})
		return
	}

	pending, ok := session.Submit(payload.Text)
	if !ok {
		p.send(TypeRejected, map[string]chat.State{"state": session.State()})
		return
	}
	p.send(TypeMessage, pending.Request())

	replies.Go(func() {
		reply, err := pending.Wait(ctx)
		switch {
		case err == nil:
			p.send(TypeMessage, reply)
			p.send(TypeState, session.View())
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			// connection closed first
		default:
			p.send(TypeError, map[string]string{"message": err.Error()})
		}
	})
}

func (h *Handler) pingLoop(ctx context.Context, p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ping(); err != nil {
				return
			}
		}
	}
}
