// Package ws is the WebSocket gateway between live client sessions and the
// relay hub. One socket = one relay subscriber; the socket's lifecycle maps
// onto room membership (disconnect is an implicit leave from every room).
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/auth"
	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/relay"
	"github.com/knightkill/parley-app/internal/service"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 8 << 10
	outboundBuffer = 16
)

// inboundFrame is what clients send: join-room / leave-room / publish.
type inboundFrame struct {
	Event        string `json:"event"`
	ConnectionID string `json:"connection_id"`
	Content      string `json:"content,omitempty"`
}

// outboundFrame is what the gateway emits: new-message pushes and error
// reports for rejected frames.
type outboundFrame struct {
	Event   string         `json:"event"`
	Message *model.Message `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type Gateway struct {
	authn    auth.Authenticator
	connSvc  *service.ConnectionService
	chatSvc  *service.ChatService
	hub      *relay.Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewGateway(
	authn auth.Authenticator,
	connSvc *service.ConnectionService,
	chatSvc *service.ChatService,
	hub *relay.Hub,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		authn:   authn,
		connSvc: connSvc,
		chatSvc: chatSvc,
		hub:     hub,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, err := g.authn.Authenticate(r)
	if err != nil {
		http.Error(w, apperr.ErrUnauthenticated.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := &session{
		gateway: g,
		ctx:     r.Context(),
		user:    user,
		ws:      conn,
		sub:     relay.NewSubscriber(),
		out:     make(chan outboundFrame, outboundBuffer),
	}

	g.logger.Debug("websocket session opened", zap.String("account_id", user.ID))
	go sess.writePump()
	sess.readPump()
}

// session is one live socket. readPump is the only reader, writePump the
// only writer (gorilla requires both).
type session struct {
	gateway *Gateway
	ctx     context.Context
	user    *model.User
	ws      *websocket.Conn
	sub     *relay.Subscriber
	out     chan outboundFrame
}

func (s *session) readPump() {
	defer func() {
		// Дисконнект — неявный Leave из всех комнат.
		s.gateway.hub.LeaveAll(s.sub)
		close(s.out)
		_ = s.ws.Close()
		s.gateway.logger.Debug("websocket session closed", zap.String("account_id", s.user.ID))
	}()

	s.ws.SetReadLimit(maxFrameSize)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		if err := s.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.gateway.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		s.handle(frame)
	}
}

func (s *session) handle(frame inboundFrame) {
	switch frame.Event {
	case "join-room":
		// Членство в комнате проверяется до подписки.
		if _, err := s.gateway.connSvc.Authorize(s.ctx, s.user.ID, frame.ConnectionID); err != nil {
			s.reject(err)
			return
		}
		s.gateway.hub.Join(frame.ConnectionID, s.sub)

	case "leave-room":
		s.gateway.hub.Leave(frame.ConnectionID, s.sub)

	case "publish":
		// Append пишет в лог и сам публикует в хаб.
		if _, err := s.gateway.chatSvc.Append(s.ctx, s.user.ID, frame.ConnectionID, frame.Content); err != nil {
			s.reject(err)
		}

	default:
		s.reject(apperr.Wrap(apperr.ErrInvalidInput, "unknown event %q", frame.Event))
	}
}

func (s *session) reject(err error) {
	msg := apperr.ErrUnavailable.Error()
	if apperr.IsDomain(err) {
		msg = err.Error()
	} else {
		s.gateway.logger.Error("websocket frame failed", zap.Error(err))
	}
	select {
	case s.out <- outboundFrame{Event: "error", Error: msg}:
	default:
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-s.sub.C():
			if !ok {
				// Хаб закрылся (или LeaveAll) — закрываем сокет.
				_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
				_ = s.ws.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteJSON(outboundFrame{Event: "new-message", Message: msg}); err != nil {
				return
			}

		case frame, ok := <-s.out:
			if !ok {
				return
			}
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
