package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// TaskHandler upgrades websocket connections and streams task notifications
// to the connected user's group.
type TaskHandler struct {
	bus           realtime.Bus
	authenticator *realtime.ConnectionAuthenticator
	upgrader      websocket.Upgrader
	logger        *zap.Logger
}

// NewTaskHandler creates a websocket task notification handler.
func NewTaskHandler(bus realtime.Bus, authenticator *realtime.ConnectionAuthenticator, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		bus:           bus,
		authenticator: authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Serve handles GET /ws/tasks. The browser websocket API cannot set an
// Authorization header, so the token rides in the Sec-WebSocket-Protocol
// header as a "Bearer <token>" entry, which is echoed back verbatim in the
// upgrade response. A missing or invalid token still gets an upgrade, then
// an immediate policy close; the connection never joins a group.
func (h *TaskHandler) Serve(c echo.Context) error {
	token, matched, ok := realtime.ExtractBearerSubprotocol(c.Request().Header.Get("Sec-WebSocket-Protocol"))

	responseHeader := http.Header{}
	if ok {
		responseHeader.Set("Sec-WebSocket-Protocol", matched)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), responseHeader)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return nil
	}

	if !ok {
		h.closeWithPolicyViolation(conn, "missing bearer token")
		return nil
	}

	userID, err := h.authenticator.Authenticate(token)
	if err != nil {
		h.logger.Warn("Websocket authentication failed", zap.Error(err))
		h.closeWithPolicyViolation(conn, "invalid token")
		return nil
	}

	// The request context dies with the upgrade; the subscription lives for
	// the lifetime of the websocket connection instead.
	group := realtime.UserGroup(userID)
	messages, cancel, err := h.bus.Subscribe(context.Background(), group)
	if err != nil {
		h.logger.Error("Failed to subscribe to group",
			zap.String("group", group),
			zap.Error(err))
		h.closeWithPolicyViolation(conn, "subscription failed")
		return nil
	}

	h.logger.Info("Websocket connected",
		zap.String("group", group),
		zap.String("remote", conn.RemoteAddr().String()))

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, messages, done)

	cancel()
	conn.Close()
	h.logger.Info("Websocket disconnected", zap.String("group", group))
	return nil
}

func (h *TaskHandler) closeWithPolicyViolation(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	conn.Close()
}

// readLoop drains inbound frames so close and pong frames are processed.
// Clients never send application data on this socket.
func (h *TaskHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop forwards bus payloads to the client until either side drops.
func (h *TaskHandler) writeLoop(conn *websocket.Conn, messages <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, open := <-messages:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
