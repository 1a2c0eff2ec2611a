package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/realtime"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestServer(t *testing.T, bus realtime.Bus) *httptest.Server {
	t.Helper()
	e := echo.New()
	handler := NewTaskHandler(bus, realtime.NewConnectionAuthenticator(testSecret), zap.NewNop())
	e.GET("/ws/tasks", handler.Serve)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tasks"
}

func TestServe_AuthenticatedConnectionReceivesGroupMessages(t *testing.T) {
	bus := realtime.NewMemoryBus()
	defer bus.Close()
	srv := newTestServer(t, bus)

	userID := uuid.New()
	subprotocol := "Bearer " + signToken(t, userID)

	dialer := websocket.Dialer{Subprotocols: []string{subprotocol}}
	conn, resp, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	// The bearer candidate is echoed back as the negotiated subprotocol.
	assert.Equal(t, subprotocol, resp.Header.Get("Sec-WebSocket-Protocol"))

	group := realtime.UserGroup(userID)
	require.Eventually(t, func() bool {
		return bus.SubscriberCount(group) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), group, []byte(`{"type":"new_task","task_id":1}`)))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	msgType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.JSONEq(t, `{"type":"new_task","task_id":1}`, string(payload))
}

func TestServe_DisconnectLeavesGroup(t *testing.T) {
	bus := realtime.NewMemoryBus()
	defer bus.Close()
	srv := newTestServer(t, bus)

	userID := uuid.New()
	dialer := websocket.Dialer{Subprotocols: []string{"Bearer " + signToken(t, userID)}}
	conn, _, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)

	group := realtime.UserGroup(userID)
	require.Eventually(t, func() bool {
		return bus.SubscriberCount(group) == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return bus.SubscriberCount(group) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestServe_MissingBearerIsClosedAndNeverJoined(t *testing.T) {
	bus := realtime.NewMemoryBus()
	defer bus.Close()
	srv := newTestServer(t, bus)

	dialer := websocket.Dialer{}
	conn, _, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation),
		"expected policy violation close, got %v", err)
}

func TestServe_InvalidTokenIsClosed(t *testing.T) {
	bus := realtime.NewMemoryBus()
	defer bus.Close()
	srv := newTestServer(t, bus)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	dialer := websocket.Dialer{Subprotocols: []string{"Bearer " + signed}}
	conn, _, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation),
		"expected policy violation close, got %v", err)
}

func TestServe_TwoConnectionsSameUserBothReceive(t *testing.T) {
	bus := realtime.NewMemoryBus()
	defer bus.Close()
	srv := newTestServer(t, bus)

	userID := uuid.New()
	dialer := websocket.Dialer{Subprotocols: []string{"Bearer " + signToken(t, userID)}}

	conn1, _, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn1.Close()

	conn2, _, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn2.Close()

	group := realtime.UserGroup(userID)
	require.Eventually(t, func() bool {
		return bus.SubscriberCount(group) == 2
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), group, []byte(`{"type":"status_update"}`)))

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"status_update"}`, string(payload))
	}
}
