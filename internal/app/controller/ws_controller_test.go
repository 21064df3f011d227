package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/bitemebuddy/bitemebuddy-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSController_DeliversOrderEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := ws.NewHub()
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", setUserIDInContext(7), NewWSController(hub, []string{"http://localhost:3000"}).Connect)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsUserOnline(7) }, 2*time.Second, 10*time.Millisecond)

	hub.NotifyOrder(7, "order.placed", map[string]interface{}{"order_id": 1})

	var event ws.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "order.placed", event.Type)

	require.NoError(t, conn.WriteJSON(ws.ClientMessage{Type: "ping"}))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, ws.EventPong, event.Type)
}

func TestWSController_RejectsForeignOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := ws.NewHub()

	router := gin.New()
	router.GET("/ws", setUserIDInContext(7), NewWSController(hub, []string{"http://localhost:3000"}).Connect)
	server := httptest.NewServer(router)
	defer server.Close()

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
