package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"antfarm/internal/broadcast"
	"antfarm/internal/domain"
)

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(New(nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "ok", got["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httptest.NewServer(New(nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "go_goroutines")
}

func TestRoomFeedWithoutHub(t *testing.T) {
	srv := httptest.NewServer(New(nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/rooms/room-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRoomFeedDeliversPublishedMessages(t *testing.T) {
	hub := broadcast.NewHub(nil)
	srv := httptest.NewServer(New(hub, nil).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/rooms/room-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.SubscriberCount("room-1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish("room-1", domain.NewAntMessage("room-1", "ant-1", "scout", "fresh post"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(payload), "fresh post")
}
