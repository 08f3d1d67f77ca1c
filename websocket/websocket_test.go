package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-chat/pairchat/chat"
	"go-chat/pairchat/models"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...chat.Option) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil)
	hub.Bind(chat.NewManager(hub, opts...))

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnections))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: raw}))
}

// readUntil 讀取訊框直到收到指定事件，其他事件略過
func readUntil(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var env Envelope
		require.NoError(t, conn.ReadJSON(&env), "waiting for %s", event)
		if env.Event == event {
			return env.Data
		}
	}
}

func joinAs(t *testing.T, conn *websocket.Conn, nickname string) string {
	t.Helper()
	send(t, conn, cmdJoin, joinRequest{Nickname: nickname})
	var joined chat.JoinedPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, chat.EventJoined), &joined))
	require.Equal(t, nickname, joined.Nickname)
	return joined.UserID
}

func TestWelcomeOnConnect(t *testing.T) {
	_, url := newTestServer(t)
	conn := dial(t, url)

	var welcome chat.ConnectedPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, chat.EventConnected), &welcome))
	assert.True(t, strings.HasPrefix(welcome.ConnectionID, "conn_"))

	var info chat.ConnectionInfoPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, chat.EventConnectionInfo), &info))
	assert.Equal(t, 1, info.TotalConnections)
}

func TestAliceAndBobPrivateChat(t *testing.T) {
	_, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)

	aliceID := joinAs(t, alice, "alice")
	bobID := joinAs(t, bob, "bob")

	send(t, alice, cmdRequestPairing, targetRequest{TargetUserID: bobID})
	for _, conn := range []*websocket.Conn{alice, bob} {
		var paired chat.PairedPayload
		require.NoError(t, json.Unmarshal(readUntil(t, conn, chat.EventPaired), &paired))
		assert.Equal(t, chat.DeriveRoomID(aliceID, bobID), paired.RoomID)
		assert.Len(t, paired.Participants, 2)
		assert.Empty(t, paired.History)
	}

	send(t, alice, cmdSendPrivateMessage, privateMessageRequest{TargetUserID: bobID, Text: "hi"})
	var msg models.ChatMessage
	require.NoError(t, json.Unmarshal(readUntil(t, bob, chat.EventPrivateMessage), &msg))
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, aliceID, msg.UserID)

	send(t, bob, cmdGetPrivateHistory, targetRequest{TargetUserID: aliceID})
	var history chat.PrivateHistoryPayload
	require.NoError(t, json.Unmarshal(readUntil(t, bob, chat.EventPrivateHistory), &history))
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hi", history.Messages[0].Text)
}

func TestLobbyMessageReachesEveryone(t *testing.T) {
	_, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)
	joinAs(t, alice, "alice")
	joinAs(t, bob, "bob")

	send(t, bob, cmdSendLobbyMessage, lobbyMessageRequest{Text: "hello everyone"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		var msg models.ChatMessage
		require.NoError(t, json.Unmarshal(readUntil(t, conn, chat.EventLobbyMessage), &msg))
		assert.Equal(t, "hello everyone", msg.Text)
		assert.Empty(t, msg.RoomID)
	}
}

func TestErrorsGoOnlyToOrigin(t *testing.T) {
	_, url := newTestServer(t)
	alice := dial(t, url)
	anon := dial(t, url)
	joinAs(t, alice, "alice")

	send(t, anon, cmdSendLobbyMessage, lobbyMessageRequest{Text: "nobody hears me"})
	var payload chat.ErrorPayload
	require.NoError(t, json.Unmarshal(readUntil(t, anon, chat.EventError), &payload))
	assert.Equal(t, "User not found", payload.Message)

	send(t, alice, cmdRequestPairing, targetRequest{TargetUserID: "user_missing"})
	require.NoError(t, json.Unmarshal(readUntil(t, alice, chat.EventError), &payload))
	assert.Equal(t, "Target user not found", payload.Message)

	// anon 不應收到 alice 的錯誤
	send(t, anon, "bogus", nil)
	require.NoError(t, json.Unmarshal(readUntil(t, anon, chat.EventError), &payload))
	assert.Equal(t, "Invalid request", payload.Message)
}

func TestDisconnectRevertsPeerOverSocket(t *testing.T) {
	hub, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)
	joinAs(t, alice, "alice")
	bobID := joinAs(t, bob, "bob")

	send(t, alice, cmdRequestPairing, targetRequest{TargetUserID: bobID})
	readUntil(t, bob, chat.EventPaired)

	require.NoError(t, alice.Close())

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 3*time.Second, 20*time.Millisecond)

	send(t, bob, cmdListUsers, nil)
	var presence chat.PresencePayload
	for {
		require.NoError(t, json.Unmarshal(readUntil(t, bob, chat.EventPresenceUpdated), &presence))
		if len(presence.Users) == 1 {
			break
		}
	}
	assert.Equal(t, bobID, presence.Users[0].ID)
	assert.Equal(t, models.StatusOnline, presence.Users[0].Status)
}

func TestRouteRejectsMalformedFrames(t *testing.T) {
	hub := NewHub(nil)
	hub.Bind(chat.NewManager(hub))

	err := hub.route("conn_x", []byte("{not json"))
	assert.True(t, errors.Is(err, chat.ErrInvalidInput))

	err = hub.route("conn_x", []byte(`{"event":"join","data":"oops"}`))
	assert.True(t, errors.Is(err, chat.ErrInvalidInput))

	err = hub.route("conn_x", []byte(`{"event":"listUsers"}`))
	assert.True(t, errors.Is(err, chat.ErrUnbound))
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"http://localhost:5173"}, "", true},
		{"allowed", []string{"http://localhost:5173"}, "http://localhost:5173", true},
		{"wildcard", []string{"*"}, "http://evil.example", true},
		{"not allowed", []string{"http://localhost:5173"}, "http://evil.example", false},
		{"empty list", nil, "http://anything", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(r))
		})
	}
}
