package chat

import (
	"time"

	"go-chat/pairchat/models"
)

// 送往客戶端的事件名稱
const (
	EventConnected        = "connected"
	EventConnectionInfo   = "connectionInfo"
	EventJoined           = "joined"
	EventPresenceUpdated  = "presenceUpdated"
	EventLobbyMessage     = "lobbyMessage"
	EventPaired           = "paired"
	EventPrivateMessage   = "privateMessage"
	EventPrivateHistory   = "privateHistory"
	EventPairingLeft      = "pairingLeft"
	EventPeerDisconnected = "peerDisconnected"
	EventError            = "error"
)

type ConnectedPayload struct {
	ConnectionID string    `json:"connectionId"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

type ConnectionInfoPayload struct {
	TotalConnections int       `json:"totalConnections"`
	ServerTime       time.Time `json:"serverTime"`
}

type JoinedPayload struct {
	UserID   string               `json:"userId"`
	Nickname string               `json:"nickname"`
	History  []models.ChatMessage `json:"history"` // 目前的大廳訊息
}

type PresencePayload struct {
	Users []models.UserSummary `json:"users"`
}

type PairedPayload struct {
	RoomID       string               `json:"roomId"`
	Participants []models.UserSummary `json:"participants"`
	History      []models.ChatMessage `json:"history"`
}

type PrivateHistoryPayload struct {
	RoomID       string               `json:"roomId"`
	TargetUserID string               `json:"targetUserId"`
	Messages     []models.ChatMessage `json:"messages"`
}

type PairingLeftPayload struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

type PeerDisconnectedPayload struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
