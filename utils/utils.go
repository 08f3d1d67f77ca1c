package utils

import (
	"sort"

	"github.com/google/uuid"
)

const (
	userIDPrefix    = "user_"
	messageIDPrefix = "msg_"
	connIDPrefix    = "conn_"
)

// NewUserID 產生新的使用者 ID，例如 user_3f1c...
func NewUserID() string {
	return userIDPrefix + uuid.NewString()
}

// NewMessageID 產生新的訊息 ID
func NewMessageID() string {
	return messageIDPrefix + uuid.NewString()
}

// NewConnectionID 為每一條 WebSocket 連線產生唯一 ID
func NewConnectionID() string {
	return connIDPrefix + uuid.NewString()
}

// SortPair 將兩個 ID 排序後回傳，保證 (a, b) 與 (b, a) 結果相同
func SortPair(a, b string) [2]string {
	ids := []string{a, b}
	sort.Strings(ids)
	return [2]string{ids[0], ids[1]}
}
