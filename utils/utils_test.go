package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIDs(t *testing.T) {
	userID := NewUserID()
	msgID := NewMessageID()
	connID := NewConnectionID()

	assert.True(t, strings.HasPrefix(userID, "user_"), "使用者 ID 應以 user_ 開頭")
	assert.True(t, strings.HasPrefix(msgID, "msg_"), "訊息 ID 應以 msg_ 開頭")
	assert.True(t, strings.HasPrefix(connID, "conn_"), "連線 ID 應以 conn_ 開頭")

	// 連續產生不應重複
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewUserID()
		assert.False(t, seen[id], "ID 不應重複")
		seen[id] = true
	}
}

func TestSortPair(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want [2]string
	}{
		{"already sorted", "user_a", "user_b", [2]string{"user_a", "user_b"}},
		{"reversed", "user_b", "user_a", [2]string{"user_a", "user_b"}},
		{"equal", "user_x", "user_x", [2]string{"user_x", "user_x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SortPair(tt.a, tt.b))
			assert.Equal(t, SortPair(tt.a, tt.b), SortPair(tt.b, tt.a), "順序不應影響結果")
		})
	}
}
