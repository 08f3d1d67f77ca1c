package models

import (
	"time"
)

// ChatMessage 代表一則大廳或私聊訊息，建立後不再修改
type ChatMessage struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	Nickname  string    `bson:"nickname" json:"nickname"`
	Text      string    `bson:"text" json:"text"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	RoomID    string    `bson:"roomId,omitempty" json:"roomId,omitempty"` // 大廳訊息為空
}
