package models

import "time"

// RoomSummary 私聊房間的元資料 (不含訊息內容)
type RoomSummary struct {
	ID             string    `json:"id"`
	ParticipantIDs [2]string `json:"participantIds"`
	MessageCount   int       `json:"messageCount"`
	Active         bool      `json:"active"` // 兩位參與者是否正在此房間聊天
	LastActivity   time.Time `json:"lastActivity"`
}
