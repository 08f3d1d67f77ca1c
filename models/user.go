package models

// Status 使用者目前的狀態
type Status string

const (
	StatusOnline   Status = "online"   // 在大廳，可被配對
	StatusChatting Status = "chatting" // 正在私聊中
)

// User 代表一個已加入的使用者，只存在於記憶體中
type User struct {
	ID           string `json:"id"`
	Nickname     string `json:"nickname"`
	ConnectionID string `json:"connectionId"`
	Status       Status `json:"status"`
	ActiveRoomID string `json:"-"` // 目前所在的私聊房間，online 時為空
}

// Summary 轉成對外公開的摘要 (不含連線資訊)
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Nickname: u.Nickname, Status: u.Status}
}

// UserSummary 用於 presence 列表
type UserSummary struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Status   Status `json:"status"`
}

// ErrorResponse 結構體用於返回 JSON 格式的錯誤訊息
type ErrorResponse struct {
	Message string `json:"message"`
}
