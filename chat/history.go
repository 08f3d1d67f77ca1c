package chat

import "go-chat/pairchat/models"

// MaxHistory 每個訊息紀錄 (大廳或私聊房間) 最多保留的筆數
const MaxHistory = 100

// History 有上限的訊息紀錄，超過上限時從最舊的開始丟棄
type History struct {
	messages []models.ChatMessage
}

// Append 先加入再截斷，只保留最新的 MaxHistory 筆
func (h *History) Append(msg models.ChatMessage) {
	h.messages = append(h.messages, msg)
	if len(h.messages) > MaxHistory {
		h.messages = h.messages[len(h.messages)-MaxHistory:]
	}
}

// Snapshot 回傳複本，呼叫端可以安全持有
func (h *History) Snapshot() []models.ChatMessage {
	out := make([]models.ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int {
	return len(h.messages)
}
