package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go-chat/pairchat/logger"
	"go-chat/pairchat/models"

	"go.uber.org/zap"
)

const (
	defaultArchiveLimit = 50
	maxArchiveLimit     = 500
)

// StateReader 目前聊天狀態的唯讀檢視
type StateReader interface {
	Users() []models.UserSummary
	LobbyHistory() []models.ChatMessage
	Rooms() []models.RoomSummary
}

// ArchiveReader 讀取 MongoDB 封存的訊息
type ArchiveReader interface {
	RoomMessages(ctx context.Context, roomID string, limit int64) ([]models.ChatMessage, error)
}

// ConnectionCounter 回傳目前 WebSocket 連線數
type ConnectionCounter interface {
	ClientCount() int
}

// Handler 唯讀 REST API
type Handler struct {
	state   StateReader
	conns   ConnectionCounter
	archive ArchiveReader // 可為 nil
}

func New(state StateReader, conns ConnectionCounter, archive ArchiveReader) *Handler {
	return &Handler{state: state, conns: conns, archive: archive}
}

type healthResponse struct {
	Status      string    `json:"status"`
	Connections int       `json:"connections"`
	Users       int       `json:"users"`
	ServerTime  time.Time `json:"serverTime"`
}

// Health 健康檢查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Connections: h.conns.ClientCount(),
		Users:       len(h.state.Users()),
		ServerTime:  time.Now(),
	})
}

// GetUsers 目前的 presence 列表
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Users())
}

// GetLobbyMessages 大廳最近的訊息
func (h *Handler) GetLobbyMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state.LobbyHistory())
}

// GetRooms 房間摘要，不含訊息內容
func (h *Handler) GetRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Rooms())
}

// GetArchivedMessages 從封存查詢訊息：?roomId=...&limit=...，roomId 為空時查大廳
func (h *Handler) GetArchivedMessages(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		sendJSONError(w, "Message archive is disabled", http.StatusNotFound)
		return
	}

	limit := int64(defaultArchiveLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 || v > maxArchiveLimit {
			sendJSONError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = v
	}

	messages, err := h.archive.RoomMessages(r.Context(), r.URL.Query().Get("roomId"), limit)
	if err != nil {
		logger.Error("read archived messages", zap.Error(err))
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", zap.Error(err))
	}
}

// sendJSONError 統一發送 JSON 格式錯誤響應
func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, models.ErrorResponse{Message: message})
}
