package websocket

import (
	"encoding/json"

	"go-chat/pairchat/chat"

	"github.com/pkg/errors"
)

// 客戶端送來的指令
const (
	cmdJoin               = "join"
	cmdListUsers          = "listUsers"
	cmdSendLobbyMessage   = "sendLobbyMessage"
	cmdRequestPairing     = "requestPairing"
	cmdSendPrivateMessage = "sendPrivateMessage"
	cmdLeavePairing       = "leavePairing"
	cmdGetPrivateHistory  = "getPrivateHistory"
)

type joinRequest struct {
	Nickname string `json:"nickname"`
}

type lobbyMessageRequest struct {
	Text string `json:"text"`
}

type targetRequest struct {
	TargetUserID string `json:"targetUserId"`
}

type privateMessageRequest struct {
	TargetUserID string `json:"targetUserId"`
	Text         string `json:"text"`
}

// route 解析訊框並交給 Manager；回傳的錯誤只會送回給這條連線
func (h *Hub) route(connID string, raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errors.Wrap(chat.ErrInvalidInput, "malformed frame")
	}

	switch env.Event {
	case cmdJoin:
		var req joinRequest
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		_, err := h.manager.Join(connID, req.Nickname)
		return err

	case cmdListUsers:
		return h.manager.ListUsers(connID)

	case cmdSendLobbyMessage:
		var req lobbyMessageRequest
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		_, err := h.manager.SendLobbyMessage(connID, req.Text)
		return err

	case cmdRequestPairing:
		var req targetRequest
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		_, err := h.manager.RequestPairing(connID, req.TargetUserID)
		return err

	case cmdSendPrivateMessage:
		var req privateMessageRequest
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		_, err := h.manager.SendPrivateMessage(connID, req.TargetUserID, req.Text)
		return err

	case cmdLeavePairing:
		var req targetRequest
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		return h.manager.LeavePairing(connID, req.TargetUserID)

	case cmdGetPrivateHistory:
		var req targetRequest
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		_, err := h.manager.GetPrivateHistory(connID, req.TargetUserID)
		return err
	}

	return errors.Wrapf(chat.ErrInvalidInput, "unknown event %q", env.Event)
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(chat.ErrInvalidInput, "malformed payload")
	}
	return nil
}
