package chat

import (
	"github.com/pkg/errors"
)

// 錯誤分類，呼叫端用 errors.Is 判斷
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrAlreadyChatting = errors.New("already chatting")
	ErrUnbound         = errors.New("connection has not joined")
	ErrInvalidInput    = errors.New("invalid input")
)

// OpError 帶有回傳給客戶端的訊息
type OpError struct {
	Kind    error
	Message string
}

func (e *OpError) Error() string { return e.Message + ": " + e.Kind.Error() }

func (e *OpError) Unwrap() error { return e.Kind }

func fail(kind error, message string) error {
	return errors.WithStack(&OpError{Kind: kind, Message: message})
}

// Describe 把錯誤轉成可以送給客戶端的文字
func Describe(err error) string {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	switch {
	case errors.Is(err, ErrUnbound):
		return "Join the lobby first"
	case errors.Is(err, ErrInvalidInput):
		return "Invalid request"
	}
	return "Internal server error"
}
