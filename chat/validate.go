package chat

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxNicknameLength = 50
	MaxMessageLength  = 5000
)

// ValidateNickname 去掉前後空白後檢查暱稱
func ValidateNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return "", fail(ErrInvalidInput, "Nickname is required")
	}
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return "", fail(ErrInvalidInput, "Nickname is too long")
	}
	return nickname, nil
}

// ValidateMessage 檢查訊息內容，保留原本的空白
func ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return fail(ErrInvalidInput, "Message cannot be empty")
	}
	if !utf8.ValidString(text) {
		return fail(ErrInvalidInput, "Message must be valid UTF-8")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return fail(ErrInvalidInput, "Message is too long")
	}
	return nil
}
