package chat

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateNickname(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"trimmed", "  alice ", "alice", false},
		{"max length", strings.Repeat("é", MaxNicknameLength), strings.Repeat("é", MaxNicknameLength), false},
		{"empty", "", "", true},
		{"blank", " \t ", "", true},
		{"too long", strings.Repeat("a", MaxNicknameLength+1), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateNickname(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidInput))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"ok", "hello", ""},
		{"keeps spaces", "  hi  ", ""},
		{"max length", strings.Repeat("字", MaxMessageLength), ""},
		{"blank", "   ", "Message cannot be empty"},
		{"invalid utf8", "hi \xff\xfe", "Message must be valid UTF-8"},
		{"too long", strings.Repeat("a", MaxMessageLength+1), "Message is too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Equal(t, tt.wantErr, Describe(err))
		})
	}
}
