package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ALLOWED_ORIGINS", "MONGODB_URI", "REDIS_ADDR", "NOTIFY_PEER_ON_DISCONNECT", "ROOM_IDLE_TTL", "MESSAGE_TTL_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.MongoDBURI, "預設不啟用 MongoDB")
	assert.Empty(t, cfg.RedisAddr, "預設不啟用 Redis")
	assert.False(t, cfg.NotifyPeerOnDisconnect, "預設不通知對方")
	assert.Zero(t, cfg.RoomIdleTTL, "預設房間永不過期")
	assert.Equal(t, 30*time.Minute, cfg.MessageTTL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example,")
	t.Setenv("NOTIFY_PEER_ON_DISCONNECT", "true")
	t.Setenv("ROOM_IDLE_TTL", "15m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MESSAGE_TTL_SECONDS", "60")

	cfg := LoadConfig()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.NotifyPeerOnDisconnect)
	assert.Equal(t, 15*time.Minute, cfg.RoomIdleTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.MessageTTL)
}

func TestEnvParsersFallBack(t *testing.T) {
	t.Setenv("BAD_INT", "abc")
	t.Setenv("BAD_BOOL", "maybe")
	t.Setenv("BAD_DURATION", "soon")
	t.Setenv("SECONDS_DURATION", "90")

	assert.Equal(t, 7, getEnvInt("BAD_INT", 7))
	assert.True(t, getEnvBool("BAD_BOOL", true))
	assert.Equal(t, time.Second, getEnvDuration("BAD_DURATION", time.Second))
	assert.Equal(t, 90*time.Second, getEnvDuration("SECONDS_DURATION", 0))
}
