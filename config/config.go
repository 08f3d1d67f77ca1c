package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go-chat/pairchat/logger"

	"github.com/joho/godotenv" // 引入這個庫來讀取 .env 檔案
	"go.uber.org/zap"
)

// Config 結構體用於儲存應用程式的配置
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// MongoDB 訊息封存；URI 為空時停用
	MongoDBURI string
	DBName     string
	MessageTTL time.Duration

	// Redis presence 鏡像；Addr 為空時停用
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisPresenceKey string

	// 私聊中一方斷線時是否通知另一方
	NotifyPeerOnDisconnect bool
	// 房間閒置多久後清除，0 表示永不清除
	RoomIdleTTL time.Duration
}

// LoadConfig 載入配置，優先從環境變數讀取，其次從 .env 檔案讀取
func LoadConfig() *Config {
	// 嘗試載入 .env 檔案，如果不存在也不會報錯
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, relying on environment variables")
	}

	cfg := &Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigins:         getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		MongoDBURI:             getEnv("MONGODB_URI", ""),
		DBName:                 getEnv("DB_NAME", "chat_app_db"),
		MessageTTL:             time.Duration(getEnvInt("MESSAGE_TTL_SECONDS", 1800)) * time.Second,
		RedisAddr:              getEnv("REDIS_ADDR", ""),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		RedisPresenceKey:       getEnv("REDIS_PRESENCE_KEY", "pairchat:presence"),
		NotifyPeerOnDisconnect: getEnvBool("NOTIFY_PEER_ON_DISCONNECT", false),
		RoomIdleTTL:            getEnvDuration("ROOM_IDLE_TTL", 0),
	}
	return cfg
}

// getEnv 輔助函數，用於從環境變數獲取值，如果不存在或為空則使用預設值
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("invalid integer, using default", zap.String("key", key), zap.String("value", raw))
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn("invalid boolean, using default", zap.String("key", key), zap.String("value", raw))
		return defaultValue
	}
	return v
}

// getEnvDuration 接受 "10m" 這類格式，純數字視為秒
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn("invalid duration, using default", zap.String("key", key), zap.String("value", raw))
		return defaultValue
	}
	return v
}

// getEnvList 以逗號分隔
func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
