package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go-chat/pairchat/logger"
	"go-chat/pairchat/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const writeTimeout = 2 * time.Second

// Options Redis 連線與 key 設定
type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string // presence hash 的 key，頻道名稱為 Key + ":events"
}

// PresenceMirror 把 presence 列表同步到 Redis，供外部服務讀取；
// 只寫不讀，伺服器狀態仍以記憶體為準
type PresenceMirror struct {
	mu      sync.Mutex
	closed  bool
	client  *redis.Client
	key     string
	channel string
	pending chan []models.UserSummary
	stopped chan struct{}
}

// NewPresenceMirror 連線並確認 Redis 可用
func NewPresenceMirror(ctx context.Context, opts Options) (*PresenceMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", opts.Addr)
	}

	p := &PresenceMirror{
		client:  client,
		key:     opts.Key,
		channel: opts.Key + ":events",
		pending: make(chan []models.UserSummary, 1),
		stopped: make(chan struct{}),
	}
	go p.run()
	logger.Info("presence mirror connected", zap.String("addr", opts.Addr), zap.String("key", opts.Key))
	return p, nil
}

// Publish 實作 chat.PresenceMirror；只保留最新的一份列表
func (p *PresenceMirror) Publish(users []models.UserSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	for {
		select {
		case p.pending <- users:
			return
		default:
		}
		// 丟掉尚未寫出的舊列表
		select {
		case <-p.pending:
		default:
		}
	}
}

func (p *PresenceMirror) run() {
	defer close(p.stopped)
	for users := range p.pending {
		if err := p.write(users); err != nil {
			logger.Warn("mirror presence", zap.Error(err))
		}
	}
}

func (p *PresenceMirror) write(users []models.UserSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	fields := make(map[string]interface{}, len(users))
	for _, u := range users {
		b, err := json.Marshal(u)
		if err != nil {
			return errors.Wrapf(err, "encode user %s", u.ID)
		}
		fields[u.ID] = string(b)
	}
	list, err := json.Marshal(users)
	if err != nil {
		return errors.Wrap(err, "encode presence list")
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, p.key)
		if len(fields) > 0 {
			pipe.HSet(ctx, p.key, fields)
		}
		pipe.Publish(ctx, p.channel, list)
		return nil
	})
	return errors.Wrap(err, "write presence snapshot")
}

// Snapshot 讀回目前在 Redis 中的 presence
func (p *PresenceMirror) Snapshot(ctx context.Context) (map[string]models.UserSummary, error) {
	raw, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read presence snapshot")
	}
	out := make(map[string]models.UserSummary, len(raw))
	for id, v := range raw {
		var u models.UserSummary
		if err := json.Unmarshal([]byte(v), &u); err != nil {
			return nil, errors.Wrapf(err, "decode user %s", id)
		}
		out[id] = u
	}
	return out, nil
}

// Subscribe 訂閱 presence 變動通知
func (p *PresenceMirror) Subscribe(ctx context.Context) *redis.PubSub {
	return p.client.Subscribe(ctx, p.channel)
}

// Close 寫完最後一份列表、清除 key 並關閉連線
func (p *PresenceMirror) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.pending)
	p.mu.Unlock()

	select {
	case <-p.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := p.client.Del(ctx, p.key).Err(); err != nil {
		logger.Warn("clear presence key", zap.Error(err))
	}
	return p.client.Close()
}
