package database

import (
	"context"
	"sync"
	"time"

	"go-chat/pairchat/logger"
	"go-chat/pairchat/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	messagesCollection = "messages"
	archiveBufferSize  = 1024
	writeTimeout       = 5 * time.Second
)

// ConnectMongoDB 建立 MongoDB 連線並確認可用
func ConnectMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongodb")
	}

	logger.Info("connected to mongodb")
	return client, nil
}

// DisconnectMongoDB 關閉 MongoDB 連線
func DisconnectMongoDB(client *mongo.Client) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("disconnect mongodb", zap.Error(err))
		return
	}
	logger.Info("disconnected from mongodb")
}

// MessageArchive 將訊息非同步寫入 MongoDB；僅作為紀錄，啟動時不會讀回
type MessageArchive struct {
	mu      sync.RWMutex
	closed  bool
	coll    *mongo.Collection
	queue   chan models.ChatMessage
	stopped chan struct{}
}

// NewMessageArchive 建立 TTL 索引並啟動寫入 goroutine，ttl 為 0 時不設過期
func NewMessageArchive(ctx context.Context, client *mongo.Client, dbName string, ttl time.Duration) (*MessageArchive, error) {
	coll := client.Database(dbName).Collection(messagesCollection)

	if ttl > 0 {
		// 設定規則:自動清理超過 ttl 的訊息
		indexModel := mongo.IndexModel{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
		}
		if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
			return nil, errors.Wrap(err, "create ttl index for messages")
		}
		logger.Info("ttl index ready", zap.Duration("ttl", ttl))
	}

	a := &MessageArchive{
		coll:    coll,
		queue:   make(chan models.ChatMessage, archiveBufferSize),
		stopped: make(chan struct{}),
	}
	go a.run()
	return a, nil
}

// Archive 實作 chat.Archiver；佇列已滿或已關閉時丟棄
func (a *MessageArchive) Archive(msg models.ChatMessage) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- msg:
	default:
		logger.Warn("archive queue full, dropping message", zap.String("msgId", msg.ID))
	}
}

func (a *MessageArchive) run() {
	defer close(a.stopped)
	for msg := range a.queue {
		if err := a.insert(msg); err != nil {
			logger.Error("archive message", zap.String("msgId", msg.ID), zap.Error(err))
		}
	}
}

func (a *MessageArchive) insert(msg models.ChatMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_, err := a.coll.InsertOne(ctx, msg)
	return errors.Wrapf(err, "insert message %s", msg.ID)
}

// Close 等待佇列寫完，之後的 Archive 會被忽略
func (a *MessageArchive) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	select {
	case <-a.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RoomMessages 依時間排序回傳房間最近的 limit 筆訊息；roomID 為空時查詢大廳
func (a *MessageArchive) RoomMessages(ctx context.Context, roomID string, limit int64) ([]models.ChatMessage, error) {
	filter := bson.M{"roomId": bson.M{"$exists": false}}
	if roomID != "" {
		filter = bson.M{"roomId": roomID}
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)

	cursor, err := a.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, errors.Wrapf(err, "find messages for room %q", roomID)
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, errors.Wrapf(err, "decode messages for room %q", roomID)
	}
	// 查詢是由新到舊，反轉成由舊到新
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
