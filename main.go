package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-chat/pairchat/cache"
	"go-chat/pairchat/chat"
	"go-chat/pairchat/config"
	"go-chat/pairchat/database"
	"go-chat/pairchat/handlers"
	"go-chat/pairchat/logger"
	"go-chat/pairchat/middleware"
	"go-chat/pairchat/websocket"

	"github.com/gorilla/mux"
	"github.com/rs/cors" // 引入 CORS 庫
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := websocket.NewHub(cfg.AllowedOrigins)
	opts := []chat.Option{
		chat.WithPeerNotification(cfg.NotifyPeerOnDisconnect),
		chat.WithRoomIdleTTL(cfg.RoomIdleTTL),
	}

	// MongoDB 訊息封存 (選用)
	var archive *database.MessageArchive
	if cfg.MongoDBURI != "" {
		client, err := database.ConnectMongoDB(ctx, cfg.MongoDBURI)
		if err != nil {
			logger.Log.Fatal("mongodb unavailable", zap.Error(err))
		}
		defer database.DisconnectMongoDB(client)

		archive, err = database.NewMessageArchive(ctx, client, cfg.DBName, cfg.MessageTTL)
		if err != nil {
			logger.Log.Fatal("init message archive", zap.Error(err))
		}
		opts = append(opts, chat.WithArchiver(archive))
	}

	// Redis presence 鏡像 (選用)
	var mirror *cache.PresenceMirror
	if cfg.RedisAddr != "" {
		var err error
		mirror, err = cache.NewPresenceMirror(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisPresenceKey,
		})
		if err != nil {
			logger.Log.Fatal("redis unavailable", zap.Error(err))
		}
		opts = append(opts, chat.WithPresenceMirror(mirror))
	}

	manager := chat.NewManager(hub, opts...)
	hub.Bind(manager)
	go hub.Run(ctx)

	if cfg.RoomIdleTTL > 0 {
		go sweepRooms(ctx, manager, cfg.RoomIdleTTL)
	}

	var archiveReader handlers.ArchiveReader
	if archive != nil {
		archiveReader = archive
	}
	api := handlers.New(manager, hub, archiveReader)

	router := mux.NewRouter()
	router.Use(middleware.Recoverer, middleware.RequestLogger)

	router.HandleFunc("/health", api.Health).Methods("GET")
	router.HandleFunc("/users", api.GetUsers).Methods("GET")
	router.HandleFunc("/messages", api.GetLobbyMessages).Methods("GET")
	router.HandleFunc("/rooms", api.GetRooms).Methods("GET")
	router.HandleFunc("/archive/messages", api.GetArchivedMessages).Methods("GET")
	router.HandleFunc("/ws", hub.HandleConnections)

	// 設置 CORS 中介軟體，只允許設定的前端網域
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      c.Handler(router),
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("could not listen", zap.String("addr", serverAddr), zap.Error(err))
		}
	}()

	//當按下 Ctrl+C，程式會收到 SIGINT
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutting down server", zap.String("signal", sig.String()))

	//最多等30秒關閉，避免資料損壞，請求中斷
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	stop()
	if archive != nil {
		if err := archive.Close(shutdownCtx); err != nil {
			logger.Error("flush message archive", zap.Error(err))
		}
	}
	if mirror != nil {
		if err := mirror.Close(shutdownCtx); err != nil {
			logger.Error("close presence mirror", zap.Error(err))
		}
	}

	logger.Info("server exited gracefully")
}

// sweepRooms 定期清除閒置的私聊房間
func sweepRooms(ctx context.Context, m *chat.Manager, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.SweepRooms(now)
		}
	}
}
