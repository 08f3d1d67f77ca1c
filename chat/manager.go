package chat

import (
	"sync"
	"time"

	"go-chat/pairchat/logger"
	"go-chat/pairchat/models"
	"go-chat/pairchat/utils"

	"go.uber.org/zap"
)

const welcomeMessage = "Connected to the chat server"

//go:generate mockgen -destination=mocks/ports.go -package=mocks go-chat/pairchat/chat Sink,Archiver,PresenceMirror

// Archiver 接收每一則新訊息 (大廳與私聊)，實作必須立即返回
type Archiver interface {
	Archive(msg models.ChatMessage)
}

// PresenceMirror 接收每次變動後的完整 presence 列表，實作必須立即返回
type PresenceMirror interface {
	Publish(users []models.UserSummary)
}

// Option 設定 Manager
type Option func(*Manager)

func WithArchiver(a Archiver) Option {
	return func(m *Manager) { m.archive = a }
}

func WithPresenceMirror(p PresenceMirror) Option {
	return func(m *Manager) { m.mirror = p }
}

// WithClock 測試用，替換取得時間的方式
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithPeerNotification 私聊中的一方斷線時，是否通知另一方 (預設關閉)
func WithPeerNotification(enabled bool) Option {
	return func(m *Manager) { m.notifyPeer = enabled }
}

// WithRoomIdleTTL 房間閒置超過 ttl 後可被 SweepRooms 清除；0 表示永不清除
func WithRoomIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.roomIdleTTL = ttl }
}

// Manager 擁有所有聊天狀態；每個操作都在同一把鎖內完成
type Manager struct {
	mu sync.Mutex

	registry  *registry
	directory *directory
	rooms     *roomStore
	lobby     History
	dispatch  *Dispatcher

	archive     Archiver
	mirror      PresenceMirror
	now         func() time.Time
	notifyPeer  bool
	roomIdleTTL time.Duration
}

// NewManager 建立 Manager，事件透過 sink 送出
func NewManager(sink Sink, opts ...Option) *Manager {
	rooms := newRoomStore()
	m := &Manager{
		registry:  newRegistry(),
		directory: newDirectory(),
		rooms:     rooms,
		dispatch:  &Dispatcher{sink: sink, rooms: rooms},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect 記錄新連線 (尚未 join)，並只回覆給這條連線歡迎訊息與連線數
func (m *Manager) Connect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registry.attach(connID)
	now := m.now()
	m.dispatch.ToConnection(connID, EventConnected, ConnectedPayload{
		ConnectionID: connID,
		Message:      welcomeMessage,
		Timestamp:    now,
	})
	m.dispatch.ToConnection(connID, EventConnectionInfo, ConnectionInfoPayload{
		TotalConnections: m.registry.count(),
		ServerTime:       now,
	})
	logger.Debug("connection attached", zap.String("connId", connID), zap.Int("total", m.registry.count()))
}

// Join 建立使用者；同一條連線重複 join 時回傳原本的 ID，只把列表送給自己
func (m *Manager) Join(connID, nickname string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if userID, ok := m.registry.userFor(connID); ok {
		m.dispatch.ToConnection(connID, EventPresenceUpdated, PresencePayload{Users: m.directory.list()})
		return userID, nil
	}

	nickname, err := ValidateNickname(nickname)
	if err != nil {
		return "", err
	}

	user := &models.User{
		ID:           utils.NewUserID(),
		Nickname:     nickname,
		ConnectionID: connID,
		Status:       models.StatusOnline,
	}
	m.registry.attach(connID)
	m.registry.bind(connID, user.ID)
	m.directory.add(user)

	m.dispatch.ToConnection(connID, EventJoined, JoinedPayload{
		UserID:   user.ID,
		Nickname: user.Nickname,
		History:  m.lobby.Snapshot(),
	})
	m.presenceChanged()

	logger.Info("user joined",
		zap.String("userId", user.ID),
		zap.String("nickname", user.Nickname),
		zap.Int("users", m.directory.len()))
	return user.ID, nil
}

// ListUsers 把目前的 presence 列表送給呼叫的連線
func (m *Manager) ListUsers(connID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.caller(connID); err != nil {
		return err
	}
	m.dispatch.ToConnection(connID, EventPresenceUpdated, PresencePayload{Users: m.directory.list()})
	return nil
}

// Users 目前的 presence 列表 (依加入順序)
func (m *Manager) Users() []models.UserSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.directory.list()
}

// SendLobbyMessage 寫入大廳紀錄並廣播給所有連線
func (m *Manager) SendLobbyMessage(connID, text string) (models.ChatMessage, error) {
	if err := ValidateMessage(text); err != nil {
		return models.ChatMessage{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sender, err := m.caller(connID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	msg := m.newMessage(sender, text, "")
	m.lobby.Append(msg)
	m.dispatch.ToAll(EventLobbyMessage, msg)
	m.archiveMessage(msg)
	return msg, nil
}

// LobbyHistory 大廳訊息紀錄
func (m *Manager) LobbyHistory() []models.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lobby.Snapshot()
}

// RequestPairing 將呼叫者與目標配對到同一個私聊房間
func (m *Manager) RequestPairing(connID, targetID string) (PairedPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	requester, err := m.caller(connID)
	if err != nil {
		return PairedPayload{}, err
	}
	target, err := m.pairable(requester, targetID)
	if err != nil {
		return PairedPayload{}, err
	}

	// 兩邊的狀態與房間成員在同一個臨界區內一起改變
	room := m.rooms.getOrCreate(requester.ID, target.ID, m.now())
	for _, connID := range []string{requester.ConnectionID, target.ConnectionID} {
		// 一條連線同時只屬於目前配對的房間
		m.rooms.dropConnection(connID)
		m.rooms.join(room, connID)
	}
	for _, u := range []*models.User{requester, target} {
		u.Status = models.StatusChatting
		u.ActiveRoomID = room.ID
	}
	room.LastActivity = m.now()

	payload := PairedPayload{
		RoomID:       room.ID,
		Participants: []models.UserSummary{requester.Summary(), target.Summary()},
		History:      room.History.Snapshot(),
	}
	m.dispatch.ToRoom(room.ID, EventPaired, payload)
	m.presenceChanged()

	logger.Info("users paired",
		zap.String("roomId", room.ID),
		zap.String("requester", requester.ID),
		zap.String("target", target.ID))
	return payload, nil
}

// pairable 在變更狀態之前檢查雙方
func (m *Manager) pairable(requester *models.User, targetID string) (*models.User, error) {
	if targetID == requester.ID {
		return nil, fail(ErrAlreadyChatting, "Cannot start a private chat with yourself")
	}
	target, ok := m.directory.get(targetID)
	if !ok {
		return nil, fail(ErrUserNotFound, "Target user not found")
	}
	if requester.Status == models.StatusChatting {
		return nil, fail(ErrAlreadyChatting, "You are already chatting")
	}
	if target.Status == models.StatusChatting {
		return nil, fail(ErrAlreadyChatting, "Target user is already chatting")
	}
	if _, live := m.registry.userFor(target.ConnectionID); !live {
		return nil, fail(ErrUserNotFound, "Target user not found")
	}
	return target, nil
}

// SendPrivateMessage 寫入房間紀錄並送給房間成員
func (m *Manager) SendPrivateMessage(connID, targetID, text string) (models.ChatMessage, error) {
	if err := ValidateMessage(text); err != nil {
		return models.ChatMessage{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sender, err := m.caller(connID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if _, ok := m.directory.get(targetID); !ok {
		return models.ChatMessage{}, fail(ErrUserNotFound, "Target user not found")
	}
	room, ok := m.rooms.get(DeriveRoomID(sender.ID, targetID))
	if !ok {
		return models.ChatMessage{}, fail(ErrRoomNotFound, "Private chat room not found")
	}

	msg := m.newMessage(sender, text, room.ID)
	room.History.Append(msg)
	room.LastActivity = msg.Timestamp
	m.dispatch.ToRoom(room.ID, EventPrivateMessage, msg)
	m.archiveMessage(msg)
	return msg, nil
}

// LeavePairing 結束私聊；房間與紀錄保留，之後再配對會回到同一個房間
func (m *Manager) LeavePairing(connID, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	requester, err := m.caller(connID)
	if err != nil {
		return err
	}
	roomID := DeriveRoomID(requester.ID, targetID)

	// 只還原確實在這個房間聊天的人
	if requester.ActiveRoomID == roomID {
		setOnline(requester)
	}
	target, ok := m.directory.get(targetID)
	targetPaired := ok && target.ActiveRoomID == roomID
	if targetPaired {
		setOnline(target)
	}

	if room, ok := m.rooms.get(roomID); ok {
		m.rooms.leave(room, connID)
		room.LastActivity = m.now()
		// 對方已離開或改和別人聊天時不再通知
		if targetPaired {
			m.dispatch.ToConnection(target.ConnectionID, EventPairingLeft, PairingLeftPayload{
				UserID:   requester.ID,
				Nickname: requester.Nickname,
			})
		}
	}
	m.presenceChanged()

	logger.Info("pairing left", zap.String("roomId", roomID), zap.String("userId", requester.ID))
	return nil
}

// GetPrivateHistory 回傳與目標之間的房間紀錄，沒有房間時回傳空列表
func (m *Manager) GetPrivateHistory(connID, targetID string) (PrivateHistoryPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	requester, err := m.caller(connID)
	if err != nil {
		return PrivateHistoryPayload{}, err
	}
	roomID := DeriveRoomID(requester.ID, targetID)
	payload := PrivateHistoryPayload{
		RoomID:       roomID,
		TargetUserID: targetID,
		Messages:     []models.ChatMessage{},
	}
	if room, ok := m.rooms.get(roomID); ok {
		payload.Messages = room.History.Snapshot()
	}
	m.dispatch.ToConnection(connID, EventPrivateHistory, payload)
	return payload, nil
}

// Disconnect 連線中斷：移除使用者；若正在私聊，另一方回到 online
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, bound := m.registry.detach(connID)
	m.rooms.dropConnection(connID)
	if !bound {
		logger.Debug("anonymous connection detached", zap.String("connId", connID))
		return
	}
	user, ok := m.directory.get(userID)
	if !ok {
		return
	}
	m.directory.remove(userID)

	if user.Status == models.StatusChatting {
		m.releasePeer(user)
	}
	m.presenceChanged()

	logger.Info("user left",
		zap.String("userId", user.ID),
		zap.String("nickname", user.Nickname),
		zap.Int("users", m.directory.len()))
}

func (m *Manager) releasePeer(user *models.User) {
	room, ok := m.rooms.get(user.ActiveRoomID)
	if !ok {
		return
	}
	peer, ok := m.directory.get(room.Peer(user.ID))
	if !ok || peer.ActiveRoomID != room.ID {
		return
	}
	setOnline(peer)
	room.LastActivity = m.now()

	if m.notifyPeer {
		m.dispatch.ToConnection(peer.ConnectionID, EventPeerDisconnected, PeerDisconnectedPayload{
			UserID:  user.ID,
			Message: user.Nickname + " has disconnected",
		})
	}
}

// Rooms 所有房間的摘要
func (m *Manager) Rooms() []models.RoomSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.rooms.all()
	out := make([]models.RoomSummary, 0, len(all))
	for _, r := range all {
		out = append(out, r.summary(m.roomActive(r)))
	}
	return out
}

// SweepRooms 清除閒置超過 TTL 且沒有人正在使用的房間，回傳清除數量
func (m *Manager) SweepRooms(now time.Time) int {
	if m.roomIdleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, r := range m.rooms.all() {
		if m.roomActive(r) || now.Sub(r.LastActivity) < m.roomIdleTTL {
			continue
		}
		m.rooms.remove(r.ID)
		removed++
	}
	if removed > 0 {
		logger.Info("idle rooms removed", zap.Int("count", removed))
	}
	return removed
}

func (m *Manager) roomActive(r *Room) bool {
	for _, id := range r.Participants {
		if u, ok := m.directory.get(id); ok && u.ActiveRoomID == r.ID {
			return true
		}
	}
	return false
}

func (m *Manager) caller(connID string) (*models.User, error) {
	userID, ok := m.registry.userFor(connID)
	if !ok {
		return nil, fail(ErrUnbound, "User not found")
	}
	user, ok := m.directory.get(userID)
	if !ok {
		return nil, fail(ErrUnbound, "User not found")
	}
	return user, nil
}

func (m *Manager) newMessage(sender *models.User, text, roomID string) models.ChatMessage {
	return models.ChatMessage{
		ID:        utils.NewMessageID(),
		UserID:    sender.ID,
		Nickname:  sender.Nickname,
		Text:      text,
		Timestamp: m.now(),
		RoomID:    roomID,
	}
}

func (m *Manager) presenceChanged() {
	users := m.directory.list()
	m.dispatch.ToAll(EventPresenceUpdated, PresencePayload{Users: users})
	if m.mirror != nil {
		m.mirror.Publish(users)
	}
}

func (m *Manager) archiveMessage(msg models.ChatMessage) {
	if m.archive != nil {
		m.archive.Archive(msg)
	}
}

func setOnline(u *models.User) {
	u.Status = models.StatusOnline
	u.ActiveRoomID = ""
}
