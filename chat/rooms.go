package chat

import (
	"sort"
	"time"

	"go-chat/pairchat/models"
	"go-chat/pairchat/utils"
)

const roomSeparator = "-private-"

// DeriveRoomID 由兩個使用者 ID 算出房間 ID，與參數順序無關
func DeriveRoomID(a, b string) string {
	pair := utils.SortPair(a, b)
	return pair[0] + roomSeparator + pair[1]
}

// Room 兩人私聊房間，第一次配對時建立
type Room struct {
	ID           string
	Participants [2]string
	History      History
	LastActivity time.Time

	members map[string]struct{} // 目前加入此房間的連線 ID
}

// Peer 回傳另一位參與者
func (r *Room) Peer(userID string) string {
	if r.Participants[0] == userID {
		return r.Participants[1]
	}
	return r.Participants[0]
}

func (r *Room) summary(active bool) models.RoomSummary {
	return models.RoomSummary{
		ID:             r.ID,
		ParticipantIDs: r.Participants,
		MessageCount:   r.History.Len(),
		Active:         active,
		LastActivity:   r.LastActivity,
	}
}

// roomStore 保存所有房間與連線的房間成員關係
type roomStore struct {
	rooms  map[string]*Room
	byConn map[string]map[string]struct{} // 連線 ID -> 房間 ID 集合
}

func newRoomStore() *roomStore {
	return &roomStore{
		rooms:  make(map[string]*Room),
		byConn: make(map[string]map[string]struct{}),
	}
}

// getOrCreate 同一對使用者永遠拿到同一個房間
func (s *roomStore) getOrCreate(a, b string, now time.Time) *Room {
	id := DeriveRoomID(a, b)
	if r, ok := s.rooms[id]; ok {
		return r
	}
	r := &Room{
		ID:           id,
		Participants: utils.SortPair(a, b),
		LastActivity: now,
		members:      make(map[string]struct{}),
	}
	s.rooms[id] = r
	return r
}

func (s *roomStore) get(id string) (*Room, bool) {
	r, ok := s.rooms[id]
	return r, ok
}

func (s *roomStore) join(r *Room, connID string) {
	r.members[connID] = struct{}{}
	if _, ok := s.byConn[connID]; !ok {
		s.byConn[connID] = make(map[string]struct{})
	}
	s.byConn[connID][r.ID] = struct{}{}
}

func (s *roomStore) leave(r *Room, connID string) {
	delete(r.members, connID)
	if set, ok := s.byConn[connID]; ok {
		delete(set, r.ID)
		if len(set) == 0 {
			delete(s.byConn, connID)
		}
	}
}

// dropConnection 將連線從所有房間的成員中移除
func (s *roomStore) dropConnection(connID string) {
	for roomID := range s.byConn[connID] {
		if r, ok := s.rooms[roomID]; ok {
			delete(r.members, connID)
		}
	}
	delete(s.byConn, connID)
}

// members 在送出當下才解析房間成員
func (s *roomStore) members(roomID string) []string {
	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.members))
	for connID := range r.members {
		out = append(out, connID)
	}
	sort.Strings(out)
	return out
}

func (s *roomStore) remove(id string) {
	r, ok := s.rooms[id]
	if !ok {
		return
	}
	for connID := range r.members {
		s.leave(r, connID)
	}
	delete(s.rooms, id)
}

func (s *roomStore) all() []*Room {
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
