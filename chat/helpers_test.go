package chat

import (
	"sync"
	"time"
)

type sentEvent struct {
	connID  string
	event   string
	payload interface{}
}

// recordingSink 記錄所有送出的事件；不在 live 裡的連線視為已斷線
type recordingSink struct {
	mu         sync.Mutex
	live       map[string]bool
	sent       []sentEvent
	broadcasts []sentEvent
}

func newRecordingSink() *recordingSink {
	return &recordingSink{live: make(map[string]bool)}
}

func (s *recordingSink) Broadcast(event string, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcasts = append(s.broadcasts, sentEvent{event: event, payload: payload})
}

func (s *recordingSink) Send(connID, event string, payload interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live[connID] {
		return false
	}
	s.sent = append(s.sent, sentEvent{connID: connID, event: event, payload: payload})
	return true
}

// to 回傳某條連線收到的特定事件
func (s *recordingSink) to(connID, event string) []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []interface{}
	for _, e := range s.sent {
		if e.connID == connID && e.event == event {
			out = append(out, e.payload)
		}
	}
	return out
}

func (s *recordingSink) lastBroadcast(event string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.broadcasts) - 1; i >= 0; i-- {
		if s.broadcasts[i].event == event {
			return s.broadcasts[i].payload, true
		}
	}
	return nil, false
}

func (s *recordingSink) drop(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, connID)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// connect 模擬一條新連線
func connect(m *Manager, sink *recordingSink, connID string) {
	sink.mu.Lock()
	sink.live[connID] = true
	sink.mu.Unlock()
	m.Connect(connID)
}
