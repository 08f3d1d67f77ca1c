package chat

// Sink 由傳輸層實作，送出時不可阻塞
type Sink interface {
	Broadcast(event string, payload interface{})
	Send(connID string, event string, payload interface{}) bool
}

// Dispatcher 負責把事件送到全部連線、單一連線或某個房間
type Dispatcher struct {
	sink  Sink
	rooms *roomStore
}

func (d *Dispatcher) ToAll(event string, payload interface{}) {
	d.sink.Broadcast(event, payload)
}

func (d *Dispatcher) ToConnection(connID, event string, payload interface{}) bool {
	return d.sink.Send(connID, event, payload)
}

// ToRoom 送給房間目前的成員，已斷線的連線直接略過；回傳成功送達的數量
func (d *Dispatcher) ToRoom(roomID, event string, payload interface{}, except ...string) int {
	delivered := 0
	for _, connID := range d.rooms.members(roomID) {
		if contains(except, connID) {
			continue
		}
		if d.sink.Send(connID, event, payload) {
			delivered++
		}
	}
	return delivered
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
