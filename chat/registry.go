package chat

// registry 連線 ID -> 使用者 ID 的索引；尚未 join 的連線對應空字串
type registry struct {
	conns map[string]string
}

func newRegistry() *registry {
	return &registry{conns: make(map[string]string)}
}

func (r *registry) attach(connID string) {
	if _, ok := r.conns[connID]; !ok {
		r.conns[connID] = ""
	}
}

func (r *registry) bind(connID, userID string) {
	r.conns[connID] = userID
}

// userFor 只有在連線已綁定使用者時回傳 true
func (r *registry) userFor(connID string) (string, bool) {
	userID := r.conns[connID]
	return userID, userID != ""
}

// detach 移除連線，並回傳原本綁定的使用者
func (r *registry) detach(connID string) (string, bool) {
	userID, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	delete(r.conns, connID)
	return userID, userID != ""
}

func (r *registry) count() int {
	return len(r.conns)
}
