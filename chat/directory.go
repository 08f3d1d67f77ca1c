package chat

import "go-chat/pairchat/models"

// directory 已加入的使用者，依加入順序列出
type directory struct {
	users map[string]*models.User
	order []string
}

func newDirectory() *directory {
	return &directory{users: make(map[string]*models.User)}
}

func (d *directory) add(u *models.User) {
	if _, exists := d.users[u.ID]; !exists {
		d.order = append(d.order, u.ID)
	}
	d.users[u.ID] = u
}

func (d *directory) get(userID string) (*models.User, bool) {
	u, ok := d.users[userID]
	return u, ok
}

func (d *directory) remove(userID string) {
	if _, ok := d.users[userID]; !ok {
		return
	}
	delete(d.users, userID)
	for i, id := range d.order {
		if id == userID {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *directory) list() []models.UserSummary {
	out := make([]models.UserSummary, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.users[id].Summary())
	}
	return out
}

func (d *directory) len() int {
	return len(d.users)
}
