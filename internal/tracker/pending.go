package tracker

import (
	"sync"

	"StalkMarket/internal/model"
)

// pendingSet allows one open proposal per user.
type pendingSet struct {
	mu    sync.Mutex
	users map[model.UserID]struct{}
}

func (p *pendingSet) acquire(uid model.UserID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.users == nil {
		p.users = make(map[model.UserID]struct{})
	}
	if _, busy := p.users[uid]; busy {
		return false
	}
	p.users[uid] = struct{}{}
	return true
}

func (p *pendingSet) release(uid model.UserID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, uid)
}
