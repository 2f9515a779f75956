package backend

import "sync"

// Hub fans session transitions out to subscribed handlers. Client
// implementations embed one instead of rolling their own bookkeeping.
type Hub struct {
	mutex    sync.RWMutex
	handlers map[int]SessionHandler
	nextSub  int
}

// Subscribe registers h and returns an idempotent disposer.
func (hub *Hub) Subscribe(h SessionHandler) Unsubscribe {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	if hub.handlers == nil {
		hub.handlers = make(map[int]SessionHandler)
	}
	id := hub.nextSub
	hub.nextSub++
	hub.handlers[id] = h
	return func() {
		hub.mutex.Lock()
		defer hub.mutex.Unlock()
		delete(hub.handlers, id)
	}
}

// Broadcast invokes all handlers synchronously, each with its own copy of the
// session. sess is nil after a sign-out.
func (hub *Hub) Broadcast(sess *Session) {
	hub.mutex.RLock()
	handlers := make([]SessionHandler, 0, len(hub.handlers))
	for _, h := range hub.handlers {
		handlers = append(handlers, h)
	}
	hub.mutex.RUnlock()

	for _, h := range handlers {
		var cp *Session
		if sess != nil {
			s := *sess
			cp = &s
		}
		h(cp)
	}
}
