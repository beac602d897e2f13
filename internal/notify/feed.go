package notify

import "sync"

// Change is one decoded change notification from the store.
type Change struct {
	Table  string `json:"table"`
	Op     string `json:"op"`
	RoomID string `json:"room_id,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// Handler consumes change notifications. Handlers run on the listener
// goroutine and should hand work off rather than block.
type Handler func(Change)

// Feed fans decoded notifications out to in-process subscribers: per-room,
// per-user, and unfiltered. Every Subscribe returns a disposer.
type Feed struct {
	mu         sync.RWMutex
	roomSubs   map[string]map[int]Handler
	userSubs   map[string]map[int]Handler
	globalSubs map[int]Handler
	nextID     int
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		roomSubs:   make(map[string]map[int]Handler),
		userSubs:   make(map[string]map[int]Handler),
		globalSubs: make(map[int]Handler),
	}
}

// SubscribeRoom delivers changes scoped to one room (messages, read
// statuses and participant edges carrying that room id).
func (f *Feed) SubscribeRoom(roomID string, h Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	if _, ok := f.roomSubs[roomID]; !ok {
		f.roomSubs[roomID] = make(map[int]Handler)
	}
	f.roomSubs[roomID][id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if subs, ok := f.roomSubs[roomID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(f.roomSubs, roomID)
			}
		}
	}
}

// SubscribeUser delivers changes carrying the given user id (bans,
// participant edges).
func (f *Feed) SubscribeUser(userID string, h Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	if _, ok := f.userSubs[userID]; !ok {
		f.userSubs[userID] = make(map[int]Handler)
	}
	f.userSubs[userID][id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if subs, ok := f.userSubs[userID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(f.userSubs, userID)
			}
		}
	}
}

// Subscribe delivers every change, unfiltered.
func (f *Feed) Subscribe(h Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.globalSubs[id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.globalSubs, id)
	}
}

// Dispatch routes one change to every matching subscriber.
func (f *Feed) Dispatch(change Change) {
	f.mu.RLock()
	handlers := make([]Handler, 0, 4)
	if change.RoomID != "" {
		for _, h := range f.roomSubs[change.RoomID] {
			handlers = append(handlers, h)
		}
	}
	if change.UserID != "" {
		for _, h := range f.userSubs[change.UserID] {
			handlers = append(handlers, h)
		}
	}
	for _, h := range f.globalSubs {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(change)
	}
}
