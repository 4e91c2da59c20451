package usecase

import (
	"sync"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/logger"
)

type EventType string

const (
	EventReady                EventType = "ready"
	EventNewMessage           EventType = "new_message"
	EventUnreadCountChanged   EventType = "unread_count_changed"
	EventOnlineUsersChanged   EventType = "online_users_changed"
	EventConversationsChanged EventType = "conversations_changed"
)

// Event is one item on the session's outward surface, consumed by the UI
// and the notification dispatcher rather than polled.
type Event struct {
	Type        EventType
	Scope       entity.Scope
	Message     *entity.Message
	UnreadCount int
	TotalUnread int
	OnlineUsers []string
}

// eventEmitter fans session events out to any number of subscribers. Slow
// subscribers are skipped, never blocked on; the session's execution context
// must not stall behind a consumer.
type eventEmitter struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func newEventEmitter() *eventEmitter {
	return &eventEmitter{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of future events and a detach function.
func (e *eventEmitter) Subscribe() (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	ch := make(chan Event, 64)
	if e.closed {
		close(ch)
		return ch, func() {}
	}
	e.subs[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if sub, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (e *eventEmitter) Emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			logger.Warn("Dropping %s event for slow subscriber", ev.Type)
		}
	}
}

func (e *eventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}
