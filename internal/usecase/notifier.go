package usecase

import (
	"encoding/json"
	"sync"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/logger"
)

// Pusher delivers a serialized notification to one connected user.
type Pusher interface {
	SendToUser(userID string, payload []byte)
}

// NotificationPayload is the wire shape pushed to clients. Title and Body
// are prerendered so the client can raise a system notification directly.
type NotificationPayload struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversationId,omitempty"`
	Scope          string          `json:"scope,omitempty"`
	Title          string          `json:"title,omitempty"`
	Body           string          `json:"body,omitempty"`
	Message        *entity.Message `json:"message,omitempty"`
	UnreadCount    int             `json:"unreadCount,omitempty"`
	TotalUnread    int             `json:"totalUnread,omitempty"`
	OnlineUsers    []string        `json:"onlineUsers,omitempty"`
}

const notificationBodyLimit = 80

// NotificationDispatcher consumes one session's event stream and decides,
// per incoming message, whether the user should be alerted. Everything
// else on the stream (unread counts, presence, conversation list) is
// forwarded as-is so the client can update its views.
type NotificationDispatcher struct {
	userID string
	pusher Pusher

	mu      sync.Mutex
	focused string
	done    chan struct{}
	once    sync.Once
}

func NewNotificationDispatcher(userID string, pusher Pusher) *NotificationDispatcher {
	return &NotificationDispatcher{
		userID: userID,
		pusher: pusher,
		done:   make(chan struct{}),
	}
}

// SetFocused records which conversation the user currently has open.
// An empty key means no conversation is focused.
func (d *NotificationDispatcher) SetFocused(scopeKey string) {
	d.mu.Lock()
	d.focused = scopeKey
	d.mu.Unlock()
}

// Run drains the session event channel until it closes or Stop is called.
func (d *NotificationDispatcher) Run(events <-chan Event, cancel func()) {
	go func() {
		<-d.done
		cancel()
	}()

	go func() {
		for ev := range events {
			d.dispatch(ev)
		}
	}()
}

func (d *NotificationDispatcher) Stop() {
	d.once.Do(func() { close(d.done) })
}

func (d *NotificationDispatcher) dispatch(ev Event) {
	switch ev.Type {
	case EventNewMessage:
		d.dispatchMessage(ev)

	case EventUnreadCountChanged:
		d.push(NotificationPayload{
			Type:           string(ev.Type),
			ConversationID: ev.Scope.ID,
			Scope:          string(ev.Scope.Kind),
			UnreadCount:    ev.UnreadCount,
			TotalUnread:    ev.TotalUnread,
		})

	case EventOnlineUsersChanged:
		d.push(NotificationPayload{
			Type:        string(ev.Type),
			OnlineUsers: ev.OnlineUsers,
		})

	case EventReady, EventConversationsChanged:
		d.push(NotificationPayload{Type: string(ev.Type)})
	}
}

// dispatchMessage applies the alert suppression rules: messages the user
// sent, messages already read by them, global chatter and messages in the
// conversation they are looking at never produce an alert.
func (d *NotificationDispatcher) dispatchMessage(ev Event) {
	msg := ev.Message
	if msg == nil {
		return
	}
	if msg.SenderID == d.userID {
		return
	}
	if msg.IsReadBy(d.userID) {
		return
	}
	if ev.Scope.Kind == entity.ScopeGlobal {
		return
	}

	d.mu.Lock()
	focused := d.focused
	d.mu.Unlock()
	if focused != "" && focused == ev.Scope.Key() {
		return
	}

	title := msg.SenderName
	if ev.Scope.Kind == entity.ScopeGroup {
		title += " (grupo)"
	}

	d.push(NotificationPayload{
		Type:           string(ev.Type),
		ConversationID: ev.Scope.ID,
		Scope:          string(ev.Scope.Kind),
		Title:          title,
		Body:           truncateBody(msg.Body, notificationBodyLimit),
		Message:        msg,
	})
}

func truncateBody(body string, limit int) string {
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit]) + "…"
}

func (d *NotificationDispatcher) push(p NotificationPayload) {
	data, err := json.Marshal(p)
	if err != nil {
		logger.Error("Notification marshal failed: %v", err)
		return
	}
	d.pusher.SendToUser(d.userID, data)
}
