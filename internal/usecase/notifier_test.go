package usecase

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
)

func dispatchEvent(d *NotificationDispatcher, ev Event) {
	d.dispatch(ev)
}

func newMessageEvent(scope entity.Scope, msg entity.Message) Event {
	return Event{Type: EventNewMessage, Scope: scope, Message: &msg}
}

func TestDispatcherSuppressesOwnMessages(t *testing.T) {
	pusher := &fakePusher{}
	d := NewNotificationDispatcher("bob", pusher)

	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))
	dispatchEvent(d, newMessageEvent(scope, entity.Message{ID: "m1", SenderID: "bob", Body: "my own"}))

	assert.Zero(t, pusher.count())
}

func TestDispatcherSuppressesAlreadyRead(t *testing.T) {
	pusher := &fakePusher{}
	d := NewNotificationDispatcher("bob", pusher)

	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))
	dispatchEvent(d, newMessageEvent(scope, entity.Message{ID: "m1", SenderID: "alice", Body: "oi", Read: true}))

	groupScope := entity.GroupScope("g1")
	dispatchEvent(d, newMessageEvent(groupScope, entity.Message{
		ID: "m2", SenderID: "alice", Body: "oi grupo",
		ReadBy: map[string]bool{"bob": true},
	}))

	assert.Zero(t, pusher.count())
}

func TestDispatcherSuppressesGlobalScope(t *testing.T) {
	pusher := &fakePusher{}
	d := NewNotificationDispatcher("bob", pusher)

	dispatchEvent(d, newMessageEvent(entity.GlobalScope(), entity.Message{ID: "m1", SenderID: "alice", Body: "hi all"}))

	assert.Zero(t, pusher.count())
}

func TestDispatcherSuppressesFocusedConversation(t *testing.T) {
	pusher := &fakePusher{}
	d := NewNotificationDispatcher("bob", pusher)

	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))
	d.SetFocused(scope.Key())
	dispatchEvent(d, newMessageEvent(scope, entity.Message{ID: "m1", SenderID: "alice", Body: "oi"}))
	assert.Zero(t, pusher.count())

	// Unfocusing re-enables alerts for the same conversation.
	d.SetFocused("")
	dispatchEvent(d, newMessageEvent(scope, entity.Message{ID: "m2", SenderID: "alice", Body: "oi?"}))
	assert.Equal(t, 1, pusher.count())
}

func TestDispatcherPushesQualifyingMessage(t *testing.T) {
	pusher := &fakePusher{}
	d := NewNotificationDispatcher("bob", pusher)

	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))
	dispatchEvent(d, newMessageEvent(scope, entity.Message{ID: "m1", SenderID: "alice", SenderName: "Alice", Body: "oi"}))

	require.Equal(t, 1, pusher.count())

	var payload NotificationPayload
	require.NoError(t, json.Unmarshal(pusher.payloads[0], &payload))
	assert.Equal(t, string(EventNewMessage), payload.Type)
	assert.Equal(t, scope.ID, payload.ConversationID)
	assert.Equal(t, "private", payload.Scope)
	require.NotNil(t, payload.Message)
	assert.Equal(t, "oi", payload.Message.Body)
}

func TestDispatcherTruncatesLongBodies(t *testing.T) {
	pusher := &fakePusher{}
	d := NewNotificationDispatcher("bob", pusher)

	long := strings.Repeat("a", 200)
	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))
	dispatchEvent(d, newMessageEvent(scope, entity.Message{ID: "m1", SenderID: "alice", SenderName: "Alice", Body: long}))

	require.Equal(t, 1, pusher.count())
	var payload NotificationPayload
	require.NoError(t, json.Unmarshal(pusher.payloads[0], &payload))
	assert.Equal(t, "Alice", payload.Title)
	assert.Len(t, []rune(payload.Body), notificationBodyLimit+1)
	assert.Equal(t, long, payload.Message.Body, "full body still travels with the payload")
}

func TestDispatcherForwardsUnreadCounts(t *testing.T) {
	pusher := &fakePusher{}
	d := NewNotificationDispatcher("bob", pusher)

	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))
	dispatchEvent(d, Event{
		Type:        EventUnreadCountChanged,
		Scope:       scope,
		UnreadCount: 3,
		TotalUnread: 5,
	})

	require.Equal(t, 1, pusher.count())
	var payload NotificationPayload
	require.NoError(t, json.Unmarshal(pusher.payloads[0], &payload))
	assert.Equal(t, 3, payload.UnreadCount)
	assert.Equal(t, 5, payload.TotalUnread)
}
