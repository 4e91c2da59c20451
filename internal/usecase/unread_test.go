package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
)

func newAccountingFixture(viewerID string) (*UnreadAccounting, *fakeMessageStore, *fakeConversationRepo, *fakeGroupRepo) {
	store := newFakeMessageStore()
	convRepo := newFakeConversationRepo()
	groupRepo := newFakeGroupRepo()
	return NewUnreadAccounting(viewerID, store, convRepo, groupRepo), store, convRepo, groupRepo
}

func TestObserveCountsOnlyOtherSendersUnread(t *testing.T) {
	ctx := context.Background()
	acct, _, convRepo, _ := newAccountingFixture("bob")
	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))

	acct.Observe(ctx, scope, &entity.Message{ID: "m1", SenderID: "alice", Body: "oi"})
	acct.Observe(ctx, scope, &entity.Message{ID: "m2", SenderID: "bob", Body: "reply"})
	acct.Observe(ctx, scope, &entity.Message{ID: "m3", SenderID: "alice", Body: "tudo bem?", Read: true})

	assert.Equal(t, 1, acct.Count(scope))
	assert.Equal(t, 1, acct.Total())
	assert.Equal(t, 1, convRepo.persistedUnread("bob", scope.ID))
}

func TestObserveNeverCountsGlobalScope(t *testing.T) {
	ctx := context.Background()
	acct, _, convRepo, _ := newAccountingFixture("bob")

	for i := 0; i < 5; i++ {
		acct.Observe(ctx, entity.GlobalScope(), &entity.Message{
			ID: fmt.Sprintf("g%d", i), SenderID: "alice", Body: "hello all",
		})
	}

	assert.Zero(t, acct.Total())
	assert.Zero(t, convRepo.increments)
}

func TestObserveIsIdempotentPerMessage(t *testing.T) {
	ctx := context.Background()
	acct, _, convRepo, _ := newAccountingFixture("bob")
	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))
	msg := &entity.Message{ID: "m1", SenderID: "alice", Body: "oi"}

	// A resubscribed listener replays its tail; the replay must not count.
	acct.Observe(ctx, scope, msg)
	acct.Observe(ctx, scope, msg)
	acct.Observe(ctx, scope, msg)

	assert.Equal(t, 1, acct.Count(scope))
	assert.Equal(t, 1, convRepo.persistedUnread("bob", scope.ID))
}

func TestGroupScopeUsesReadByMarkers(t *testing.T) {
	ctx := context.Background()
	acct, _, _, groupRepo := newAccountingFixture("bob")
	scope := entity.GroupScope("g1")

	acct.Observe(ctx, scope, &entity.Message{ID: "m1", SenderID: "alice", Body: "oi"})
	acct.Observe(ctx, scope, &entity.Message{
		ID: "m2", SenderID: "alice", Body: "oi de novo",
		ReadBy: map[string]bool{"bob": true},
	})

	assert.Equal(t, 1, acct.Count(scope))
	assert.Equal(t, 1, groupRepo.unread["bob"]["g1"])
}

func TestMarkReadZeroesCounterAndFlagsMessages(t *testing.T) {
	ctx := context.Background()
	acct, store, convRepo, _ := newAccountingFixture("bob")
	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))

	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, scope, &entity.Message{SenderID: "alice", Body: fmt.Sprintf("msg %d", i), ReceiverID: "bob"})
		require.NoError(t, err)
	}
	msgs, err := store.FetchRecent(ctx, scope, 10)
	require.NoError(t, err)
	for i := range msgs {
		acct.Observe(ctx, scope, &msgs[i])
	}
	require.Equal(t, 3, acct.Count(scope))

	require.NoError(t, acct.MarkRead(ctx, scope, 50))

	assert.Zero(t, acct.Count(scope))
	assert.Zero(t, acct.Total())
	assert.Zero(t, convRepo.persistedUnread("bob", scope.ID))

	after, err := store.FetchRecent(ctx, scope, 10)
	require.NoError(t, err)
	for _, m := range after {
		assert.True(t, m.IsReadBy("bob"))
	}
}

func TestMarkReadCoversBacklogBeyondOnePage(t *testing.T) {
	ctx := context.Background()
	acct, store, convRepo, _ := newAccountingFixture("bob")
	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))

	// More unread than one fetch page holds.
	for i := 0; i < 60; i++ {
		_, err := store.Append(ctx, scope, &entity.Message{SenderID: "alice", Body: fmt.Sprintf("msg %d", i), ReceiverID: "bob"})
		require.NoError(t, err)
	}
	msgs, err := store.FetchRecent(ctx, scope, 100)
	require.NoError(t, err)
	for i := range msgs {
		acct.Observe(ctx, scope, &msgs[i])
	}
	require.Equal(t, 60, acct.Count(scope))

	require.NoError(t, acct.MarkRead(ctx, scope, 50))

	assert.Zero(t, acct.Count(scope))
	assert.Zero(t, convRepo.persistedUnread("bob", scope.ID))

	// Every message must be flagged, including the oldest page.
	after, err := store.FetchRecent(ctx, scope, 100)
	require.NoError(t, err)
	require.Len(t, after, 60)
	for _, m := range after {
		assert.True(t, m.IsReadBy("bob"), "message %s left unread", m.ID)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	acct, store, convRepo, _ := newAccountingFixture("bob")
	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))

	_, err := store.Append(ctx, scope, &entity.Message{SenderID: "alice", Body: "oi", ReceiverID: "bob"})
	require.NoError(t, err)
	msgs, _ := store.FetchRecent(ctx, scope, 10)
	acct.Observe(ctx, scope, &msgs[0])

	require.NoError(t, acct.MarkRead(ctx, scope, 50))
	resetsAfterFirst := convRepo.resets

	// Nothing unread: the second call must not issue store writes.
	require.NoError(t, acct.MarkRead(ctx, scope, 50))
	assert.Equal(t, resetsAfterFirst, convRepo.resets)
	assert.Zero(t, acct.Count(scope))
}

func TestMarkReadGlobalIsNoop(t *testing.T) {
	acct, _, convRepo, _ := newAccountingFixture("bob")
	require.NoError(t, acct.MarkRead(context.Background(), entity.GlobalScope(), 50))
	assert.Zero(t, convRepo.resets)
}

func TestSeedOnlyFillsUntouchedCounters(t *testing.T) {
	ctx := context.Background()
	acct, _, _, _ := newAccountingFixture("bob")
	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))

	acct.Seed(scope, 4)
	assert.Equal(t, 4, acct.Count(scope))

	acct.Observe(ctx, scope, &entity.Message{ID: "m1", SenderID: "alice", Body: "oi"})
	assert.Equal(t, 5, acct.Count(scope))

	// A second seed must not clobber live state.
	acct.Seed(scope, 1)
	assert.Equal(t, 5, acct.Count(scope))
}

func TestOnChangeReceivesCurrentValues(t *testing.T) {
	ctx := context.Background()
	acct, _, _, _ := newAccountingFixture("bob")
	scope := entity.PrivateScope(entity.ConversationKey("alice", "bob"))

	var counts []int
	acct.SetOnChange(func(_ entity.Scope, count, _ int) {
		counts = append(counts, count)
	})

	acct.Observe(ctx, scope, &entity.Message{ID: "m1", SenderID: "alice", Body: "a"})
	acct.Observe(ctx, scope, &entity.Message{ID: "m2", SenderID: "alice", Body: "b"})

	assert.Equal(t, []int{1, 2}, counts)
}
