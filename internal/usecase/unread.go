package usecase

import (
	"context"
	"sync"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/logger"
)

// UnreadAccounting maintains one viewer's unread counters: an in-memory
// mirror for instant reads plus atomic server-side increments on the
// denormalized summaries. The target invariant, after any finished sequence
// of operations: counter == count(messages where sender != viewer && !read).
type UnreadAccounting struct {
	viewerID  string
	store     repository.MessageStore
	convRepo  repository.ConversationRepository
	groupRepo repository.GroupRepository

	mu       sync.Mutex
	counters map[string]int
	// seen makes Observe idempotent per message key: a resubscribed listener
	// replays its tail, and replayed events must not count twice.
	seen map[string]map[string]bool

	// onChange receives the counter value current at emit time, never a
	// stale snapshot.
	onChange func(scope entity.Scope, count, total int)
}

func NewUnreadAccounting(viewerID string, store repository.MessageStore, convRepo repository.ConversationRepository, groupRepo repository.GroupRepository) *UnreadAccounting {
	return &UnreadAccounting{
		viewerID: viewerID,
		store:    store,
		convRepo: convRepo,
		groupRepo: groupRepo,
		counters: make(map[string]int),
		seen:     make(map[string]map[string]bool),
	}
}

func (u *UnreadAccounting) SetOnChange(fn func(scope entity.Scope, count, total int)) {
	u.onChange = fn
}

// Observe processes one inbound message for this viewer. Own messages, the
// global scope and already-read messages never count.
func (u *UnreadAccounting) Observe(ctx context.Context, scope entity.Scope, msg *entity.Message) {
	if msg.SenderID == u.viewerID {
		return
	}
	if scope.Kind == entity.ScopeGlobal {
		return
	}
	if msg.IsReadBy(u.viewerID) {
		return
	}

	key := scope.Key()

	u.mu.Lock()
	if u.seen[key] == nil {
		u.seen[key] = make(map[string]bool)
	}
	if u.seen[key][msg.ID] {
		u.mu.Unlock()
		return
	}
	u.seen[key][msg.ID] = true
	u.counters[key]++
	count := u.counters[key]
	total := u.totalLocked()
	u.mu.Unlock()

	if err := u.persistIncrement(ctx, scope, 1); err != nil {
		logger.Warn("Unread increment persist failed for %s %s: %v", u.viewerID, key, err)
	}

	u.emit(scope, count, total)
}

// MarkRead flags every currently-unread message in the scope, zeroes both
// counters and notifies. Calling it with nothing unread is a no-op that
// issues no store writes.
func (u *UnreadAccounting) MarkRead(ctx context.Context, scope entity.Scope, fetchLimit int) error {
	if scope.Kind == entity.ScopeGlobal {
		return nil
	}
	if fetchLimit <= 0 {
		fetchLimit = 50
	}

	key := scope.Key()
	u.mu.Lock()
	current := u.counters[key]
	u.mu.Unlock()

	// The mirror bounds how many unread messages to expect. Widen the
	// fetch window until that many are in view, or the store returns
	// fewer than asked, which means the whole log has been scanned. A
	// backlog larger than one page must still be flagged completely
	// before the counter drops to zero.
	limit := fetchLimit
	var unreadIDs []string
	for {
		messages, err := u.store.FetchRecent(ctx, scope, limit)
		if err != nil {
			return err
		}

		unreadIDs = unreadIDs[:0]
		for i := range messages {
			m := &messages[i]
			if m.SenderID == u.viewerID || m.IsReadBy(u.viewerID) {
				continue
			}
			unreadIDs = append(unreadIDs, m.ID)
		}

		if len(unreadIDs) >= current || len(messages) < limit {
			break
		}
		limit *= 2
	}

	if len(unreadIDs) == 0 && current == 0 {
		return nil
	}

	if err := u.store.MarkRead(ctx, scope, u.viewerID, unreadIDs); err != nil {
		return err
	}
	if err := u.persistReset(ctx, scope); err != nil {
		return err
	}

	// Zero the mirror only after the store confirmed; a failed mark must
	// never decrement what the user sees.
	u.mu.Lock()
	u.counters[key] = 0
	total := u.totalLocked()
	u.mu.Unlock()

	u.emit(scope, 0, total)
	return nil
}

// Seed preloads the mirror from a persisted summary value. It only fills
// counters that have not been touched yet, so live increments are never
// overwritten.
func (u *UnreadAccounting) Seed(scope entity.Scope, count int) {
	if count <= 0 {
		return
	}
	key := scope.Key()
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.counters[key]; !ok {
		u.counters[key] = count
	}
}

// Count returns the mirror value for one scope.
func (u *UnreadAccounting) Count(scope entity.Scope) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counters[scope.Key()]
}

// Total sums every tracked counter.
func (u *UnreadAccounting) Total() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totalLocked()
}

// Reset clears all counters and delivery bookkeeping (session cleanup).
func (u *UnreadAccounting) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counters = make(map[string]int)
	u.seen = make(map[string]map[string]bool)
}

func (u *UnreadAccounting) totalLocked() int {
	total := 0
	for _, c := range u.counters {
		total += c
	}
	return total
}

func (u *UnreadAccounting) persistIncrement(ctx context.Context, scope entity.Scope, delta int) error {
	switch scope.Kind {
	case entity.ScopePrivate:
		return u.convRepo.IncrementUnread(ctx, u.viewerID, scope.ID, delta)
	case entity.ScopeGroup:
		return u.groupRepo.IncrementUnread(ctx, u.viewerID, scope.ID, delta)
	}
	return nil
}

func (u *UnreadAccounting) persistReset(ctx context.Context, scope entity.Scope) error {
	switch scope.Kind {
	case entity.ScopePrivate:
		return u.convRepo.ResetUnread(ctx, u.viewerID, scope.ID)
	case entity.ScopeGroup:
		return u.groupRepo.ResetUnread(ctx, u.viewerID, scope.ID)
	}
	return nil
}

func (u *UnreadAccounting) emit(scope entity.Scope, count, total int) {
	if u.onChange != nil {
		u.onChange(scope, count, total)
	}
}
