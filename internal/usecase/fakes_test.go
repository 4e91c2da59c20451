package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
)

// fakeMessageStore is an in-memory MessageStore with working subscriptions,
// so session and accounting behavior can be exercised end to end without a
// backend.
type fakeMessageStore struct {
	mu       sync.Mutex
	logs     map[string][]entity.Message
	subs     map[string][]*fakeSub
	nextKey  int
	failNext error
}

type fakeSub struct {
	ch   chan entity.Message
	done <-chan struct{}
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{
		logs: make(map[string][]entity.Message),
		subs: make(map[string][]*fakeSub),
	}
}

func (s *fakeMessageStore) Append(ctx context.Context, scope entity.Scope, message *entity.Message) (string, error) {
	s.mu.Lock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		s.mu.Unlock()
		return "", err
	}

	s.nextKey++
	msg := *message
	msg.ID = fmt.Sprintf("msg-%03d", s.nextKey)
	msg.Timestamp = time.Now().UnixMilli()

	key := scope.Key()
	s.logs[key] = append(s.logs[key], msg)
	subs := append([]*fakeSub(nil), s.subs[key]...)
	s.mu.Unlock()

	for _, sub := range subs {
		select {
		case <-sub.done:
		case sub.ch <- msg:
		}
	}
	return msg.ID, nil
}

func (s *fakeMessageStore) SubscribeNew(ctx context.Context, scope entity.Scope, tailLimit int) (<-chan entity.Message, error) {
	s.mu.Lock()
	tail, _ := s.recentLocked(scope, tailLimit)
	sub := &fakeSub{ch: make(chan entity.Message, 64), done: ctx.Done()}
	key := scope.Key()
	s.subs[key] = append(s.subs[key], sub)
	s.mu.Unlock()

	for _, m := range tail {
		sub.ch <- m
	}

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		live := s.subs[key][:0]
		for _, other := range s.subs[key] {
			if other != sub {
				live = append(live, other)
			}
		}
		s.subs[key] = live
		s.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch, nil
}

func (s *fakeMessageStore) FetchRecent(ctx context.Context, scope entity.Scope, limit int) ([]entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentLocked(scope, limit)
}

func (s *fakeMessageStore) recentLocked(scope entity.Scope, limit int) ([]entity.Message, error) {
	log := s.logs[scope.Key()]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	return append([]entity.Message(nil), log...), nil
}

func (s *fakeMessageStore) MarkRead(ctx context.Context, scope entity.Scope, viewerID string, messageIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}

	ids := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = true
	}

	log := s.logs[scope.Key()]
	for i := range log {
		if !ids[log[i].ID] {
			continue
		}
		if scope.Kind == entity.ScopeGroup {
			if log[i].ReadBy == nil {
				log[i].ReadBy = make(map[string]bool)
			}
			log[i].ReadBy[viewerID] = true
		} else {
			log[i].Read = true
		}
	}
	return nil
}

// fakeConversationRepo records summary writes and counter deltas, and feeds
// per-owner summary watchers the way the backend's change stream would.
type fakeConversationRepo struct {
	mu         sync.Mutex
	summaries  map[string]map[string]entity.ConversationSummary
	unread     map[string]map[string]int
	increments int
	resets     int
	watchers   map[string][]chan repository.SummaryEvent
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		summaries: make(map[string]map[string]entity.ConversationSummary),
		unread:    make(map[string]map[string]int),
		watchers:  make(map[string][]chan repository.SummaryEvent),
	}
}

func (r *fakeConversationRepo) UpsertSummary(ctx context.Context, ownerID, conversationID string, summary entity.ConversationSummary) error {
	r.mu.Lock()
	if r.summaries[ownerID] == nil {
		r.summaries[ownerID] = make(map[string]entity.ConversationSummary)
	}
	r.summaries[ownerID][conversationID] = summary
	watchers := append([]chan repository.SummaryEvent(nil), r.watchers[ownerID]...)
	r.mu.Unlock()

	for _, w := range watchers {
		select {
		case w <- repository.SummaryEvent{ConversationID: conversationID, Summary: summary}:
		default:
		}
	}
	return nil
}

func (r *fakeConversationRepo) IncrementUnread(ctx context.Context, ownerID, conversationID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unread[ownerID] == nil {
		r.unread[ownerID] = make(map[string]int)
	}
	r.unread[ownerID][conversationID] += delta
	r.increments++
	return nil
}

func (r *fakeConversationRepo) ResetUnread(ctx context.Context, ownerID, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unread[ownerID] != nil {
		r.unread[ownerID][conversationID] = 0
	}
	r.resets++
	return nil
}

func (r *fakeConversationRepo) ListSummaries(ctx context.Context, ownerID string) (map[string]entity.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]entity.ConversationSummary, len(r.summaries[ownerID]))
	for k, v := range r.summaries[ownerID] {
		out[k] = v
	}
	return out, nil
}

func (r *fakeConversationRepo) WatchSummaries(ctx context.Context, ownerID string) (<-chan repository.SummaryEvent, error) {
	ch := make(chan repository.SummaryEvent, 16)
	r.mu.Lock()
	r.watchers[ownerID] = append(r.watchers[ownerID], ch)
	r.mu.Unlock()

	out := make(chan repository.SummaryEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				select {
				case <-ctx.Done():
					return
				case out <- ev:
				}
			}
		}
	}()
	return out, nil
}

func (r *fakeConversationRepo) persistedUnread(ownerID, conversationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unread[ownerID][conversationID]
}

// fakeGroupRepo implements GroupRepository in memory.
type fakeGroupRepo struct {
	mu     sync.Mutex
	groups map[string]*entity.Group
	unread map[string]map[string]int
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups: make(map[string]*entity.Group),
		unread: make(map[string]map[string]int),
	}
}

func (r *fakeGroupRepo) Create(ctx context.Context, group *entity.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if group.ID == "" {
		group.ID = fmt.Sprintf("group-%d", len(r.groups)+1)
	}
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

func (r *fakeGroupRepo) GetByID(ctx context.Context, id string) (*entity.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, errors.NotFound("group", nil)
	}
	copied := *g
	return &copied, nil
}

func (r *fakeGroupRepo) AddMember(ctx context.Context, groupID, userID string, member entity.GroupMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return errors.NotFound("group", nil)
	}
	if g.Members == nil {
		g.Members = make(map[string]entity.GroupMember)
	}
	g.Members[userID] = member
	return nil
}

func (r *fakeGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.groups[groupID]; ok {
		delete(g.Members, userID)
	}
	return nil
}

func (r *fakeGroupRepo) ListByMember(ctx context.Context, userID string) ([]*entity.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Group
	for _, g := range r.groups {
		if g.IsMember(userID) {
			copied := *g
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) UpsertSummary(ctx context.Context, ownerID, groupID string, summary entity.GroupSummary) error {
	return nil
}

func (r *fakeGroupRepo) IncrementUnread(ctx context.Context, ownerID, groupID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unread[ownerID] == nil {
		r.unread[ownerID] = make(map[string]int)
	}
	r.unread[ownerID][groupID] += delta
	return nil
}

func (r *fakeGroupRepo) ResetUnread(ctx context.Context, ownerID, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unread[ownerID] != nil {
		r.unread[ownerID][groupID] = 0
	}
	return nil
}

// fakeUserRepo implements UserRepository over a map.
type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[string]entity.User
	gets     int
	searches int
}

func newFakeUserRepo(users ...entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("user", nil)
	}
	copied := u
	return &copied, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Search(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches++
	q := strings.ToLower(query)
	var out []*entity.User
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.DisplayName), q) || strings.Contains(strings.ToLower(u.Email), q) {
			copied := u
			out = append(out, &copied)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// fakePresenceStore records online flags.
type fakePresenceStore struct {
	mu     sync.Mutex
	online map[string]bool
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{online: make(map[string]bool)}
}

func (s *fakePresenceStore) SetOnline(ctx context.Context, userID string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[userID] = online
	return nil
}

func (s *fakePresenceStore) ListOnline(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id, on := range s.online {
		if on {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *fakePresenceStore) isOnline(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online[userID]
}

// fakePusher captures notification payloads.
type fakePusher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *fakePusher) SendToUser(userID string, payload []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
}

func (p *fakePusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}
