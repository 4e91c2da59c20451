package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
	"github.com/DanielDss030225/mindfulness-sub001/internal/infrastructure/ratelimit"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/logger"
)

// PreviewProvider builds link previews; failures fall back to a stub.
type PreviewProvider interface {
	Fetch(ctx context.Context, url string) (*entity.LinkPreview, error)
}

type SessionConfig struct {
	MaxMessagesPerLoad    int
	UserCacheTTL          time.Duration
	GroupMessagingEnabled bool
	OnlineRefreshInterval time.Duration
	SearchResultCap       int
}

func (c *SessionConfig) applyDefaults() {
	if c.MaxMessagesPerLoad <= 0 {
		c.MaxMessagesPerLoad = 50
	}
	if c.OnlineRefreshInterval <= 0 {
		c.OnlineRefreshInterval = 15 * time.Second
	}
	if c.SearchResultCap <= 0 {
		c.SearchResultCap = 20
	}
}

type cachedUser struct {
	user      *entity.User
	fetchedAt time.Time
}

// ChatSession orchestrates one authenticated user's chat state: presence,
// per-scope listeners, the in-memory caches and the outward event surface.
// All caches are owned exclusively by this instance; nothing is shared
// across sessions.
type ChatSession struct {
	user entity.User
	cfg  SessionConfig

	store         repository.MessageStore
	convRepo      repository.ConversationRepository
	groupRepo     repository.GroupRepository
	userRepo      repository.UserRepository
	presenceStore repository.PresenceStore

	presence *PresenceTracker
	limiter  *ratelimit.RateLimiter
	previews PreviewProvider
	unread   *UnreadAccounting
	events   *eventEmitter

	mu            sync.Mutex
	initialized   bool
	closed        bool
	ctx           context.Context
	cancel        context.CancelFunc
	listeners     map[string]context.CancelFunc
	userCache     map[string]cachedUser
	onlineUsers   []string
	conversations map[string]entity.ConversationSummary
}

func NewChatSession(
	user entity.User,
	store repository.MessageStore,
	convRepo repository.ConversationRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	presenceStore repository.PresenceStore,
	limiter *ratelimit.RateLimiter,
	previews PreviewProvider,
	cfg SessionConfig,
) *ChatSession {
	cfg.applyDefaults()

	s := &ChatSession{
		user:          user,
		cfg:           cfg,
		store:         store,
		convRepo:      convRepo,
		groupRepo:     groupRepo,
		userRepo:      userRepo,
		presenceStore: presenceStore,
		limiter:       limiter,
		previews:      previews,
		events:        newEventEmitter(),
		listeners:     make(map[string]context.CancelFunc),
		userCache:     make(map[string]cachedUser),
		conversations: make(map[string]entity.ConversationSummary),
	}
	s.unread = NewUnreadAccounting(user.ID, store, convRepo, groupRepo)
	s.unread.SetOnChange(func(scope entity.Scope, count, total int) {
		s.events.Emit(Event{
			Type:        EventUnreadCountChanged,
			Scope:       scope,
			UnreadCount: count,
			TotalUnread: total,
		})
	})
	s.presence = NewPresenceTracker(presenceStore, user.ID, 30*time.Second)
	return s
}

func (s *ChatSession) User() entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Initialize brings the session to Ready: presence, user-record sync, cache
// loads and listener attachment. Idempotent; a second call while Ready (or
// while another Initialize is in flight) is a no-op. A closed session is
// terminal and cannot be re-initialized. Each listener is independently
// fault-isolated; one failing subscription never aborts the rest of
// initialization.
func (s *ChatSession) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.Internal("Session is closed", nil)
	}
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	sessionCtx, cancel := context.WithCancel(context.Background())
	s.ctx = sessionCtx
	s.cancel = cancel
	s.mu.Unlock()

	s.presence.Start(sessionCtx)
	s.syncUserRecord(ctx)

	summaries, err := s.convRepo.ListSummaries(ctx, s.user.ID)
	if err != nil {
		logger.Warn("Conversation list load failed for %s: %v", s.user.ID, err)
		summaries = map[string]entity.ConversationSummary{}
	}
	s.mu.Lock()
	for id, sum := range summaries {
		s.conversations[id] = sum
		s.unread.Seed(entity.PrivateScope(id), sum.UnreadCount)
	}
	s.mu.Unlock()

	s.refreshOnlineUsers(ctx)

	s.attachScope(entity.GlobalScope())
	for id := range summaries {
		s.attachScope(entity.PrivateScope(id))
	}

	if s.cfg.GroupMessagingEnabled {
		groups, err := s.groupRepo.ListByMember(ctx, s.user.ID)
		if err != nil {
			logger.Warn("Group list load failed for %s: %v", s.user.ID, err)
		}
		for _, g := range groups {
			s.attachScope(entity.GroupScope(g.ID))
		}
	}

	s.watchSummaries()
	s.runOnlineRefresh()

	s.events.Emit(Event{Type: EventReady})
	return nil
}

// Close detaches every listener, writes presence offline and discards all
// cached state. In-flight store calls complete but their results land in a
// cancelled context and are discarded. Close is terminal; the registry
// builds a fresh session for the user's next login.
func (s *ChatSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if !s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = false
	cancel := s.cancel
	s.listeners = make(map[string]context.CancelFunc)
	s.userCache = make(map[string]cachedUser)
	s.conversations = make(map[string]entity.ConversationSummary)
	s.onlineUsers = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.presence.Stop()
	s.unread.Reset()
	s.events.Close()
}

// Events exposes the session's outward event stream.
func (s *ChatSession) Events() (<-chan Event, func()) {
	return s.events.Subscribe()
}

type SendMessageInput struct {
	Kind     entity.ScopeKind
	Body     string
	TargetID string
}

// SendMessage validates, throttles, enriches and appends one outbound
// message, returning its server-assigned key. Validation and rate-limit
// failures happen before any store call, so a rejected send leaves no
// partial state.
func (s *ChatSession) SendMessage(ctx context.Context, input SendMessageInput) (string, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return "", errors.EmptyMessage()
	}

	var scope entity.Scope
	switch input.Kind {
	case entity.ScopeGlobal:
		scope = entity.GlobalScope()
	case entity.ScopePrivate:
		if input.TargetID == "" {
			return "", errors.MissingTarget("private")
		}
		scope = entity.PrivateScope(entity.ConversationKey(s.user.ID, input.TargetID))
	case entity.ScopeGroup:
		if input.TargetID == "" {
			return "", errors.MissingTarget("group")
		}
		group, err := s.groupRepo.GetByID(ctx, input.TargetID)
		if err != nil {
			return "", err
		}
		if !group.IsMember(s.user.ID) {
			return "", errors.Forbidden("Not a member of this group", nil)
		}
		scope = entity.GroupScope(input.TargetID)
	default:
		return "", errors.BadRequest("Unknown scope", nil)
	}

	if !s.limiter.TryConsume(s.user.ID) {
		return "", errors.TooManyRequests("Too many messages, slow down")
	}

	sender := s.senderSnapshot(ctx)

	msg := &entity.Message{
		SenderID:             sender.ID,
		SenderName:           sender.DisplayName,
		SenderProfilePicture: sender.ProfilePicture,
		Body:                 body,
		Type:                 entity.MessageTypeText,
	}
	if input.Kind == entity.ScopePrivate {
		msg.ReceiverID = input.TargetID
	}

	if url, ok := entity.DetectLink(body); ok {
		msg.Type = entity.MessageTypeLink
		msg.LinkPreview = s.buildPreview(ctx, url)
	}

	key, err := s.store.Append(ctx, scope, msg)
	if err != nil {
		return "", err
	}

	s.updateSummariesAfterSend(ctx, scope, input.TargetID, body, sender)

	return key, nil
}

// MarkMessagesAsRead flags the conversation read and zeroes its counters.
// For private scopes the target may be the other participant's user id; it
// is resolved to the canonical conversation key.
func (s *ChatSession) MarkMessagesAsRead(ctx context.Context, kind entity.ScopeKind, targetID string) error {
	var scope entity.Scope
	switch kind {
	case entity.ScopeGlobal:
		return nil
	case entity.ScopePrivate:
		if targetID == "" {
			return errors.MissingTarget("private")
		}
		key := targetID
		if !strings.Contains(targetID, "_") {
			key = entity.ConversationKey(s.user.ID, targetID)
		}
		scope = entity.PrivateScope(key)
	case entity.ScopeGroup:
		if targetID == "" {
			return errors.MissingTarget("group")
		}
		scope = entity.GroupScope(targetID)
	default:
		return errors.BadRequest("Unknown scope", nil)
	}

	return s.unread.MarkRead(ctx, scope, s.cfg.MaxMessagesPerLoad)
}

// SearchUsers matches name/email case-insensitively, excluding the session
// user. Queries shorter than two characters return nothing without touching
// the store.
func (s *ChatSession) SearchUsers(ctx context.Context, query string) ([]*entity.User, error) {
	q := strings.TrimSpace(query)
	if len(q) < 2 {
		return nil, nil
	}

	found, err := s.userRepo.Search(ctx, q, s.cfg.SearchResultCap+1)
	if err != nil {
		return nil, err
	}

	results := make([]*entity.User, 0, len(found))
	for _, u := range found {
		if u.ID == s.user.ID {
			continue
		}
		results = append(results, u)
		if len(results) >= s.cfg.SearchResultCap {
			break
		}
	}
	return results, nil
}

// FetchRecent returns the most recent messages of a scope, oldest first.
func (s *ChatSession) FetchRecent(ctx context.Context, scope entity.Scope, limit int) ([]entity.Message, error) {
	if limit <= 0 || limit > s.cfg.MaxMessagesPerLoad {
		limit = s.cfg.MaxMessagesPerLoad
	}
	return s.store.FetchRecent(ctx, scope, limit)
}

func (s *ChatSession) TotalUnreadCount() int {
	return s.unread.Total()
}

func (s *ChatSession) UnreadCount(scope entity.Scope) int {
	return s.unread.Count(scope)
}

func (s *ChatSession) OnlineUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.onlineUsers))
	copy(out, s.onlineUsers)
	return out
}

func (s *ChatSession) Conversations() map[string]entity.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]entity.ConversationSummary, len(s.conversations))
	for k, v := range s.conversations {
		out[k] = v
	}
	return out
}

// InvalidateUser drops one entry from the user-data cache, forcing a fresh
// fetch on next use.
func (s *ChatSession) InvalidateUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.userCache, userID)
}

func (s *ChatSession) syncUserRecord(ctx context.Context) {
	snapshot := s.User()

	existing, err := s.userRepo.GetByID(ctx, snapshot.ID)
	switch {
	case err == nil:
		s.mu.Lock()
		if s.user.DisplayName == "" {
			s.user.DisplayName = existing.DisplayName
		}
		if s.user.ProfilePicture == "" {
			s.user.ProfilePicture = existing.ProfilePicture
		}
		s.mu.Unlock()
	case errors.Is(err, "NOT_FOUND"):
		if createErr := s.userRepo.Create(ctx, &snapshot); createErr != nil {
			logger.Warn("User record create failed for %s: %v", snapshot.ID, createErr)
		}
	default:
		logger.Warn("User record sync failed for %s: %v", snapshot.ID, err)
	}
}

// attachScope starts one fault-isolated listener for the scope; duplicate
// attaches are ignored.
func (s *ChatSession) attachScope(scope entity.Scope) {
	key := scope.Key()

	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return
	}
	if _, ok := s.listeners[key]; ok {
		s.mu.Unlock()
		return
	}
	listenerCtx, cancel := context.WithCancel(s.ctx)
	s.listeners[key] = cancel
	s.mu.Unlock()

	ch, err := s.store.SubscribeNew(listenerCtx, scope, s.cfg.MaxMessagesPerLoad)
	if err != nil {
		logger.Warn("Listener attach failed for %s: %v", key, err)
		cancel()
		s.mu.Lock()
		delete(s.listeners, key)
		s.mu.Unlock()
		return
	}

	go func() {
		for msg := range ch {
			s.handleIncoming(listenerCtx, scope, msg)
		}
	}()
}

// handleIncoming processes one message observed on a listener, including
// the echo of the session's own sends. Accounting ignores those by sender
// check, not by suppressing the echo.
func (s *ChatSession) handleIncoming(ctx context.Context, scope entity.Scope, msg entity.Message) {
	if ctx.Err() != nil {
		return
	}

	s.unread.Observe(ctx, scope, &msg)

	if scope.Kind == entity.ScopePrivate && msg.SenderID != s.user.ID {
		summary := entity.ConversationSummary{
			LastMessage:         msg.Body,
			LastMessageTime:     msg.Timestamp,
			OtherUserID:         msg.SenderID,
			OtherUserName:       msg.SenderName,
			OtherUserProfilePic: msg.SenderProfilePicture,
		}
		if err := s.convRepo.UpsertSummary(ctx, s.user.ID, scope.ID, summary); err != nil {
			logger.Warn("Receiver summary update failed for %s: %v", scope.Key(), err)
		}
		s.storeConversation(scope.ID, summary)
	}

	s.events.Emit(Event{
		Type:    EventNewMessage,
		Scope:   scope,
		Message: &msg,
	})
}

func (s *ChatSession) storeConversation(id string, summary entity.ConversationSummary) {
	s.mu.Lock()
	prev := s.conversations[id]
	summary.UnreadCount = s.unread.Count(entity.PrivateScope(id))
	changed := prev != summary
	s.conversations[id] = summary
	s.mu.Unlock()

	if changed {
		s.events.Emit(Event{Type: EventConversationsChanged})
	}
}

// updateSummariesAfterSend refreshes the denormalized rollups a private or
// group send touches. The receiver's unread counter is never written here;
// only their own accounting applies the commutative increment.
func (s *ChatSession) updateSummariesAfterSend(ctx context.Context, scope entity.Scope, targetID, body string, sender entity.User) {
	switch scope.Kind {
	case entity.ScopePrivate:
		now := time.Now().UnixMilli()

		other, err := s.getUser(ctx, targetID)
		summary := entity.ConversationSummary{
			LastMessage:     body,
			LastMessageTime: now,
			OtherUserID:     targetID,
		}
		if err == nil {
			summary.OtherUserName = other.DisplayName
			summary.OtherUserProfilePic = other.ProfilePicture
		}
		if err := s.convRepo.UpsertSummary(ctx, s.user.ID, scope.ID, summary); err != nil {
			logger.Warn("Sender summary update failed for %s: %v", scope.Key(), err)
		}
		s.storeConversation(scope.ID, summary)

		// Mirror the metadata into the receiver's namespace so their summary
		// watcher notices brand-new conversations and attaches a listener.
		receiverSummary := entity.ConversationSummary{
			LastMessage:         body,
			LastMessageTime:     now,
			OtherUserID:         sender.ID,
			OtherUserName:       sender.DisplayName,
			OtherUserProfilePic: sender.ProfilePicture,
		}
		if err := s.convRepo.UpsertSummary(ctx, targetID, scope.ID, receiverSummary); err != nil {
			logger.Warn("Receiver summary update failed for %s: %v", scope.Key(), err)
		}

	case entity.ScopeGroup:
		group, err := s.groupRepo.GetByID(ctx, targetID)
		name := targetID
		if err == nil {
			name = group.Name
		}
		if err := s.groupRepo.UpsertSummary(ctx, s.user.ID, targetID, entity.GroupSummary{
			GroupName:       name,
			LastMessage:     body,
			LastMessageTime: time.Now().UnixMilli(),
		}); err != nil {
			logger.Warn("Sender group summary update failed for %s: %v", scope.Key(), err)
		}
	}
}

// watchSummaries follows the user's conversation list so brand-new inbound
// conversations get a listener without re-initializing.
func (s *ChatSession) watchSummaries() {
	ch, err := s.convRepo.WatchSummaries(s.ctx, s.user.ID)
	if err != nil {
		logger.Warn("Summary watch attach failed for %s: %v", s.user.ID, err)
		return
	}

	go func() {
		for ev := range ch {
			s.attachScope(entity.PrivateScope(ev.ConversationID))
			s.storeConversation(ev.ConversationID, ev.Summary)
		}
	}()
}

func (s *ChatSession) runOnlineRefresh() {
	ticker := time.NewTicker(s.cfg.OnlineRefreshInterval)
	ctx := s.ctx

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refreshOnlineUsers(ctx)
			}
		}
	}()
}

func (s *ChatSession) refreshOnlineUsers(ctx context.Context) {
	online, err := s.presenceStore.ListOnline(ctx)
	if err != nil {
		logger.Warn("Online users load failed: %v", err)
		return
	}

	s.mu.Lock()
	changed := !equalStrings(s.onlineUsers, online)
	s.onlineUsers = online
	s.mu.Unlock()

	if changed {
		s.events.Emit(Event{Type: EventOnlineUsersChanged, OnlineUsers: online})
	}
}

func (s *ChatSession) senderSnapshot(ctx context.Context) entity.User {
	snapshot := s.User()
	if fresh, err := s.getUser(ctx, snapshot.ID); err == nil {
		s.mu.Lock()
		s.user.DisplayName = fresh.DisplayName
		s.user.ProfilePicture = fresh.ProfilePicture
		snapshot = s.user
		s.mu.Unlock()
	}
	return snapshot
}

// getUser serves from the session's user-data cache. A zero TTL keeps
// entries for the whole session; InvalidateUser forces a refresh.
func (s *ChatSession) getUser(ctx context.Context, id string) (*entity.User, error) {
	s.mu.Lock()
	cached, ok := s.userCache[id]
	s.mu.Unlock()

	if ok {
		if s.cfg.UserCacheTTL == 0 || time.Since(cached.fetchedAt) < s.cfg.UserCacheTTL {
			return cached.user, nil
		}
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if ok {
			return cached.user, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.userCache[id] = cachedUser{user: user, fetchedAt: time.Now()}
	s.mu.Unlock()
	return user, nil
}

func (s *ChatSession) buildPreview(ctx context.Context, url string) *entity.LinkPreview {
	if s.previews == nil {
		return entity.StubPreview(url)
	}

	previewCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	preview, err := s.previews.Fetch(previewCtx, url)
	if err != nil {
		logger.Debug("Link preview failed for %s: %v", url, err)
		return entity.StubPreview(url)
	}
	return preview
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
