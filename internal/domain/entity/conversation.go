package entity

// ScopeKind names a message channel namespace.
type ScopeKind string

const (
	ScopeGlobal  ScopeKind = "global"
	ScopePrivate ScopeKind = "private"
	ScopeGroup   ScopeKind = "group"
)

// Scope identifies one message log: the global room, a private conversation
// (ID is the canonical conversation key) or a group (ID is the group id).
type Scope struct {
	Kind ScopeKind
	ID   string
}

func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}

func PrivateScope(conversationKey string) Scope {
	return Scope{Kind: ScopePrivate, ID: conversationKey}
}

func GroupScope(groupID string) Scope {
	return Scope{Kind: ScopeGroup, ID: groupID}
}

// Key renders the scope as a single map key, e.g. "private:a_b".
func (s Scope) Key() string {
	if s.Kind == ScopeGlobal {
		return string(ScopeGlobal)
	}
	return string(s.Kind) + ":" + s.ID
}

// ConversationKey maps an unordered pair of user ids to the canonical key of
// their private conversation. Commutative, so both participants read and
// write the same log no matter who initiates.
func ConversationKey(idA, idB string) string {
	if idA < idB {
		return idA + "_" + idB
	}
	return idB + "_" + idA
}

// ConversationSummary is the denormalized per-participant rollup kept under
// each user's own namespace for fast list rendering. The two participants'
// copies are independent and eventually consistent with the shared log.
type ConversationSummary struct {
	LastMessage         string `json:"lastMessage"`
	LastMessageTime     int64  `json:"lastMessageTime"`
	UnreadCount         int    `json:"unreadCount"`
	OtherUserID         string `json:"otherUserId,omitempty"`
	OtherUserName       string `json:"otherUserName,omitempty"`
	OtherUserProfilePic string `json:"otherUserProfilePic,omitempty"`
}

// GroupSummary mirrors the private-conversation pattern for group members.
type GroupSummary struct {
	GroupName       string `json:"groupName"`
	LastMessage     string `json:"lastMessage"`
	LastMessageTime int64  `json:"lastMessageTime"`
	UnreadCount     int    `json:"unreadCount"`
}
