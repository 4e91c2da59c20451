package entity

type GroupRole string

const (
	GroupRoleAdmin  GroupRole = "admin"
	GroupRoleMember GroupRole = "member"
)

type GroupMember struct {
	Name     string    `json:"name"`
	Role     GroupRole `json:"role"`
	JoinedAt int64     `json:"joinedAt"`
}

type Group struct {
	ID          string                 `json:"-"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	CreatedBy   string                 `json:"createdBy"`
	CreatedAt   int64                  `json:"createdAt"`
	Members     map[string]GroupMember `json:"members"`
}

func (g *Group) IsMember(userID string) bool {
	_, ok := g.Members[userID]
	return ok
}

func (g *Group) IsAdmin(userID string) bool {
	return g.Members[userID].Role == GroupRoleAdmin
}
