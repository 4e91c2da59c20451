package entity

import "time"

type User struct {
	ID             string    `json:"id" firestore:"id"`
	Email          string    `json:"email" firestore:"email"`
	DisplayName    string    `json:"displayName" firestore:"displayName"`
	ProfilePicture string    `json:"profilePicture,omitempty" firestore:"profilePicture,omitempty"`
	IsOnline       bool      `json:"isOnline" firestore:"isOnline"`
	LastSeen       time.Time `json:"lastSeen" firestore:"lastSeen"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Presence is the user's RTDB liveness record, written by the presence
// tracker and observed by every other client's online-users query.
type Presence struct {
	IsOnline bool  `json:"isOnline"`
	LastSeen int64 `json:"lastSeen"`
}
