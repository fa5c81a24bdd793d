package model

import "time"

// Room is a capacity- and password-scoped container of member users.
// Its Users sequence is ordered: members appear in the order they joined.
type Room struct {
	ID        string    `json:"id"`
	Password  string    `json:"password,omitempty"`
	Capacity  int       `json:"capacity,omitempty"`
	Users     []UserRef `json:"users"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRef is the room-side reference to a member user.
type UserRef struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

func (r Room) IsMember(userID string) bool {
	for _, ref := range r.Users {
		if ref.UserID == userID {
			return true
		}
	}

	return false
}

// HasPassword reports whether joining the room requires a password.
func (r Room) HasPassword() bool {
	return r.Password != ""
}

// IsFull reports whether the room has reached its configured capacity.
// Capacity 0 means unbounded.
func (r Room) IsFull() bool {
	return r.Capacity > 0 && len(r.Users) >= r.Capacity
}

// MemberIDs returns the user IDs of the membership sequence in join order.
func (r Room) MemberIDs() []string {
	ids := make([]string, len(r.Users))
	for i, ref := range r.Users {
		ids[i] = ref.UserID
	}

	return ids
}
