// Package store declares the two backing collections the membership
// service consumes. Implementations live under
// infrastructure/persistence; the service itself never reaches for a
// concrete store.
package store

import (
	"context"

	"github.com/roomkit/api/domain/model"
)

// ListOptions narrows a UserStore enumeration. IDs nil means no ID filter;
// Limit 0 means no limit. Offset and Limit apply after the ID filter, in
// the store's native enumeration order.
type ListOptions struct {
	Offset int
	Limit  int
	IDs    []string
}

// Matches reports whether a user passes the ID filter.
func (o ListOptions) Matches(u *model.User) bool {
	if o.IDs == nil {
		return true
	}
	for _, id := range o.IDs {
		if id == u.UserID {
			return true
		}
	}

	return false
}

// Page applies Offset/Limit to an already-filtered slice. Negative
// values are treated as zero.
func (o ListOptions) Page(users []*model.User) []*model.User {
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Offset >= len(users) {
		return []*model.User{}
	}

	users = users[o.Offset:]
	if o.Limit > 0 && o.Limit < len(users) {
		users = users[:o.Limit]
	}

	return users
}

// RoomStore is the external room record collection. Rooms are created and
// destroyed by a collaborator outside this service; the membership service
// only reads them and rewrites their Users sequence.
type RoomStore interface {
	// GetByID returns apperrors.ErrRoomNotFound when the room is absent.
	GetByID(ctx context.Context, id string) (*model.Room, error)
	Create(ctx context.Context, room *model.Room) error
	// Update is a compare-and-set on Room.Version: it fails with
	// apperrors.ErrVersionConflict when the stored version differs from
	// room.Version, and increments the version on success.
	Update(ctx context.Context, room *model.Room) error
}

// UserStore is the external user record collection.
type UserStore interface {
	// Insert stores a new user with a generated UserID.
	Insert(ctx context.Context, userName, roomID string) (*model.User, error)
	// Update rewrites the user's name. apperrors.ErrUserNotFound when absent.
	Update(ctx context.Context, userID, userName string) (*model.User, error)
	// GetByID returns apperrors.ErrUserNotFound when the user is absent.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetAll enumerates users in the store's native order, filtered and
	// paginated per opts.
	GetAll(ctx context.Context, opts ListOptions) ([]*model.User, error)
}
