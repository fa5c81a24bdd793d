// Package memstore keeps rooms and users in process memory. It backs the
// "memory" store driver and doubles as the substitute collaborator in
// tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roomkit/api/domain/apperrors"
	"github.com/roomkit/api/domain/model"
	"github.com/roomkit/api/domain/store"
)

type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*model.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*model.Room),
	}
}

func (s *RoomStore) GetByID(ctx context.Context, id string) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}

	cp := *room
	cp.Users = append([]model.UserRef{}, room.Users...)
	return &cp, nil
}

func (s *RoomStore) Create(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *room
	cp.Users = append([]model.UserRef{}, room.Users...)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.rooms[cp.ID] = &cp

	return nil
}

func (s *RoomStore) Update(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rooms[room.ID]
	if !ok {
		return apperrors.ErrRoomNotFound
	}

	if current.Version != room.Version {
		return apperrors.ErrVersionConflict
	}

	cp := *room
	cp.Users = append([]model.UserRef{}, room.Users...)
	cp.Version = current.Version + 1
	s.rooms[cp.ID] = &cp

	return nil
}

type UserStore struct {
	mu    sync.RWMutex
	users map[string]*model.User
	order []string
}

func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[string]*model.User),
	}
}

func (s *UserStore) Insert(ctx context.Context, userName, roomID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &model.User{
		UserID:    uuid.NewString(),
		UserName:  userName,
		RoomID:    roomID,
		CreatedAt: time.Now(),
	}
	s.users[user.UserID] = user
	s.order = append(s.order, user.UserID)

	cp := *user
	return &cp, nil
}

func (s *UserStore) Update(ctx context.Context, userID, userName string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}

	user.UserName = userName

	cp := *user
	return &cp, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}

	cp := *user
	return &cp, nil
}

// GetAll enumerates in insertion order.
func (s *UserStore) GetAll(ctx context.Context, opts store.ListOptions) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*model.User, 0, len(s.order))
	for _, id := range s.order {
		user := s.users[id]
		if !opts.Matches(user) {
			continue
		}
		cp := *user
		matched = append(matched, &cp)
	}

	return opts.Page(matched), nil
}

var (
	_ store.RoomStore = (*RoomStore)(nil)
	_ store.UserStore = (*UserStore)(nil)
)
