package membership

import (
	"context"
	"errors"

	"github.com/roomkit/api/domain/apperrors"
	"github.com/roomkit/api/domain/model"
	"github.com/roomkit/api/domain/store"
	"github.com/roomkit/api/infrastructure/logger"
	"go.uber.org/zap"
)

// maxCommitRetries bounds how often a mutating operation re-runs its whole
// read-check-write pipeline after losing a version race on the room.
const maxCommitRetries = 3

type MembershipUseCase interface {
	AddUser(ctx context.Context, roomID, userName, password string) (*model.User, error)
	UpdateUser(ctx context.Context, roomID, userID, bodyUserID, userName, password string) (*model.User, error)
	ListUsers(ctx context.Context, roomID, password string, offset, limit int) ([]*model.User, error)
}

type membershipUseCase struct {
	rooms  store.RoomStore
	users  store.UserStore
	logger *logger.Logger
}

func NewMembershipUseCase(rooms store.RoomStore, users store.UserStore, logger *logger.Logger) MembershipUseCase {
	return &membershipUseCase{
		rooms:  rooms,
		users:  users,
		logger: logger,
	}
}

// AddUser inserts a new user record and appends it to the room's membership
// sequence. The user insert happens first: if it fails the room is never
// touched, and a crash between the two leaves an orphaned user record rather
// than an over-capacity room.
func (uc *membershipUseCase) AddUser(ctx context.Context, roomID, userName, password string) (*model.User, error) {
	if roomID == "" {
		return nil, apperrors.ErrRoomNotFound
	}

	for attempt := 0; ; attempt++ {
		room, err := uc.fetchRoom(ctx, roomID, password)
		if err != nil {
			return nil, err
		}

		if room.IsFull() {
			uc.logger.Warn("join rejected, room at capacity",
				zap.String("roomID", roomID),
				zap.Int("capacity", room.Capacity),
			)
			return nil, apperrors.ErrRoomFull
		}

		user, err := uc.users.Insert(ctx, userName, roomID)
		if err != nil {
			uc.logger.Error("failed to insert user", zap.Error(err), zap.String("roomID", roomID))
			return nil, apperrors.WrapStore("userStore.Insert", err)
		}

		next := *room
		next.Users = append(append([]model.UserRef{}, room.Users...), model.UserRef{
			UserID:   user.UserID,
			UserName: user.UserName,
		})

		err = uc.rooms.Update(ctx, &next)
		if err == nil {
			uc.logger.Info("user joined room",
				zap.String("roomID", roomID),
				zap.String("userID", user.UserID),
				zap.String("userName", user.UserName),
			)
			return user, nil
		}

		if errors.Is(err, apperrors.ErrVersionConflict) && attempt < maxCommitRetries {
			uc.logger.Debug("room version conflict on join, retrying",
				zap.String("roomID", roomID),
				zap.Int("attempt", attempt+1),
			)
			continue
		}

		uc.logger.Error("failed to update room membership", zap.Error(err), zap.String("roomID", roomID))
		return nil, apperrors.WrapStore("roomStore.Update", err)
	}
}

// UpdateUser renames an existing member. The membership sequence keeps
// exactly one entry per userID afterwards: every prior copy is dropped and
// the updated reference appended.
func (uc *membershipUseCase) UpdateUser(ctx context.Context, roomID, userID, bodyUserID, userName, password string) (*model.User, error) {
	if userID != bodyUserID || userName == "" {
		return nil, apperrors.ErrParamsMismatch
	}

	for attempt := 0; ; attempt++ {
		room, err := uc.fetchRoom(ctx, roomID, password)
		if err != nil {
			return nil, err
		}

		if !room.IsMember(userID) {
			return nil, apperrors.ErrUserNotInRoom
		}

		existing, err := uc.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				return nil, apperrors.ErrUserNotFound
			}
			uc.logger.Error("failed to get user", zap.Error(err), zap.String("userID", userID))
			return nil, apperrors.WrapStore("userStore.GetByID", err)
		}

		updated, err := uc.users.Update(ctx, userID, userName)
		if err != nil {
			uc.logger.Error("failed to update user", zap.Error(err), zap.String("userID", userID))
			return nil, apperrors.WrapStore("userStore.Update", err)
		}

		merged := *existing
		merged.UserName = updated.UserName

		next := *room
		next.Users = make([]model.UserRef, 0, len(room.Users))
		for _, ref := range room.Users {
			if ref.UserID != userID {
				next.Users = append(next.Users, ref)
			}
		}
		next.Users = append(next.Users, model.UserRef{
			UserID:   merged.UserID,
			UserName: merged.UserName,
		})

		err = uc.rooms.Update(ctx, &next)
		if err == nil {
			uc.logger.Info("user renamed",
				zap.String("roomID", roomID),
				zap.String("userID", userID),
				zap.String("userName", merged.UserName),
			)
			return &merged, nil
		}

		if errors.Is(err, apperrors.ErrVersionConflict) && attempt < maxCommitRetries {
			continue
		}

		uc.logger.Error("failed to update room membership", zap.Error(err), zap.String("roomID", roomID))
		return nil, apperrors.WrapStore("roomStore.Update", err)
	}
}

// ListUsers returns the room's members in the user store's native
// enumeration order, paginated. Users present in the store but absent from
// the room's membership sequence never appear.
func (uc *membershipUseCase) ListUsers(ctx context.Context, roomID, password string, offset, limit int) ([]*model.User, error) {
	room, err := uc.fetchRoom(ctx, roomID, password)
	if err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	users, err := uc.users.GetAll(ctx, store.ListOptions{
		Offset: offset,
		Limit:  limit,
		IDs:    room.MemberIDs(),
	})
	if err != nil {
		uc.logger.Error("failed to list room users", zap.Error(err), zap.String("roomID", roomID))
		return nil, apperrors.WrapStore("userStore.GetAll", err)
	}

	return users, nil
}

// fetchRoom resolves the room and applies the password gate: a room with no
// configured password accepts any supplied value, otherwise the supplied
// password must match verbatim.
func (uc *membershipUseCase) fetchRoom(ctx context.Context, roomID, password string) (*model.Room, error) {
	room, err := uc.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, apperrors.ErrRoomNotFound) {
			return nil, apperrors.ErrRoomNotFound
		}
		uc.logger.Error("failed to get room", zap.Error(err), zap.String("roomID", roomID))
		return nil, apperrors.WrapStore("roomStore.GetByID", err)
	}

	if room == nil {
		return nil, apperrors.ErrRoomNotFound
	}

	if room.HasPassword() && room.Password != password {
		uc.logger.Warn("rejected bad room password", zap.String("roomID", roomID))
		return nil, apperrors.ErrBadPassword
	}

	return room, nil
}
