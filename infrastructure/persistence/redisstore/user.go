package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/roomkit/api/domain/apperrors"
	"github.com/roomkit/api/domain/model"
	"github.com/roomkit/api/domain/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// usersIndexKey holds user IDs in insertion order; it is the store's native
// enumeration order for GetAll.
const usersIndexKey = "users:index"

type UserStore struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewUserStore(client *redis.Client, tracer trace.Tracer) *UserStore {
	return &UserStore{
		client: client,
		tracer: tracer,
	}
}

func userKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *UserStore) Insert(ctx context.Context, userName, roomID string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "userStore.Insert")
	defer span.End()

	user := &model.User{
		UserID:    uuid.NewString(),
		UserName:  userName,
		RoomID:    roomID,
		CreatedAt: time.Now(),
	}

	span.SetAttributes(
		attribute.String("user.id", user.UserID),
		attribute.String("user.username", user.UserName),
		attribute.String("room.id", roomID),
	)

	data, err := json.Marshal(user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode user")
		return nil, err
	}

	if err := s.client.Set(ctx, userKey(user.UserID), data, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store user")
		return nil, err
	}

	if err := s.client.RPush(ctx, usersIndexKey, user.UserID).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to index user")
		return nil, err
	}

	span.SetStatus(codes.Ok, "user inserted")
	return user, nil
}

func (s *UserStore) Update(ctx context.Context, userID, userName string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "userStore.Update")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("user.username", userName),
	)

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load user for update")
		return nil, err
	}

	user.UserName = userName

	data, err := json.Marshal(user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode user")
		return nil, err
	}

	if err := s.client.Set(ctx, userKey(userID), data, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store user")
		return nil, err
	}

	span.SetStatus(codes.Ok, "user updated")
	return user, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "userStore.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", id))

	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.Bool("user.found", false))
			span.SetStatus(codes.Error, "user not found")
			return nil, apperrors.ErrUserNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get user")
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode user")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("user.found", true))
	span.SetStatus(codes.Ok, "user retrieved")
	return &user, nil
}

// GetAll walks the insertion-order index, loading each record and applying
// the ID filter before pagination. Index entries whose record has vanished
// are skipped.
func (s *UserStore) GetAll(ctx context.Context, opts store.ListOptions) ([]*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "userStore.GetAll")
	defer span.End()

	span.SetAttributes(
		attribute.Int("list.offset", opts.Offset),
		attribute.Int("list.limit", opts.Limit),
		attribute.Int("list.id_filter_size", len(opts.IDs)),
	)

	ids, err := s.client.LRange(ctx, usersIndexKey, 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read user index")
		return nil, err
	}

	matched := make([]*model.User, 0, len(ids))
	skipped := 0
	for _, id := range ids {
		user, err := s.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				skipped++
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to load indexed user")
			return nil, err
		}
		if !opts.Matches(user) {
			continue
		}
		matched = append(matched, user)
	}

	span.SetAttributes(
		attribute.Int("users.matched", len(matched)),
		attribute.Int("users.skipped", skipped),
	)
	span.SetStatus(codes.Ok, "users listed")

	return opts.Page(matched), nil
}

var _ store.UserStore = (*UserStore)(nil)
