package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/roomkit/api/domain/apperrors"
	"github.com/roomkit/api/domain/model"
	"github.com/roomkit/api/domain/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

type UserStore struct {
	db     *gorm.DB
	tracer trace.Tracer
}

func NewUserStore(db *gorm.DB, tracer trace.Tracer) *UserStore {
	return &UserStore{
		db:     db,
		tracer: tracer,
	}
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
		attribute.String("room.id", roomID),
	)

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert user")
		return nil, err
	}

	span.SetStatus(codes.Ok, "user inserted")
	return user, nil
}

func (s *UserStore) Update(ctx context.Context, userID, userName string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "userStore.Update")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", userID).
		Update("user_name", userName)
	if res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, "failed to update user")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		span.SetStatus(codes.Error, "user not found")
		return nil, apperrors.ErrUserNotFound
	}

	span.SetStatus(codes.Ok, "user updated")
	return s.GetByID(ctx, userID)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "userStore.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", id))

	var user model.User
	err := s.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetAttributes(attribute.Bool("user.found", false))
			span.SetStatus(codes.Error, "user not found")
			return nil, apperrors.ErrUserNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get user")
		return nil, err
	}

	span.SetStatus(codes.Ok, "user retrieved")
	return &user, nil
}

// GetAll pushes the ID filter down as an IN clause; creation order is the
// native enumeration order.
func (s *UserStore) GetAll(ctx context.Context, opts store.ListOptions) ([]*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "userStore.GetAll")
	defer span.End()

	span.SetAttributes(
		attribute.Int("list.offset", opts.Offset),
		attribute.Int("list.limit", opts.Limit),
		attribute.Int("list.id_filter_size", len(opts.IDs)),
	)

	var users []*model.User

	q := s.db.WithContext(ctx).Model(&model.User{}).Order("created_at, user_id")
	if opts.IDs != nil {
		q = q.Where("user_id IN ?", opts.IDs)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	if err := q.Find(&users).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list users")
		return nil, err
	}

	span.SetAttributes(attribute.Int("users.matched", len(users)))
	span.SetStatus(codes.Ok, "users listed")
	return users, nil
}

var _ store.UserStore = (*UserStore)(nil)
