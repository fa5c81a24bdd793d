package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/roomkit/api/domain/apperrors"
	"github.com/roomkit/api/domain/model"
	"github.com/roomkit/api/domain/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// updateRoomScript swaps the room payload only when the stored version still
// matches the one the caller read. Returns -1 when the room is gone, 0 on a
// version conflict, 1 on success.
const updateRoomScript = `
local key = KEYS[1]
local expected = tonumber(ARGV[1])
local payload = ARGV[2]

local current = redis.call('GET', key)
if not current then
    return -1
end

local room = cjson.decode(current)
if tonumber(room.version) ~= expected then
    return 0
end

redis.call('SET', key, payload)
return 1
`

type RoomStore struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewRoomStore(client *redis.Client, tracer trace.Tracer) *RoomStore {
	return &RoomStore{
		client: client,
		tracer: tracer,
	}
}

func roomKey(id string) string {
	return fmt.Sprintf("room:%s", id)
}

func (s *RoomStore) GetByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, span := s.tracer.Start(ctx, "roomStore.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.Bool("room.found", false))
			span.SetStatus(codes.Error, "room not found")
			return nil, apperrors.ErrRoomNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get room")
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode room")
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("room.found", true),
		attribute.Int("room.members_count", len(room.Users)),
	)
	span.SetStatus(codes.Ok, "room retrieved")
	return &room, nil
}

func (s *RoomStore) Create(ctx context.Context, room *model.Room) error {
	ctx, span := s.tracer.Start(ctx, "roomStore.Create")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", room.ID))

	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}

	data, err := json.Marshal(room)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode room")
		return err
	}

	if err := s.client.Set(ctx, roomKey(room.ID), data, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create room")
		return err
	}

	span.SetStatus(codes.Ok, "room created")
	return nil
}

func (s *RoomStore) Update(ctx context.Context, room *model.Room) error {
	ctx, span := s.tracer.Start(ctx, "roomStore.Update")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", room.ID),
		attribute.Int64("room.version", room.Version),
		attribute.Int("room.members_count", len(room.Users)),
	)

	expected := room.Version

	next := *room
	next.Version = expected + 1

	payload, err := json.Marshal(&next)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode room")
		return err
	}

	res, err := s.client.Eval(ctx, updateRoomScript, []string{roomKey(room.ID)}, expected, payload).Int()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update room")
		return err
	}

	switch res {
	case -1:
		span.SetStatus(codes.Error, "room not found")
		return apperrors.ErrRoomNotFound
	case 0:
		span.SetAttributes(attribute.Bool("room.version_conflict", true))
		span.SetStatus(codes.Error, "version conflict")
		return apperrors.ErrVersionConflict
	}

	room.Version = next.Version

	span.SetStatus(codes.Ok, "room updated")
	return nil
}

var _ store.RoomStore = (*RoomStore)(nil)
