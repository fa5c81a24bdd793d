package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/roomkit/api/domain/apperrors"
	"github.com/roomkit/api/domain/model"
	"github.com/roomkit/api/domain/store"
)

func TestRoomStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewRoomStore()

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, apperrors.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	room := &model.Room{ID: "r1", Password: "pw", Capacity: 2}
	if err := s.Create(ctx, room); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Password != "pw" || got.Capacity != 2 {
		t.Fatalf("unexpected room: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be populated")
	}
}

func TestRoomStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewRoomStore()

	if err := s.Create(ctx, &model.Room{ID: "r1", Users: []model.UserRef{{UserID: "u1"}}}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	got.Users[0].UserID = "mutated"
	got.Password = "mutated"

	fresh, err := s.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fresh.Users[0].UserID != "u1" || fresh.Password != "" {
		t.Fatalf("caller mutation leaked into the store: %+v", fresh)
	}
}

func TestRoomStoreVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := NewRoomStore()

	if err := s.Create(ctx, &model.Room{ID: "r1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := s.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	second, err := s.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	first.Users = []model.UserRef{{UserID: "u1"}}
	if err := s.Update(ctx, first); err != nil {
		t.Fatalf("first Update: %v", err)
	}

	// The stale snapshot must lose.
	second.Users = []model.UserRef{{UserID: "u2"}}
	if err := s.Update(ctx, second); !errors.Is(err, apperrors.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, err := s.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Users) != 1 || got.Users[0].UserID != "u1" {
		t.Fatalf("expected the first writer's members, got %+v", got.Users)
	}
	if got.Version != 1 {
		t.Fatalf("expected version 1 after one update, got %d", got.Version)
	}
}

func TestRoomStoreUpdateMissingRoom(t *testing.T) {
	s := NewRoomStore()
	err := s.Update(context.Background(), &model.Room{ID: "ghost"})
	if !errors.Is(err, apperrors.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestUserStoreInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	names := []string{"a", "b", "c"}
	for _, name := range names {
		if _, err := s.Insert(ctx, name, "r1"); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	all, err := s.GetAll(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != len(names) {
		t.Fatalf("expected %d users, got %d", len(names), len(all))
	}
	for i, user := range all {
		if user.UserName != names[i] {
			t.Fatalf("position %d: expected %q, got %q", i, names[i], user.UserName)
		}
	}
}

func TestUserStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	created, err := s.Insert(ctx, "before", "r1")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	updated, err := s.Update(ctx, created.UserID, "after")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.UserName != "after" {
		t.Fatalf("expected renamed user, got %+v", updated)
	}

	got, err := s.GetByID(ctx, created.UserID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserName != "after" {
		t.Fatalf("rename not persisted: %+v", got)
	}

	if _, err := s.Update(ctx, "ghost", "x"); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserStoreGetAllFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	ids := make([]string, 0, 4)
	for _, name := range []string{"a", "b", "c", "d"} {
		user, err := s.Insert(ctx, name, "r1")
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ids = append(ids, user.UserID)
	}

	tests := []struct {
		name string
		opts store.ListOptions
		want []string
	}{
		{"id filter", store.ListOptions{IDs: []string{ids[1], ids[3]}}, []string{"b", "d"}},
		{"empty id filter", store.ListOptions{IDs: []string{}}, []string{}},
		{"offset and limit", store.ListOptions{Offset: 1, Limit: 2}, []string{"b", "c"}},
		{"offset past end", store.ListOptions{Offset: 10}, []string{}},
		{"zero limit means unbounded", store.ListOptions{Offset: 2}, []string{"c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetAll(ctx, tt.opts)
			if err != nil {
				t.Fatalf("GetAll: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d users, got %d", len(tt.want), len(got))
			}
			for i, user := range got {
				if user.UserName != tt.want[i] {
					t.Fatalf("position %d: expected %q, got %q", i, tt.want[i], user.UserName)
				}
			}
		})
	}
}
