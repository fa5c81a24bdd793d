package membership

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	usecase "github.com/roomkit/api/application/usecases/membership"
	"github.com/roomkit/api/domain/model"
	"github.com/roomkit/api/infrastructure/logger"
	"github.com/roomkit/api/infrastructure/persistence/memstore"
	"github.com/roomkit/api/presentation/middlewares"
)

func newTestRouter(t *testing.T, room *model.Room) (*gin.Engine, *memstore.RoomStore, *memstore.UserStore) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	binding.Validator = new(middlewares.DefaultValidator)

	rooms := memstore.NewRoomStore()
	users := memstore.NewUserStore()
	if room != nil {
		if err := rooms.Create(context.Background(), room); err != nil {
			t.Fatalf("seeding room: %v", err)
		}
	}

	uc := usecase.NewMembershipUseCase(rooms, users, logger.NewNopLogger())
	controller := NewMembershipController(uc)

	router := gin.New()
	group := router.Group("/api/v1")
	group.POST("/rooms/:roomId/users", controller.AddUser)
	group.PUT("/rooms/:roomId/users/:userId", controller.UpdateUser)
	group.GET("/rooms/:roomId/users", controller.ListUsers)

	return router, rooms, users
}

func doJSON(router *gin.Engine, method, path, password, body string) *httptest.ResponseRecorder {
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if password != "" {
		req.Header.Set("password", password)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

func TestAddUserEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t, &model.Room{ID: "r1", Password: "pw", Capacity: 1})

	w := doJSON(router, http.MethodPost, "/api/v1/rooms/r1/users", "pw", `{"userName":"alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var user UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if user.UserID == "" || user.UserName != "alice" || user.RoomID != "r1" {
		t.Fatalf("unexpected user payload: %+v", user)
	}

	// Second join hits the capacity gate.
	w = doJSON(router, http.MethodPost, "/api/v1/rooms/r1/users", "pw", `{"userName":"bob"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 at capacity, got %d", w.Code)
	}
	if kind := errorKind(t, w); kind != "room_capacity_exceeded" {
		t.Fatalf("unexpected error kind %q", kind)
	}
}

func TestAddUserStatuses(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		password string
		body     string
		wantCode int
		wantKind string
	}{
		{"missing room", "/api/v1/rooms/ghost/users", "", `{"userName":"x"}`, http.StatusNotFound, "room_not_found"},
		{"bad password", "/api/v1/rooms/r1/users", "nope", `{"userName":"x"}`, http.StatusForbidden, "invalid_password"},
		{"invalid body", "/api/v1/rooms/r1/users", "pw", `{}`, http.StatusBadRequest, "invalid_request"},
		{"malformed json", "/api/v1/rooms/r1/users", "pw", `{"userName":`, http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, _ := newTestRouter(t, &model.Room{ID: "r1", Password: "pw"})

			w := doJSON(router, http.MethodPost, tt.path, tt.password, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if kind := errorKind(t, w); kind != tt.wantKind {
				t.Fatalf("expected kind %q, got %q", tt.wantKind, kind)
			}
		})
	}
}

func TestUpdateUserEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t, &model.Room{ID: "r1"})

	w := doJSON(router, http.MethodPost, "/api/v1/rooms/r1/users", "", `{"userName":"alice"}`)
	var created UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding created user: %v", err)
	}

	w = doJSON(router, http.MethodPut, "/api/v1/rooms/r1/users/"+created.UserID, "",
		`{"userId":"`+created.UserID+`","userName":"alicia"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decoding updated user: %v", err)
	}
	if updated.UserName != "alicia" || updated.UserID != created.UserID {
		t.Fatalf("unexpected updated payload: %+v", updated)
	}
}

func TestUpdateUserParamsMismatchEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t, &model.Room{ID: "r1"})

	// Body userId disagrees with the path; everything else is irrelevant.
	w := doJSON(router, http.MethodPut, "/api/v1/rooms/r1/users/u1", "",
		`{"userId":"u2","userName":"alice"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if kind := errorKind(t, w); kind != "params_mismatch" {
		t.Fatalf("unexpected error kind %q", kind)
	}
}

func TestUpdateUserNotInRoomEndpoint(t *testing.T) {
	router, _, users := newTestRouter(t, &model.Room{ID: "r1"})

	loner, err := users.Insert(context.Background(), "loner", "r2")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	w := doJSON(router, http.MethodPut, "/api/v1/rooms/r1/users/"+loner.UserID, "",
		`{"userId":"`+loner.UserID+`","userName":"renamed"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if kind := errorKind(t, w); kind != "user_not_in_room" {
		t.Fatalf("unexpected error kind %q", kind)
	}
}

func TestListUsersEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t, &model.Room{ID: "r1", Password: "pw"})

	names := []string{"first", "second", "third"}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		w := doJSON(router, http.MethodPost, "/api/v1/rooms/r1/users", "pw", `{"userName":"`+name+`"}`)
		var u UserResponse
		if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
			t.Fatalf("decoding join response: %v", err)
		}
		ids = append(ids, u.UserID)
	}

	w := doJSON(router, http.MethodGet, "/api/v1/rooms/r1/users?offset=1&limit=1", "pw", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var page []UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(page) != 1 || page[0].UserID != ids[1] {
		t.Fatalf("expected the second member only, got %+v", page)
	}

	// Non-numeric pagination params fall back to zero.
	w = doJSON(router, http.MethodGet, "/api/v1/rooms/r1/users?offset=abc&limit=xyz", "pw", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var all []UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(all) != len(names) {
		t.Fatalf("expected all %d members, got %d", len(names), len(all))
	}
}

func TestListUsersStatuses(t *testing.T) {
	router, _, _ := newTestRouter(t, &model.Room{ID: "r1", Password: "pw"})

	w := doJSON(router, http.MethodGet, "/api/v1/rooms/ghost/users", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown room, got %d", w.Code)
	}

	w = doJSON(router, http.MethodGet, "/api/v1/rooms/r1/users", "wrong", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for bad password, got %d", w.Code)
	}
}
