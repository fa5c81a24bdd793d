package membership

import "time"

type AddUserRequest struct {
	UserName string `json:"userName" binding:"required,max=50"`
}

// UpdateUserRequest carries no binding rules on purpose: the pipeline
// itself compares body userId against the path and rejects empty names, so
// both surface as the same params_mismatch kind.
type UpdateUserRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type UserResponse struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	RoomID    string    `json:"roomId"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
