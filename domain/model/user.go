package model

import "time"

type User struct {
	UserID    string    `json:"userId" gorm:"primaryKey;column:user_id"`
	UserName  string    `json:"userName" gorm:"column:user_name"`
	RoomID    string    `json:"roomId" gorm:"column:room_id;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
