package models

import "time"

// User is created lazily the first time an id touches the cart or favorites.
type User struct {
	ID        string    `gorm:"column:id;type:text;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;type:text;not null;uniqueIndex:users_email_key" json:"email"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
