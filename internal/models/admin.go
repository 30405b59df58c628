package models

import "time"

// Admin is an operator allowed to manage orders.
type Admin struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Username  string    `json:"username" gorm:"uniqueIndex;size:100;not null" bson:"username"`
	Password  string    `json:"-" gorm:"size:255;not null" bson:"password"` // bcrypt hash
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
