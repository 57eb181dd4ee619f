package model

import "time"

// User matches the users table at the head of the example migration
// set.
type User struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Email     string     `gorm:"column:email;type:text;not null;unique"`
	CreatedAt time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	LastLogin *time.Time `gorm:"column:last_login;type:timestamptz;index:users_last_login_idx"`
}

func (User) TableName() string {
	return "users"
}
