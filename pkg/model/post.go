package model

import "time"

// Post matches the posts table at the head of the example migration
// set.
type Post struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index:posts_user_id_idx"`
	Title     string    `gorm:"column:title;type:text;not null"`
	Body      string    `gorm:"column:body;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Post) TableName() string {
	return "posts"
}
