package models

// Category is a user-defined label for expenses. Names are not unique.
type Category struct {
	Base
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string `gorm:"size:100;not null" json:"name"`
}
