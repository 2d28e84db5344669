package models

import "time"

// TableSnapshot stores one serialized table (or the like index) when the SQL backend is used.
type TableSnapshot struct {
	Name      string    `gorm:"primaryKey;size:64" json:"name"`
	Payload   string    `gorm:"size:4294967295;not null" json:"-"` // longtext on mysql, text elsewhere
	UpdatedAt time.Time `json:"updated_at"`
}
