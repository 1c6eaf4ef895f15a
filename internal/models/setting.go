package models

import "time"

// Setting is the key/value store behind the admin policy screen (default
// validation radius, flexible window minutes, approval requirement).
type Setting struct {
	Key       string    `gorm:"size:64;primaryKey" json:"key"`
	Value     string    `gorm:"type:longtext" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
