package model

import "time"

// Company is a job board account jobs are fetched from.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Source    string    `gorm:"type:varchar(50);not null" json:"source"` // "greenhouse", "lever" or "file"
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Company) TableName() string {
	return "companies"
}
