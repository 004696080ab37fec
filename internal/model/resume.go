package model

import "time"

// Resume is an imported candidate profile. ContentText holds the extracted
// plain text; it may be null when extraction produced nothing usable.
type Resume struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	FilePath    string    `gorm:"not null" json:"file_path"`
	ContentText *string   `gorm:"type:text" json:"content_text,omitempty"`
	FileType    string    `gorm:"type:varchar(10)" json:"file_type"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Resume) TableName() string {
	return "resumes"
}
