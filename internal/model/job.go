package model

import "time"

// Job is a normalized posting ingested from an ATS board or a local file.
// ContentText is the plain-text body used for embedding; ContentHTML is kept
// as a fallback when the source only provides markup.
type Job struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExternalID  string    `gorm:"uniqueIndex:idx_jobs_external,priority:1;not null" json:"external_id"`
	CompanyID   uint      `gorm:"uniqueIndex:idx_jobs_external,priority:2;index;not null" json:"company_id"`
	Source      string    `gorm:"uniqueIndex:idx_jobs_external,priority:3;index;not null" json:"source"`
	Title       string    `gorm:"not null" json:"title"`
	Department  *string   `json:"department"`
	Location    *string   `json:"location"`
	ContentHTML *string   `gorm:"type:text" json:"content_html,omitempty"`
	ContentText *string   `gorm:"type:text" json:"content_text,omitempty"`
	RawData     string    `gorm:"type:jsonb" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (j *Job) TableName() string {
	return "jobs"
}
