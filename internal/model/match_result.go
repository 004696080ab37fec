package model

import "time"

// MatchResult persists one similarity score per (resume, job, model) triple.
// Recomputation overwrites in place. The raw cosine value is stored without
// clamping; AdjustedScore is reserved for manual corrections.
type MatchResult struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ResumeID        uint      `gorm:"uniqueIndex:idx_match_results_key,priority:1;index;not null" json:"resume_id"`
	JobID           uint      `gorm:"uniqueIndex:idx_match_results_key,priority:2;index;not null" json:"job_id"`
	SimilarityScore float64   `gorm:"index:idx_match_results_score,sort:desc;not null" json:"similarity_score"`
	AdjustedScore   *float64  `json:"adjusted_score,omitempty"`
	Model           string    `gorm:"column:embedding_model;uniqueIndex:idx_match_results_key,priority:3;not null" json:"model"`
	CreatedAt       time.Time `json:"created_at"`
}

func (m *MatchResult) TableName() string {
	return "match_results"
}

// Match is a scored resume-job pair enriched with display fields, as returned
// to callers. A stale Match can outlive an embedding regeneration: scores are
// only refreshed by the next batch recomputation.
type Match struct {
	ResumeID        uint     `json:"resume_id"`
	ResumeName      string   `json:"resume_name"`
	JobID           uint     `json:"job_id"`
	JobTitle        string   `json:"job_title"`
	CompanyName     string   `json:"company_name"`
	Department      *string  `json:"department,omitempty"`
	Location        *string  `json:"location,omitempty"`
	SimilarityScore float64  `json:"similarity_score"`
	AdjustedScore   *float64 `json:"adjusted_score,omitempty"`
}
