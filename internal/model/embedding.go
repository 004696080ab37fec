package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// JobEmbedding stores one vector per (job, model) pair. The column is an
// untyped pgvector so models with different dimensionality can coexist;
// cross-model comparison is rejected at computation time instead.
type JobEmbedding struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	JobID     uint            `gorm:"uniqueIndex:idx_job_embeddings_key,priority:1;not null" json:"job_id"`
	Model     string          `gorm:"column:embedding_model;uniqueIndex:idx_job_embeddings_key,priority:2;not null" json:"model"`
	Embedding pgvector.Vector `gorm:"type:vector" json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

func (e *JobEmbedding) TableName() string {
	return "job_embeddings"
}

// ResumeEmbedding mirrors JobEmbedding for resumes.
type ResumeEmbedding struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ResumeID  uint            `gorm:"uniqueIndex:idx_resume_embeddings_key,priority:1;not null" json:"resume_id"`
	Model     string          `gorm:"column:embedding_model;uniqueIndex:idx_resume_embeddings_key,priority:2;not null" json:"model"`
	Embedding pgvector.Vector `gorm:"type:vector" json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

func (e *ResumeEmbedding) TableName() string {
	return "resume_embeddings"
}

// EmbeddedJob is the read model the matcher works on: a job row joined with
// its vector for one model.
type EmbeddedJob struct {
	JobID       uint            `json:"job_id"`
	Title       string          `json:"title"`
	CompanyName string          `json:"company_name"`
	Department  *string         `json:"department"`
	Location    *string         `json:"location"`
	Embedding   pgvector.Vector `json:"-"`
}

// EmbeddedResume is the resume-side read model for the matcher.
type EmbeddedResume struct {
	ResumeID  uint            `json:"resume_id"`
	Name      string          `json:"name"`
	Embedding pgvector.Vector `json:"-"`
}
