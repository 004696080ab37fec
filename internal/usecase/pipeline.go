package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/fadilmartias/resume-matcher/internal/embedding"
	"github.com/fadilmartias/resume-matcher/internal/model"
	"go.uber.org/zap"
)

// JobStore is the job-side read surface the pipeline needs.
type JobStore interface {
	ListWithContent(ids []uint) ([]model.Job, error)
	CountWithContent() (int64, error)
}

// ResumeStore mirrors JobStore for resumes.
type ResumeStore interface {
	ListWithContent(ids []uint) ([]model.Resume, error)
	CountWithContent() (int64, error)
}

// EmbeddingStore is the model-keyed vector cache the pipeline writes to.
type EmbeddingStore interface {
	SaveJob(jobID uint, modelName string, vec []float32) error
	SaveResume(resumeID uint, modelName string, vec []float32) error
	HasJob(jobID uint, modelName string) (bool, error)
	HasResume(resumeID uint, modelName string) (bool, error)
	CountJobs(modelName string) (int64, error)
	CountResumes(modelName string) (int64, error)
}

// Pipeline decides which entities need embedding work, builds their text
// representation, calls the embedding client and writes vectors to the store.
type Pipeline struct {
	jobs       JobStore
	resumes    ResumeStore
	embeddings EmbeddingStore
	client     embedding.Generator
	model      string
	bodyLimit  int
	logger     *zap.Logger
}

func NewPipeline(jobs JobStore, resumes ResumeStore, embeddings EmbeddingStore, client embedding.Generator, bodyLimit int, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		jobs:       jobs,
		resumes:    resumes,
		embeddings: embeddings,
		client:     client,
		model:      client.ModelName(),
		bodyLimit:  bodyLimit,
		logger:     logger.With(zap.String("model", client.ModelName())),
	}
}

// ModelName reports the model this pipeline writes vectors for.
func (p *Pipeline) ModelName() string {
	return p.model
}

// JobText builds the canonical embedding text for a job. The bare title is
// repeated after the header line: embedding models weight tokens by
// frequency, so the duplication upweights the title in the resulting vector.
// The body is truncated at limit characters with a marker.
func JobText(job *model.Job, limit int) string {
	var parts []string

	if job.Title != "" {
		parts = append(parts, fmt.Sprintf("Job Title: %s", job.Title))
		parts = append(parts, job.Title)
	}
	if job.Department != nil && *job.Department != "" {
		parts = append(parts, fmt.Sprintf("Department: %s", *job.Department))
	}
	if job.Location != nil && *job.Location != "" {
		parts = append(parts, fmt.Sprintf("Location: %s", *job.Location))
	}

	content := ""
	if job.ContentText != nil && *job.ContentText != "" {
		content = *job.ContentText
	} else if job.ContentHTML != nil {
		content = *job.ContentHTML
	}
	if content != "" {
		if limit > 0 && len(content) > limit {
			content = content[:limit] + "..."
		}
		parts = append(parts, content)
	}

	return strings.Join(parts, "\n\n")
}

// GenerateJobEmbeddings embeds jobs lacking a vector for the pipeline's model
// (all candidates when force is set) and returns the number written.
// Per-item failures are logged and skipped; the batch continues.
func (p *Pipeline) GenerateJobEmbeddings(ctx context.Context, jobIDs []uint, force bool) (int, error) {
	jobs, err := p.jobs.ListWithContent(jobIDs)
	if err != nil {
		return 0, fmt.Errorf("listing jobs: %w", err)
	}

	var pending []model.Job
	for _, job := range jobs {
		if !force {
			has, err := p.embeddings.HasJob(job.ID, p.model)
			if err != nil {
				return 0, fmt.Errorf("checking job embedding: %w", err)
			}
			if has {
				continue
			}
		}
		pending = append(pending, job)
	}

	if len(pending) == 0 {
		p.logger.Info("all jobs already have embeddings")
		return 0, nil
	}

	p.logger.Info("generating job embeddings", zap.Int("count", len(pending)))

	written := 0
	for i := range pending {
		job := &pending[i]
		vec, err := p.client.GenerateEmbedding(ctx, JobText(job, p.bodyLimit))
		if err != nil {
			p.logger.Warn("skipping job", zap.Uint("job_id", job.ID), zap.Error(err))
			continue
		}
		if err := p.embeddings.SaveJob(job.ID, p.model, vec); err != nil {
			return written, fmt.Errorf("saving job %d embedding: %w", job.ID, err)
		}
		written++
	}

	p.logger.Info("job embeddings written", zap.Int("written", written), zap.Int("skipped", len(pending)-written))
	return written, nil
}

// GenerateResumeEmbeddings mirrors GenerateJobEmbeddings for resumes; the
// resume body is embedded as-is.
func (p *Pipeline) GenerateResumeEmbeddings(ctx context.Context, resumeIDs []uint, force bool) (int, error) {
	resumes, err := p.resumes.ListWithContent(resumeIDs)
	if err != nil {
		return 0, fmt.Errorf("listing resumes: %w", err)
	}

	var pending []model.Resume
	for _, resume := range resumes {
		if !force {
			has, err := p.embeddings.HasResume(resume.ID, p.model)
			if err != nil {
				return 0, fmt.Errorf("checking resume embedding: %w", err)
			}
			if has {
				continue
			}
		}
		pending = append(pending, resume)
	}

	if len(pending) == 0 {
		p.logger.Info("all resumes already have embeddings")
		return 0, nil
	}

	p.logger.Info("generating resume embeddings", zap.Int("count", len(pending)))

	written := 0
	for i := range pending {
		resume := &pending[i]
		vec, err := p.client.GenerateEmbedding(ctx, *resume.ContentText)
		if err != nil {
			p.logger.Warn("skipping resume", zap.Uint("resume_id", resume.ID), zap.Error(err))
			continue
		}
		if err := p.embeddings.SaveResume(resume.ID, p.model, vec); err != nil {
			return written, fmt.Errorf("saving resume %d embedding: %w", resume.ID, err)
		}
		written++
	}

	p.logger.Info("resume embeddings written", zap.Int("written", written), zap.Int("skipped", len(pending)-written))
	return written, nil
}

// CoverageStats reports embedding coverage for one entity kind. Total counts
// only entities with a non-null body: rows without text can never be embedded
// and would otherwise cap coverage below 100%.
type CoverageStats struct {
	Total           int64   `json:"total"`
	WithEmbeddings  int64   `json:"with_embeddings"`
	CoveragePercent float64 `json:"coverage_percent"`
}

// EmbeddingStats is the coverage report for the pipeline's model.
type EmbeddingStats struct {
	Model   string        `json:"model"`
	Jobs    CoverageStats `json:"jobs"`
	Resumes CoverageStats `json:"resumes"`
}

func (p *Pipeline) Stats() (*EmbeddingStats, error) {
	totalJobs, err := p.jobs.CountWithContent()
	if err != nil {
		return nil, err
	}
	embeddedJobs, err := p.embeddings.CountJobs(p.model)
	if err != nil {
		return nil, err
	}
	totalResumes, err := p.resumes.CountWithContent()
	if err != nil {
		return nil, err
	}
	embeddedResumes, err := p.embeddings.CountResumes(p.model)
	if err != nil {
		return nil, err
	}

	return &EmbeddingStats{
		Model:   p.model,
		Jobs:    coverage(totalJobs, embeddedJobs),
		Resumes: coverage(totalResumes, embeddedResumes),
	}, nil
}

func coverage(total, with int64) CoverageStats {
	percent := float64(with) / float64(max64(total, 1)) * 100
	return CoverageStats{
		Total:           total,
		WithEmbeddings:  with,
		CoveragePercent: math.Round(percent*10) / 10,
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
