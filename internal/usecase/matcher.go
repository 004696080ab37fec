package usecase

import (
	"fmt"
	"sort"

	"github.com/fadilmartias/resume-matcher/internal/model"
	"github.com/fadilmartias/resume-matcher/internal/vector"
	"go.uber.org/zap"
)

// VectorReader loads entities joined with their vectors for one model,
// ordered by entity id. Entities missing a vector are excluded.
type VectorReader interface {
	EmbeddedResumes(modelName string, ids []uint) ([]model.EmbeddedResume, error)
	EmbeddedJobs(modelName string, ids []uint) ([]model.EmbeddedJob, error)
}

// MatchStore persists and reads back scored pairs.
type MatchStore interface {
	Save(resumeID, jobID uint, score float64, modelName string) error
	TopMatches(resumeID uint, modelName string, limit int) ([]model.Match, error)
	AllMatches(modelName string, limit int) ([]model.Match, error)
	UniqueTopJobIDs(modelName string, k int) ([]uint, error)
}

// Matcher computes pairwise cosine similarity between resume and job vectors
// of one model.
type Matcher struct {
	vectors VectorReader
	matches MatchStore
	model   string
	logger  *zap.Logger
}

func NewMatcher(vectors VectorReader, matches MatchStore, modelName string, logger *zap.Logger) *Matcher {
	return &Matcher{
		vectors: vectors,
		matches: matches,
		model:   modelName,
		logger:  logger.With(zap.String("model", modelName)),
	}
}

// CalculateSimilarityBatch scores every (resume, job) pair for the requested
// subsets (nil means all). Results are upserted as they are computed when
// save is set, so an interrupted run leaves partial results behind.
//
// The returned slice is sorted by score descending; ties keep computation
// order, which is resume id ascending then job id ascending. A dimension
// mismatch between any compared pair aborts the batch with a
// *vector.DimensionMismatchError: it means vectors from different models
// share a tag, and a silent wrong score would be worse than stopping.
func (m *Matcher) CalculateSimilarityBatch(resumeIDs, jobIDs []uint, save bool) ([]model.Match, error) {
	resumes, err := m.vectors.EmbeddedResumes(m.model, resumeIDs)
	if err != nil {
		return nil, fmt.Errorf("loading resume embeddings: %w", err)
	}
	jobs, err := m.vectors.EmbeddedJobs(m.model, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("loading job embeddings: %w", err)
	}

	if len(resumes) == 0 {
		m.logger.Warn("no resumes with embeddings found")
		return nil, nil
	}
	if len(jobs) == 0 {
		m.logger.Warn("no jobs with embeddings found")
		return nil, nil
	}

	m.logger.Info("calculating similarities",
		zap.Int("resumes", len(resumes)),
		zap.Int("jobs", len(jobs)),
	)

	results := make([]model.Match, 0, len(resumes)*len(jobs))
	for _, resume := range resumes {
		rvec := resume.Embedding.Slice()
		for _, job := range jobs {
			score, err := vector.Cosine(rvec, job.Embedding.Slice())
			if err != nil {
				return nil, fmt.Errorf("resume %d vs job %d: %w", resume.ResumeID, job.JobID, err)
			}

			results = append(results, model.Match{
				ResumeID:        resume.ResumeID,
				ResumeName:      resume.Name,
				JobID:           job.JobID,
				JobTitle:        job.Title,
				CompanyName:     job.CompanyName,
				Department:      job.Department,
				Location:        job.Location,
				SimilarityScore: score,
			})

			if save {
				if err := m.matches.Save(resume.ResumeID, job.JobID, score, m.model); err != nil {
					return nil, fmt.Errorf("saving match result: %w", err)
				}
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})

	m.logger.Info("similarities calculated", zap.Int("count", len(results)))
	return results, nil
}

// TopMatches reads persisted matches for one resume, highest score first.
// Pure read: it never triggers computation and returns an empty slice when
// nothing has been computed yet.
func (m *Matcher) TopMatches(resumeID uint, limit int) ([]model.Match, error) {
	return m.matches.TopMatches(resumeID, m.model, limit)
}

// AllMatches reads persisted matches across all resumes for the model.
func (m *Matcher) AllMatches(limit int) ([]model.Match, error) {
	return m.matches.AllMatches(m.model, limit)
}
