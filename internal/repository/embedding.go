package repository

import (
	"errors"

	"github.com/fadilmartias/resume-matcher/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmbeddingRepository is the model-keyed vector store. Writes are upserts on
// (entity_id, embedding_model); concurrent writers resolve to last write wins
// through the underlying unique index.
type EmbeddingRepository struct {
	db *gorm.DB
}

func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db}
}

func (r *EmbeddingRepository) SaveJob(jobID uint, modelName string, vec []float32) error {
	e := model.JobEmbedding{JobID: jobID, Model: modelName, Embedding: pgvector.NewVector(vec)}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}, {Name: "embedding_model"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "created_at"}),
	}).Create(&e).Error
}

func (r *EmbeddingRepository) SaveResume(resumeID uint, modelName string, vec []float32) error {
	e := model.ResumeEmbedding{ResumeID: resumeID, Model: modelName, Embedding: pgvector.NewVector(vec)}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resume_id"}, {Name: "embedding_model"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "created_at"}),
	}).Create(&e).Error
}

func (r *EmbeddingRepository) GetJob(jobID uint, modelName string) ([]float32, error) {
	var e model.JobEmbedding
	err := r.db.First(&e, "job_id = ? AND embedding_model = ?", jobID, modelName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e.Embedding.Slice(), nil
}

func (r *EmbeddingRepository) GetResume(resumeID uint, modelName string) ([]float32, error) {
	var e model.ResumeEmbedding
	err := r.db.First(&e, "resume_id = ? AND embedding_model = ?", resumeID, modelName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e.Embedding.Slice(), nil
}

func (r *EmbeddingRepository) HasJob(jobID uint, modelName string) (bool, error) {
	var n int64
	err := r.db.Model(&model.JobEmbedding{}).
		Where("job_id = ? AND embedding_model = ?", jobID, modelName).Count(&n).Error
	return n > 0, err
}

func (r *EmbeddingRepository) HasResume(resumeID uint, modelName string) (bool, error) {
	var n int64
	err := r.db.Model(&model.ResumeEmbedding{}).
		Where("resume_id = ? AND embedding_model = ?", resumeID, modelName).Count(&n).Error
	return n > 0, err
}

func (r *EmbeddingRepository) CountJobs(modelName string) (int64, error) {
	var n int64
	err := r.db.Model(&model.JobEmbedding{}).Where("embedding_model = ?", modelName).Count(&n).Error
	return n, err
}

func (r *EmbeddingRepository) CountResumes(modelName string) (int64, error) {
	var n int64
	err := r.db.Model(&model.ResumeEmbedding{}).Where("embedding_model = ?", modelName).Count(&n).Error
	return n, err
}

// FirstJobVector returns one stored job vector for the model, used as a
// dimension probe. Returns nil when no vector exists.
func (r *EmbeddingRepository) FirstJobVector(modelName string) ([]float32, error) {
	var e model.JobEmbedding
	err := r.db.Order("id").First(&e, "embedding_model = ?", modelName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e.Embedding.Slice(), nil
}

// EmbeddedJobs loads jobs joined with their vectors for one model, ordered by
// job id. Jobs without a vector for that model are excluded.
func (r *EmbeddingRepository) EmbeddedJobs(modelName string, ids []uint) ([]model.EmbeddedJob, error) {
	var rows []model.EmbeddedJob
	q := `
        SELECT j.id AS job_id, j.title, c.name AS company_name, j.department, j.location, je.embedding
        FROM jobs j
        JOIN companies c ON j.company_id = c.id
        JOIN job_embeddings je ON j.id = je.job_id
        WHERE je.embedding_model = ?`
	args := []interface{}{modelName}
	if len(ids) > 0 {
		q += " AND j.id IN ?"
		args = append(args, ids)
	}
	q += " ORDER BY j.id"
	err := r.db.Raw(q, args...).Scan(&rows).Error
	return rows, err
}

// EmbeddedResumes mirrors EmbeddedJobs for resumes.
func (r *EmbeddingRepository) EmbeddedResumes(modelName string, ids []uint) ([]model.EmbeddedResume, error) {
	var rows []model.EmbeddedResume
	q := `
        SELECT r.id AS resume_id, r.name, re.embedding
        FROM resumes r
        JOIN resume_embeddings re ON r.id = re.resume_id
        WHERE re.embedding_model = ?`
	args := []interface{}{modelName}
	if len(ids) > 0 {
		q += " AND r.id IN ?"
		args = append(args, ids)
	}
	q += " ORDER BY r.id"
	err := r.db.Raw(q, args...).Scan(&rows).Error
	return rows, err
}

// SampleEmbeddedJobs returns up to n random jobs with vectors for the model.
// The sample changes between invocations.
func (r *EmbeddingRepository) SampleEmbeddedJobs(modelName string, n int) ([]model.EmbeddedJob, error) {
	var rows []model.EmbeddedJob
	err := r.db.Raw(`
        SELECT j.id AS job_id, j.title, c.name AS company_name, j.department, j.location, je.embedding
        FROM jobs j
        JOIN companies c ON j.company_id = c.id
        JOIN job_embeddings je ON j.id = je.job_id
        WHERE je.embedding_model = ?
        ORDER BY RANDOM()
        LIMIT ?`, modelName, n).Scan(&rows).Error
	return rows, err
}

func (r *EmbeddingRepository) SampleEmbeddedResumes(modelName string, n int) ([]model.EmbeddedResume, error) {
	var rows []model.EmbeddedResume
	err := r.db.Raw(`
        SELECT r.id AS resume_id, r.name, re.embedding
        FROM resumes r
        JOIN resume_embeddings re ON r.id = re.resume_id
        WHERE re.embedding_model = ?
        ORDER BY RANDOM()
        LIMIT ?`, modelName, n).Scan(&rows).Error
	return rows, err
}

// ListJobEmbeddings streams all stored job vectors for a model, for export.
func (r *EmbeddingRepository) ListJobEmbeddings(modelName string) ([]model.JobEmbedding, error) {
	var rows []model.JobEmbedding
	err := r.db.Where("embedding_model = ?", modelName).Order("job_id").Find(&rows).Error
	return rows, err
}

func (r *EmbeddingRepository) ListResumeEmbeddings(modelName string) ([]model.ResumeEmbedding, error) {
	var rows []model.ResumeEmbedding
	err := r.db.Where("embedding_model = ?", modelName).Order("resume_id").Find(&rows).Error
	return rows, err
}

// ClearModel drops all vectors and match results for one model.
func (r *EmbeddingRepository) ClearModel(modelName string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("embedding_model = ?", modelName).Delete(&model.JobEmbedding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("embedding_model = ?", modelName).Delete(&model.ResumeEmbedding{}).Error; err != nil {
			return err
		}
		return tx.Where("embedding_model = ?", modelName).Delete(&model.MatchResult{}).Error
	})
}

// ClearAll drops every vector and match result.
func (r *EmbeddingRepository) ClearAll() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.JobEmbedding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.ResumeEmbedding{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&model.MatchResult{}).Error
	})
}
