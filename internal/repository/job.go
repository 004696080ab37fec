package repository

import (
	"github.com/fadilmartias/resume-matcher/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

// Upsert inserts a job or refreshes the mutable fields of an existing one,
// keyed by (external_id, company_id, source).
func (r *JobRepository) Upsert(job *model.Job) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}, {Name: "company_id"}, {Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "department", "location", "content_html", "content_text", "raw_data", "updated_at",
		}),
	}).Create(job).Error
}

func (r *JobRepository) FindByID(id uint) (*model.Job, error) {
	var j model.Job
	err := r.db.First(&j, id).Error
	return &j, err
}

// ListWithContent returns jobs that have a non-null text body, optionally
// restricted to the given ids, ordered by id.
func (r *JobRepository) ListWithContent(ids []uint) ([]model.Job, error) {
	var jobs []model.Job
	q := r.db.Where("content_text IS NOT NULL").Order("id")
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	err := q.Find(&jobs).Error
	return jobs, err
}

func (r *JobRepository) List(companyID uint, source string, limit int) ([]model.Job, error) {
	var jobs []model.Job
	q := r.db.Order("created_at DESC")
	if companyID != 0 {
		q = q.Where("company_id = ?", companyID)
	}
	if source != "" {
		q = q.Where("source = ?", source)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&jobs).Error
	return jobs, err
}

// Paginate returns one page of jobs ordered by creation time, newest first,
// together with the total row count.
func (r *JobRepository) Paginate(page, pageSize int) ([]model.Job, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	if err := r.db.Model(&model.Job{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []model.Job
	err := r.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&jobs).Error
	return jobs, total, err
}

func (r *JobRepository) CountWithContent() (int64, error) {
	var n int64
	err := r.db.Model(&model.Job{}).Where("content_text IS NOT NULL").Count(&n).Error
	return n, err
}

func (r *JobRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.Job{}).Count(&n).Error
	return n, err
}

// Clean removes all jobs together with their embeddings and match results.
func (r *JobRepository) Clean() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.JobEmbedding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.MatchResult{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&model.Job{}).Error
	})
}

// Similar returns the jobs closest to the given vector under one model,
// using the pgvector cosine distance operator.
func (r *JobRepository) Similar(embedding pgvector.Vector, modelName string, topK int) ([]model.EmbeddedJob, error) {
	var jobs []model.EmbeddedJob
	err := r.db.Raw(`
        SELECT j.id AS job_id, j.title, c.name AS company_name, j.department, j.location, je.embedding
        FROM jobs j
        JOIN companies c ON j.company_id = c.id
        JOIN job_embeddings je ON j.id = je.job_id
        WHERE je.embedding_model = ?
        ORDER BY je.embedding <=> ?
        LIMIT ?
    `, modelName, embedding, topK).Scan(&jobs).Error
	return jobs, err
}
