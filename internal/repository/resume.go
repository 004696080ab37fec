package repository

import (
	"github.com/fadilmartias/resume-matcher/internal/model"
	"gorm.io/gorm"
)

type ResumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) *ResumeRepository {
	return &ResumeRepository{db}
}

func (r *ResumeRepository) Create(resume *model.Resume) error {
	return r.db.Create(resume).Error
}

func (r *ResumeRepository) FindByID(id uint) (*model.Resume, error) {
	var resume model.Resume
	err := r.db.First(&resume, id).Error
	return &resume, err
}

func (r *ResumeRepository) Rename(id uint, name string) error {
	return r.db.Model(&model.Resume{}).Where("id = ?", id).Update("name", name).Error
}

func (r *ResumeRepository) List() ([]model.Resume, error) {
	var resumes []model.Resume
	err := r.db.Order("created_at DESC").Find(&resumes).Error
	return resumes, err
}

// ListWithContent returns resumes with a non-null text body, optionally
// restricted to the given ids, ordered by id.
func (r *ResumeRepository) ListWithContent(ids []uint) ([]model.Resume, error) {
	var resumes []model.Resume
	q := r.db.Where("content_text IS NOT NULL").Order("id")
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	err := q.Find(&resumes).Error
	return resumes, err
}

func (r *ResumeRepository) CountWithContent() (int64, error) {
	var n int64
	err := r.db.Model(&model.Resume{}).Where("content_text IS NOT NULL").Count(&n).Error
	return n, err
}

func (r *ResumeRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.Resume{}).Count(&n).Error
	return n, err
}

// Delete removes a resume with its embeddings and match results.
func (r *ResumeRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resume_id = ?", id).Delete(&model.ResumeEmbedding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("resume_id = ?", id).Delete(&model.MatchResult{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Resume{}, id).Error
	})
}
