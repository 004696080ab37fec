package repository

import (
	"github.com/fadilmartias/resume-matcher/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db}
}

// Save upserts one score keyed by (resume_id, job_id, embedding_model).
func (r *MatchRepository) Save(resumeID, jobID uint, score float64, modelName string) error {
	m := model.MatchResult{
		ResumeID:        resumeID,
		JobID:           jobID,
		SimilarityScore: score,
		Model:           modelName,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resume_id"}, {Name: "job_id"}, {Name: "embedding_model"}},
		DoUpdates: clause.AssignmentColumns([]string{"similarity_score", "created_at"}),
	}).Create(&m).Error
}

const matchSelect = `
    SELECT
        mr.resume_id, r.name AS resume_name,
        mr.job_id, j.title AS job_title, c.name AS company_name,
        j.department, j.location,
        mr.similarity_score, mr.adjusted_score
    FROM match_results mr
    JOIN resumes r ON mr.resume_id = r.id
    JOIN jobs j ON mr.job_id = j.id
    JOIN companies c ON j.company_id = c.id`

// TopMatches returns persisted matches for one resume under one model,
// highest score first. It never triggers computation.
func (r *MatchRepository) TopMatches(resumeID uint, modelName string, limit int) ([]model.Match, error) {
	var matches []model.Match
	err := r.db.Raw(matchSelect+`
        WHERE mr.resume_id = ? AND mr.embedding_model = ?
        ORDER BY mr.similarity_score DESC
        LIMIT ?`, resumeID, modelName, limit).Scan(&matches).Error
	return matches, err
}

// AllMatches returns persisted matches across all resumes for one model.
func (r *MatchRepository) AllMatches(modelName string, limit int) ([]model.Match, error) {
	var matches []model.Match
	err := r.db.Raw(matchSelect+`
        WHERE mr.embedding_model = ?
        ORDER BY mr.similarity_score DESC
        LIMIT ?`, modelName, limit).Scan(&matches).Error
	return matches, err
}

// UniqueTopJobIDs returns the distinct job ids appearing in any resume's
// top-k matches for a model. Feeds the diversity metric.
func (r *MatchRepository) UniqueTopJobIDs(modelName string, k int) ([]uint, error) {
	var ids []uint
	err := r.db.Raw(`
        SELECT DISTINCT job_id FROM (
            SELECT mr.job_id,
                   ROW_NUMBER() OVER (PARTITION BY mr.resume_id ORDER BY mr.similarity_score DESC) AS rn
            FROM match_results mr
            WHERE mr.embedding_model = ?
        ) ranked
        WHERE rn <= ?`, modelName, k).Scan(&ids).Error
	return ids, err
}
