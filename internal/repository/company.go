package repository

import (
	"github.com/fadilmartias/resume-matcher/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db}
}

// Upsert creates the company if missing and returns its id.
func (r *CompanyRepository) Upsert(name, source string) (uint, error) {
	company := model.Company{Name: name, Source: source, Active: true}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"source", "updated_at"}),
	}).Create(&company).Error
	if err != nil {
		return 0, err
	}
	if company.ID == 0 {
		if err := r.db.First(&company, "name = ?", name).Error; err != nil {
			return 0, err
		}
	}
	return company.ID, nil
}

func (r *CompanyRepository) List(activeOnly bool) ([]model.Company, error) {
	var companies []model.Company
	q := r.db.Order("name")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Find(&companies).Error
	return companies, err
}

func (r *CompanyRepository) FindByName(name string) (*model.Company, error) {
	var c model.Company
	err := r.db.First(&c, "name = ?", name).Error
	return &c, err
}
