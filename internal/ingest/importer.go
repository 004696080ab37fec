package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/fadilmartias/resume-matcher/internal/model"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// CompanyStore creates or reuses company rows during ingestion.
type CompanyStore interface {
	Upsert(name, source string) (uint, error)
}

// JobWriter persists normalized postings.
type JobWriter interface {
	Upsert(job *model.Job) error
}

// ResumeWriter persists imported resumes.
type ResumeWriter interface {
	Create(resume *model.Resume) error
}

// BoardFetcher is implemented by the ATS clients.
type BoardFetcher interface {
	FetchBoard(ctx context.Context, board string) ([]Posting, error)
}

// Importer normalizes postings and resumes into the database. Re-importing
// is safe: jobs are keyed by (external_id, company_id, source) and updated
// in place.
type Importer struct {
	companies CompanyStore
	jobs      JobWriter
	resumes   ResumeWriter
	logger    *zap.Logger
}

func NewImporter(companies CompanyStore, jobs JobWriter, resumes ResumeWriter, logger *zap.Logger) *Importer {
	return &Importer{
		companies: companies,
		jobs:      jobs,
		resumes:   resumes,
		logger:    logger,
	}
}

// ImportBoard fetches a company's board and stores every posting. Returns
// the number of postings stored.
func (i *Importer) ImportBoard(ctx context.Context, fetcher BoardFetcher, company, board, source string) (int, error) {
	postings, err := fetcher.FetchBoard(ctx, board)
	if err != nil {
		return 0, err
	}
	return i.storePostings(postings, company, source)
}

// ImportJobFile loads postings from a local JSON file, either a single
// object or an array, with the same field names the board APIs use.
func (i *Importer) ImportJobFile(path, company string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() && !parsed.IsObject() {
		return 0, fmt.Errorf("%s: expected a JSON object or array", path)
	}

	items := parsed.Array()
	if parsed.IsObject() {
		items = []gjson.Result{parsed}
	}

	postings := make([]Posting, 0, len(items))
	for n, item := range items {
		externalID := item.Get("id").String()
		if externalID == "" {
			externalID = fmt.Sprintf("%s-%d", path, n)
		}
		postings = append(postings, Posting{
			ExternalID:  externalID,
			Title:       item.Get("title").String(),
			Department:  item.Get("department").String(),
			Location:    item.Get("location").String(),
			ContentHTML: item.Get("content").String(),
			Raw:         item.Raw,
		})
	}

	return i.storePostings(postings, company, "file")
}

func (i *Importer) storePostings(postings []Posting, company, source string) (int, error) {
	companyID, err := i.companies.Upsert(company, source)
	if err != nil {
		return 0, fmt.Errorf("upserting company %s: %w", company, err)
	}

	stored := 0
	for _, posting := range postings {
		if posting.Title == "" {
			i.logger.Warn("skipping posting without title", zap.String("external_id", posting.ExternalID))
			continue
		}

		job := model.Job{
			ExternalID: posting.ExternalID,
			CompanyID:  companyID,
			Source:     source,
			Title:      posting.Title,
			RawData:    posting.Raw,
		}
		if posting.Department != "" {
			job.Department = &posting.Department
		}
		if posting.Location != "" {
			job.Location = &posting.Location
		}
		if posting.ContentHTML != "" {
			job.ContentHTML = &posting.ContentHTML
			if text := HTMLToText(posting.ContentHTML); text != "" {
				job.ContentText = &text
			}
		}

		if err := i.jobs.Upsert(&job); err != nil {
			return stored, fmt.Errorf("storing job %s: %w", posting.ExternalID, err)
		}
		stored++
	}

	i.logger.Info("postings stored",
		zap.String("company", company),
		zap.String("source", source),
		zap.Int("stored", stored),
		zap.Int("skipped", len(postings)-stored),
	)
	return stored, nil
}

// ImportResume extracts text from a resume file and stores it. An empty
// name defaults to the file's base name without extension.
func (i *Importer) ImportResume(path, name string) (*model.Resume, error) {
	extracted, err := ExtractResume(path)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = extracted.DefaultName
	}

	resume := model.Resume{
		Name:     name,
		FilePath: path,
		FileType: extracted.FileType,
		FileSize: extracted.FileSize,
	}
	if extracted.Text != "" {
		resume.ContentText = &extracted.Text
	}

	if err := i.resumes.Create(&resume); err != nil {
		return nil, fmt.Errorf("storing resume: %w", err)
	}

	i.logger.Info("resume imported",
		zap.Uint("resume_id", resume.ID),
		zap.String("name", resume.Name),
		zap.Int("chars", len(extracted.Text)),
	)
	return &resume, nil
}
