package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fadilmartias/resume-matcher/internal/model"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

type fakeJobs struct {
	jobs []model.Job
}

func (f *fakeJobs) ListWithContent(ids []uint) ([]model.Job, error) {
	wanted := map[uint]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []model.Job
	for _, j := range f.jobs {
		if j.ContentText == nil {
			continue
		}
		if len(ids) > 0 && !wanted[j.ID] {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

func (f *fakeJobs) CountWithContent() (int64, error) {
	var n int64
	for _, j := range f.jobs {
		if j.ContentText != nil {
			n++
		}
	}
	return n, nil
}

type fakeResumes struct {
	resumes []model.Resume
}

func (f *fakeResumes) ListWithContent(ids []uint) ([]model.Resume, error) {
	wanted := map[uint]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []model.Resume
	for _, r := range f.resumes {
		if r.ContentText == nil {
			continue
		}
		if len(ids) > 0 && !wanted[r.ID] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeResumes) CountWithContent() (int64, error) {
	var n int64
	for _, r := range f.resumes {
		if r.ContentText != nil {
			n++
		}
	}
	return n, nil
}

// fakeVectors is an in-memory vector store shared by the pipeline, matcher
// and evaluator tests.
type fakeVectors struct {
	jobVecs    map[string][]float32
	resumeVecs map[string][]float32
	jobSaves   int
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{
		jobVecs:    map[string][]float32{},
		resumeVecs: map[string][]float32{},
	}
}

func vecKey(id uint, modelName string) string {
	return fmt.Sprintf("%s/%d", modelName, id)
}

func (f *fakeVectors) SaveJob(jobID uint, modelName string, vec []float32) error {
	f.jobVecs[vecKey(jobID, modelName)] = vec
	f.jobSaves++
	return nil
}

func (f *fakeVectors) SaveResume(resumeID uint, modelName string, vec []float32) error {
	f.resumeVecs[vecKey(resumeID, modelName)] = vec
	return nil
}

func (f *fakeVectors) HasJob(jobID uint, modelName string) (bool, error) {
	_, ok := f.jobVecs[vecKey(jobID, modelName)]
	return ok, nil
}

func (f *fakeVectors) HasResume(resumeID uint, modelName string) (bool, error) {
	_, ok := f.resumeVecs[vecKey(resumeID, modelName)]
	return ok, nil
}

func (f *fakeVectors) CountJobs(modelName string) (int64, error) {
	var n int64
	for k := range f.jobVecs {
		if strings.HasPrefix(k, modelName+"/") {
			n++
		}
	}
	return n, nil
}

func (f *fakeVectors) CountResumes(modelName string) (int64, error) {
	var n int64
	for k := range f.resumeVecs {
		if strings.HasPrefix(k, modelName+"/") {
			n++
		}
	}
	return n, nil
}

func (f *fakeVectors) EmbeddedJobs(modelName string, ids []uint) ([]model.EmbeddedJob, error) {
	var out []model.EmbeddedJob
	for id := uint(1); id <= 1000; id++ {
		vec, ok := f.jobVecs[vecKey(id, modelName)]
		if !ok {
			continue
		}
		if len(ids) > 0 && !containsID(ids, id) {
			continue
		}
		out = append(out, model.EmbeddedJob{
			JobID:     id,
			Title:     fmt.Sprintf("job-%d", id),
			Embedding: pgvector.NewVector(vec),
		})
	}
	return out, nil
}

func (f *fakeVectors) EmbeddedResumes(modelName string, ids []uint) ([]model.EmbeddedResume, error) {
	var out []model.EmbeddedResume
	for id := uint(1); id <= 1000; id++ {
		vec, ok := f.resumeVecs[vecKey(id, modelName)]
		if !ok {
			continue
		}
		if len(ids) > 0 && !containsID(ids, id) {
			continue
		}
		out = append(out, model.EmbeddedResume{
			ResumeID:  id,
			Name:      fmt.Sprintf("resume-%d", id),
			Embedding: pgvector.NewVector(vec),
		})
	}
	return out, nil
}

func (f *fakeVectors) FirstJobVector(modelName string) ([]float32, error) {
	jobs, _ := f.EmbeddedJobs(modelName, nil)
	if len(jobs) == 0 {
		return nil, nil
	}
	return jobs[0].Embedding.Slice(), nil
}

func (f *fakeVectors) SampleEmbeddedJobs(modelName string, n int) ([]model.EmbeddedJob, error) {
	jobs, _ := f.EmbeddedJobs(modelName, nil)
	if len(jobs) > n {
		jobs = jobs[:n]
	}
	return jobs, nil
}

func (f *fakeVectors) SampleEmbeddedResumes(modelName string, n int) ([]model.EmbeddedResume, error) {
	resumes, _ := f.EmbeddedResumes(modelName, nil)
	if len(resumes) > n {
		resumes = resumes[:n]
	}
	return resumes, nil
}

func containsID(ids []uint, id uint) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

// stubGenerator embeds text as word counts over a fixed vocabulary, so
// similarity behaves like a crude topic model.
type stubGenerator struct {
	model    string
	fail     map[string]bool
	notReady bool
	calls    int
}

var stubVocab = []string{"go", "python", "sql", "design", "kubernetes"}

func (s *stubGenerator) ModelName() string { return s.model }

func (s *stubGenerator) EnsureModelReady(ctx context.Context) bool { return !s.notReady }

func (s *stubGenerator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.fail[text] {
		return nil, fmt.Errorf("stub failure")
	}
	words := strings.Fields(strings.ToLower(text))
	vec := make([]float32, len(stubVocab))
	for _, w := range words {
		for i, v := range stubVocab {
			if strings.Contains(w, v) {
				vec[i]++
			}
		}
	}
	return vec, nil
}

func (s *stubGenerator) GenerateEmbeddingsBatch(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.GenerateEmbedding(ctx, t)
		if err == nil {
			out[i] = vec
		}
	}
	return out
}

func TestJobTextFormat(t *testing.T) {
	job := &model.Job{
		Title:       "Platform Engineer",
		Department:  strPtr("Infrastructure"),
		Location:    strPtr("Berlin"),
		ContentText: strPtr("Build and run the platform."),
	}

	want := "Job Title: Platform Engineer\n\n" +
		"Platform Engineer\n\n" +
		"Department: Infrastructure\n\n" +
		"Location: Berlin\n\n" +
		"Build and run the platform."
	if got := JobText(job, 8000); got != want {
		t.Errorf("JobText = %q, want %q", got, want)
	}
}

func TestJobTextOmitsEmptyFields(t *testing.T) {
	job := &model.Job{Title: "Analyst", ContentText: strPtr("Numbers.")}
	want := "Job Title: Analyst\n\nAnalyst\n\nNumbers."
	if got := JobText(job, 8000); got != want {
		t.Errorf("JobText = %q, want %q", got, want)
	}
}

func TestJobTextTruncatesBody(t *testing.T) {
	body := strings.Repeat("x", 100)
	job := &model.Job{Title: "T", ContentText: &body}
	got := JobText(job, 20)
	if !strings.HasSuffix(got, strings.Repeat("x", 20)+"...") {
		t.Errorf("body should be truncated to 20 chars plus marker, got %q", got)
	}
}

func TestJobTextFallsBackToHTML(t *testing.T) {
	job := &model.Job{Title: "T", ContentHTML: strPtr("<p>markup body</p>")}
	if got := JobText(job, 8000); !strings.Contains(got, "markup body") {
		t.Errorf("HTML fallback missing from %q", got)
	}
}

func newTestPipeline(jobs *fakeJobs, resumes *fakeResumes, vectors *fakeVectors, gen *stubGenerator) *Pipeline {
	return NewPipeline(jobs, resumes, vectors, gen, 8000, zap.NewNop())
}

func TestGenerateJobEmbeddings(t *testing.T) {
	jobs := &fakeJobs{jobs: []model.Job{
		{ID: 1, Title: "Go Developer", ContentText: strPtr("go go go")},
		{ID: 2, Title: "Python Developer", ContentText: strPtr("python sql")},
		{ID: 3, Title: "No Body"},
	}}
	vectors := newFakeVectors()
	gen := &stubGenerator{model: "stub"}

	p := newTestPipeline(jobs, &fakeResumes{}, vectors, gen)
	written, err := p.GenerateJobEmbeddings(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2 (job without body excluded)", written)
	}
}

func TestGenerateJobEmbeddingsIdempotent(t *testing.T) {
	jobs := &fakeJobs{jobs: []model.Job{
		{ID: 1, Title: "Go Developer", ContentText: strPtr("go")},
	}}
	vectors := newFakeVectors()
	gen := &stubGenerator{model: "stub"}
	p := newTestPipeline(jobs, &fakeResumes{}, vectors, gen)

	if _, err := p.GenerateJobEmbeddings(context.Background(), nil, false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	written, err := p.GenerateJobEmbeddings(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if written != 0 {
		t.Errorf("second run wrote %d, want 0", written)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
}

func TestGenerateJobEmbeddingsForce(t *testing.T) {
	jobs := &fakeJobs{jobs: []model.Job{
		{ID: 1, Title: "Go Developer", ContentText: strPtr("go")},
	}}
	vectors := newFakeVectors()
	gen := &stubGenerator{model: "stub"}
	p := newTestPipeline(jobs, &fakeResumes{}, vectors, gen)

	if _, err := p.GenerateJobEmbeddings(context.Background(), nil, false); err != nil {
		t.Fatal(err)
	}
	written, err := p.GenerateJobEmbeddings(context.Background(), nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if written != 1 {
		t.Errorf("force run wrote %d, want 1", written)
	}
	if vectors.jobSaves != 2 {
		t.Errorf("store received %d saves, want 2", vectors.jobSaves)
	}
}

func TestGenerateJobEmbeddingsSkipsFailures(t *testing.T) {
	jobs := &fakeJobs{jobs: []model.Job{
		{ID: 1, Title: "Good", ContentText: strPtr("go")},
		{ID: 2, Title: "Bad", ContentText: strPtr("python")},
		{ID: 3, Title: "Also Good", ContentText: strPtr("sql")},
	}}
	vectors := newFakeVectors()
	gen := &stubGenerator{model: "stub", fail: map[string]bool{
		JobText(&jobs.jobs[1], 8000): true,
	}}
	p := newTestPipeline(jobs, &fakeResumes{}, vectors, gen)

	written, err := p.GenerateJobEmbeddings(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("per-item failures must not abort the batch: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}
	if has, _ := vectors.HasJob(2, "stub"); has {
		t.Error("failed job should have no vector")
	}
}

func TestGenerateResumeEmbeddings(t *testing.T) {
	resumes := &fakeResumes{resumes: []model.Resume{
		{ID: 1, Name: "Ann", ContentText: strPtr("go kubernetes")},
		{ID: 2, Name: "No Text"},
	}}
	vectors := newFakeVectors()
	p := newTestPipeline(&fakeJobs{}, resumes, vectors, &stubGenerator{model: "stub"})

	written, err := p.GenerateResumeEmbeddings(context.Background(), nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if written != 1 {
		t.Errorf("written = %d, want 1", written)
	}
}

func TestStatsCoverage(t *testing.T) {
	jobs := &fakeJobs{}
	for i := uint(1); i <= 10; i++ {
		jobs.jobs = append(jobs.jobs, model.Job{ID: i, Title: "j", ContentText: strPtr("body")})
	}
	resumes := &fakeResumes{resumes: []model.Resume{
		{ID: 1, ContentText: strPtr("a")},
		{ID: 2, ContentText: strPtr("b")},
		{ID: 3, ContentText: strPtr("c")},
	}}
	vectors := newFakeVectors()
	for i := uint(1); i <= 4; i++ {
		_ = vectors.SaveJob(i, "stub", []float32{1})
	}
	_ = vectors.SaveResume(1, "stub", []float32{1})

	p := newTestPipeline(jobs, resumes, vectors, &stubGenerator{model: "stub"})
	stats, err := p.Stats()
	if err != nil {
		t.Fatal(err)
	}

	if stats.Jobs.CoveragePercent != 40.0 {
		t.Errorf("job coverage = %v, want 40.0", stats.Jobs.CoveragePercent)
	}
	if stats.Resumes.CoveragePercent != 33.3 {
		t.Errorf("resume coverage = %v, want 33.3 (rounded to one decimal)", stats.Resumes.CoveragePercent)
	}
}

func TestStatsEmptyDatabase(t *testing.T) {
	p := newTestPipeline(&fakeJobs{}, &fakeResumes{}, newFakeVectors(), &stubGenerator{model: "stub"})
	stats, err := p.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Jobs.CoveragePercent != 0 || stats.Resumes.CoveragePercent != 0 {
		t.Errorf("coverage on empty db = %+v, want zeros", stats)
	}
}
