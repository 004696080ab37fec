package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/fadilmartias/resume-matcher/internal/model"
	"github.com/fadilmartias/resume-matcher/internal/vector"
	"go.uber.org/zap"
)

// fakeMatches keeps scored pairs in memory keyed like the database's unique
// index.
type fakeMatches struct {
	saved map[string]model.MatchResult
}

func newFakeMatches() *fakeMatches {
	return &fakeMatches{saved: map[string]model.MatchResult{}}
}

func matchKey(resumeID, jobID uint, modelName string) string {
	return vecKey(resumeID, modelName) + "/" + vecKey(jobID, modelName)
}

func (f *fakeMatches) Save(resumeID, jobID uint, score float64, modelName string) error {
	f.saved[matchKey(resumeID, jobID, modelName)] = model.MatchResult{
		ResumeID: resumeID, JobID: jobID, SimilarityScore: score, Model: modelName,
	}
	return nil
}

func (f *fakeMatches) all(modelName string) []model.MatchResult {
	var out []model.MatchResult
	for _, m := range f.saved {
		if m.Model == modelName {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SimilarityScore > out[j].SimilarityScore
	})
	return out
}

func (f *fakeMatches) TopMatches(resumeID uint, modelName string, limit int) ([]model.Match, error) {
	var out []model.Match
	for _, m := range f.all(modelName) {
		if m.ResumeID != resumeID {
			continue
		}
		out = append(out, model.Match{ResumeID: m.ResumeID, JobID: m.JobID, SimilarityScore: m.SimilarityScore})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMatches) AllMatches(modelName string, limit int) ([]model.Match, error) {
	var out []model.Match
	for _, m := range f.all(modelName) {
		out = append(out, model.Match{ResumeID: m.ResumeID, JobID: m.JobID, SimilarityScore: m.SimilarityScore})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMatches) UniqueTopJobIDs(modelName string, k int) ([]uint, error) {
	perResume := map[uint][]model.MatchResult{}
	for _, m := range f.all(modelName) {
		perResume[m.ResumeID] = append(perResume[m.ResumeID], m)
	}
	unique := map[uint]bool{}
	for _, ms := range perResume {
		top := ms
		if len(top) > k {
			top = top[:k]
		}
		for _, m := range top {
			unique[m.JobID] = true
		}
	}
	var ids []uint
	for id := range unique {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestCalculateSimilarityBatchRanking(t *testing.T) {
	vectors := newFakeVectors()
	_ = vectors.SaveResume(1, "stub", []float32{1, 0, 0}) // go person
	_ = vectors.SaveJob(1, "stub", []float32{1, 0, 0})    // go job
	_ = vectors.SaveJob(2, "stub", []float32{0, 1, 0})    // python job
	matches := newFakeMatches()

	m := NewMatcher(vectors, matches, "stub", zap.NewNop())
	results, err := m.CalculateSimilarityBatch(nil, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].JobID != 1 {
		t.Errorf("best match job = %d, want 1", results[0].JobID)
	}
	if results[0].SimilarityScore < results[1].SimilarityScore {
		t.Error("results not sorted descending")
	}
	if len(matches.saved) != 2 {
		t.Errorf("persisted %d matches, want 2", len(matches.saved))
	}
}

func TestCalculateSimilarityBatchTieOrder(t *testing.T) {
	vectors := newFakeVectors()
	_ = vectors.SaveResume(1, "stub", []float32{1, 1})
	// Identical job vectors produce identical scores.
	_ = vectors.SaveJob(5, "stub", []float32{2, 2})
	_ = vectors.SaveJob(3, "stub", []float32{2, 2})
	_ = vectors.SaveJob(9, "stub", []float32{2, 2})

	m := NewMatcher(vectors, newFakeMatches(), "stub", zap.NewNop())
	results, err := m.CalculateSimilarityBatch(nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	// Ties keep computation order, which follows job id ascending.
	wantOrder := []uint{3, 5, 9}
	for i, want := range wantOrder {
		if results[i].JobID != want {
			t.Errorf("results[%d].JobID = %d, want %d", i, results[i].JobID, want)
		}
	}
}

func TestCalculateSimilarityBatchDimensionMismatch(t *testing.T) {
	vectors := newFakeVectors()
	_ = vectors.SaveResume(1, "stub", []float32{1, 0})
	_ = vectors.SaveJob(1, "stub", []float32{1, 0, 0})

	m := NewMatcher(vectors, newFakeMatches(), "stub", zap.NewNop())
	_, err := m.CalculateSimilarityBatch(nil, nil, false)
	if err == nil {
		t.Fatal("expected a dimension mismatch error")
	}

	var mismatch *vector.DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error type = %T, want *vector.DimensionMismatchError in chain", err)
	}
}

func TestCalculateSimilarityBatchEmptySides(t *testing.T) {
	vectors := newFakeVectors()
	matches := newFakeMatches()
	m := NewMatcher(vectors, matches, "stub", zap.NewNop())

	results, err := m.CalculateSimilarityBatch(nil, nil, true)
	if err != nil {
		t.Fatalf("empty input must not error: %v", err)
	}
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
	if len(matches.saved) != 0 {
		t.Error("nothing should be persisted")
	}
}

func TestCalculateSimilarityBatchSubset(t *testing.T) {
	vectors := newFakeVectors()
	_ = vectors.SaveResume(1, "stub", []float32{1, 0})
	_ = vectors.SaveResume(2, "stub", []float32{0, 1})
	_ = vectors.SaveJob(1, "stub", []float32{1, 0})
	_ = vectors.SaveJob(2, "stub", []float32{0, 1})

	m := NewMatcher(vectors, newFakeMatches(), "stub", zap.NewNop())
	results, err := m.CalculateSimilarityBatch([]uint{1}, []uint{2}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].ResumeID != 1 || results[0].JobID != 2 {
		t.Errorf("pair = (%d, %d), want (1, 2)", results[0].ResumeID, results[0].JobID)
	}
}

func TestTopMatchesIsPureRead(t *testing.T) {
	matches := newFakeMatches()
	m := NewMatcher(newFakeVectors(), matches, "stub", zap.NewNop())

	got, err := m.TopMatches(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d matches before any computation, want 0", len(got))
	}
}

// TestMatchPipelineEndToEnd runs ingestion text through the stub embedder and
// checks that topically aligned pairs rank first for each resume.
func TestMatchPipelineEndToEnd(t *testing.T) {
	jobs := &fakeJobs{jobs: []model.Job{
		{ID: 1, Title: "Go Engineer", ContentText: strPtr("go go kubernetes go services")},
		{ID: 2, Title: "Python Analyst", ContentText: strPtr("python sql python reporting")},
	}}
	resumes := &fakeResumes{resumes: []model.Resume{
		{ID: 1, Name: "Gopher", ContentText: strPtr("go kubernetes go")},
		{ID: 2, Name: "Pythonista", ContentText: strPtr("python sql")},
	}}
	vectors := newFakeVectors()
	matches := newFakeMatches()
	gen := &stubGenerator{model: "stub"}

	p := newTestPipeline(jobs, resumes, vectors, gen)
	ctx := context.Background()
	if _, err := p.GenerateJobEmbeddings(ctx, nil, false); err != nil {
		t.Fatal(err)
	}
	if _, err := p.GenerateResumeEmbeddings(ctx, nil, false); err != nil {
		t.Fatal(err)
	}

	m := NewMatcher(vectors, matches, "stub", zap.NewNop())
	if _, err := m.CalculateSimilarityBatch(nil, nil, true); err != nil {
		t.Fatal(err)
	}

	top1, err := m.TopMatches(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top1) != 1 || top1[0].JobID != 1 {
		t.Errorf("resume 1 best job = %+v, want job 1", top1)
	}

	top2, err := m.TopMatches(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top2) != 1 || top2[0].JobID != 2 {
		t.Errorf("resume 2 best job = %+v, want job 2", top2)
	}
}
