package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fadilmartias/resume-matcher/internal/embedding"
	"github.com/fadilmartias/resume-matcher/internal/model"
	"github.com/fadilmartias/resume-matcher/internal/vector"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EvaluationStore extends the vector store with the probes and random
// sampling the evaluator needs.
type EvaluationStore interface {
	EmbeddingStore
	VectorReader
	FirstJobVector(modelName string) ([]float32, error)
	SampleEmbeddedResumes(modelName string, n int) ([]model.EmbeddedResume, error)
	SampleEmbeddedJobs(modelName string, n int) ([]model.EmbeddedJob, error)
}

// GeneratorFactory builds a fresh embedding client for a model name. Each
// evaluation gets its own client so readiness is re-probed per model.
type GeneratorFactory func(modelName string) (embedding.Generator, error)

// Evaluation summarizes one model's run. Sampled metrics are randomized per
// invocation: comparing across runs requires averaging repeated evaluations.
type Evaluation struct {
	Model            string        `json:"model"`
	TotalJobs        int64         `json:"total_jobs"`
	TotalResumes     int64         `json:"total_resumes"`
	Dimension        int           `json:"embedding_dimension"`
	TopKAvgScore     float64       `json:"top_k_avg_score"`
	ScoreVariance    float64       `json:"score_variance"`
	DiversityScore   float64       `json:"diversity_score"`
	CoveragePercent  float64       `json:"coverage_percent"`
	AvgEmbeddingTime time.Duration `json:"avg_embedding_time"`
	ProcessingTime   time.Duration `json:"processing_time"`
}

// Comparison holds the evaluations of several models and the winner on each
// of the three independent axes. No combined objective: accuracy, diversity
// and speed are weighed by the operator.
type Comparison struct {
	RunID           string       `json:"run_id"`
	Models          []Evaluation `json:"models"`
	BestByScore     string       `json:"best_by_score"`
	BestByDiversity string       `json:"best_by_diversity"`
	BestBySpeed     string       `json:"best_by_speed"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

// Evaluator runs the pipeline and matcher for candidate models and ranks
// them for matching quality, diversity and speed.
type Evaluator struct {
	jobs          JobStore
	resumes       ResumeStore
	store         EvaluationStore
	matches       MatchStore
	newGenerator  GeneratorFactory
	bodyLimit     int
	topK          int
	sampleResumes int
	sampleJobs    int
	logger        *zap.Logger
}

func NewEvaluator(jobs JobStore, resumes ResumeStore, store EvaluationStore, matches MatchStore, factory GeneratorFactory, bodyLimit, topK, sampleResumes, sampleJobs int, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		jobs:          jobs,
		resumes:       resumes,
		store:         store,
		matches:       matches,
		newGenerator:  factory,
		bodyLimit:     bodyLimit,
		topK:          topK,
		sampleResumes: sampleResumes,
		sampleJobs:    sampleJobs,
		logger:        logger,
	}
}

// timingGenerator wraps a Generator and records per-call latency.
type timingGenerator struct {
	embedding.Generator
	durations []time.Duration
}

func (t *timingGenerator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := t.Generator.GenerateEmbedding(ctx, text)
	t.durations = append(t.durations, time.Since(start))
	return vec, err
}

func (t *timingGenerator) average() time.Duration {
	if len(t.durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range t.durations {
		total += d
	}
	return total / time.Duration(len(t.durations))
}

// EvaluateModel generates embeddings for both entity kinds with the model,
// recomputes matches and derives the evaluation metrics.
func (e *Evaluator) EvaluateModel(ctx context.Context, modelName string, force bool) (*Evaluation, error) {
	e.logger.Info("evaluating model", zap.String("model", modelName))
	start := time.Now()

	gen, err := e.newGenerator(modelName)
	if err != nil {
		return nil, fmt.Errorf("building client for %s: %w", modelName, err)
	}
	if !gen.EnsureModelReady(ctx) {
		return nil, fmt.Errorf("model %s is not available", modelName)
	}

	timed := &timingGenerator{Generator: gen}
	pipeline := NewPipeline(e.jobs, e.resumes, e.store, timed, e.bodyLimit, e.logger)

	if _, err := pipeline.GenerateJobEmbeddings(ctx, nil, force); err != nil {
		return nil, err
	}
	if _, err := pipeline.GenerateResumeEmbeddings(ctx, nil, force); err != nil {
		return nil, err
	}

	// Matches are recomputed so the diversity metric reflects this model's
	// vectors rather than a previous run.
	matcher := NewMatcher(e.store, e.matches, modelName, e.logger)
	if _, err := matcher.CalculateSimilarityBatch(nil, nil, true); err != nil {
		return nil, err
	}

	eval, err := e.collectMetrics(modelName)
	if err != nil {
		return nil, err
	}

	eval.AvgEmbeddingTime = timed.average()
	eval.ProcessingTime = time.Since(start)
	return eval, nil
}

func (e *Evaluator) collectMetrics(modelName string) (*Evaluation, error) {
	totalJobs, err := e.store.CountJobs(modelName)
	if err != nil {
		return nil, err
	}
	totalResumes, err := e.store.CountResumes(modelName)
	if err != nil {
		return nil, err
	}

	dimension := 0
	if probe, err := e.store.FirstJobVector(modelName); err != nil {
		return nil, err
	} else if probe != nil {
		dimension = len(probe)
	}

	scores, err := e.sampleSimilarities(modelName)
	if err != nil {
		return nil, err
	}
	topKAvg, variance := summarize(scores, e.topK)

	diversity, err := e.diversity(modelName, totalJobs)
	if err != nil {
		return nil, err
	}

	coveragePct, err := e.coverage(modelName, totalJobs, totalResumes)
	if err != nil {
		return nil, err
	}

	return &Evaluation{
		Model:           modelName,
		TotalJobs:       totalJobs,
		TotalResumes:    totalResumes,
		Dimension:       dimension,
		TopKAvgScore:    topKAvg,
		ScoreVariance:   variance,
		DiversityScore:  diversity,
		CoveragePercent: coveragePct,
	}, nil
}

// sampleSimilarities scores a bounded random sample of resume-job pairs and
// keeps each resume's strongest scores. Sampling is randomized per run.
func (e *Evaluator) sampleSimilarities(modelName string) ([]float64, error) {
	resumes, err := e.store.SampleEmbeddedResumes(modelName, e.sampleResumes)
	if err != nil {
		return nil, err
	}
	jobs, err := e.store.SampleEmbeddedJobs(modelName, e.sampleJobs)
	if err != nil {
		return nil, err
	}
	if len(resumes) == 0 || len(jobs) == 0 {
		return nil, nil
	}

	var scores []float64
	for _, resume := range resumes {
		rvec := resume.Embedding.Slice()
		perResume := make([]float64, 0, len(jobs))
		for _, job := range jobs {
			score, err := vector.Cosine(rvec, job.Embedding.Slice())
			if err != nil {
				return nil, fmt.Errorf("resume %d vs job %d: %w", resume.ResumeID, job.JobID, err)
			}
			perResume = append(perResume, score)
		}

		sort.Sort(sort.Reverse(sort.Float64Slice(perResume)))
		keep := len(perResume)
		if keep > 2*e.topK {
			keep = 2 * e.topK
		}
		scores = append(scores, perResume[:keep]...)
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	return scores, nil
}

func (e *Evaluator) diversity(modelName string, totalJobs int64) (float64, error) {
	ids, err := e.matches.UniqueTopJobIDs(modelName, e.topK)
	if err != nil {
		return 0, err
	}
	return float64(len(ids)) / float64(max64(totalJobs, 1)) * 100, nil
}

func (e *Evaluator) coverage(modelName string, embeddedJobs, embeddedResumes int64) (float64, error) {
	possibleJobs, err := e.jobs.CountWithContent()
	if err != nil {
		return 0, err
	}
	possibleResumes, err := e.resumes.CountWithContent()
	if err != nil {
		return 0, err
	}

	jobPct := 0.0
	if possibleJobs > 0 {
		jobPct = float64(embeddedJobs) / float64(possibleJobs) * 100
	}
	resumePct := 0.0
	if possibleResumes > 0 {
		resumePct = float64(embeddedResumes) / float64(possibleResumes) * 100
	}
	return (jobPct + resumePct) / 2, nil
}

// summarize returns the mean of the top k scores and the sample standard
// deviation across all scores.
func summarize(scores []float64, k int) (float64, float64) {
	if len(scores) == 0 {
		return 0, 0
	}

	top := scores
	if len(top) > k {
		top = top[:k]
	}
	var sum float64
	for _, s := range top {
		sum += s
	}
	avg := sum / float64(len(top))

	if len(scores) < 2 {
		return avg, 0
	}
	var mean float64
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	var sq float64
	for _, s := range scores {
		sq += (s - mean) * (s - mean)
	}
	return avg, math.Sqrt(sq / float64(len(scores)-1))
}

// CompareModels evaluates each candidate model, skipping ones that fail, and
// reports the winner on each axis.
func (e *Evaluator) CompareModels(ctx context.Context, models []string, force bool) (*Comparison, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("no models to compare")
	}

	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID))
	logger.Info("comparing models", zap.Strings("models", models))

	var evaluations []Evaluation
	for _, name := range models {
		eval, err := e.EvaluateModel(ctx, name, force)
		if err != nil {
			logger.Warn("skipping model", zap.String("model", name), zap.Error(err))
			continue
		}
		evaluations = append(evaluations, *eval)
	}

	if len(evaluations) == 0 {
		return nil, fmt.Errorf("no models could be evaluated")
	}

	comparison := &Comparison{
		RunID:       runID,
		Models:      evaluations,
		GeneratedAt: time.Now(),
	}

	bestScore, bestDiversity, bestSpeed := evaluations[0], evaluations[0], evaluations[0]
	for _, eval := range evaluations[1:] {
		if eval.TopKAvgScore > bestScore.TopKAvgScore {
			bestScore = eval
		}
		if eval.DiversityScore > bestDiversity.DiversityScore {
			bestDiversity = eval
		}
		if eval.AvgEmbeddingTime < bestSpeed.AvgEmbeddingTime {
			bestSpeed = eval
		}
	}
	comparison.BestByScore = bestScore.Model
	comparison.BestByDiversity = bestDiversity.Model
	comparison.BestBySpeed = bestSpeed.Model

	return comparison, nil
}
