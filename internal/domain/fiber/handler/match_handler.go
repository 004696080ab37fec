package handler

import (
	"strconv"
	"time"

	"github.com/fadilmartias/resume-matcher/internal/middleware"
	"github.com/fadilmartias/resume-matcher/internal/repository"
	"github.com/fadilmartias/resume-matcher/internal/response"
	"github.com/fadilmartias/resume-matcher/internal/usecase"
	"github.com/fadilmartias/resume-matcher/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

type MatchHandler struct {
	companies  *repository.CompanyRepository
	jobs       *repository.JobRepository
	resumes    *repository.ResumeRepository
	embeddings *repository.EmbeddingRepository
	pipeline   *usecase.Pipeline
	matcher    *usecase.Matcher
	maxMatches int
	logger     *zap.Logger
}

func NewMatchHandler(
	companies *repository.CompanyRepository,
	jobs *repository.JobRepository,
	resumes *repository.ResumeRepository,
	embeddings *repository.EmbeddingRepository,
	pipeline *usecase.Pipeline,
	matcher *usecase.Matcher,
	maxMatches int,
	logger *zap.Logger,
) *MatchHandler {
	return &MatchHandler{
		companies:  companies,
		jobs:       jobs,
		resumes:    resumes,
		embeddings: embeddings,
		pipeline:   pipeline,
		matcher:    matcher,
		maxMatches: maxMatches,
		logger:     logger,
	}
}

func (h *MatchHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/stats", h.Stats)
	api.Get("/companies", h.Companies)
	api.Get("/jobs", h.Jobs)
	api.Get("/jobs/:id/similar", h.SimilarJobs)
	api.Get("/resumes", h.Resumes)
	api.Get("/matches", h.AllMatches)
	api.Get("/matches/:resumeID", h.ResumeMatches)
	api.Post("/embeddings/generate", middleware.RateLimiter(1, 4*time.Second), h.GenerateEmbeddings)
	api.Post("/match/run", middleware.RateLimiter(1, 4*time.Second), h.RunMatch)
}

func (h *MatchHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.pipeline.Stats()
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to collect embedding stats",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Embedding stats",
		Data:    stats,
	})
}

func (h *MatchHandler) Companies(c *fiber.Ctx) error {
	companies, err := h.companies.List(c.QueryBool("active", false))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list companies",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Companies",
		Data:    companies,
	})
}

func (h *MatchHandler) Jobs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	jobs, total, err := h.jobs.Paginate(page, pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list jobs",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Jobs",
		Data:       jobs,
		Pagination: response.NewPagination(page, pageSize, total, len(jobs)),
	})
}

func (h *MatchHandler) SimilarJobs(c *fiber.Ctx) error {
	jobID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid job id",
		}, err)
	}

	modelName := h.pipeline.ModelName()
	vec, err := h.embeddings.GetJob(uint(jobID), modelName)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to load job embedding",
		}, err)
	}
	if vec == nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "job has no embedding for the active model",
		})
	}

	k := c.QueryInt("k", 10)
	similar, err := h.jobs.Similar(pgvector.NewVector(vec), modelName, k+1)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to search similar jobs",
		}, err)
	}

	// The job itself is always its own nearest neighbor.
	filtered := similar[:0]
	for _, job := range similar {
		if job.JobID != uint(jobID) {
			filtered = append(filtered, job)
		}
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Similar jobs",
		Data:    filtered,
	})
}

func (h *MatchHandler) Resumes(c *fiber.Ctx) error {
	resumes, err := h.resumes.List()
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list resumes",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Resumes",
		Data:    resumes,
	})
}

func (h *MatchHandler) AllMatches(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", h.maxMatches)
	matches, err := h.matcher.AllMatches(limit)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list matches",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Matches",
		Data:    matches,
	})
}

func (h *MatchHandler) ResumeMatches(c *fiber.Ctx) error {
	resumeID, err := strconv.ParseUint(c.Params("resumeID"), 10, 32)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid resume id",
		}, err)
	}

	limit := c.QueryInt("limit", h.maxMatches)
	matches, err := h.matcher.TopMatches(uint(resumeID), limit)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to load matches",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Top matches",
		Data:    matches,
	})
}

func (h *MatchHandler) GenerateEmbeddings(c *fiber.Ctx) error {
	force := c.QueryBool("force", false)

	jobsWritten, err := h.pipeline.GenerateJobEmbeddings(c.Context(), nil, force)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to generate job embeddings",
		}, err)
	}
	resumesWritten, err := h.pipeline.GenerateResumeEmbeddings(c.Context(), nil, force)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to generate resume embeddings",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Embeddings generated",
		Data: fiber.Map{
			"jobs_written":    jobsWritten,
			"resumes_written": resumesWritten,
		},
	})
}

func (h *MatchHandler) RunMatch(c *fiber.Ctx) error {
	matches, err := h.matcher.CalculateSimilarityBatch(nil, nil, true)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to compute matches",
		}, err)
	}

	limit := c.QueryInt("limit", h.maxMatches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Matches computed",
		Data:    matches,
		Meta:    fiber.Map{"computed": len(matches)},
	})
}
