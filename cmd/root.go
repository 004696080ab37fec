package cmd

import (
	"context"
	"fmt"

	"github.com/fadilmartias/resume-matcher/internal/config"
	"github.com/fadilmartias/resume-matcher/internal/embedding"
	"github.com/fadilmartias/resume-matcher/internal/logger"
	"github.com/fadilmartias/resume-matcher/internal/repository"
	"github.com/fadilmartias/resume-matcher/internal/usecase"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const appName = "resume-matcher"

var (
	cfgFile      string
	debugFlag    bool
	jsonFlag     bool
	modelFlag    string
	providerFlag string
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Match resumes against job postings with vector embeddings",
	Long: `resume-matcher ingests job postings from ATS boards and resumes from
local files, embeds both with a configurable model and ranks every
resume-job pair by cosine similarity.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./resume-matcher.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "log in JSON format")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "embedding model (overrides config)")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "embedding provider: ollama or gemini (overrides config)")
}

// app bundles the wired dependencies a command needs. Built once per
// invocation by newApp.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	db         *gorm.DB
	companies  *repository.CompanyRepository
	jobs       *repository.JobRepository
	resumes    *repository.ResumeRepository
	embeddings *repository.EmbeddingRepository
	matches    *repository.MatchRepository
}

func newApp() (*app, error) {
	// A missing .env file is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if debugFlag {
		cfg.Debug = true
	}
	if jsonFlag {
		cfg.JSON = true
	}
	if modelFlag != "" {
		cfg.Embed.Model = modelFlag
	}
	if providerFlag != "" {
		cfg.Embed.Provider = providerFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log, err := logger.New(cfg.JSON, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	db, err := repository.Connect(&cfg.Database, log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     log,
		db:         db,
		companies:  repository.NewCompanyRepository(db),
		jobs:       repository.NewJobRepository(db),
		resumes:    repository.NewResumeRepository(db),
		embeddings: repository.NewEmbeddingRepository(db),
		matches:    repository.NewMatchRepository(db),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// generatorFor builds an embedding client for the configured provider and
// the given model name.
func (a *app) generatorFor(ctx context.Context, modelName string) (embedding.Generator, error) {
	switch a.cfg.Embed.Provider {
	case config.ProviderGemini:
		return embedding.NewGeminiClient(ctx, &a.cfg.Embed.Gemini, modelName, a.cfg.Embed.MaxChars, a.logger)
	default:
		return embedding.NewOllamaClient(&a.cfg.Embed.Ollama, modelName, a.cfg.Embed.MaxChars, a.logger), nil
	}
}

func (a *app) pipeline(ctx context.Context) (*usecase.Pipeline, error) {
	gen, err := a.generatorFor(ctx, a.cfg.Embed.Model)
	if err != nil {
		return nil, err
	}
	return usecase.NewPipeline(a.jobs, a.resumes, a.embeddings, gen, a.cfg.Embed.JobTextLimit, a.logger), nil
}

func (a *app) matcher() *usecase.Matcher {
	return usecase.NewMatcher(a.embeddings, a.matches, a.cfg.Embed.Model, a.logger)
}
