package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fadilmartias/resume-matcher/internal/embedding"
	"github.com/fadilmartias/resume-matcher/internal/model"
	"github.com/fadilmartias/resume-matcher/internal/usecase"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Generate embeddings and compute resume-job matches",
}

var (
	forceFlag      bool
	matchLimit     int
	clearModelName string
	clearAll       bool
)

var matchGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate embeddings for jobs and resumes missing them",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		pipeline, err := a.pipeline(cmd.Context())
		if err != nil {
			return err
		}

		jobs, err := pipeline.GenerateJobEmbeddings(cmd.Context(), nil, forceFlag)
		if err != nil {
			return err
		}
		resumes, err := pipeline.GenerateResumeEmbeddings(cmd.Context(), nil, forceFlag)
		if err != nil {
			return err
		}

		fmt.Printf("Embeddings written: %d jobs, %d resumes (model %s)\n", jobs, resumes, a.cfg.Embed.Model)
		return nil
	},
}

var matchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute similarity for every resume-job pair and persist it",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		matches, err := a.matcher().CalculateSimilarityBatch(nil, nil, true)
		if err != nil {
			return err
		}

		fmt.Printf("Computed %d matches (model %s)\n", len(matches), a.cfg.Embed.Model)
		if len(matches) > matchLimit {
			matches = matches[:matchLimit]
		}
		return printMatches(matches)
	},
}

var matchShowCmd = &cobra.Command{
	Use:   "show [RESUME_ID]",
	Short: "Show persisted matches, optionally for one resume",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		var matches []model.Match
		if len(args) == 1 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			matches, err = a.matcher().TopMatches(id, matchLimit)
			if err != nil {
				return err
			}
		} else {
			matches, err = a.matcher().AllMatches(matchLimit)
			if err != nil {
				return err
			}
		}
		return printMatches(matches)
	},
}

var matchStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show embedding coverage for the active model",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		pipeline, err := a.pipeline(cmd.Context())
		if err != nil {
			return err
		}
		stats, err := pipeline.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("Model: %s\n", stats.Model)
		fmt.Printf("Jobs:    %d/%d embedded (%.1f%%)\n", stats.Jobs.WithEmbeddings, stats.Jobs.Total, stats.Jobs.CoveragePercent)
		fmt.Printf("Resumes: %d/%d embedded (%.1f%%)\n", stats.Resumes.WithEmbeddings, stats.Resumes.Total, stats.Resumes.CoveragePercent)
		return nil
	},
}

var matchModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List models available on the Ollama server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		client := embedding.NewOllamaClient(&a.cfg.Embed.Ollama, a.cfg.Embed.Model, a.cfg.Embed.MaxChars, a.logger)
		models, err := client.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range models {
			fmt.Println(name)
		}
		return nil
	},
}

var matchClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete stored embeddings and match results",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearAll && clearModelName == "" {
			return fmt.Errorf("pass --model NAME or --all")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if clearAll {
			if err := a.embeddings.ClearAll(); err != nil {
				return err
			}
			fmt.Println("All embeddings and match results removed")
			return nil
		}

		if err := a.embeddings.ClearModel(clearModelName); err != nil {
			return err
		}
		fmt.Printf("Embeddings and match results for %s removed\n", clearModelName)
		return nil
	},
}

var matchCompareCmd = &cobra.Command{
	Use:   "compare-models MODEL...",
	Short: "Evaluate several embedding models and compare them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		evaluator := usecase.NewEvaluator(
			a.jobs, a.resumes, a.embeddings, a.matches,
			func(modelName string) (embedding.Generator, error) {
				return a.generatorFor(cmd.Context(), modelName)
			},
			a.cfg.Embed.JobTextLimit,
			a.cfg.Matching.TopK,
			a.cfg.Matching.SampleResumes,
			a.cfg.Matching.SampleJobs,
			a.logger,
		)

		comparison, err := evaluator.CompareModels(cmd.Context(), args, true)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tDIM\tTOP-K AVG\tVARIANCE\tDIVERSITY\tCOVERAGE\tAVG EMBED\tTOTAL")
		for _, eval := range comparison.Models {
			fmt.Fprintf(w, "%s\t%d\t%.4f\t%.4f\t%.1f%%\t%.1f%%\t%s\t%s\n",
				eval.Model, eval.Dimension, eval.TopKAvgScore, eval.ScoreVariance,
				eval.DiversityScore, eval.CoveragePercent,
				eval.AvgEmbeddingTime, eval.ProcessingTime)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\nBest by score:     %s\n", comparison.BestByScore)
		fmt.Printf("Best by diversity: %s\n", comparison.BestByDiversity)
		fmt.Printf("Best by speed:     %s\n", comparison.BestBySpeed)
		return nil
	},
}

func printMatches(matches []model.Match) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tRESUME\tJOB\tCOMPANY")
	for _, m := range matches {
		fmt.Fprintf(w, "%.4f\t%s\t%s\t%s\n", m.SimilarityScore, m.ResumeName, m.JobTitle, m.CompanyName)
	}
	return w.Flush()
}

func init() {
	matchGenerateCmd.Flags().BoolVar(&forceFlag, "force", false, "regenerate embeddings that already exist")

	matchRunCmd.Flags().IntVar(&matchLimit, "limit", 20, "matches to display")
	matchShowCmd.Flags().IntVar(&matchLimit, "limit", 20, "matches to display")

	matchClearCmd.Flags().StringVar(&clearModelName, "model", "", "clear one model's embeddings")
	matchClearCmd.Flags().BoolVar(&clearAll, "all", false, "clear everything")

	matchCmd.AddCommand(matchGenerateCmd, matchRunCmd, matchShowCmd, matchStatsCmd, matchModelsCmd, matchClearCmd, matchCompareCmd)
	rootCmd.AddCommand(matchCmd)
}
