package cmd

import (
	"fmt"
	"os"

	"github.com/fadilmartias/resume-matcher/internal/export"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export matches and embeddings",
}

var (
	exportFormat string
	exportOutput string
)

var exportMatchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Export persisted matches as CSV or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		matches, err := a.matcher().AllMatches(a.cfg.Matching.MaxMatches)
		if err != nil {
			return err
		}

		out, closeOut, err := openOutput(exportOutput)
		if err != nil {
			return err
		}
		defer closeOut()

		switch exportFormat {
		case "csv":
			return export.MatchesCSV(out, matches)
		case "json":
			return export.MatchesJSON(out, matches)
		default:
			return fmt.Errorf("unsupported format %q (supported: csv, json)", exportFormat)
		}
	},
}

var exportEmbeddingsCmd = &cobra.Command{
	Use:   "embeddings FILE",
	Short: "Dump the active model's embeddings to a binary file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		modelName := a.cfg.Embed.Model
		jobs, err := a.embeddings.ListJobEmbeddings(modelName)
		if err != nil {
			return err
		}
		resumes, err := a.embeddings.ListResumeEmbeddings(modelName)
		if err != nil {
			return err
		}

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if err := export.WriteEmbeddings(f, modelName, jobs, resumes); err != nil {
			return err
		}
		fmt.Printf("Dumped %d job and %d resume vectors for %s to %s\n", len(jobs), len(resumes), modelName, args[0])
		return nil
	},
}

var importEmbeddingsCmd = &cobra.Command{
	Use:   "import-embeddings FILE",
	Short: "Restore embeddings from a binary dump",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		modelName, written, err := export.RestoreEmbeddings(f, a.embeddings)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %d vectors for %s from %s\n", written, modelName, args[0])
		return nil
	},
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func init() {
	exportMatchesCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	exportMatchesCmd.Flags().StringVar(&exportOutput, "output", "-", "output file (- for stdout)")

	exportCmd.AddCommand(exportMatchesCmd, exportEmbeddingsCmd)
	rootCmd.AddCommand(exportCmd, importEmbeddingsCmd)
}
