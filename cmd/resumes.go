package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/fadilmartias/resume-matcher/internal/ingest"
	"github.com/spf13/cobra"
)

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "Import and manage resumes",
}

var resumeName string

var resumesAddCmd = &cobra.Command{
	Use:   "add FILE...",
	Short: "Import resumes from .txt, .md or .pdf files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if resumeName != "" && len(args) > 1 {
			return fmt.Errorf("--name only applies to a single file")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		importer := ingest.NewImporter(a.companies, a.jobs, a.resumes, a.logger)
		for _, path := range args {
			resume, err := importer.ImportResume(path, resumeName)
			if err != nil {
				return err
			}
			fmt.Printf("Imported resume %d: %s\n", resume.ID, resume.Name)
		}
		return nil
	},
}

var resumesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored resumes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		resumes, err := a.resumes.List()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE\tHAS TEXT")
		for _, r := range resumes {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%t\n", r.ID, r.Name, r.FileType, r.FileSize, r.ContentText != nil)
		}
		return w.Flush()
	},
}

var resumesShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one resume with its extracted text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		resume, err := a.resumes.FindByID(id)
		if err != nil {
			return fmt.Errorf("resume %d not found", id)
		}

		fmt.Printf("ID:    %d\n", resume.ID)
		fmt.Printf("Name:  %s\n", resume.Name)
		fmt.Printf("File:  %s (%s, %d bytes)\n", resume.FilePath, resume.FileType, resume.FileSize)
		if resume.ContentText != nil {
			fmt.Printf("\n%s\n", *resume.ContentText)
		}
		return nil
	},
}

var resumesRenameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a resume",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.resumes.Rename(id, args[1]); err != nil {
			return err
		}
		fmt.Printf("Resume %d renamed to %s\n", id, args[1])
		return nil
	},
}

var resumesRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Delete a resume with its embeddings and match results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.resumes.Delete(id); err != nil {
			return err
		}
		fmt.Printf("Resume %d removed\n", id)
		return nil
	},
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}

func init() {
	resumesAddCmd.Flags().StringVar(&resumeName, "name", "", "display name (defaults to the file name)")

	resumesCmd.AddCommand(resumesAddCmd, resumesListCmd, resumesShowCmd, resumesRenameCmd, resumesRemoveCmd)
	rootCmd.AddCommand(resumesCmd)
}
