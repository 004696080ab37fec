package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fadilmartias/resume-matcher/internal/ingest"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Ingest and manage job postings",
}

var (
	jobsFetchSource string
	jobsFetchBoard  string
	jobsCompany     string
	jobsListLimit   int
	jobsListSource  string
)

var jobsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all postings from a company's public board",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		var fetcher ingest.BoardFetcher
		switch jobsFetchSource {
		case "greenhouse":
			fetcher = ingest.NewGreenhouseClient(a.logger)
		case "lever":
			fetcher = ingest.NewLeverClient(a.logger)
		default:
			return fmt.Errorf("unsupported source %q (supported: greenhouse, lever)", jobsFetchSource)
		}

		board := jobsFetchBoard
		if board == "" {
			board = jobsCompany
		}

		importer := ingest.NewImporter(a.companies, a.jobs, a.resumes, a.logger)
		stored, err := importer.ImportBoard(cmd.Context(), fetcher, jobsCompany, board, jobsFetchSource)
		if err != nil {
			return err
		}

		fmt.Printf("Stored %d postings for %s from %s\n", stored, jobsCompany, jobsFetchSource)
		return nil
	},
}

var jobsAddFileCmd = &cobra.Command{
	Use:   "add-file FILE",
	Short: "Import postings from a local JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		importer := ingest.NewImporter(a.companies, a.jobs, a.resumes, a.logger)
		stored, err := importer.ImportJobFile(args[0], jobsCompany)
		if err != nil {
			return err
		}

		fmt.Printf("Stored %d postings from %s\n", stored, args[0])
		return nil
	},
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored job postings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		jobs, err := a.jobs.List(0, jobsListSource, jobsListLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tDEPARTMENT\tLOCATION\tSOURCE")
		for _, job := range jobs {
			dept, loc := "", ""
			if job.Department != nil {
				dept = *job.Department
			}
			if job.Location != nil {
				loc = *job.Location
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", job.ID, job.Title, dept, loc, job.Source)
		}
		return w.Flush()
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one posting with its full text",
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
		job, err := a.jobs.FindByID(id)
		if err != nil {
			return fmt.Errorf("job %d not found", id)
		}

		fmt.Printf("ID:         %d\n", job.ID)
		fmt.Printf("Title:      %s\n", job.Title)
		if job.Department != nil {
			fmt.Printf("Department: %s\n", *job.Department)
		}
		if job.Location != nil {
			fmt.Printf("Location:   %s\n", *job.Location)
		}
		fmt.Printf("Source:     %s\n", job.Source)
		if job.ContentText != nil {
			fmt.Printf("\n%s\n", *job.ContentText)
		}
		return nil
	},
}

var jobsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete all jobs, their embeddings and match results",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.jobs.Clean(); err != nil {
			return err
		}
		fmt.Println("All jobs removed")
		return nil
	},
}

func init() {
	jobsFetchCmd.Flags().StringVar(&jobsFetchSource, "source", "greenhouse", "ATS source: greenhouse or lever")
	jobsFetchCmd.Flags().StringVar(&jobsFetchBoard, "board", "", "board identifier (defaults to the company name)")
	jobsFetchCmd.Flags().StringVar(&jobsCompany, "company", "", "company name")
	_ = jobsFetchCmd.MarkFlagRequired("company")

	jobsAddFileCmd.Flags().StringVar(&jobsCompany, "company", "", "company name")
	_ = jobsAddFileCmd.MarkFlagRequired("company")

	jobsListCmd.Flags().IntVar(&jobsListLimit, "limit", 50, "maximum rows to show")
	jobsListCmd.Flags().StringVar(&jobsListSource, "source", "", "filter by source")

	jobsCmd.AddCommand(jobsFetchCmd, jobsAddFileCmd, jobsListCmd, jobsShowCmd, jobsCleanCmd)
	rootCmd.AddCommand(jobsCmd)
}
