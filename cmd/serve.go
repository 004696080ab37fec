package cmd

import (
	"github.com/fadilmartias/resume-matcher/internal/domain/fiber/handler"
	"github.com/fadilmartias/resume-matcher/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
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

		h := handler.NewMatchHandler(
			a.companies, a.jobs, a.resumes, a.embeddings,
			pipeline, a.matcher(),
			a.cfg.Matching.MaxMatches,
			a.logger,
		)

		app := server.New(h, a.cfg.Debug)
		a.logger.Info("server starting")
		return app.Listen(a.cfg.Server.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
