package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"docqa-backend/internal/bootstrap"
	"docqa-backend/internal/query"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/storage/db"
	"docqa-backend/internal/shared/telemetry"
)

// newRootCmd builds the operator CLI. loadConfig is called once per command
// run so flags and environment are read at execution time.
func newRootCmd(loadConfig func() config.Config, out io.Writer) *cobra.Command {
	var owner string

	withApp := func(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) (any, error)) error {
		cfg := loadConfig()
		if _, err := telemetry.Init(cfg.Env, cfg.LogLevel); err != nil {
			return err
		}
		defer telemetry.Sync()
		if owner == "" {
			return fmt.Errorf("--owner is required")
		}
		ctx := cmd.Context()
		app, err := bootstrap.Build(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()
		result, err := fn(ctx, app)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	root := &cobra.Command{
		Use:           "docqactl",
		Short:         "Operate the document Q&A backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&owner, "owner", "", "owner id the command acts for")

	rebuild := &cobra.Command{
		Use:   "rebuild",
		Short: "Extract text for every pending document the owner has",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
				return app.ProcessingService.RebuildFor(ctx, owner)
			})
		},
	}

	var documentID, question string
	var k int
	ask := &cobra.Command{
		Use:   "ask",
		Short: "Ask a question against one processed document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
				return app.QueryService.Ask(ctx, query.AskInput{
					OwnerID:    owner,
					DocumentID: documentID,
					Question:   question,
					K:          k,
				})
			})
		},
	}
	ask.Flags().StringVar(&documentID, "document", "", "document id")
	ask.Flags().StringVar(&question, "question", "", "question text")
	ask.Flags().IntVar(&k, "k", 0, "maximum number of sources (default 3)")
	_ = ask.MarkFlagRequired("document")
	_ = ask.MarkFlagRequired("question")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print document and question statistics for the owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
				return app.ProcessingService.Stats(ctx, owner)
			})
		},
	}

	migrate := &cobra.Command{
		Use:       "migrate [up|status|down]",
		Short:     "Run Postgres migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			ctx := cmd.Context()
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromConfig(db.DefaultMigrateOptions(), cfg))
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			switch direction {
			case "status":
				return db.MigrationStatus(ctx, sqlDB)
			case "down":
				return db.RollbackMigration(ctx, sqlDB)
			default:
				if err := db.RunMigrations(ctx, sqlDB); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out, "migrations applied")
				return err
			}
		},
	}

	root.AddCommand(rebuild, ask, stats, migrate)
	return root
}
