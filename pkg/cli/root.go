package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"newsletter-go/pkg/cli/logger"
	"newsletter-go/pkg/config"
	"newsletter-go/pkg/models"
)

// RootCmd builds the command tree. Config and logging are set up before
// any subcommand runs.
func RootCmd() *cobra.Command {
	var (
		app *App

		includeSubtopics bool
		maxRecLength     int
		noWait           bool
		save             bool
	)

	generationOptions := func(cmd *cobra.Command) models.Options {
		var opts models.Options
		if cmd.Flags().Changed("include-subtopics") {
			opts.IncludeSubtopics = &includeSubtopics
		}
		if cmd.Flags().Changed("max-recommendation-length") {
			opts.MaxRecommendationLength = &maxRecLength
		}
		return opts
	}
	addGenerationFlags := func(cmd *cobra.Command) {
		cmd.Flags().BoolVar(&includeSubtopics, "include-subtopics", true, "Include per-topic source lists")
		cmd.Flags().IntVar(&maxRecLength, "max-recommendation-length", 0, "Maximum length of each recommendation")
	}

	root := &cobra.Command{
		Use:           "newsletter",
		Short:         "Turn a list of URLs into a newsletter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logger.Init(logger.Config{Level: cfg.CLI.LogLevel, Dir: cfg.CLI.LogDir}); err != nil {
				return err
			}
			app = NewApp(cfg)
			app.SetIO(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), "", generationOptions(cmd))
		},
	}
	addGenerationFlags(root)

	analyze := &cobra.Command{
		Use:   "analyze <file|->",
		Short: "Show accepted, duplicate and invalid URLs without submitting",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, err := app.Analyze(args[0])
			return err
		},
	}

	submit := &cobra.Command{
		Use:   "submit <file|->",
		Short: "Submit a manifest and follow the task until the newsletter is ready",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Submit(cmd.Context(), args[0], generationOptions(cmd), !noWait)
		},
	}
	addGenerationFlags(submit)
	submit.Flags().BoolVar(&noWait, "no-wait", false, "Print the task id and exit without tracking")

	watch := &cobra.Command{
		Use:   "watch <task-id>",
		Short: "Follow an existing task and save its newsletter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Watch(cmd.Context(), args[0])
		},
	}

	status := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the current status of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Status(cmd.Context(), args[0])
		},
	}

	result := &cobra.Command{
		Use:   "result <task-id>",
		Short: "Fetch the newsletter of a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Result(cmd.Context(), args[0], save)
		},
	}
	result.Flags().BoolVar(&save, "save", false, "Write markdown and HTML to the output directory")

	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Let the backend analyze a manifest file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Upload(cmd.Context(), args[0])
		},
	}

	health := &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Health(cmd.Context())
		},
	}

	tuiCmd := &cobra.Command{
		Use:   "tui [file]",
		Short: "Interactive mode (default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return app.Run(cmd.Context(), path, generationOptions(cmd))
		},
	}
	addGenerationFlags(tuiCmd)

	root.AddCommand(analyze, submit, watch, status, result, upload, health, tuiCmd, configCmd(&app))
	return root
}

// Execute runs cmd and closes the log file whether or not it failed.
func Execute(ctx context.Context, cmd *cobra.Command) error {
	defer logger.Close()
	return cmd.ExecuteContext(ctx)
}

func configCmd(app **App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return (*app).ShowConfig()
		},
	}, &cobra.Command{
		Use:   "set <section.key=value>",
		Short: "Set a config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*app).SetConfig(args[0]); err != nil {
				return fmt.Errorf("failed to set config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration updated successfully")
			return nil
		},
	})
	return cmd
}
