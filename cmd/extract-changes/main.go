package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/changectx/internal/changeset"
	"github.com/rohankatakam/changectx/internal/config"
	"github.com/rohankatakam/changectx/internal/errors"
	"github.com/rohankatakam/changectx/internal/git"
	"github.com/rohankatakam/changectx/internal/logging"
	"github.com/rohankatakam/changectx/internal/output"
)

const programName = "extract-changes"

type options struct {
	flags changeset.FlagValues

	configPath   string
	frontendPath string
	backendPath  string
	outputPath   string
	format       string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   programName,
		Short: "List files changed in the frontend and backend repositories for an issue or date range",
		Long: `extract-changes queries the commit logs of the frontend and backend
repositories and writes the distinct files touched by the matching commits
to changes.json.

Select commits either by issue (any commit whose message contains the id) or
by date range (passed to git log --since/--until as given).

Repository locations default to ../frontend and ../backend and can be changed
with FRONTEND_REPO_PATH / BACKEND_REPO_PATH or the flags below.

Example:
  extract-changes --jira PROJ-123
  extract-changes --from 2024-01-01 --to 2024-02-01
  extract-changes --jira PROJ-123 --frontend ~/src/web --backend ~/src/api`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.flags.Jira, "jira", "", "Issue id to match in commit messages, e.g. PROJ-123")
	cmd.Flags().StringVar(&opts.flags.From, "from", "", "Start date for git log --since (requires --to)")
	cmd.Flags().StringVar(&opts.flags.To, "to", "", "End date for git log --until (requires --from)")
	cmd.Flags().StringVar(&opts.frontendPath, "frontend", "", "Frontend repository (overrides FRONTEND_REPO_PATH)")
	cmd.Flags().StringVar(&opts.backendPath, "backend", "", "Backend repository (overrides BACKEND_REPO_PATH)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file (overrides CHANGES_OUTPUT)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: json or yaml (overrides OUTPUT_FORMAT)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file (default: ./changectx.yaml or ~/.changectx/changectx.yaml)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		output.NewConsole(os.Stderr).Fail("Error: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts *options) (err error) {
	ctx := cmd.Context()

	// The filter is checked before anything touches the disk or a repository.
	filter, err := changeset.ParseFilter(opts.flags)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	format, err := applyFlags(cmd, cfg, opts)
	if err != nil {
		return err
	}

	result, err := cfg.Require(config.ValidationContextChanges)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		JSONFormat: cfg.Log.JSON,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return errors.FileSystemErrorf(err, "failed to initialise logging")
	}
	defer logger.Close()
	log := logger.ForRun(programName)
	defer func() { logging.DebugFailure(log, err) }()

	for _, warning := range result.Warnings {
		log.Warn(warning)
	}

	for _, path := range []string{cfg.Git.FrontendPath, cfg.Git.BackendPath} {
		if err := git.DetectGitRepo(ctx, path); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"filter":   filter.Label(),
		"frontend": cfg.Git.FrontendPath,
		"backend":  cfg.Git.BackendPath,
		"output":   cfg.Output.Changes,
	}).Info("starting")

	extractor := changeset.NewExtractor(
		git.NewReader(cfg.Git.FrontendPath, log),
		git.NewReader(cfg.Git.BackendPath, log),
		log,
	)

	changes, err := extractor.Extract(ctx, filter)
	if err != nil {
		return err
	}

	if err := output.WriteManifest(cfg.Output.Changes, changes, format); err != nil {
		return err
	}
	output.NewConsole(cmd.OutOrStdout()).Created(cfg.Output.Changes)
	return nil
}

// applyFlags layers explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *options) (output.Format, error) {
	flags := cmd.Flags()
	if flags.Changed("frontend") {
		cfg.Git.FrontendPath = opts.frontendPath
	}
	if flags.Changed("backend") {
		cfg.Git.BackendPath = opts.backendPath
	}
	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return "", err
	}
	cfg.Output.Format = string(format)

	if flags.Changed("output") {
		cfg.Output.Changes = opts.outputPath
	} else {
		cfg.Output.Changes = output.DefaultFileName(cfg.Output.Changes, format)
	}
	return format, nil
}
