package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/changectx/internal/cache"
	"github.com/rohankatakam/changectx/internal/config"
	"github.com/rohankatakam/changectx/internal/errors"
	"github.com/rohankatakam/changectx/internal/git"
	"github.com/rohankatakam/changectx/internal/jira"
	"github.com/rohankatakam/changectx/internal/logging"
	"github.com/rohankatakam/changectx/internal/output"
	"github.com/rohankatakam/changectx/internal/storyctx"
)

const programName = "story-context"

type options struct {
	configPath string
	repoPath   string
	cachePath  string
	outputPath string
	format     string
	dryRun     bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   programName,
		Short: "Build story_context.json from commit history and Jira",
		Long: `story-context scans the full commit history of a repository for Jira
issue keys (<JIRA_PROJECT_KEY>-<number>), fetches each referenced issue and
writes one record per issue with its title, description, acceptance criteria
and the files changed by every commit that mentions it.

Issues that cannot be fetched are logged and left out of the output.

Configuration comes from flags, the environment, .env / .env.local and an
optional changectx.yaml:
  JIRA_BASE, JIRA_EMAIL, JIRA_TOKEN (or keychain), JIRA_PROJECT_KEY,
  JIRA_ACCEPTANCE_FIELD, JIRA_RATE_LIMIT, JIRA_WORKERS, GIT_REPO_PATH,
  CHANGECTX_CACHE

Example:
  story-context
  story-context --repo ../backend --output build/story_context.json
  story-context --dry-run`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file (default: ./changectx.yaml or ~/.changectx/changectx.yaml)")
	cmd.Flags().StringVar(&opts.repoPath, "repo", "", "Repository to scan (overrides GIT_REPO_PATH)")
	cmd.Flags().StringVar(&opts.cachePath, "cache", "", "Cache file for per-commit changed paths (overrides CHANGECTX_CACHE)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file (overrides STORY_CONTEXT_OUTPUT)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: json or yaml (overrides OUTPUT_FORMAT)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the commit grouping without calling Jira or writing a file")
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
	console := output.NewConsole(cmd.OutOrStdout())

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	format, err := applyFlags(cmd, cfg, opts)
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

	validation := config.ValidationContextStory
	if opts.dryRun {
		validation = config.ValidationContextStoryDryRun
	} else {
		config.NewKeyringManager(log).ResolveJiraToken(cfg)
	}

	result, err := cfg.Require(validation)
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		log.Warn(warning)
	}

	if err := git.DetectGitRepo(ctx, cfg.Git.RepoPath); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"repo":    cfg.Git.RepoPath,
		"head":    git.HeadSHA(ctx, cfg.Git.RepoPath),
		"project": cfg.Jira.ProjectKey,
		"token":   config.MaskToken(cfg.Jira.Token),
		"output":  cfg.Output.StoryContext,
		"dry_run": opts.dryRun,
	}).Info("starting")

	var reader storyctx.HistoryReader = git.NewReader(cfg.Git.RepoPath, log)
	if cfg.Git.CachePath != "" {
		store, err := cache.Open(cfg.Git.CachePath, log)
		if err != nil {
			return err
		}
		defer store.Close()

		history := cache.NewHistory(reader, store)
		defer func() {
			hits, misses := history.Stats()
			log.WithFields(logrus.Fields{
				"hits":    hits,
				"misses":  misses,
				"entries": history.Entries(),
			}).Debug("changed-path cache")
		}()
		reader = history
	}

	client := jira.NewClient(cfg.Jira.BaseURL, cfg.Jira.Email, cfg.Jira.Token, cfg.Jira.RateLimit, log)
	builder := storyctx.NewBuilder(reader, client, storyctx.Options{
		ProjectKey:      cfg.Jira.ProjectKey,
		AcceptanceField: cfg.Jira.AcceptanceField,
		Workers:         cfg.Jira.Workers,
	}, log)

	if opts.dryRun {
		groups, err := builder.Groups(ctx)
		if err != nil {
			return err
		}
		printGroups(console, groups)
		return nil
	}

	records, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	if err := output.WriteManifest(cfg.Output.StoryContext, records, format); err != nil {
		return err
	}
	console.Created(cfg.Output.StoryContext)
	return nil
}

// applyFlags layers explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *options) (output.Format, error) {
	flags := cmd.Flags()
	if flags.Changed("repo") {
		cfg.Git.RepoPath = opts.repoPath
	}
	if flags.Changed("cache") {
		cfg.Git.CachePath = opts.cachePath
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
		cfg.Output.StoryContext = opts.outputPath
	} else {
		cfg.Output.StoryContext = output.DefaultFileName(cfg.Output.StoryContext, format)
	}
	return format, nil
}

func printGroups(console *output.Console, groups []storyctx.Group) {
	if len(groups) == 0 {
		console.Warn("no commits reference an issue")
		return
	}
	for _, g := range groups {
		console.Info("%-14s %3d commits  %3d files", g.ID, g.Commits, len(g.Files))
		for _, f := range g.Files {
			console.Info("    %s", f)
		}
	}
}
