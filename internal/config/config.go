package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/rohankatakam/changectx/internal/errors"
)

// Config holds all configuration settings. It is loaded once at startup and
// treated as read-only afterwards.
type Config struct {
	Jira   JiraConfig   `mapstructure:"jira" yaml:"jira"`
	Git    GitConfig    `mapstructure:"git" yaml:"git"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type JiraConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	Email      string `mapstructure:"email" yaml:"email"`
	Token      string `mapstructure:"token" yaml:"token"`
	ProjectKey string `mapstructure:"project_key" yaml:"project_key"`

	// AcceptanceField is the custom field id holding acceptance criteria,
	// e.g. "customfield_10034". Differs per Jira instance.
	AcceptanceField string `mapstructure:"acceptance_field" yaml:"acceptance_field"`

	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second, 0 = unlimited
	Workers   int     `mapstructure:"workers" yaml:"workers"`       // Concurrent issue fetches
}

type GitConfig struct {
	RepoPath     string `mapstructure:"repo_path" yaml:"repo_path"`
	FrontendPath string `mapstructure:"frontend_path" yaml:"frontend_path"`
	BackendPath  string `mapstructure:"backend_path" yaml:"backend_path"`

	// CachePath is a bbolt file memoising per-commit changed paths. Empty disables it.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`
}

type OutputConfig struct {
	StoryContext string `mapstructure:"story_context" yaml:"story_context"`
	Changes      string `mapstructure:"changes" yaml:"changes"`
	Format       string `mapstructure:"format" yaml:"format"` // "json" or "yaml"
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"jira.base_url":         "JIRA_BASE",
	"jira.email":            "JIRA_EMAIL",
	"jira.token":            "JIRA_TOKEN",
	"jira.project_key":      "JIRA_PROJECT_KEY",
	"jira.acceptance_field": "JIRA_ACCEPTANCE_FIELD",
	"jira.rate_limit":       "JIRA_RATE_LIMIT",
	"jira.workers":          "JIRA_WORKERS",
	"git.repo_path":         "GIT_REPO_PATH",
	"git.frontend_path":     "FRONTEND_REPO_PATH",
	"git.backend_path":      "BACKEND_REPO_PATH",
	"git.cache_path":        "CHANGECTX_CACHE",
	"output.story_context":  "STORY_CONTEXT_OUTPUT",
	"output.changes":        "CHANGES_OUTPUT",
	"output.format":         "OUTPUT_FORMAT",
	"log.level":             "LOG_LEVEL",
	"log.file":              "LOG_FILE",
	"log.json":              "LOG_JSON",
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Jira: JiraConfig{
			RateLimit: 10,
			Workers:   1,
		},
		Git: GitConfig{
			RepoPath:     ".",
			FrontendPath: filepath.Join("..", "frontend"),
			BackendPath:  filepath.Join("..", "backend"),
		},
		Output: OutputConfig{
			StoryContext: "story_context.json",
			Changes:      "changes.json",
			Format:       "json",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads .env files, an optional config file and the process environment.
// An explicit path must exist; otherwise a missing config file is fine.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.ConfigErrorf("failed to bind %s: %v", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("changectx")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".changectx"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.ConfigErrorf("failed to read config: %v", err).WithContext("file", v.ConfigFileUsed())
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.ConfigErrorf("failed to unmarshal config: %v", err)
	}

	cfg.Git.RepoPath = expandPath(cfg.Git.RepoPath)
	cfg.Git.FrontendPath = expandPath(cfg.Git.FrontendPath)
	cfg.Git.BackendPath = expandPath(cfg.Git.BackendPath)
	cfg.Git.CachePath = expandPath(cfg.Git.CachePath)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("jira.rate_limit", cfg.Jira.RateLimit)
	v.SetDefault("jira.workers", cfg.Jira.Workers)
	v.SetDefault("git.repo_path", cfg.Git.RepoPath)
	v.SetDefault("git.frontend_path", cfg.Git.FrontendPath)
	v.SetDefault("git.backend_path", cfg.Git.BackendPath)
	v.SetDefault("output.story_context", cfg.Output.StoryContext)
	v.SetDefault("output.changes", cfg.Output.Changes)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("log.level", cfg.Log.Level)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
