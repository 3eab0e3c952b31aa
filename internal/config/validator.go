package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rohankatakam/changectx/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextStory - story-context needs Jira credentials and a repository
	ValidationContextStory ValidationContext = "story"
	// ValidationContextStoryDryRun - story-context --dry-run never contacts Jira
	ValidationContextStoryDryRun ValidationContext = "story-dry-run"
	// ValidationContextChanges - extract-changes needs two repository locations only
	ValidationContextChanges ValidationContext = "changes"
)

var projectKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ❌ %s\n", err))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextStory:
		c.validateJira(result)
		c.validateRepo(result, "GIT_REPO_PATH", c.Git.RepoPath)
		c.validateOutput(result, "STORY_CONTEXT_OUTPUT", c.Output.StoryContext)
	case ValidationContextStoryDryRun:
		c.validateProjectKey(result)
		c.validateRepo(result, "GIT_REPO_PATH", c.Git.RepoPath)
	case ValidationContextChanges:
		c.validateRepo(result, "FRONTEND_REPO_PATH", c.Git.FrontendPath)
		c.validateRepo(result, "BACKEND_REPO_PATH", c.Git.BackendPath)
		if c.Git.FrontendPath != "" && filepath.Clean(c.Git.FrontendPath) == filepath.Clean(c.Git.BackendPath) {
			result.AddError("FRONTEND_REPO_PATH and BACKEND_REPO_PATH must point at different repositories (both are %s)", c.Git.FrontendPath)
		}
		c.validateOutput(result, "CHANGES_OUTPUT", c.Output.Changes)
	default:
		result.AddError("unknown validation context %q", ctx)
	}

	c.validateLog(result)
	return result
}

// Require validates for ctx and converts failures into a config error
func (c *Config) Require(ctx ValidationContext) (*ValidationResult, error) {
	result := c.Validate(ctx)
	if result.HasErrors() {
		return result, errors.ConfigError(result.Error())
	}
	return result, nil
}

func (c *Config) validateJira(result *ValidationResult) {
	if c.Jira.BaseURL == "" {
		result.AddError("JIRA_BASE is required but not set")
	} else if u, err := url.Parse(c.Jira.BaseURL); err != nil {
		result.AddError("JIRA_BASE is invalid: %v", err)
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result.AddError("JIRA_BASE must be an absolute http(s) URL, got %q", c.Jira.BaseURL)
	} else if u.Scheme == "http" {
		result.AddWarning("JIRA_BASE uses plain http; credentials are sent with basic auth")
	}

	if c.Jira.Email == "" {
		result.AddError("JIRA_EMAIL is required but not set")
	} else if !strings.Contains(c.Jira.Email, "@") {
		result.AddWarning("JIRA_EMAIL %q does not look like an email address", c.Jira.Email)
	}

	if c.Jira.Token == "" {
		result.AddError("JIRA_TOKEN is required but not set. Set it via environment variable, .env file or keychain.")
	}

	c.validateProjectKey(result)

	if c.Jira.AcceptanceField == "" {
		result.AddWarning("JIRA_ACCEPTANCE_FIELD is not set; acceptance criteria will be empty")
	}

	if c.Jira.RateLimit < 0 {
		result.AddError("JIRA_RATE_LIMIT must not be negative, got %v", c.Jira.RateLimit)
	}
	if c.Jira.Workers < 1 {
		result.AddError("JIRA_WORKERS must be at least 1, got %d", c.Jira.Workers)
	}
}

func (c *Config) validateProjectKey(result *ValidationResult) {
	if c.Jira.ProjectKey == "" {
		result.AddError("JIRA_PROJECT_KEY is required but not set")
	} else if !projectKeyPattern.MatchString(c.Jira.ProjectKey) {
		result.AddError("JIRA_PROJECT_KEY %q must be letters, digits or underscore (e.g. PROJ)", c.Jira.ProjectKey)
	} else if strings.ToUpper(c.Jira.ProjectKey) != c.Jira.ProjectKey {
		result.AddWarning("JIRA_PROJECT_KEY %q is not upper case; commit messages are matched case-sensitively", c.Jira.ProjectKey)
	}
}

func (c *Config) validateRepo(result *ValidationResult, name, path string) {
	if strings.TrimSpace(path) == "" {
		result.AddError("%s must not be empty", name)
	}
}

func (c *Config) validateOutput(result *ValidationResult, name, path string) {
	if strings.TrimSpace(path) == "" {
		result.AddError("%s must not be empty", name)
	}

	switch c.Output.Format {
	case "json", "yaml":
	default:
		result.AddError("OUTPUT_FORMAT must be json or yaml, got %q", c.Output.Format)
	}
}

func (c *Config) validateLog(result *ValidationResult) {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		result.AddWarning("LOG_LEVEL %q is not recognised, using info", c.Log.Level)
	}
}
