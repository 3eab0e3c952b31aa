package changeset

import (
	"strings"

	"github.com/rohankatakam/changectx/internal/errors"
	"github.com/rohankatakam/changectx/internal/git"
)

// FlagValues mirrors the command-line flags so parsing and validation live in one place
type FlagValues struct {
	Jira string
	From string
	To   string
}

// Filter selects commits either by issue identifier or by date range.
// Exactly one of IssueID or the From/To pair is set.
type Filter struct {
	IssueID string
	From    string
	To      string
}

// ParseFilter validates flag input. Dates are passed through to git untouched.
func ParseFilter(f FlagValues) (Filter, error) {
	jira := strings.TrimSpace(f.Jira)
	from := strings.TrimSpace(f.From)
	to := strings.TrimSpace(f.To)

	// A lone --from or --to still counts as asking for date mode.
	hasDates := from != "" || to != ""

	if jira != "" && hasDates {
		return Filter{}, errors.ValidationError("--jira cannot be combined with --from or --to: use either --jira OR --from/--to")
	}
	if jira != "" {
		return Filter{IssueID: jira}, nil
	}

	if from == "" && to == "" {
		return Filter{}, errors.ValidationError("provide either --jira <ID> or both --from <date> and --to <date>")
	}
	if from == "" {
		return Filter{}, errors.ValidationError("--to requires --from")
	}
	if to == "" {
		return Filter{}, errors.ValidationError("--from requires --to")
	}

	return Filter{From: from, To: to}, nil
}

// IsIssue reports whether the filter selects by issue identifier
func (f Filter) IsIssue() bool {
	return f.IssueID != ""
}

// Label is the value written to the "jira" key of the manifest
func (f Filter) Label() string {
	if f.IsIssue() {
		return f.IssueID
	}
	return f.From + ".." + f.To
}

// LogFilter converts to the git query: substring match on the message or a date window
func (f Filter) LogFilter() git.LogFilter {
	if f.IsIssue() {
		return git.LogFilter{Grep: f.IssueID}
	}
	return git.LogFilter{Since: f.From, Until: f.To}
}
