package checks

import (
	"fmt"
	"strings"

	"github.com/mikelady/automebot/internal/clients"
	"github.com/mikelady/automebot/internal/models"
	"github.com/mikelady/automebot/internal/policy"
	"github.com/mikelady/automebot/internal/signoff"
)

// Settings holds the fixed strings the check reports with
type Settings struct {
	CheckName           string
	DetailsURL          string
	NoCommitsTitle      string
	NoCommitsSummary    string
	SuccessTitle        string
	SuccessSummary      string
	UnsignedTitleFormat string // takes the number of unsigned commits
	UnsignedSummary     string
}

// DefaultSettings returns the settings the check is published with
func DefaultSettings() Settings {
	return Settings{
		CheckName:           "Auto-Me-Bot Signed Commits",
		DetailsURL:          "https://auto-me-bot.tomfi.info",
		NoCommitsTitle:      "No commits found",
		NoCommitsSummary:    "Unable to fetch commits from GH API",
		SuccessTitle:        "Well Done!",
		SuccessSummary:      "All commits are signed",
		UnsignedTitleFormat: "Found %d unsigned commits",
		UnsignedSummary:     "We need to get the these commits signed",
	}
}

// Result pairs a commit with its verification outcome
type Result struct {
	Commit  models.Commit
	Outcome signoff.Outcome
}

// Report is the aggregate conclusion written to the check run
type Report struct {
	Conclusion string
	Title      string
	Summary    string
	Text       string
}

// Output converts the report into the check run output block
func (r Report) Output() *clients.CheckRunOutput {
	return &clients.CheckRunOutput{Title: r.Title, Summary: r.Summary, Text: r.Text}
}

// Evaluate verifies each commit, keeping the input order
func Evaluate(commits []models.Commit, cfg *policy.Config) []Result {
	results := make([]Result, 0, len(commits))
	for _, c := range commits {
		results = append(results, Result{Commit: c, Outcome: signoff.Verify(c, cfg)})
	}
	return results
}

// Aggregate folds per-commit results into a single report. No results means
// the commits could not be retrieved and always fails.
func Aggregate(s Settings, results []Result) Report {
	if len(results) == 0 {
		return Report{
			Conclusion: clients.ConclusionFailure,
			Title:      s.NoCommitsTitle,
			Summary:    s.NoCommitsSummary,
		}
	}

	var bullets []string
	for _, r := range results {
		if !r.Outcome.Passed() {
			bullets = append(bullets, "- "+r.Commit.URL)
		}
	}

	if len(bullets) > 0 {
		return Report{
			Conclusion: clients.ConclusionFailure,
			Title:      fmt.Sprintf(s.UnsignedTitleFormat, len(bullets)),
			Summary:    s.UnsignedSummary,
			Text:       strings.Join(bullets, "\n"),
		}
	}

	return Report{
		Conclusion: clients.ConclusionSuccess,
		Title:      s.SuccessTitle,
		Summary:    s.SuccessSummary,
	}
}
