// Package checks runs the signed-commits check run for a pull request: it
// opens a check run, verifies every commit and closes the run with a report.
package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mikelady/automebot/internal/clients"
	"github.com/mikelady/automebot/internal/models"
	"github.com/mikelady/automebot/internal/policy"
)

// HandlerName identifies this check in log records
const HandlerName = "pr-signed-commits"

// GitHubAPI is the subset of the GitHub client the runner needs
type GitHubAPI interface {
	ListPullRequestCommits(ctx context.Context, owner, repo string, number int) ([]models.Commit, error)
	CreateCheckRun(ctx context.Context, owner, repo string, req clients.CreateCheckRunRequest) (*clients.CheckRun, error)
	UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, req clients.UpdateCheckRunRequest) (*clients.CheckRun, error)
}

// Runner drives one check run per invocation. It keeps no state between runs.
type Runner struct {
	api      GitHubAPI
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner creates a runner with the default settings
func NewRunner(api GitHubAPI) *Runner {
	return &Runner{
		api:      api,
		settings: DefaultSettings(),
		now:      time.Now,
	}
}

// WithLogger sets the logger
func (r *Runner) WithLogger(logger *slog.Logger) *Runner {
	r.logger = logger
	return r
}

// WithSettings overrides the report strings
func (r *Runner) WithSettings(s Settings) *Runner {
	r.settings = s
	return r
}

// WithClock overrides the source of completion timestamps
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

func (r *Runner) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Run opens a check run on the pull request head, verifies all commits and
// completes the check run with the aggregated report.
//
// Failing to list commits is logged and reported as a failed check. Failing
// to create or update the check run is returned to the caller.
func (r *Runner) Run(ctx context.Context, ev PullRequestEvent, cfg *policy.Config, startedAt time.Time) (*Report, error) {
	log := r.log().With(
		"handler", HandlerName,
		"repo", ev.FullName(),
		"pr", ev.Number,
		"delivery_id", ev.DeliveryID,
	)
	log.Info(HandlerName + " started")

	externalID := ev.DeliveryID
	if externalID == "" {
		externalID = uuid.NewString()
	}

	var (
		checkRun *clients.CheckRun
		commits  []models.Commit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		created, err := r.api.CreateCheckRun(gctx, ev.Owner, ev.Repo, clients.CreateCheckRunRequest{
			HeadSHA:    ev.HeadSHA,
			Name:       r.settings.CheckName,
			DetailsURL: r.settings.DetailsURL,
			ExternalID: externalID,
			StartedAt:  startedAt,
			Status:     clients.CheckStatusInProgress,
		})
		if err != nil {
			return fmt.Errorf("failed to create check run: %w", err)
		}
		if created == nil {
			return errors.New("failed to create check run: empty response")
		}
		checkRun = created
		return nil
	})
	g.Go(func() error {
		list, err := r.api.ListPullRequestCommits(gctx, ev.Owner, ev.Repo, ev.Number)
		if err != nil {
			log.Error(HandlerName+" got error listing commits", "error", err)
			return nil
		}
		commits = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := Evaluate(commits, cfg)
	report := Aggregate(r.settings, results)

	log.Debug(HandlerName+" finalizing", "commits", len(results))

	completedAt := r.now()
	_, err := r.api.UpdateCheckRun(ctx, ev.Owner, ev.Repo, checkRun.ID, clients.UpdateCheckRunRequest{
		Name:        r.settings.CheckName,
		DetailsURL:  r.settings.DetailsURL,
		StartedAt:   startedAt,
		Status:      clients.CheckStatusCompleted,
		CompletedAt: &completedAt,
		Conclusion:  report.Conclusion,
		Output:      report.Output(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update check run %d: %w", checkRun.ID, err)
	}

	log.Info(HandlerName+" completed", "conclusion", report.Conclusion)
	return &report, nil
}
