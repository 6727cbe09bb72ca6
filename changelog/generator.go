package changelog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.pepabo.com/yukyan/gh-devupdate/github/model"
	"git.pepabo.com/yukyan/gh-devupdate/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type (
	// PRFetcher lists the closed pull requests of one repository.
	PRFetcher interface {
		FetchClosedPRs(ctx context.Context, owner, repo string, filter model.BranchFilter) ([]model.PullRequest, error)
	}

	// AnnouncementFetcher finds the post marking the previous update.
	AnnouncementFetcher interface {
		FetchLastDevUpdate(ctx context.Context) (model.AnnouncementPost, error)
	}
)

// Repo identifies a repository as owner/name.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Options configures a Generator.
type Options struct {
	Repos  []Repo
	Branch model.BranchFilter
	// Per-fetch deadline, zero disables it.
	Timeout         time.Duration
	ExcludedLabels  []string
	ExcludedAuthors []string
	Lenient         bool
}

// Result carries the boundary post and the aggregated report.
type Result struct {
	LastUpdate model.AnnouncementPost
	Report     model.Report
}

// Generator collects pull requests since the last dev update.
type Generator struct {
	prs           PRFetcher
	announcements AnnouncementFetcher
	opts          Options
}

// NewGenerator creates a Generator over the given fetchers.
func NewGenerator(prs PRFetcher, announcements AnnouncementFetcher, opts Options) *Generator {
	return &Generator{
		prs:           prs,
		announcements: announcements,
		opts:          opts,
	}
}

// Generate fetches the announcement and every repository concurrently and
// aggregates once all of them succeeded. The first failure aborts the run.
func (g *Generator) Generate(ctx context.Context) (Result, error) {
	log := logger.FromContext(ctx)
	log.Info("generating change list for new dev update", zap.Stringers("repos", g.opts.Repos))

	eg, egCtx := errgroup.WithContext(ctx)

	var lastUpdate model.AnnouncementPost
	eg.Go(func() error {
		return g.withTimeout(egCtx, "lemmy", func(ctx context.Context) error {
			post, err := g.announcements.FetchLastDevUpdate(ctx)
			if err != nil {
				return err
			}
			lastUpdate = post
			return nil
		})
	})

	prLists := make([][]model.PullRequest, len(g.opts.Repos))
	for i, repo := range g.opts.Repos {
		eg.Go(func() error {
			return g.withTimeout(egCtx, "github "+repo.String(), func(ctx context.Context) error {
				prs, err := g.prs.FetchClosedPRs(ctx, repo.Owner, repo.Name, g.opts.Branch)
				if err != nil {
					return err
				}
				prLists[i] = prs
				return nil
			})
		})
	}

	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	log.Info("last dev update",
		zap.String("title", lastUpdate.Title),
		zap.Time("published", lastUpdate.Published),
		zap.String("url", lastUpdate.URL),
	)

	report, err := Aggregate(prLists, AggregateOptions{
		Since:           lastUpdate.Published,
		ExcludedLabels:  g.opts.ExcludedLabels,
		ExcludedAuthors: g.opts.ExcludedAuthors,
		Lenient:         g.opts.Lenient,
		Logger:          log,
	})
	if err != nil {
		return Result{}, err
	}

	log.Info("aggregated pull requests", zap.Int("authors", len(report.Groups)))
	return Result{LastUpdate: lastUpdate, Report: report}, nil
}

func (g *Generator) withTimeout(ctx context.Context, source string, fetch func(context.Context) error) error {
	if g.opts.Timeout <= 0 {
		return fetch(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	err := fetch(ctx)
	var fetchErr *model.FetchError
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if !errors.As(err, &fetchErr) {
			return &model.FetchError{Source: source, Kind: model.FetchTimeout, Err: fmt.Errorf("no response within %s: %w", g.opts.Timeout, err)}
		}
	}
	return err
}
