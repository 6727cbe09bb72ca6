// Package changelog turns closed pull requests into the per-author report of a dev update.
package changelog

import (
	"cmp"
	"slices"
	"time"

	"git.pepabo.com/yukyan/gh-devupdate/github/model"
	"go.uber.org/zap"
)

// AggregateOptions controls which pull requests make it into the report.
type AggregateOptions struct {
	// Only pull requests merged strictly after Since are kept.
	Since           time.Time
	ExcludedLabels  []string
	ExcludedAuthors []string
	// Lenient skips malformed pull requests instead of failing.
	Lenient bool
	Logger  *zap.Logger
}

// Aggregate filters the concatenated lists and groups the survivors by author,
// fewest pull requests first.
func Aggregate(prLists [][]model.PullRequest, opts AggregateOptions) (model.Report, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var groups []model.AuthorGroup
	index := make(map[string]int)

	for _, list := range prLists {
		for _, pr := range list {
			if !mergedAfter(pr, opts.Since) {
				continue
			}
			if hasAnyLabel(pr, opts.ExcludedLabels) {
				continue
			}

			if err := validate(pr, opts.Lenient); err != nil {
				if !opts.Lenient {
					return model.Report{}, err
				}
				log.Warn("skipping malformed pull request", zap.Error(err))
				continue
			}

			author := *pr.Author
			if slices.Contains(opts.ExcludedAuthors, author) {
				continue
			}

			i, ok := index[author]
			if !ok {
				i = len(groups)
				index[author] = i
				groups = append(groups, model.AuthorGroup{Author: author})
			}
			groups[i].PullRequests = append(groups[i].PullRequests, pr)
		}
	}

	slices.SortStableFunc(groups, func(a, b model.AuthorGroup) int {
		if c := cmp.Compare(a.Count(), b.Count()); c != 0 {
			return c
		}
		return cmp.Compare(b.Author, a.Author)
	})

	return model.Report{Groups: groups}, nil
}

func mergedAfter(pr model.PullRequest, since time.Time) bool {
	return pr.IsMerged() && pr.MergedAt.After(since)
}

func hasAnyLabel(pr model.PullRequest, labels []string) bool {
	for _, l := range labels {
		if pr.HasLabel(l) {
			return true
		}
	}
	return false
}

// Author is needed for grouping; title and url are checked here only in
// lenient mode, otherwise rendering reports them.
func validate(pr model.PullRequest, lenient bool) error {
	var url string
	if pr.URL != nil {
		url = *pr.URL
	}

	if pr.Author == nil || *pr.Author == "" {
		return &model.MalformedDataError{Repository: pr.Repository, URL: url, Field: "author"}
	}
	if !lenient {
		return nil
	}
	if pr.Title == nil {
		return &model.MalformedDataError{Repository: pr.Repository, URL: url, Field: "title"}
	}
	if url == "" {
		return &model.MalformedDataError{Repository: pr.Repository, URL: url, Field: "url"}
	}
	return nil
}
