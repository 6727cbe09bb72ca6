package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.pepabo.com/yukyan/gh-devupdate/github/model"
	"git.pepabo.com/yukyan/gh-devupdate/logger"
	"github.com/cli/go-gh/v2/pkg/api"
	"go.uber.org/zap"
)

// GitHub caps per_page at 100 and only the first page is read
const pageSize = 100

// Client は GitHub API を操作するためのクライアント
type Client struct {
	client *api.RESTClient
}

// NewClient は新しいGitHubクライアントを作成します
func NewClient(opts api.ClientOptions) (*Client, error) {
	client, err := api.NewRESTClient(opts)
	if err != nil {
		return nil, &model.FetchError{
			Source: "github",
			Kind:   model.FetchAuth,
			Err:    fmt.Errorf("failed to initialize GitHub client: %w", err),
		}
	}

	return &Client{
		client: client,
	}, nil
}

type pullResponse struct {
	Title    *string    `json:"title"`
	HTMLURL  *string    `json:"html_url"`
	MergedAt *time.Time `json:"merged_at"`
	User     *struct {
		Login string `json:"login"`
	} `json:"user"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
	Head struct {
		Ref string `json:"ref"`
	} `json:"head"`
}

// FetchClosedPRs はクローズされたPRを更新日時の新しい順に最大100件取得します
func (c *Client) FetchClosedPRs(ctx context.Context, owner, repo string, filter model.BranchFilter) ([]model.PullRequest, error) {
	repoName := fmt.Sprintf("%s/%s", owner, repo)
	log := logger.FromContext(ctx).With(zap.String("repository", repoName))

	path := fmt.Sprintf("repos/%s/%s/pulls?%s", url.PathEscape(owner), url.PathEscape(repo), pullsQuery(owner, filter).Encode())
	log.Debug("fetching closed pull requests", zap.String("path", path))

	var response []pullResponse
	if err := c.client.DoWithContext(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, classifyError("github "+repoName, err)
	}

	if len(response) == pageSize {
		// Only the first page is requested
		log.Warn("pull request page is full, older pull requests are not included", zap.Int("page_size", pageSize))
	}

	items := make([]model.PullRequest, 0, len(response))
	for _, pr := range response {
		item := model.PullRequest{
			Title:      pr.Title,
			URL:        pr.HTMLURL,
			MergedAt:   pr.MergedAt,
			Base:       pr.Base.Ref,
			Head:       pr.Head.Ref,
			Repository: repoName,
		}
		if pr.User != nil && pr.User.Login != "" {
			login := pr.User.Login
			item.Author = &login
		}

		// Extract labels
		for _, l := range pr.Labels {
			item.Labels = append(item.Labels, model.Label{Name: l.Name})
		}
		items = append(items, item)
	}

	log.Debug("fetched closed pull requests", zap.Int("count", len(items)))
	return items, nil
}

func pullsQuery(owner string, filter model.BranchFilter) url.Values {
	q := url.Values{}
	q.Set("state", "closed")
	q.Set("sort", "updated")
	q.Set("direction", "desc")
	q.Set("per_page", fmt.Sprint(pageSize))

	switch filter.Field {
	case model.BranchFieldHead:
		// The head filter expects user:ref-name
		head := filter.Name
		if !strings.Contains(head, ":") {
			head = owner + ":" + head
		}
		q.Set("head", head)
	default:
		q.Set("base", filter.Name)
	}
	return q
}

func classifyError(source string, err error) error {
	kind := model.FetchNetwork

	var httpErr *api.HTTPError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = model.FetchTimeout
	case errors.As(err, &httpErr):
		kind = model.KindForStatus(httpErr.StatusCode, httpErr.Headers.Get("X-RateLimit-Remaining"))
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		kind = model.FetchDecode
	}

	return &model.FetchError{Source: source, Kind: kind, Err: err}
}
