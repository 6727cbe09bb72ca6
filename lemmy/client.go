// Package lemmy reads the announcement feed of a Lemmy instance.
package lemmy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"git.pepabo.com/yukyan/gh-devupdate/github/model"
	"git.pepabo.com/yukyan/gh-devupdate/github/util"
	"git.pepabo.com/yukyan/gh-devupdate/logger"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	userAgent    = "generate-dev-update"
	postListPath = "/api/v3/post/list"
)

// Options configures which feed is scanned for the announcement post.
type Options struct {
	BaseURL      string // e.g. https://lemmy.ml
	Community    string
	TitlePattern string
	Limit        int
	Scope        model.Scope
}

// Client queries the post list of one community.
type Client struct {
	client *resty.Client
	opts   Options
}

// NewClient creates a Client for the instance at opts.BaseURL.
func NewClient(opts Options) *Client {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{
		client: resty.New().
			SetBaseURL(opts.BaseURL).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/json"),
		opts: opts,
	}
}

type postListResponse struct {
	Posts []struct {
		Post struct {
			Name      string `json:"name"`
			Published string `json:"published"`
			APID      string `json:"ap_id"`
		} `json:"post"`
	} `json:"posts"`
}

// FetchLastDevUpdate returns the newest post whose title contains the title pattern.
func (c *Client) FetchLastDevUpdate(ctx context.Context) (model.AnnouncementPost, error) {
	source := "lemmy " + c.opts.BaseURL
	log := logger.FromContext(ctx).With(zap.String("community", c.opts.Community))

	log.Debug("fetching announcement feed", zap.String("url", c.opts.BaseURL+postListPath))

	var body postListResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(c.queryParams()).
		ForceContentType("application/json").
		SetResult(&body).
		Get(postListPath)
	if err != nil {
		return model.AnnouncementPost{}, &model.FetchError{Source: source, Kind: transportKind(err), Err: err}
	}
	if resp.IsError() {
		return model.AnnouncementPost{}, &model.FetchError{
			Source: source,
			Kind:   model.KindForStatus(resp.StatusCode(), ""),
			Err:    fmt.Errorf("unexpected status %s", resp.Status()),
		}
	}

	for _, p := range body.Posts {
		if !strings.Contains(p.Post.Name, c.opts.TitlePattern) {
			continue
		}

		published, err := util.ParseForumTime(p.Post.Published)
		if err != nil {
			return model.AnnouncementPost{}, &model.FetchError{Source: source, Kind: model.FetchDecode, Err: err}
		}

		log.Debug("found announcement post", zap.String("title", p.Post.Name), zap.Time("published", published))
		return model.AnnouncementPost{
			Title:     p.Post.Name,
			Published: published,
			URL:       p.Post.APID,
		}, nil
	}

	return model.AnnouncementPost{}, &model.NotFoundError{
		What:    "announcement post",
		Pattern: c.opts.TitlePattern,
		Scanned: len(body.Posts),
	}
}

func (c *Client) queryParams() map[string]string {
	listType := "Local"
	if c.opts.Scope == model.ScopeAll {
		listType = "All"
	}
	return map[string]string{
		"limit":          strconv.Itoa(c.opts.Limit),
		"sort":           "New",
		"type_":          listType,
		"community_name": c.opts.Community,
	}
}

func transportKind(err error) model.FetchErrorKind {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return model.FetchTimeout
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return model.FetchDecode
	default:
		return model.FetchNetwork
	}
}
