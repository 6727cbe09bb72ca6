package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"git.pepabo.com/yukyan/gh-devupdate/github/model"
	"git.pepabo.com/yukyan/gh-devupdate/github/util"
)

// WriteResults は結果をレンダリングし、一度にまとめて出力します
func WriteResults(w io.Writer, report model.Report, lastUpdate time.Time, filename, format string) error {
	var (
		text string
		err  error
	)

	// Output based on format
	switch format {
	case "json":
		text, err = RenderJSON(report, lastUpdate)
	case "md":
		text, err = RenderMarkdown(report, lastUpdate)
	default:
		return fmt.Errorf("Unsupported output format: %s", format)
	}
	if err != nil {
		return err
	}

	if filename == "" || filename == "-" {
		_, err = io.WriteString(w, text)
		return err
	}
	return os.WriteFile(filename, []byte(text), 0o644)
}

// RenderMarkdown はレポートを Markdown に変換します
func RenderMarkdown(report model.Report, lastUpdate time.Time) (string, error) {
	var b strings.Builder

	// Header information
	fmt.Fprintf(&b, "Last dev update was at %s\n\n", util.FormatTimestamp(lastUpdate))
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 100))

	for _, group := range report.Groups {
		fmt.Fprintf(&b, "\n## %s\n\n", group.Author)
		for _, pr := range group.PullRequests {
			title, url, err := linkParts(pr)
			if err != nil {
				return "", &model.RenderError{Author: group.Author, Err: err}
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", title, url)
		}
	}

	return b.String(), nil
}

type jsonReport struct {
	LastUpdate string       `json:"last_update"`
	Authors    []jsonAuthor `json:"authors"`
}

type jsonAuthor struct {
	Author       string     `json:"author"`
	Count        int        `json:"count"`
	PullRequests []jsonPull `json:"pull_requests"`
}

type jsonPull struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Repository string `json:"repository"`
	MergedAt   string `json:"merged_at,omitempty"`
}

// RenderJSON はレポートを JSON に変換します
func RenderJSON(report model.Report, lastUpdate time.Time) (string, error) {
	out := jsonReport{
		LastUpdate: util.FormatTimestamp(lastUpdate),
		Authors:    make([]jsonAuthor, 0, len(report.Groups)),
	}

	for _, group := range report.Groups {
		author := jsonAuthor{Author: group.Author, Count: group.Count()}
		for _, pr := range group.PullRequests {
			title, url, err := linkParts(pr)
			if err != nil {
				return "", &model.RenderError{Author: group.Author, Err: err}
			}
			p := jsonPull{Title: title, URL: url, Repository: pr.Repository}
			if pr.MergedAt != nil {
				p.MergedAt = util.FormatTimestamp(*pr.MergedAt)
			}
			author.PullRequests = append(author.PullRequests, p)
		}
		out.Authors = append(out.Authors, author)
	}

	jsonData, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", &model.RenderError{Err: err}
	}
	return string(jsonData) + "\n", nil
}

func linkParts(pr model.PullRequest) (string, string, error) {
	if pr.Title == nil {
		return "", "", missing(pr, "title")
	}
	if pr.URL == nil || *pr.URL == "" {
		return "", "", missing(pr, "url")
	}
	return strings.TrimSpace(*pr.Title), *pr.URL, nil
}

func missing(pr model.PullRequest, field string) error {
	var url string
	if pr.URL != nil {
		url = *pr.URL
	}
	return &model.MalformedDataError{Repository: pr.Repository, URL: url, Field: field}
}
