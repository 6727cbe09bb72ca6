package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.pepabo.com/yukyan/gh-devupdate/github/model"
	"github.com/stretchr/testify/require"
)

var lastUpdate = time.Date(2024, 5, 3, 14, 7, 9, 0, time.UTC)

var rule = strings.Repeat("=", 100)

func ptr[T any](v T) *T { return &v }

func pr(title, url string) model.PullRequest {
	merged := lastUpdate.Add(time.Hour)
	return model.PullRequest{
		Title:      ptr(title),
		URL:        ptr(url),
		Author:     ptr("someone"),
		MergedAt:   &merged,
		Repository: "LemmyNet/lemmy",
	}
}

func sampleReport() model.Report {
	return model.Report{Groups: []model.AuthorGroup{
		{Author: "bob", PullRequests: []model.PullRequest{
			pr("Fix typo ", "https://github.com/LemmyNet/lemmy/pull/2"),
		}},
		{Author: "alice", PullRequests: []model.PullRequest{
			pr("  Add federation retries", "https://github.com/LemmyNet/lemmy/pull/10"),
			pr("Speed up feeds", "https://github.com/LemmyNet/lemmy-ui/pull/7"),
		}},
	}}
}

func TestRenderMarkdown(t *testing.T) {
	got, err := RenderMarkdown(sampleReport(), lastUpdate)
	require.NoError(t, err)

	want := "Last dev update was at 2024-05-03T14:07:09Z\n\n" + rule + "\n" +
		"\n## bob\n\n" +
		"- [Fix typo](https://github.com/LemmyNet/lemmy/pull/2)\n" +
		"\n## alice\n\n" +
		"- [Add federation retries](https://github.com/LemmyNet/lemmy/pull/10)\n" +
		"- [Speed up feeds](https://github.com/LemmyNet/lemmy-ui/pull/7)\n"
	require.Equal(t, want, got)
}

func TestRenderMarkdown_Deterministic(t *testing.T) {
	first, err := RenderMarkdown(sampleReport(), lastUpdate)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := RenderMarkdown(sampleReport(), lastUpdate)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestRenderMarkdown_EmptyReportIsPreambleOnly(t *testing.T) {
	got, err := RenderMarkdown(model.Report{}, lastUpdate)
	require.NoError(t, err)
	require.Equal(t, "Last dev update was at 2024-05-03T14:07:09Z\n\n"+rule+"\n", got)
}

func TestRenderMarkdown_MissingFields(t *testing.T) {
	noTitle := pr("x", "https://github.com/LemmyNet/lemmy/pull/3")
	noTitle.Title = nil

	noURL := pr("Has title", "")
	noURL.URL = nil

	for name, p := range map[string]model.PullRequest{"title": noTitle, "url": noURL} {
		t.Run(name, func(t *testing.T) {
			report := model.Report{Groups: []model.AuthorGroup{{Author: "carol", PullRequests: []model.PullRequest{p}}}}

			_, err := RenderMarkdown(report, lastUpdate)

			var renderErr *model.RenderError
			require.ErrorAs(t, err, &renderErr)
			require.Equal(t, "carol", renderErr.Author)

			var malformed *model.MalformedDataError
			require.ErrorAs(t, err, &malformed)
			require.Equal(t, name, malformed.Field)
		})
	}
}

func TestRenderJSON(t *testing.T) {
	got, err := RenderJSON(sampleReport(), lastUpdate)
	require.NoError(t, err)

	var decoded jsonReport
	require.NoError(t, json.Unmarshal([]byte(got), &decoded))
	require.Equal(t, "2024-05-03T14:07:09Z", decoded.LastUpdate)
	require.Len(t, decoded.Authors, 2)
	require.Equal(t, "alice", decoded.Authors[1].Author)
	require.Equal(t, 2, decoded.Authors[1].Count)
	require.Equal(t, "Add federation retries", decoded.Authors[1].PullRequests[0].Title)
	require.Equal(t, "2024-05-03T15:07:09Z", decoded.Authors[1].PullRequests[0].MergedAt)
}

func TestWriteResults(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteResults(&buf, sampleReport(), lastUpdate, "-", "md"))
		require.Contains(t, buf.String(), "## alice")
	})

	t.Run("file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "update.json")
		require.NoError(t, WriteResults(&buf, sampleReport(), lastUpdate, path, "json"))
		require.Zero(t, buf.Len())

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.True(t, json.Valid(raw))
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		require.Error(t, WriteResults(&buf, sampleReport(), lastUpdate, "", "html"))
		require.Zero(t, buf.Len())
	})

	t.Run("render failure writes nothing", func(t *testing.T) {
		report := sampleReport()
		report.Groups[1].PullRequests[1].Title = nil

		var buf bytes.Buffer
		require.Error(t, WriteResults(&buf, report, lastUpdate, "", "md"))
		require.Zero(t, buf.Len())
	})
}
