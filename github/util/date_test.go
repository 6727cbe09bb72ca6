package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseForumTime(t *testing.T) {
	want := time.Date(2024, 5, 3, 14, 7, 9, 123456000, time.UTC)

	t.Run("rfc3339 with zone", func(t *testing.T) {
		got, err := ParseForumTime("2024-05-03T14:07:09.123456Z")
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	})

	t.Run("rfc3339 with offset is normalized to utc", func(t *testing.T) {
		got, err := ParseForumTime("2024-05-03T16:07:09.123456+02:00")
		require.NoError(t, err)
		require.True(t, want.Equal(got))
		require.Equal(t, time.UTC, got.Location())
	})

	t.Run("naive timestamp is read as utc", func(t *testing.T) {
		got, err := ParseForumTime("2024-05-03T14:07:09.123456")
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseForumTime("  ")
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseForumTime("yesterday")
		require.Error(t, err)
	})
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 3, 16, 7, 9, 0, time.FixedZone("CEST", 2*60*60))
	require.Equal(t, "2024-05-03T14:07:09Z", FormatTimestamp(ts))
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"a", "b[bot]", "c"}, SplitList(" a, b[bot] ,,c "))
	require.Nil(t, SplitList(""))
}
