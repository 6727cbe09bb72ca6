package util

import (
	"fmt"
	"strings"
	"time"
)

// Lemmy before 0.19 emits timestamps without a zone offset
const naiveLayout = "2006-01-02T15:04:05.999999999"

// ParseForumTime はフォーラムのタイムスタンプを解析して UTC で返します
func ParseForumTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("Empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(naiveLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("Failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatTimestamp はレポートに表示する形式で日時を返します
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// SplitList はカンマ区切りの文字列をトリムしたリストに変換します
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
