package al

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromEnvMapsAllsoftNumbering(t *testing.T) {
	cases := []struct {
		env  string
		want slog.Level
	}{
		{"0", slog.LevelError + 4},
		{"1", slog.LevelError},
		{"2", slog.LevelWarn},
		{"3", slog.LevelInfo},
		{"5", slog.LevelDebug},
	}
	for _, c := range cases {
		t.Setenv("ALSOFT_LOGLEVEL", c.env)
		assert.Equal(t, c.want, levelFromEnv())
	}
}

func TestReplaceLogAttrFormatsTimeToSecondPrecision(t *testing.T) {
	a := slog.Attr{Key: "other", Value: slog.StringValue("unchanged")}
	got := replaceLogAttr(nil, a)
	assert.Equal(t, a, got, "non-time attrs must pass through untouched")

	ts := slog.Time(slog.TimeKey, time.Date(2026, 1, 2, 3, 4, 5, 678, time.UTC))
	assert.Equal(t, "2026-01-02T03:04:05Z", replaceLogAttr(nil, ts).Value.String())
}
