package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch URL with params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts URL", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"not youtube", "https://vimeo.com/123456", ""},
		{"id too short", "https://www.youtube.com/watch?v=short", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.url))
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		duration string
		want     int
	}{
		{"PT1H2M3S", 3723},
		{"PT15M33S", 933},
		{"PT45S", 45},
		{"PT2H", 7200},
		{"PT0S", 0},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseDuration(tt.duration), "duration %q", tt.duration)
	}
}

func TestTruncateDescription(t *testing.T) {
	short := "A short description."
	assert.Equal(t, short, truncateDescription(short))

	// Breaks at the last sentence boundary past position 200
	long := strings.Repeat("x", 300) + ". " + strings.Repeat("y", 400)
	got := truncateDescription(long)
	assert.Equal(t, strings.Repeat("x", 300)+".", got)

	// No usable boundary falls back to a hard cut
	unbroken := strings.Repeat("z", 600)
	got = truncateDescription(unbroken)
	assert.Equal(t, strings.Repeat("z", 500)+"...", got)
}

func TestParseTimedText(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.5" dur="3.2">Welcome to the course.</text>
  <text start="3.7" dur="2.0">Today we cover &amp;quot;consensus&amp;quot;.</text>
  <text start="5.7" dur="1.0">   </text>
</transcript>`)

	tr, err := parseTimedText(data)
	require.NoError(t, err)

	require.Len(t, tr.Segments, 2)
	assert.Equal(t, 0.5, tr.Segments[0].Start)
	assert.InDelta(t, 3.7, tr.Segments[0].End, 1e-9)
	assert.Equal(t, "Welcome to the course.", tr.Segments[0].Text)
	assert.Contains(t, tr.Text, "Welcome to the course. Today we cover")
}

func TestParseTimedTextInvalidXML(t *testing.T) {
	_, err := parseTimedText([]byte("not xml at all <"))
	require.Error(t, err)
}
