package scraper

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSalary(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantMin float64
		wantMax float64
		wantNil bool
	}{
		{name: "range in millions", text: "10-15 triệu", wantMin: 10_000_000, wantMax: 15_000_000},
		{name: "range with spaces", text: "10 - 15", wantMin: 10_000_000, wantMax: 15_000_000},
		{name: "single value in millions", text: "12 triệu", wantMin: 12_000_000, wantMax: 12_000_000},
		{name: "already in base units", text: "25,000,000 - 30,000,000 VND", wantMin: 25_000_000, wantMax: 30_000_000},
		{name: "negotiable", text: "Thỏa thuận", wantNil: true},
		{name: "empty", text: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax := ParseSalary(tt.text)
			if tt.wantNil {
				assert.Nil(t, gotMin)
				assert.Nil(t, gotMax)
				return
			}
			require.NotNil(t, gotMin)
			require.NotNil(t, gotMax)
			assert.Equal(t, tt.wantMin, *gotMin)
			assert.Equal(t, tt.wantMax, *gotMax)
		})
	}
}

func TestParseRelativeDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		text string
		want time.Time
	}{
		{"Today", now},
		{"Just posted", now},
		{"Yesterday", now.AddDate(0, 0, -1)},
		{"3 days ago", now.AddDate(0, 0, -3)},
		{"30 days ago", now.AddDate(0, 0, -30)},
		{"2 weeks ago", now.AddDate(0, 0, -14)},
		{"1 month ago", now.AddDate(0, 0, -30)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParseRelativeDate(tt.text, now)
			require.NotNil(t, got)
			assert.WithinDuration(t, tt.want, *got, time.Second)
		})
	}
}

func TestParseRelativeDateUnrecognized(t *testing.T) {
	now := time.Now()
	for _, text := range []string{"", "last year", "15/03/2025", "recently"} {
		assert.Nil(t, ParseRelativeDate(text, now), "text %q", text)
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Junior Marketing Executive", CleanText("  Junior \n Marketing\t Executive "))
	assert.Equal(t, "", CleanText("   "))
}

func TestNormalizeURL(t *testing.T) {
	base := "https://vn.indeed.com"

	assert.Equal(t, "https://vn.indeed.com/viewjob?jk=abc", NormalizeURL("/viewjob?jk=abc", base))
	assert.Equal(t, "https://cdn.example.com/x", NormalizeURL("//cdn.example.com/x", base))
	assert.Equal(t, "https://other.example.com/j", NormalizeURL("https://other.example.com/j", base))
	assert.Equal(t, "", NormalizeURL("", base))
}

func TestTruncateDescription(t *testing.T) {
	long := strings.Repeat("x", DescriptionLimit+500)
	assert.Len(t, TruncateDescription(long), DescriptionLimit)
	assert.Equal(t, "short", TruncateDescription("short"))
}
