package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	salaryStripRe  = regexp.MustCompile(`[^\d\-\s]`)
	salaryRangeRe  = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	salarySingleRe = regexp.MustCompile(`(\d+)`)

	daysAgoRe   = regexp.MustCompile(`(\d+)\s*day`)
	weeksAgoRe  = regexp.MustCompile(`(\d+)\s*week`)
	monthsAgoRe = regexp.MustCompile(`(\d+)\s*month`)
)

// CleanText collapses runs of whitespace and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeURL resolves a possibly relative href against base.
// Empty input stays empty.
func NormalizeURL(href, base string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// ParseSalary extracts a salary range in VND from free-form card text.
// Everything except digits, dashes and whitespace is stripped, then a
// "min - max" range is tried before a single value used for both bounds.
// Magnitudes below 100 are assumed to be millions of VND and scaled up.
// No numeric match returns (nil, nil).
func ParseSalary(text string) (*float64, *float64) {
	if text == "" {
		return nil, nil
	}
	normalized := salaryStripRe.ReplaceAllString(strings.ReplaceAll(text, ",", ""), "")

	if m := salaryRangeRe.FindStringSubmatch(normalized); m != nil {
		minVal, _ := strconv.ParseFloat(m[1], 64)
		maxVal, _ := strconv.ParseFloat(m[2], 64)
		if minVal < 100 {
			minVal *= 1_000_000
			maxVal *= 1_000_000
		}
		return &minVal, &maxVal
	}

	if m := salarySingleRe.FindStringSubmatch(normalized); m != nil {
		val, _ := strconv.ParseFloat(m[1], 64)
		if val < 100 {
			val *= 1_000_000
		}
		return &val, &val
	}

	return nil, nil
}

// ParseRelativeDate resolves phrases like "3 days ago" against now.
// Recognized: today/just posted/just now, yesterday, "<n> day(s) ago",
// "<n> week(s) ago", "<n> month(s) ago" (month approximated as 30 days).
// Unrecognized text returns nil, never an error.
func ParseRelativeDate(text string, now time.Time) *time.Time {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return nil
	}

	switch {
	case strings.Contains(t, "today"), strings.Contains(t, "just posted"), strings.Contains(t, "just now"):
		return &now
	case strings.Contains(t, "yesterday"):
		d := now.AddDate(0, 0, -1)
		return &d
	case strings.Contains(t, "day"):
		if m := daysAgoRe.FindStringSubmatch(t); m != nil {
			n, _ := strconv.Atoi(m[1])
			d := now.AddDate(0, 0, -n)
			return &d
		}
	case strings.Contains(t, "week"):
		if m := weeksAgoRe.FindStringSubmatch(t); m != nil {
			n, _ := strconv.Atoi(m[1])
			d := now.AddDate(0, 0, -7*n)
			return &d
		}
	case strings.Contains(t, "month"):
		if m := monthsAgoRe.FindStringSubmatch(t); m != nil {
			n, _ := strconv.Atoi(m[1])
			d := now.AddDate(0, 0, -30*n)
			return &d
		}
	}

	return nil
}

// TruncateDescription caps detail-page descriptions at DescriptionLimit
// characters.
func TruncateDescription(s string) string {
	r := []rune(s)
	if len(r) <= DescriptionLimit {
		return s
	}
	return string(r[:DescriptionLimit])
}
