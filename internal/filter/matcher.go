// Package filter implements the relevance classifier for Marketing Junior
// listings: a fixed topic+seniority vocabulary baseline plus per-source
// refinements that can only narrow the accepted set.
package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var marketingTerms = []string{
	"marketing", "digital marketing", "content marketing",
	"social media", "seo", "sem", "ppc", "campaign",
	"brand", "advertising", "promotion", "communication",
}

var juniorTerms = []string{
	"junior", "entry", "fresh", "graduate", "intern",
	"trainee", "assistant", "0-1 year", "0-2 year",
}

// seniorTitleTerms mark listings clearly above the junior band.
// Matched against the title only, by the strict refinement.
var seniorTitleTerms = []string{
	"senior", "sr.", "lead", "manager", "director", "head of",
	"vp", "vice president", "principal", "architect", "chief",
}

// preferredMarketingTerms name concrete marketing disciplines. The strict
// refinement requires at least one of them on top of the baseline.
var preferredMarketingTerms = []string{
	"digital marketing", "content marketing", "social media marketing",
	"performance marketing", "growth marketing", "marketing automation",
	"email marketing", "affiliate marketing", "influencer marketing",
}

// normalizeText lowercases and strips diacritics so Vietnamese listing
// text matches the ASCII vocabularies.
func normalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	return strings.ToLower(out)
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// Relevant is the baseline classifier: a listing passes iff its combined
// title+description contains at least one marketing term AND at least one
// junior-level term (case-insensitive substring match).
func Relevant(title, description string) bool {
	text := normalizeText(title + " " + description)
	return containsAny(text, marketingTerms) && containsAny(text, juniorTerms)
}

// RelevantStrict layers the LinkedIn refinement on top of the baseline:
// reject titles carrying a senior-role marker, then require a concrete
// marketing discipline. A refinement never widens the baseline.
func RelevantStrict(title, description string) bool {
	if !Relevant(title, description) {
		return false
	}
	if containsAny(normalizeText(title), seniorTitleTerms) {
		return false
	}
	text := normalizeText(title + " " + description)
	return containsAny(text, preferredMarketingTerms)
}

// ExperienceLevel infers the seniority band from listing text.
// Returns "entry", "junior" or "" when neither applies.
func ExperienceLevel(title, description string) string {
	text := normalizeText(title + " " + description)
	if containsAny(text, []string{"fresh", "graduate", "intern", "trainee"}) {
		return "entry"
	}
	if containsAny(text, []string{"junior", "0-1 year", "0-2 year"}) {
		return "junior"
	}
	return ""
}
