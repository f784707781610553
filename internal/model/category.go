package model

import "strings"

// humanizeCategory turns a directory category token like "meal_takeaway"
// into display/search form ("meal takeaway").
func humanizeCategory(category string) string {
	return strings.ReplaceAll(category, "_", " ")
}

// KeywordCandidates returns a de-duplicated list of plausible search
// keywords for a profile: the chosen keyword first, then the leading
// profile categories.
func KeywordCandidates(keyword string, p *ProfileSnapshot) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(keyword)
	add(p.PrimaryCategory())
	for i, c := range p.Categories {
		if i == 0 {
			continue // primary already added
		}
		if i >= 3 {
			break
		}
		add(humanizeCategory(c))
	}
	return out
}
