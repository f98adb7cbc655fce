package enrich

import (
	"regexp"
	"strings"
)

var (
	trailingYearParen = regexp.MustCompile(`\s*\((\d{4})\)\s*$`)
	trailingYearBare  = regexp.MustCompile(`\s+(\d{4})\s*$`)
)

// aliasPatterns maps known regional/aliasing title fragments to their
// canonical provider-facing form, per spec §4.8 step 1's example
// ("Survivor AU" -> "Australian Survivor").
var aliasPatterns = []struct {
	from string
	to   string
}{
	{"survivor au", "australian survivor"},
	{"the office uk", "the office"},
	{"the office us", "the office"},
}

// normalizeQuery strips a trailing year from either "Title (2014)" or
// "Title 2014" forms and returns the cleaned title plus the extracted year
// (0 if none was found).
func normalizeQuery(title string) (string, int) {
	if m := trailingYearParen.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(trailingYearParen.ReplaceAllString(title, "")), atoi(m[1])
	}
	if m := trailingYearBare.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(trailingYearBare.ReplaceAllString(title, "")), atoi(m[1])
	}
	return strings.TrimSpace(title), 0
}

// candidateQueries builds the ordered, case-insensitively-deduplicated set
// of search strings to try for one title, per spec §4.8 step 1: the
// normalized title itself, then known alias rewrites, then an "&"->"and"
// variant.
func candidateQueries(normalized string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		key := strings.ToLower(q)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, q)
	}

	add(normalized)

	lower := strings.ToLower(normalized)
	for _, alias := range aliasPatterns {
		if lower == alias.from {
			add(alias.to)
		}
	}

	if strings.Contains(normalized, "&") {
		add(strings.ReplaceAll(normalized, "&", "and"))
	}

	return out
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
