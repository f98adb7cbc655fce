// Package filenameparser extracts a title/year or show/season/episode triple
// from a media file's stem, following the same ordered-pattern approach the
// original scanner used, ported regex-for-regex into Go's RE2 engine.
package filenameparser

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind discriminates the parsed result.
type Kind int

const (
	KindUnknown Kind = iota
	KindMovie
	KindEpisode
)

// Result is the normalized output of Parse.
type Result struct {
	Kind Kind

	// Movie fields.
	Title string
	Year  int // 0 when absent

	// Episode fields.
	ShowName string
	Season   int
	Episode  int

	// Unknown fallback.
	CleanedTitle string
}

// ──────────────────── TV episode patterns (checked first) ────────────────────

// Matches "Show Name S01E05" or "show.name.s01e05".
var reEpisodeSxxExx = regexp.MustCompile(`(?i)^(.+?)[.\s_-]+s(\d{1,2})e(\d{1,2})`)

// Matches "Show Name 1x05".
var reEpisodeNxNN = regexp.MustCompile(`(?i)^(.+?)[.\s_-]+(\d{1,2})x(\d{2,3})`)

// ──────────────────── Movie patterns ────────────────────

// Matches "The Matrix (1999)".
var reMovieParenYear = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)`)

// Matches "Movie Title [2020]".
var reMovieBracketYear = regexp.MustCompile(`^(.+?)\s*\[(\d{4})\]`)

// Matches "The.Matrix.1999.BluRay" — dot/underscore/space separated with a
// 4-digit year followed by end-of-string or another separator token.
var reMovieDotYear = regexp.MustCompile(`^(.+?)[.\s_-]+((?:19|20)\d{2})(?:[.\s_-]|$)`)

var reRunsOfSpace = regexp.MustCompile(`\s+`)

// CleanTitle replaces dots and underscores with spaces, collapses runs of
// whitespace, and trims.
func CleanTitle(raw string) string {
	replaced := strings.NewReplacer(".", " ", "_", " ").Replace(raw)
	return strings.TrimSpace(reRunsOfSpace.ReplaceAllString(replaced, " "))
}

// StripTrailingYear removes a trailing 4-digit year (19xx or 20xx) from a
// show name, e.g. "Star Trek Lower Decks 2020" -> "Star Trek Lower Decks".
// The name is returned unchanged if no trailing year is found.
func StripTrailingYear(name string) string {
	trimmed := strings.TrimRight(name, " ")
	if len(trimmed) < 5 {
		return name
	}
	prefix, suffix := trimmed[:len(trimmed)-4], trimmed[len(trimmed)-4:]
	if (strings.HasPrefix(suffix, "19") || strings.HasPrefix(suffix, "20")) &&
		isAllDigits(suffix) && strings.HasSuffix(prefix, " ") {
		return strings.TrimRight(prefix, " ")
	}
	return name
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Parse extracts structure from a file stem (filename without extension).
//
// Detection order:
//  1. TV episode patterns (S01E05, 1x05)
//  2. Movie patterns (parenthesised year, bracketed year, dot-separated year)
//  3. Fallback to Unknown with a cleaned-up title
func Parse(fileStem string) Result {
	if m := reEpisodeSxxExx.FindStringSubmatch(fileStem); m != nil {
		return episodeResult(m[1], m[2], m[3])
	}
	if m := reEpisodeNxNN.FindStringSubmatch(fileStem); m != nil {
		return episodeResult(m[1], m[2], m[3])
	}

	if m := reMovieParenYear.FindStringSubmatch(fileStem); m != nil {
		return movieResult(m[1], m[2])
	}
	if m := reMovieBracketYear.FindStringSubmatch(fileStem); m != nil {
		return movieResult(m[1], m[2])
	}
	if m := reMovieDotYear.FindStringSubmatch(fileStem); m != nil {
		return movieResult(m[1], m[2])
	}

	return Result{Kind: KindUnknown, CleanedTitle: CleanTitle(fileStem)}
}

func episodeResult(rawShow, seasonStr, episodeStr string) Result {
	show := StripTrailingYear(CleanTitle(rawShow))
	season, _ := strconv.Atoi(seasonStr)
	episode, _ := strconv.Atoi(episodeStr)
	return Result{Kind: KindEpisode, ShowName: show, Season: season, Episode: episode}
}

func movieResult(rawTitle, yearStr string) Result {
	title := CleanTitle(rawTitle)
	year, _ := strconv.Atoi(yearStr)
	return Result{Kind: KindMovie, Title: title, Year: year}
}
