package enrich

import "testing"

func TestNormalizeQuery_ParenYear(t *testing.T) {
	title, year := normalizeQuery("Interstellar (2014)")
	if title != "Interstellar" || year != 2014 {
		t.Fatalf("got %q, %d", title, year)
	}
}

func TestNormalizeQuery_BareYear(t *testing.T) {
	title, year := normalizeQuery("Interstellar 2014")
	if title != "Interstellar" || year != 2014 {
		t.Fatalf("got %q, %d", title, year)
	}
}

func TestNormalizeQuery_NoYear(t *testing.T) {
	title, year := normalizeQuery("Interstellar")
	if title != "Interstellar" || year != 0 {
		t.Fatalf("got %q, %d", title, year)
	}
}

func TestCandidateQueries_Alias(t *testing.T) {
	candidates := candidateQueries("Survivor AU")
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", candidates)
	}
	if candidates[0] != "Survivor AU" || candidates[1] != "australian survivor" {
		t.Fatalf("unexpected candidates: %v", candidates)
	}
}

func TestCandidateQueries_Dedup(t *testing.T) {
	candidates := candidateQueries("Law & Order")
	seen := map[string]bool{}
	for _, c := range candidates {
		key := c
		if seen[key] {
			t.Fatalf("duplicate candidate %q in %v", c, candidates)
		}
		seen[key] = true
	}
}

func TestJaroWinkler_IdenticalStrings(t *testing.T) {
	if score := jaroWinkler("dune", "dune"); score != 1 {
		t.Fatalf("expected 1, got %f", score)
	}
}

func TestJaroWinkler_CompletelyDifferent(t *testing.T) {
	if score := jaroWinkler("abc", "xyz"); score != 0 {
		t.Fatalf("expected 0, got %f", score)
	}
}

func TestTitleScore_YearBonus(t *testing.T) {
	withYear := titleScore("dune", 2021, "dune", 2021)
	withoutYear := titleScore("dune", 2021, "dune", 1984)
	if withYear <= withoutYear {
		t.Fatalf("expected year match to score higher: %f vs %f", withYear, withoutYear)
	}
}

func TestBestMovieMatch_PicksHighestScoringAboveThreshold(t *testing.T) {
	results := []MovieResult{
		{ProviderID: 1, Title: "Dun", Year: 2000},
		{ProviderID: 2, Title: "Dune", Year: 2021},
	}
	best, ok := bestMovieMatch("dune", 2021, results)
	if !ok || best.ProviderID != 2 {
		t.Fatalf("expected provider 2 to win, got %+v ok=%v", best, ok)
	}
}

func TestBestMovieMatch_NoneClearThreshold(t *testing.T) {
	results := []MovieResult{{ProviderID: 1, Title: "Completely Unrelated Title"}}
	_, ok := bestMovieMatch("dune", 2021, results)
	if ok {
		t.Fatalf("expected no match")
	}
}
