package enrich

import "strings"

// jaroWinkler scores the similarity of two strings in [0, 1]. None of the
// example repos vendor a string-distance library, so this is a hand-rolled
// implementation (see DESIGN.md for the standard-library justification) of
// the standard Jaro-Winkler algorithm used to fuzzy-match provider search
// results against a parsed filename title (spec §4.8 step 2).
func jaroWinkler(a, b string) float64 {
	j := jaro(a, b)
	if j <= 0 {
		return j
	}

	prefix := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] != b[i] {
			break
		}
		prefix++
	}

	const scalingFactor = 0.1
	return j + float64(prefix)*scalingFactor*(1-j)
}

func jaro(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}

	matchDistance := maxInt(la, lb)/2 - 1
	if matchDistance < 0 {
		matchDistance = 0
	}

	aMatches := make([]bool, la)
	bMatches := make([]bool, lb)

	matches := 0
	for i := 0; i < la; i++ {
		start := maxInt(0, i-matchDistance)
		end := minInt(i+matchDistance+1, lb)
		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < la; i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-float64(transpositions))/m) / 3
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// titleScore implements spec §4.8 step 2's scoring rule: Jaro-Winkler
// similarity of lowercased titles, plus a 0.1 bonus if years match.
func titleScore(queryTitle string, queryYear int, candidateTitle string, candidateYear int) float64 {
	score := jaroWinkler(strings.ToLower(queryTitle), strings.ToLower(candidateTitle))
	if queryYear > 0 && candidateYear > 0 && queryYear == candidateYear {
		score += 0.1
	}
	return score
}
