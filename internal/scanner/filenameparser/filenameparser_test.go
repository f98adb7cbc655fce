package filenameparser

import "testing"

func TestParse_MovieParenYear(t *testing.T) {
	r := Parse("The Matrix (1999)")
	if r.Kind != KindMovie || r.Title != "The Matrix" || r.Year != 1999 {
		t.Fatalf("got %+v", r)
	}
}

func TestParse_MovieDotSeparatedWithTags(t *testing.T) {
	r := Parse("The.Matrix.1999.BluRay.1080p")
	if r.Kind != KindMovie || r.Title != "The Matrix" || r.Year != 1999 {
		t.Fatalf("got %+v", r)
	}
}

func TestParse_MovieBracketYear(t *testing.T) {
	r := Parse("Movie Title [2020]")
	if r.Kind != KindMovie || r.Title != "Movie Title" || r.Year != 2020 {
		t.Fatalf("got %+v", r)
	}
}

func TestParse_EpisodeSxxExxUppercase(t *testing.T) {
	r := Parse("Breaking Bad S03E05")
	if r.Kind != KindEpisode || r.ShowName != "Breaking Bad" || r.Season != 3 || r.Episode != 5 {
		t.Fatalf("got %+v", r)
	}
}

func TestParse_EpisodeSxxExxDotSeparatedLowercase(t *testing.T) {
	r := Parse("breaking.bad.s03e05.720p")
	if r.Kind != KindEpisode || r.ShowName != "breaking bad" || r.Season != 3 || r.Episode != 5 {
		t.Fatalf("got %+v", r)
	}
}

func TestParse_EpisodeWithTrailingYear(t *testing.T) {
	r := Parse("Star.Trek.Lower.Decks.2020.S01E01.Strange.Energies")
	if r.Kind != KindEpisode || r.ShowName != "Star Trek Lower Decks" || r.Season != 1 || r.Episode != 1 {
		t.Fatalf("got %+v", r)
	}
}

func TestParse_EpisodeYearNotStrippedWhenPartOfName(t *testing.T) {
	r := Parse("Show.2020.Name.S01E01")
	if r.Kind != KindEpisode || r.ShowName != "Show 2020 Name" {
		t.Fatalf("got %+v", r)
	}
}

func TestParse_EpisodeNxNNFormat(t *testing.T) {
	r := Parse("Show Name 2x10")
	if r.Kind != KindEpisode || r.ShowName != "Show Name" || r.Season != 2 || r.Episode != 10 {
		t.Fatalf("got %+v", r)
	}
}

func TestParse_UnknownPlainTitle(t *testing.T) {
	r := Parse("Some Random File")
	if r.Kind != KindUnknown || r.CleanedTitle != "Some Random File" {
		t.Fatalf("got %+v", r)
	}
}

func TestParse_UnknownDotSeparated(t *testing.T) {
	r := Parse("some.random.file")
	if r.Kind != KindUnknown || r.CleanedTitle != "some random file" {
		t.Fatalf("got %+v", r)
	}
}

func TestCleanTitle_ReplacesDotsAndUnderscores(t *testing.T) {
	if got := CleanTitle("hello.world_test"); got != "hello world test" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanTitle_CollapsesMultipleSpaces(t *testing.T) {
	if got := CleanTitle("hello...world___test"); got != "hello world test" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanTitle_TrimsWhitespace(t *testing.T) {
	if got := CleanTitle("  hello  "); got != "hello" {
		t.Fatalf("got %q", got)
	}
}
