package scanner

import (
	"testing"

	"github.com/ferrite-media/ferrite/internal/mediaprobe"
	"github.com/ferrite-media/ferrite/internal/scanner/filenameparser"
)

func TestToProbedItem_Movie(t *testing.T) {
	r := probedResult{
		entry: WalkEntry{Path: "/movies/The Matrix (1999).mkv", Size: 123},
		probe: mediaprobe.Result{
			Container:  "matroska,webm",
			DurationMs: 60000,
			Streams: []mediaprobe.Stream{
				{Index: 0, Type: "video", CodecName: "h264", Width: 1920, Height: 1080},
				{Index: 1, Type: "audio", CodecName: "aac"},
			},
		},
		parsed: filenameparser.Parse("The Matrix (1999)"),
	}
	item := toProbedItem(r)
	if item.Title != "The Matrix" || item.Year != 1999 {
		t.Fatalf("got title=%q year=%d", item.Title, item.Year)
	}
	if item.VideoCodec != "h264" || item.AudioCodec != "aac" {
		t.Fatalf("got video=%q audio=%q", item.VideoCodec, item.AudioCodec)
	}
	if item.Width != 1920 || item.Height != 1080 {
		t.Fatalf("got width=%d height=%d", item.Width, item.Height)
	}
	if len(item.Streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(item.Streams))
	}
}

func TestToProbedItem_Episode(t *testing.T) {
	r := probedResult{
		entry:  WalkEntry{Path: "/tv/Breaking.Bad.S03E05.mkv"},
		probe:  mediaprobe.Result{},
		parsed: filenameparser.Parse("Breaking.Bad.S03E05"),
	}
	item := toProbedItem(r)
	if !item.IsShow || item.Show != "Breaking Bad" || item.Season != 3 || item.Episode != 5 {
		t.Fatalf("got %+v", item)
	}
}
