package transcode

import (
	"context"
	"testing"

	"github.com/ferrite-media/ferrite/internal/classifier"
)

func TestPrepare_DirectPlaySkipsEncoder(t *testing.T) {
	tr := NewTranscoder("ffmpeg", NewLimiter(2), nil)
	result, err := tr.Prepare(context.Background(), Request{
		InputPath:         "/media/movie.mkv",
		Strategy:          classifier.DirectPlay,
		TotalDurationSecs: 120,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.DirectPlay || result.FilePath != "/media/movie.mkv" {
		t.Fatalf("expected direct play of input path, got %+v", result)
	}
	if err := result.Close(); err != nil {
		t.Fatalf("closing direct play result should be a no-op: %v", err)
	}
}

func TestLimiter_TryAcquireRespectsCapacity(t *testing.T) {
	l := NewLimiter(1)
	if !l.TryAcquire() {
		t.Fatal("expected first acquire to succeed")
	}
	if l.TryAcquire() {
		t.Fatal("expected second acquire to fail at capacity 1")
	}
	l.Release()
	if !l.TryAcquire() {
		t.Fatal("expected acquire to succeed after release")
	}
}
