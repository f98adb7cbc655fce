package classifier

import "testing"

func TestDecide_DirectPlayWhenAllCompatible(t *testing.T) {
	profile := ResolveProfile("web-chrome", "", "")
	got := Decide(profile, Request{Container: "mp4", VideoCodec: "h264", AudioCodec: "aac"})
	if got != DirectPlay {
		t.Fatalf("expected DirectPlay, got %v", got)
	}
}

func TestDecide_RemuxWhenOnlyContainerIncompatible(t *testing.T) {
	profile := ResolveProfile("web-chrome", "", "")
	got := Decide(profile, Request{Container: "matroska", VideoCodec: "h264", AudioCodec: "aac"})
	if got != Remux {
		t.Fatalf("expected Remux, got %v", got)
	}
}

func TestDecide_AudioTranscodeWhenAudioIncompatible(t *testing.T) {
	profile := ResolveProfile("roku", "", "")
	got := Decide(profile, Request{Container: "mp4", VideoCodec: "h264", AudioCodec: "flac"})
	if got != AudioTranscode {
		t.Fatalf("expected AudioTranscode, got %v", got)
	}
}

func TestDecide_FullTranscodeWhenVideoIncompatible(t *testing.T) {
	profile := ResolveProfile("web-chrome", "", "")
	got := Decide(profile, Request{Container: "mp4", VideoCodec: "mpeg2video", AudioCodec: "aac"})
	if got != FullTranscode {
		t.Fatalf("expected FullTranscode, got %v", got)
	}
}

func TestDecide_SafariDirectPlaysHEVC(t *testing.T) {
	profile := ResolveProfile("safari-ios", "", "")
	got := Decide(profile, Request{Container: "mp4", VideoCodec: "hevc", AudioCodec: "aac"})
	if got != DirectPlay {
		t.Fatalf("expected DirectPlay, got %v", got)
	}
}

func TestDecide_ChromeFullTranscodesHEVC(t *testing.T) {
	profile := ResolveProfile("web-chrome", "", "")
	got := Decide(profile, Request{Container: "mp4", VideoCodec: "hevc", AudioCodec: "aac"})
	if got != FullTranscode {
		t.Fatalf("expected FullTranscode, got %v", got)
	}
}

func TestDecide_AudioOnlyTreatedCompatible(t *testing.T) {
	profile := ResolveProfile("web-chrome", "", "")
	got := Decide(profile, Request{Container: "mp4", VideoCodec: "", AudioCodec: "aac"})
	if got != DirectPlay {
		t.Fatalf("expected DirectPlay for audio-only, got %v", got)
	}
}

func TestDecide_SilentVideoTreatedCompatible(t *testing.T) {
	profile := ResolveProfile("web-chrome", "", "")
	got := Decide(profile, Request{Container: "mp4", VideoCodec: "h264", AudioCodec: ""})
	if got != DirectPlay {
		t.Fatalf("expected DirectPlay for silent video, got %v", got)
	}
}

func TestDecide_SubtitleBurnInNeverDirectPlayOrRemux(t *testing.T) {
	profile := ResolveProfile("web-chrome", "", "")
	got := Decide(profile, Request{Container: "mp4", VideoCodec: "h264", AudioCodec: "aac", BurnInSubtitle: true})
	if got == DirectPlay || got == Remux {
		t.Fatalf("subtitle burn-in must escalate past Remux, got %v", got)
	}
}

func TestResolveProfile_OverrideWins(t *testing.T) {
	p := ResolveProfile("roku", "Mozilla/5.0 (iPhone)", "")
	if p.Name != "roku" {
		t.Fatalf("expected override to win, got %s", p.Name)
	}
}

func TestResolveProfile_FallsBackToUserAgent(t *testing.T) {
	p := ResolveProfile("", "Mozilla/5.0 (Linux; Android 13)", "")
	if p.Name != "android" {
		t.Fatalf("expected android profile from user agent, got %s", p.Name)
	}
}
