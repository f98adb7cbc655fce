package hls

import (
	"strings"
	"testing"
)

func TestValidateSegmentName_RejectsTraversal(t *testing.T) {
	cases := []string{"../etc/passwd", "a/b.m4s", "..", ""}
	for _, c := range cases {
		if err := ValidateSegmentName(c); err == nil {
			t.Fatalf("expected rejection for %q", c)
		}
	}
}

func TestValidateSegmentName_AcceptsBareNames(t *testing.T) {
	for _, name := range []string{"init.mp4", "seg_001.m4s", "playlist.m3u8"} {
		if err := ValidateSegmentName(name); err != nil {
			t.Fatalf("expected %q to be accepted, got %v", name, err)
		}
	}
}

func TestContainsExtinf(t *testing.T) {
	if !containsExtinf([]byte("#EXTM3U\n#EXTINF:2.0,\nseg_000.m4s\n")) {
		t.Fatal("expected to find #EXTINF")
	}
	if containsExtinf([]byte("#EXTM3U\n#EXT-X-VERSION:7\n")) {
		t.Fatal("expected no #EXTINF match")
	}
}

func TestMasterPlaylist_OrdersByInputAndPreservesToken(t *testing.T) {
	sessions := []*Session{
		{ID: "s-1080", VariantLabel: "1080p", Resolution: "1920x1080", Bandwidth: 6000000},
		{ID: "s-720", VariantLabel: "720p", Resolution: "1280x720", Bandwidth: 3200000},
	}
	out := MasterPlaylist("media-1", sessions, "abc123")
	if out == "" {
		t.Fatal("expected non-empty playlist")
	}
	wantFirst := "s-1080/playlist.m3u8?token=abc123"
	if !contains(out, wantFirst) {
		t.Fatalf("expected %q in playlist, got:\n%s", wantFirst, out)
	}
	if strings.Index(out, "s-1080/") > strings.Index(out, "s-720/") {
		t.Fatalf("expected s-1080 before s-720, got:\n%s", out)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
