package hardware

import (
	"strings"
	"testing"
)

func TestIsHighBitDepth(t *testing.T) {
	if !IsHighBitDepth("yuv420p10le") || !IsHighBitDepth("p010le") {
		t.Fatal("expected 10-bit formats to be detected")
	}
	if IsHighBitDepth("yuv420p") {
		t.Fatal("8-bit format should not be high bit depth")
	}
}

func TestIsTrueHDR(t *testing.T) {
	if !IsTrueHDR("smpte2084", "bt2020") {
		t.Fatal("expected PQ+BT2020 to be true HDR")
	}
	if !IsTrueHDR("arib-std-b67", "bt2020") {
		t.Fatal("expected HLG+BT2020 to be true HDR")
	}
	if !IsTrueHDR("", "bt2020") {
		t.Fatal("expected BT2020 primaries alone to count as HDR")
	}
	if IsTrueHDR("bt709", "bt709") {
		t.Fatal("BT709 should not be true HDR")
	}
}

func TestVideoFormatFilter(t *testing.T) {
	if f := VideoFormatFilter("yuv420p10le", "smpte2084", "bt2020"); f == "" || !strings.Contains(f, "tonemap") {
		t.Fatalf("expected tonemap filter, got %q", f)
	}
	if f := VideoFormatFilter("yuv420p10le", "bt709", "bt709"); f == "" || strings.Contains(f, "tonemap") {
		t.Fatalf("10-bit SDR should not get tonemap, got %q", f)
	}
	if f := VideoFormatFilter("yuv420p10le", "", ""); f == "" || strings.Contains(f, "tonemap") {
		t.Fatalf("unknown color metadata should not get tonemap, got %q", f)
	}
	if f := VideoFormatFilter("yuv420p", "", ""); f != "" {
		t.Fatalf("8-bit SDR should need no filter, got %q", f)
	}
}
