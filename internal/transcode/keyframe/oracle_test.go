package keyframe

import "testing"

func TestNewOracle_DefaultsBinaryPath(t *testing.T) {
	o := NewOracle("")
	if o.BinaryPath != "ffprobe" {
		t.Fatalf("expected default binary ffprobe, got %q", o.BinaryPath)
	}
}

func TestNewOracle_KeepsExplicitBinaryPath(t *testing.T) {
	o := NewOracle("/usr/local/bin/ffprobe")
	if o.BinaryPath != "/usr/local/bin/ffprobe" {
		t.Fatalf("expected explicit binary path preserved, got %q", o.BinaryPath)
	}
}
