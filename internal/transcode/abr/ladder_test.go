package abr

import "testing"

func TestGenerateLadder_1080pSourceMatchesStandardTier(t *testing.T) {
	ladder := GenerateLadder(1920, 1080)
	if len(ladder) != 4 {
		t.Fatalf("expected 1080p/720p/480p/360p minus any native prefix, got %d rungs: %+v", len(ladder), ladder)
	}
	if ladder[0].Native {
		t.Fatal("1080p source exactly matches a standard tier, should not get a native prefix")
	}
	if ladder[0].Height != 1080 {
		t.Fatalf("expected top rung at 1080, got %d", ladder[0].Height)
	}
}

func TestGenerateLadder_NonStandardSourcePrependsNative(t *testing.T) {
	ladder := GenerateLadder(1280, 800)
	if !ladder[0].Native {
		t.Fatal("expected a synthetic native rung for non-standard source height")
	}
	if ladder[0].Height != 800 {
		t.Fatalf("expected native rung at source height 800, got %d", ladder[0].Height)
	}
}

func TestGenerateLadder_LowResSourceOnlyGetsLowerTiers(t *testing.T) {
	ladder := GenerateLadder(640, 360)
	for _, r := range ladder {
		if r.Height > 360 {
			t.Fatalf("no rung should exceed source height, got %+v", r)
		}
	}
}
