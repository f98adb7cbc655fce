// Package abr generates the adaptive bitrate ladder for an HLS session,
// grounded on the teacher's core/abr/generator.go rung-table approach but
// fixed to the spec's {2160p,1080p,720p,480p,360p} tier set plus a
// synthetic "native" tier for non-standard source resolutions.
package abr

// Rung is one quality variant in the ladder.
type Rung struct {
	Label          string
	Height         int
	Width          int // derived from source aspect ratio
	VideoBitrate   int // kbps
	AudioBitrate   int // kbps
	Profile        string
	Level          string
	Native         bool // true for the synthetic top-of-ladder native tier
}

// Bandwidth is the advertised bandwidth in bits/sec for the HLS master
// playlist's BANDWIDTH attribute: total bitrate plus a fixed overhead
// factor for container/mux framing.
func (r Rung) Bandwidth() int {
	total := r.VideoBitrate + r.AudioBitrate
	return int(float64(total) * 1.1 * 1000)
}

type tier struct {
	height       int
	videoBitrate int
	audioBitrate int
	profile      string
	level        string
}

var standardTiers = []tier{
	{2160, 16000, 192, "high", "5.1"},
	{1080, 5000, 192, "high", "4.1"},
	{720, 2800, 128, "main", "4.0"},
	{480, 1400, 128, "main", "3.1"},
	{360, 800, 96, "baseline", "3.0"},
}

// GenerateLadder picks the subset of the standard tiers whose height does
// not exceed the source height. When the source height matches no
// standard tier exactly, a synthetic "native" variant is prepended at the
// source's own resolution, so the top variant needs no scaling (enabling
// stream-copy when the source is already H.264).
func GenerateLadder(sourceWidth, sourceHeight int) []Rung {
	if sourceHeight <= 0 || sourceWidth <= 0 {
		return nil
	}
	aspect := float64(sourceWidth) / float64(sourceHeight)

	var ladder []Rung
	matchesStandardTier := false
	for _, tier := range standardTiers {
		if tier.height > sourceHeight {
			continue
		}
		if tier.height == sourceHeight {
			matchesStandardTier = true
		}
		ladder = append(ladder, Rung{
			Label:        formatLabel(tier.height),
			Height:       tier.height,
			Width:        evenWidth(tier.height, aspect),
			VideoBitrate: tier.videoBitrate,
			AudioBitrate: tier.audioBitrate,
			Profile:      tier.profile,
			Level:        tier.level,
		})
	}

	if !matchesStandardTier {
		native := Rung{
			Label:        "native",
			Height:       sourceHeight,
			Width:        sourceWidth,
			VideoBitrate: nativeBitrateFor(sourceHeight),
			AudioBitrate: 192,
			Profile:      "high",
			Level:        "5.1",
			Native:       true,
		}
		ladder = append([]Rung{native}, ladder...)
	}

	return ladder
}

func evenWidth(height int, aspect float64) int {
	width := int(float64(height) * aspect)
	if width%2 != 0 {
		width++
	}
	return width
}

func formatLabel(height int) string {
	switch {
	case height >= 2160:
		return "2160p"
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	case height >= 480:
		return "480p"
	default:
		return "360p"
	}
}

// nativeBitrateFor picks a reasonable video bitrate for a source
// resolution that doesn't land on a standard tier, by scaling from the
// nearest tier below it (or doubling the top tier if the source exceeds
// every standard tier). A source below every tier gets the lowest tier's
// bitrate.
func nativeBitrateFor(height int) int {
	if height > standardTiers[0].height {
		return standardTiers[0].videoBitrate * 2
	}
	for _, t := range standardTiers {
		if height >= t.height {
			return t.videoBitrate + t.videoBitrate/2
		}
	}
	return standardTiers[len(standardTiers)-1].videoBitrate
}
