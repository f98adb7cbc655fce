// Package classifier decides the streaming strategy for one playback
// request by comparing a client profile's codec whitelists against the
// source file's container/video/audio codecs.
package classifier

import "strings"

// Strategy is the decision for one playback request, ordered by
// increasing CPU cost.
type Strategy int

const (
	DirectPlay Strategy = iota
	Remux
	AudioTranscode
	FullTranscode
)

func (s Strategy) String() string {
	switch s {
	case DirectPlay:
		return "direct_play"
	case Remux:
		return "remux"
	case AudioTranscode:
		return "audio_transcode"
	case FullTranscode:
		return "full_transcode"
	default:
		return "unknown"
	}
}

// Profile is a client's codec/container compatibility whitelist.
type Profile struct {
	Name       string
	Containers map[string]bool
	Video      map[string]bool
	Audio      map[string]bool
}

func newProfile(name string, containers, video, audio []string) Profile {
	return Profile{
		Name:       name,
		Containers: toSet(containers),
		Video:      toSet(video),
		Audio:      toSet(audio),
	}
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

// Known client profiles. Real deployments may tune these; they ship as
// sane defaults for the five client families named in spec §4.1.
var knownProfiles = map[string]Profile{
	"web-chrome": newProfile("web-chrome",
		[]string{"mp4", "webm"},
		[]string{"h264", "vp8", "vp9", "av1"},
		[]string{"aac", "opus", "vorbis"}),
	"safari-ios": newProfile("safari-ios",
		[]string{"mp4"},
		[]string{"h264", "hevc"},
		[]string{"aac", "ac3"}),
	"android": newProfile("android",
		[]string{"mp4", "webm"},
		[]string{"h264", "vp8", "vp9"},
		[]string{"aac", "opus"}),
	"tvos": newProfile("tvos",
		[]string{"mp4"},
		[]string{"h264", "hevc"},
		[]string{"aac", "ac3", "eac3"}),
	"roku": newProfile("roku",
		[]string{"mp4"},
		[]string{"h264"},
		[]string{"aac"}),
}

// ResolveProfile picks a profile from an explicit override first, falling
// back to user-agent/platform heuristics, per spec §4.1.
func ResolveProfile(override, userAgent, platform string) Profile {
	if override != "" {
		if p, ok := knownProfiles[override]; ok {
			return p
		}
	}

	ua := strings.ToLower(userAgent)
	plat := strings.ToLower(platform)

	switch {
	case strings.Contains(plat, "roku"):
		return knownProfiles["roku"]
	case strings.Contains(plat, "tvos") || strings.Contains(ua, "appletv"):
		return knownProfiles["tvos"]
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "safari") && strings.Contains(ua, "mac"):
		return knownProfiles["safari-ios"]
	case strings.Contains(ua, "android"):
		return knownProfiles["android"]
	default:
		return knownProfiles["web-chrome"]
	}
}

// Request describes the file being played back and the features the
// player needs from it.
type Request struct {
	Container  string
	VideoCodec string // empty means audio-only
	AudioCodec string // empty means silent video
	BurnInSubtitle bool
}

// Decide implements the strategy table from spec §4.1.
func Decide(profile Profile, req Request) Strategy {
	containerOK := profile.Containers[req.Container]
	videoOK := req.VideoCodec == "" || profile.Video[req.VideoCodec]
	audioOK := req.AudioCodec == "" || profile.Audio[req.AudioCodec]

	if !videoOK {
		return FullTranscode
	}
	if !audioOK {
		return AudioTranscode
	}

	// Subtitle burn-in requires filtering frames, which forces at least
	// AudioTranscode even when only the container (or nothing) is
	// incompatible.
	if req.BurnInSubtitle {
		return AudioTranscode
	}

	if !containerOK {
		return Remux
	}

	return DirectPlay
}
