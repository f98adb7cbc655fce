package hls

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// MasterPlaylist implements spec §4.3 step 2: one #EXT-X-STREAM-INF entry
// per session, in the order given (highest-first by convention), each
// pointing at its variant playlist with the auth token preserved.
func MasterPlaylist(mediaItemID string, sessions []*Session, token string) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:7\n")

	for _, s := range sessions {
		b.WriteString("#EXT-X-STREAM-INF:")
		b.WriteString(fmt.Sprintf("BANDWIDTH=%d", s.Bandwidth))
		if s.Resolution != "" {
			b.WriteString(fmt.Sprintf(",RESOLUTION=%s", s.Resolution))
		}
		b.WriteString(fmt.Sprintf(",NAME=%q", s.VariantLabel))
		b.WriteString("\n")

		q := url.Values{}
		if token != "" {
			q.Set("token", token)
		}
		line := s.ID + "/playlist.m3u8"
		if encoded := q.Encode(); encoded != "" {
			line += "?" + encoded
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

// VariantPlaylist implements spec §4.3 step 3: read the encoder's
// playlist.m3u8 and rewrite every segment filename and #EXT-X-MAP URI
// into an absolute server path carrying the auth token.
func (m *Manager) VariantPlaylist(mediaItemID string, s *Session, token string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, "playlist.m3u8"))
	if err != nil {
		return "", err
	}
	s.touchPlaylist()

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "#EXT-X-MAP:URI="):
			uriStart := strings.Index(line, "\"")
			uriEnd := strings.LastIndex(line, "\"")
			if uriStart < 0 || uriEnd <= uriStart {
				continue
			}
			name := line[uriStart+1 : uriEnd]
			lines[i] = fmt.Sprintf("#EXT-X-MAP:URI=%q", segmentURL(mediaItemID, s.ID, name, token))
		case line != "" && !strings.HasPrefix(line, "#"):
			lines[i] = segmentURL(mediaItemID, s.ID, line, token)
		}
	}

	return strings.Join(lines, "\n"), nil
}

func segmentURL(mediaItemID, sessionID, fileName, token string) string {
	path := fmt.Sprintf("/stream/%s/hls/%s/%s", mediaItemID, sessionID, fileName)
	if token == "" {
		return path
	}
	q := url.Values{}
	q.Set("token", token)
	return path + "?" + q.Encode()
}
