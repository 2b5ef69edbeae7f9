// Package platform classifies user-supplied video URLs into a supported
// platform and an opaque video identifier. Classification is pure string
// matching; no network access is performed here.
package platform

import "regexp"

// Platform identifies a supported video source.
type Platform string

const (
	YouTube Platform = "youtube"
	TikTok  Platform = "tiktok"
)

// VideoReference is a classified user URL. The ID is used only for
// platform disambiguation and display; it carries no uniqueness guarantee.
type VideoReference struct {
	RawURL   string
	Platform Platform
	ID       string
}

// IsOpaque reports whether the platform's CDN blocks direct cross-origin
// fetches, forcing a full local download before trimming.
func (r VideoReference) IsOpaque() bool {
	return r.Platform == TikTok
}

type urlPattern struct {
	re       *regexp.Regexp
	platform Platform
}

// Ordered; first match wins.
var patterns = []urlPattern{
	{regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/shorts/)([^&?/]+)`), YouTube},
	{regexp.MustCompile(`tiktok\.com/@[^/]+/(?:video|t)/(\d+)`), TikTok},
}

// Classify matches rawURL against the supported platform patterns and
// extracts the video identifier. The second return value is false when no
// pattern matches; that is the "invalid URL" condition, not a fault.
func Classify(rawURL string) (VideoReference, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(rawURL)
		if m != nil && m[1] != "" {
			return VideoReference{
				RawURL:   rawURL,
				Platform: p.platform,
				ID:       m[1],
			}, true
		}
	}
	return VideoReference{}, false
}
