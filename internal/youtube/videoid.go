// Package youtube extracts video IDs from the URL shapes users paste.
package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ExtractVideoID returns the 11-character video ID from a raw ID, a
// youtu.be short link, or any youtube.com URL form (watch, shorts, embed,
// /v/). It returns "" when no ID can be found.
func ExtractVideoID(input string) string {
	value := strings.TrimSpace(input)
	if value == "" {
		return ""
	}

	// Raw ID pasted directly.
	if videoIDPattern.MatchString(value) {
		return value
	}

	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return ""
	}
	hostname := strings.TrimPrefix(u.Hostname(), "www.")

	if hostname == "youtu.be" {
		if id := firstPathSegment(u.Path); videoIDPattern.MatchString(id) {
			return id
		}
		return ""
	}

	if strings.HasSuffix(hostname, "youtube.com") {
		if v := u.Query().Get("v"); videoIDPattern.MatchString(v) {
			return v
		}
		parts := splitPath(u.Path)
		for i, part := range parts {
			switch part {
			case "shorts", "embed", "v":
				if i+1 < len(parts) && videoIDPattern.MatchString(parts[i+1]) {
					return parts[i+1]
				}
				return ""
			}
		}
	}

	return ""
}

func firstPathSegment(path string) string {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
