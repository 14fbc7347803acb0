package handler

import (
	"regexp"
	"strings"
)

var youtubeIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`)

// extractTikTokLink returns the first tiktok.com URL in the message, or "".
func extractTikTokLink(text string) string {
	for _, field := range strings.Fields(text) {
		if strings.Contains(field, "tiktok.com") {
			return field
		}
	}
	return ""
}

// extractYouTubeID returns the 11-character video ID from a YouTube URL, or "".
func extractYouTubeID(text string) string {
	matches := youtubeIDPattern.FindStringSubmatch(text)
	if len(matches) > 1 {
		return matches[1]
	}
	return ""
}
