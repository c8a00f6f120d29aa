package chat

import "strings"

// imageExtensions is the accepted set of attachment extensions. Whether a
// stored message renders as an image is decided by suffix-sniffing its
// content against this set; records carry no explicit kind tag.
var imageExtensions = []string{".jpeg", ".jpg", ".png", ".gif"}

// IsImageContent reports whether a message content string refers to an
// uploaded image.
func IsImageContent(content string) bool {
	lower := strings.ToLower(content)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
