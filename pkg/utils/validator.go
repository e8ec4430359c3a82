package utils

import "regexp"

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeText strips control characters from user-supplied free text
// before it is persisted or forwarded to the scoring service.
func SanitizeText(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
