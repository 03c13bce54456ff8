package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// Sanitize strips unsafe markup from free-text comments.
func Sanitize(input string) string {
	return strings.TrimSpace(sanitizer.Sanitize(strings.TrimSpace(input)))
}
