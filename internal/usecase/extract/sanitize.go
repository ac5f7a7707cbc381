package extract

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// bluemonday policies are safe for concurrent use once built.
var (
	contentPolicy = bluemonday.UGCPolicy()
	textPolicy    = bluemonday.StrictPolicy()
)

// SanitizeHTML keeps user-generated-content markup and drops everything
// executable. <script> and <style> are removed together with their bodies.
func SanitizeHTML(fragment string) string {
	return strings.TrimSpace(contentPolicy.Sanitize(fragment))
}

// PlainText strips all markup and returns decoded, whitespace-folded text.
func PlainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	return collapseSpace(DecodeEntities(textPolicy.Sanitize(fragment)))
}

// descriptionAsContent is the last step of the content chain. It applies
// only when the entry has no body of its own.
func descriptionAsContent(description string) *string {
	sanitized := SanitizeHTML(description)
	if sanitized == "" {
		return nil
	}
	return &sanitized
}
