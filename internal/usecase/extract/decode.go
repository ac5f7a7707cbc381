package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// DecodeEntities replaces numeric, hex and HTML5 named character references
// until the text stops changing, so multiply-encoded text such as
// "&amp;amp;eacute;" decodes fully and a second call is a no-op.
// Each pass that changes s consumes at least one reference, so the loop ends.
func DecodeEntities(s string) string {
	for strings.Contains(s, "&") {
		next := html.UnescapeString(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// collapseSpace trims and folds runs of whitespace into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
