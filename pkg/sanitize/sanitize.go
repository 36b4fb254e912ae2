// Package sanitize strips markup tags from untrusted log text.
//
// The defense is deliberately crude: every <...> substring is removed, no
// HTML parsing is attempted. Stored logs may later be rendered by a viewer,
// so embedded markup must never survive the write. Structured payloads are
// not rendered as HTML anywhere downstream and pass through untouched.
package sanitize

import (
	"regexp"

	"github.com/safeops/logcollector/pkg/model"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Text removes every <...> substring, leaving all other bytes intact.
func Text(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Payload sanitizes the text variant of a log payload and passes the
// structured variant through unmodified.
func Payload(p model.LogPayload) model.LogPayload {
	if p.IsText() {
		return model.TextPayload(Text(p.Text))
	}
	return p
}
