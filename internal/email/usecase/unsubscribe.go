package usecase

import (
	"regexp"
	"strings"
)

var (
	// href="...unsubscribe..." or href='...opt-out...'
	unsubscribeHrefRe = regexp.MustCompile(`(?i)href=["']([^"']*(?:unsubscribe|opt[-_]?out)[^"']*)["']`)
	// bare URLs containing an unsubscribe marker in plain-text bodies
	unsubscribeURLRe = regexp.MustCompile(`(?i)https?://\S*(?:unsubscribe|opt[-_]?out)\S*`)
)

// findUnsubscribeURL scans an email body for an unsubscribe link without any
// network calls. HTML hrefs are preferred over bare plain-text URLs; empty
// string means nothing was found.
func findUnsubscribeURL(body, htmlBody string) string {
	if htmlBody != "" {
		if m := unsubscribeHrefRe.FindStringSubmatch(htmlBody); m != nil {
			return m[1]
		}
	}
	if body != "" {
		if m := unsubscribeURLRe.FindString(body); m != "" {
			return strings.TrimRight(m, ".,;)>\"'")
		}
	}
	return ""
}
