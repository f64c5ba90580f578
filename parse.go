package main

import (
	"regexp"
	"strings"
)

// Announcements and notifications carry their state in rendered text. Every
// pattern that reads that text back lives in this file.
const (
	authorPrefix     = "Author: "
	complexityPrefix = "Complexity: "
	commentPhrase    = "left comments on"
)

var (
	authorPattern     = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(authorPrefix) + `<@([A-Z0-9]+)(?:\|[^>]*)?>`)
	complexityPattern = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(complexityPrefix) + `\S+ \*([A-Za-z]+)\*`)

	// reviewerPattern only recognises the wording produced by
	// formatCommentNotice. Changing that wording silently disables reviewer
	// detection for update requests.
	reviewerPattern = regexp.MustCompile(`<@([A-Z0-9]+)> ` + regexp.QuoteMeta(commentPhrase))
)

// parseAuthor returns the user ID on the announcement's Author line.
func parseAuthor(text string) (string, bool) {
	m := authorPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// parseComplexity returns the tier on the announcement's Complexity line.
func parseComplexity(text string) (Complexity, bool) {
	m := complexityPattern.FindStringSubmatch(text)
	if m == nil {
		return ComplexityUnknown, false
	}
	return normalizeComplexity(m[1]), true
}

// isAnnouncement reports whether text follows the announcement convention.
func isAnnouncement(text string) bool {
	return authorPattern.MatchString(text) && complexityPattern.MatchString(text)
}

// parseReviewers collects reviewer IDs from comment notifications, in
// first-seen order and without duplicates.
func parseReviewers(texts []string) []string {
	seen := make(map[string]bool)
	var reviewers []string
	for _, text := range texts {
		for _, m := range reviewerPattern.FindAllStringSubmatch(text, -1) {
			if seen[m[1]] {
				continue
			}
			seen[m[1]] = true
			reviewers = append(reviewers, m[1])
		}
	}
	return reviewers
}

// parseCommandArgs splits slash command text into the PR URL and the optional
// complexity label. Slack may wrap links as <url> or <url|label>.
func parseCommandArgs(text string) (prURL string, label string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	prURL = unwrapLink(fields[0])
	if len(fields) > 1 {
		label = fields[1]
	}
	return prURL, label
}

func unwrapLink(s string) string {
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		s = s[1 : len(s)-1]
		if i := strings.Index(s, "|"); i >= 0 {
			s = s[:i]
		}
	}
	return s
}
