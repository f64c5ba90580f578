package main

import (
	"fmt"
	"strings"
	"time"
)

// Complexity is the review-effort tier attached to an announcement.
type Complexity string

const (
	ComplexitySmall   Complexity = "small"
	ComplexityMedium  Complexity = "medium"
	ComplexityLarge   Complexity = "large"
	ComplexityUnknown Complexity = "unknown"
)

// complexityTiers is the display order used in announcements and the topic.
var complexityTiers = []Complexity{ComplexitySmall, ComplexityMedium, ComplexityLarge, ComplexityUnknown}

// normalizeComplexity maps a user-supplied label onto a tier, ignoring case.
func normalizeComplexity(label string) Complexity {
	switch Complexity(strings.ToLower(strings.TrimSpace(label))) {
	case ComplexitySmall:
		return ComplexitySmall
	case ComplexityMedium:
		return ComplexityMedium
	case ComplexityLarge:
		return ComplexityLarge
	default:
		return ComplexityUnknown
	}
}

func (c Complexity) Emoji() string {
	switch c {
	case ComplexitySmall:
		return "🟩"
	case ComplexityMedium:
		return "🟨"
	case ComplexityLarge:
		return "🟥"
	default:
		return "⬜"
	}
}

func (c Complexity) Title() string {
	switch c {
	case ComplexitySmall:
		return "Small"
	case ComplexityMedium:
		return "Medium"
	case ComplexityLarge:
		return "Large"
	default:
		return "Unknown"
	}
}

// Rendered is the form written after "Complexity: " in an announcement.
func (c Complexity) Rendered() string {
	return fmt.Sprintf("%s *%s*", c.Emoji(), c.Title())
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

// formatAnnouncement renders the announcement text. The Author and Complexity
// lines are read back by parse.go, so their layout must not change.
func formatAnnouncement(prURL, authorID string, complexity Complexity) string {
	return fmt.Sprintf("🚀 %s is ready for review\n%s%s\n%s%s\n%s",
		announcementHeadline(prURL),
		authorPrefix, mention(authorID),
		complexityPrefix, complexity.Rendered(),
		prURL)
}

func announcementHeadline(prURL string) string {
	if pr, ok := parsePullRequestURL(prURL); ok {
		return fmt.Sprintf("*%s*", pr.Ref())
	}
	return "*New pull request*"
}

func formatCommentNotice(authorID, reviewerID string) string {
	if authorID == "" {
		return fmt.Sprintf("💬 %s %s this PR.", mention(reviewerID), commentPhrase)
	}
	return fmt.Sprintf("%s 💬 %s %s your PR.", mention(authorID), mention(reviewerID), commentPhrase)
}

func formatApprovalNotice(authorID, reviewerID string) string {
	if authorID == "" {
		return fmt.Sprintf("✅ %s approved this PR!", mention(reviewerID))
	}
	return fmt.Sprintf("%s ✅ %s approved your PR!", mention(authorID), mention(reviewerID))
}

func formatUpdateNotice(authorID string, reviewers []string) string {
	subject := "This PR has been updated"
	if authorID != "" {
		subject = mention(authorID) + " has pushed updates"
	}
	if len(reviewers) == 0 {
		return fmt.Sprintf("🔄 %s, but no reviewers were detected in this thread.", subject)
	}
	mentions := make([]string, 0, len(reviewers))
	for _, id := range reviewers {
		mentions = append(mentions, mention(id))
	}
	return fmt.Sprintf("🔄 %s. %s please take another look.", subject, strings.Join(mentions, " "))
}

func formatDeletionWarning(authorID string, delay time.Duration, cancelReaction string) string {
	subject := "This PR"
	if authorID != "" {
		subject = mention(authorID) + " this PR"
	}
	return fmt.Sprintf("🧹 %s was marked as merged. The announcement and its thread will be deleted in %s. Remove the :%s: reaction to cancel.",
		subject, formatDelay(delay), cancelReaction)
}

func formatDelay(d time.Duration) string {
	if d%time.Second != 0 {
		return d.String()
	}
	seconds := int(d / time.Second)
	if seconds == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", seconds)
}

func formatUsage(command string) string {
	return fmt.Sprintf("Usage: `%s <pull-request-url> [small|medium|large]`", command)
}

const genericCommandError = "Sorry, something went wrong while posting your PR. Please try again."

func formatTopicSummary(counts map[Complexity]int) string {
	total := 0
	parts := make([]string, 0, len(complexityTiers))
	for _, tier := range complexityTiers {
		total += counts[tier]
		parts = append(parts, fmt.Sprintf("%s %s %d", tier.Emoji(), tier.Title(), counts[tier]))
	}
	return fmt.Sprintf("📋 Open PRs: %d | %s", total, strings.Join(parts, " | "))
}
