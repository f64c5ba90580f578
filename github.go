package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// pullRequestRef identifies a pull request parsed from its web URL.
type pullRequestRef struct {
	Owner  string
	Repo   string
	Number int
}

func (p pullRequestRef) FullName() string {
	return fmt.Sprintf("%s/%s", p.Owner, p.Repo)
}

// Ref renders the short "org/repo#123" form used in announcement headlines.
func (p pullRequestRef) Ref() string {
	return fmt.Sprintf("%s#%d", p.FullName(), p.Number)
}

// parsePullRequestURL extracts owner, repo and number from a pull request URL.
// Any host is accepted so GitHub Enterprise links work too.
func parsePullRequestURL(raw string) (pullRequestRef, bool) {
	// URL format: https://github.com/org/repo/pull/123[/files]
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return pullRequestRef{}, false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "pull" {
		return pullRequestRef{}, false
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 || parts[0] == "" || parts[1] == "" {
		return pullRequestRef{}, false
	}

	return pullRequestRef{Owner: parts[0], Repo: parts[1], Number: number}, true
}
