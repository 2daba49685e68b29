package gmail

import (
	"regexp"
	"strconv"
)

// GitHub notification subjects look like
//
//	[owner/repo] Fix the frobnicator (PR #123)
//	[owner/repo] Fix the frobnicator (#123)
//	[owner/repo] Run failed: CI - main (abc1234)
//
// The repository comes from the bracketed prefix and the PR number from
// the trailing parenthesized reference. CI subjects carry no PR number.
var (
	repoPattern   = regexp.MustCompile(`^\[([^/\]\s]+/[^\]\s]+)\]`)
	numberPattern = regexp.MustCompile(`\((?:PR )?#(\d+)\)\s*$`)
)

// ParseSubject extracts the repository and PR number from a notification
// subject. Either result may be zero-valued when the subject is not
// PR-shaped; the caller treats such emails as non-PR notifications.
func ParseSubject(subject string) (repo string, number int) {
	if m := repoPattern.FindStringSubmatch(subject); m != nil {
		repo = m[1]
	}
	if m := numberPattern.FindStringSubmatch(subject); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			number = n
		}
	}
	return repo, number
}
