package triage

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/prsweep/prsweep/pkg/github"
	"github.com/prsweep/prsweep/pkg/types"
)

// resolve queries one pull request and classifies it for the configured
// user. Failures are converted into error-carrying statuses so that a
// single unresolvable reference can never abort a batch.
func (s *Session) resolve(ctx context.Context, ref types.PullRequestReference) *types.PullRequestStatus {
	status := &types.PullRequestStatus{
		Repo:   ref.Repo,
		Number: ref.Number,
		State:  types.StateClosed,
	}

	pr, err := s.source.PullRequest(ctx, ref.Repo, ref.Number)
	if err != nil {
		if github.IsNotFound(err) {
			status.Err = fmt.Sprintf("PR not found: %s", ref.Key())
		} else {
			status.Err = err.Error()
		}
		return status
	}

	switch {
	case pr.Merged:
		status.State = types.StateMerged
		status.Merged = true
	case strings.EqualFold(pr.State, "open"):
		status.State = types.StateOpen
	default:
		status.State = types.StateClosed
	}

	for _, reviewer := range pr.RequestedReviewers {
		if strings.EqualFold(reviewer, s.login) {
			status.RequestedReviewer = true
			break
		}
	}
	status.Mentioned = s.mentionRe.MatchString(pr.Body)

	return status
}

// mentionPattern matches @handle on login-boundary: the handle must not be
// preceded or followed by a character that could extend it into another
// login (letters, digits, underscore, or hyphen).
func mentionPattern(login string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^A-Za-z0-9_-])@` + regexp.QuoteMeta(login) + `([^A-Za-z0-9_-]|$)`)
}
