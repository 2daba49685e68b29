package triage

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prsweep/prsweep/pkg/types"
)

// ciSubjectPatterns mark CI/workflow notification subjects, matched
// case-insensitively as substrings.
var ciSubjectPatterns = []string{
	"run failed",
	"run succeeded",
	"run cancelled",
	"run skipped",
	"workflow run",
}

// DeletionCandidates decides which emails are safe to discard. Two
// independent passes: PR emails against their reconciled status, then
// aged CI emails when a CIDays threshold is configured. The result keeps
// PR candidates first, CI candidates second, both in input order.
//
// The policy is conservative: missing statuses, error-carrying statuses,
// open PRs, and personal involvement (mention or review request, unless
// overridden) all keep the email.
func (s *Session) DeletionCandidates(emails []types.NotificationEmail, statuses map[string]*types.PullRequestStatus, now time.Time) []types.DeletionCandidate {
	var candidates []types.DeletionCandidate

	for _, email := range emails {
		if !email.IsPR() {
			continue
		}
		ref := types.PullRequestReference{Repo: email.Repo, Number: email.Number}
		status, ok := statuses[ref.Key()]
		if !ok || status.Err != "" {
			continue
		}
		if status.State == types.StateOpen {
			continue
		}
		if status.Mentioned && !s.opts.SkipMentions {
			slog.Debug("Keeping email: user is mentioned", "id", email.ID, "pr", ref.Key())
			continue
		}
		if status.RequestedReviewer && !s.opts.SkipReviewRequests {
			slog.Debug("Keeping email: review was requested", "id", email.ID, "pr", ref.Key())
			continue
		}
		candidates = append(candidates, types.DeletionCandidate{
			Email:  email,
			Reason: fmt.Sprintf("%s PR, not specifically mentioned", strings.ToLower(status.State)),
		})
	}

	if s.opts.CIDays > 0 {
		cutoff := now.AddDate(0, 0, -s.opts.CIDays)
		for _, email := range emails {
			if email.IsPR() {
				continue
			}
			if !isCISubject(email.Subject) {
				continue
			}
			if !email.Received.Before(cutoff) {
				continue
			}
			candidates = append(candidates, types.DeletionCandidate{
				Email:  email,
				Reason: fmt.Sprintf("CI email older than %d days", s.opts.CIDays),
			})
		}
	}

	return candidates
}

// isCISubject reports whether the subject looks like a CI/workflow
// notification.
func isCISubject(subject string) bool {
	lower := strings.ToLower(subject)
	for _, pattern := range ciSubjectPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
