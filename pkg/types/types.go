// Package types contains shared data structures used across the triage system.
//
//nolint:revive // "types" is a standard Go package name for shared data structures
package types

import (
	"fmt"
	"time"
)

// Pull request lifecycle states as normalized by the resolver.
const (
	StateOpen   = "OPEN"
	StateClosed = "CLOSED"
	StateMerged = "MERGED"
)

// ChangesRequested is the ApprovalsNeeded sentinel meaning changes were
// requested on the PR; it is not an arithmetic count.
const ChangesRequested = -1

// PullRequestReference identifies a pull request by repository and number.
type PullRequestReference struct {
	Repo   string // "owner/name"
	Number int
}

// Key returns the deduplication key for the reference.
func (r PullRequestReference) Key() string {
	return fmt.Sprintf("%s#%d", r.Repo, r.Number)
}

// PullRequestStatus is the resolved state of one pull request reference.
// When Err is set the remaining fields hold safe defaults (CLOSED, all
// flags false) and must never be used as grounds for deletion.
type PullRequestStatus struct {
	Repo              string
	Number            int
	State             string // StateOpen, StateClosed, or StateMerged
	Err               string
	Merged            bool
	RequestedReviewer bool // configured user is a requested reviewer
	Mentioned         bool // configured user is @-mentioned in the body
}

// NotificationEmail is one GitHub notification email as seen in the
// mailbox. Repo and Number are zero-valued when the subject did not parse
// as a PR notification (for example CI/workflow results).
type NotificationEmail struct {
	Received time.Time
	ID       string
	Subject  string
	Repo     string
	Number   int
}

// IsPR reports whether the email refers to a concrete pull request.
func (e NotificationEmail) IsPR() bool {
	return e.Repo != "" && e.Number > 0
}

// DeletionCandidate pairs an email with the reason it was selected for deletion.
type DeletionCandidate struct {
	Email  NotificationEmail
	Reason string
}

// PullRequest is the source-of-truth view of a single pull request, as
// needed for status classification and the pending-review report.
type PullRequest struct {
	Repo               string
	Number             int
	State              string // raw API state, e.g. "open", "closed"
	Author             string
	Body               string
	Title              string
	URL                string
	RequestedReviewers []string
	Merged             bool
}

// Review is a single review on a pull request.
type Review struct {
	Author string
	State  string // "APPROVED", "CHANGES_REQUESTED", "COMMENTED", ...
}

// ReviewState is the review summary of one pull request.
type ReviewState struct {
	ReviewDecision string // "APPROVED", "CHANGES_REQUESTED", "REVIEW_REQUIRED", or ""
	Reviews        []Review
}

// PendingPullRequest is an open pull request awaiting the configured
// user's review, annotated with how far it is from being unblocked.
type PendingPullRequest struct {
	Repo            string
	Number          int
	Title           string
	URL             string
	Author          string
	Approvals       int
	ApprovalsNeeded int // 0 approved, ChangesRequested, or approvals still required
}
