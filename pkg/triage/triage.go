// Package triage reconciles GitHub PR notification emails against live
// pull request state and decides which emails are safe to discard.
package triage

import (
	"context"
	"regexp"

	"github.com/prsweep/prsweep/pkg/types"
)

// Configuration constants.
const (
	// DefaultConcurrency is the fixed ceiling on in-flight source-of-truth
	// lookups. It is a throttle against API rate limits, not a tuning knob.
	DefaultConcurrency = 10

	progressInterval  = 10  // log resolution progress every N completions
	approvalThreshold = 2   // total approvals a PR needs to be unblocked
	pendingPageLimit  = 100 // max PRs fetched for the pending-review report
)

// botAuthorSubstrings marks PR authors excluded from the pending-review
// report when bot filtering is enabled. Matched case-insensitively as
// substrings of the author login.
var botAuthorSubstrings = []string{"dependabot", "es-robot"}

// PRSource is the source-of-truth query surface the engine depends on.
// *github.Client implements it; tests use a scripted fake.
type PRSource interface {
	PullRequest(ctx context.Context, repo string, number int) (*types.PullRequest, error)
	SearchReviewRequested(ctx context.Context, user string, limit int) ([]*types.PullRequest, error)
	ReviewState(ctx context.Context, repo string, number int) (*types.ReviewState, error)
	CurrentLogin(ctx context.Context) (string, error)
}

// Options are the per-run policy knobs.
type Options struct {
	// User is the configured handle. When empty it is resolved once from
	// the source of truth and memoized for the run.
	User string

	// SkipMentions deletes closed/merged PR emails even when the user was
	// @-mentioned in the PR body.
	SkipMentions bool

	// SkipReviewRequests deletes closed/merged PR emails even when the
	// user was a requested reviewer.
	SkipReviewRequests bool

	// CIDays deletes CI/workflow emails older than this many days.
	// Zero disables the CI pass.
	CIDays int

	// ExcludeBots drops bot-authored PRs from the pending-review report.
	ExcludeBots bool

	// Concurrency overrides DefaultConcurrency when positive.
	Concurrency int
}

// Session holds all per-run state: the status cache and the memoized user
// handle. It is constructed fresh for every run and never persisted.
//
// The statuses map is written only after concurrent resolution has
// completed (references are deduplicated before dispatch and results are
// stored sequentially), so it needs no lock.
type Session struct {
	source    PRSource
	statuses  map[string]*types.PullRequestStatus
	login     string
	mentionRe *regexp.Regexp
	opts      Options
}

// NewSession creates a reconciliation session around a PR source.
func NewSession(source PRSource, opts Options) *Session {
	return &Session{
		source:   source,
		statuses: make(map[string]*types.PullRequestStatus),
		opts:     opts,
	}
}

// Login returns the configured user handle, resolving it from the source
// of truth on first use when no explicit handle was configured. A failure
// here is fatal for the run: without a handle there is no mention or
// reviewer-request logic to apply.
func (s *Session) Login(ctx context.Context) (string, error) {
	if s.login != "" {
		return s.login, nil
	}
	login := s.opts.User
	if login == "" {
		resolved, err := s.source.CurrentLogin(ctx)
		if err != nil {
			return "", err
		}
		login = resolved
	}
	s.login = login
	// Compiled here, before any concurrent resolution starts, so the
	// resolver never writes shared state.
	s.mentionRe = mentionPattern(login)
	return s.login, nil
}

func (s *Session) concurrency() int {
	if s.opts.Concurrency > 0 {
		return s.opts.Concurrency
	}
	return DefaultConcurrency
}
