package triage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/prsweep/prsweep/pkg/pool"
	"github.com/prsweep/prsweep/pkg/types"
)

// PendingReview lists open pull requests awaiting the configured user's
// review, annotated with how many approvals each still needs. Review state
// is fetched concurrently; a PR whose review fetch fails is dropped from
// the report rather than aborting the batch.
func (s *Session) PendingReview(ctx context.Context) ([]types.PendingPullRequest, error) {
	login, err := s.Login(ctx)
	if err != nil {
		return nil, err
	}

	prs, err := s.source.SearchReviewRequested(ctx, login, pendingPageLimit)
	if err != nil {
		return nil, err
	}

	if s.opts.ExcludeBots {
		var kept []*types.PullRequest
		for _, pr := range prs {
			if isBotAuthor(pr.Author) {
				continue
			}
			kept = append(kept, pr)
		}
		if excluded := len(prs) - len(kept); excluded > 0 {
			slog.Info("Excluded bot-authored PRs from report", "excluded", excluded)
		}
		prs = kept
	}

	total := len(prs)
	var completed atomic.Int64
	resolved, err := pool.Map(ctx, prs, s.concurrency(),
		func(ctx context.Context, pr *types.PullRequest) (*types.PendingPullRequest, error) {
			defer func() {
				if n := completed.Add(1); n%progressInterval == 0 || n == int64(total) {
					slog.Info("Review state progress", "completed", n, "total", total)
				}
			}()
			review, err := s.source.ReviewState(ctx, pr.Repo, pr.Number)
			if err != nil {
				slog.Warn("Dropping PR from report: review state unavailable", "pr", pr.Repo, "number", pr.Number, "error", err)
				return nil, nil //nolint:nilnil // drop marker, batch must continue
			}
			approvals := countApprovals(review.Reviews)
			return &types.PendingPullRequest{
				Repo:            pr.Repo,
				Number:          pr.Number,
				Title:           pr.Title,
				URL:             pr.URL,
				Author:          pr.Author,
				Approvals:       approvals,
				ApprovalsNeeded: approvalsNeeded(review.ReviewDecision, approvals),
			}, nil
		})
	if err != nil {
		return nil, err
	}

	var pending []types.PendingPullRequest
	for _, pr := range resolved {
		if pr != nil {
			pending = append(pending, *pr)
		}
	}
	return pending, nil
}

// countApprovals counts distinct reviewers whose latest review approved
// the PR. Reviews arrive oldest first, so later entries supersede earlier
// ones per reviewer.
func countApprovals(reviews []types.Review) int {
	latest := make(map[string]string)
	for _, review := range reviews {
		if review.Author == "" {
			continue
		}
		latest[review.Author] = review.State
	}
	count := 0
	for _, state := range latest {
		if state == "APPROVED" {
			count++
		}
	}
	return count
}

// approvalsNeeded maps a review decision and approval count onto the
// signed approvals-needed encoding: 0 approved, types.ChangesRequested,
// or the approvals still missing under the fixed threshold.
func approvalsNeeded(reviewDecision string, approvals int) int {
	switch reviewDecision {
	case "APPROVED":
		return 0
	case "CHANGES_REQUESTED":
		return types.ChangesRequested
	default:
		return max(0, approvalThreshold-approvals)
	}
}

// isBotAuthor reports whether the author login belongs to a known bot.
func isBotAuthor(author string) bool {
	lower := strings.ToLower(author)
	for _, bot := range botAuthorSubstrings {
		if strings.Contains(lower, bot) {
			return true
		}
	}
	return false
}

// FormatPendingReport renders the pending-review report grouped by
// approval state.
func FormatPendingReport(prs []types.PendingPullRequest) string {
	if len(prs) == 0 {
		return "\n  ✅ No pull requests are waiting for your review\n"
	}

	var needsOne, needsMore, changes, approved []types.PendingPullRequest
	for _, pr := range prs {
		switch {
		case pr.ApprovalsNeeded == 1:
			needsOne = append(needsOne, pr)
		case pr.ApprovalsNeeded > 1:
			needsMore = append(needsMore, pr)
		case pr.ApprovalsNeeded == types.ChangesRequested:
			changes = append(changes, pr)
		default:
			approved = append(approved, pr)
		}
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString(fmt.Sprintf("  📋 Pending review: %d PRs\n", len(prs)))
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	writeBucket(&b, "🚀 One approval away", needsOne)
	writeBucket(&b, "🔍 Needs review", needsMore)
	writeBucket(&b, "🔧 Changes requested", changes)
	writeBucket(&b, "✅ Approved, awaiting merge", approved)
	return b.String()
}

func writeBucket(b *strings.Builder, header string, prs []types.PendingPullRequest) {
	if len(prs) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\n  %s:\n", header))
	for _, pr := range prs {
		b.WriteString(fmt.Sprintf("  • %s#%d %s (@%s, %d approvals)\n", pr.Repo, pr.Number, pr.Title, pr.Author, pr.Approvals))
		if pr.URL != "" {
			b.WriteString(fmt.Sprintf("    └─ %s\n", pr.URL))
		}
	}
}
