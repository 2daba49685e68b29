package triage

import (
	"testing"
	"time"

	"github.com/prsweep/prsweep/pkg/types"
)

var policyNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func prEmail(id string) types.NotificationEmail {
	return types.NotificationEmail{
		ID:       id,
		Subject:  "[octo/repo] Fix the frobnicator (PR #7)",
		Repo:     "octo/repo",
		Number:   7,
		Received: policyNow.AddDate(0, 0, -1),
	}
}

func statusMap(status *types.PullRequestStatus) map[string]*types.PullRequestStatus {
	return map[string]*types.PullRequestStatus{"octo/repo#7": status}
}

func TestDeletionCandidates_ClosedPRIsDeleted(t *testing.T) {
	session := NewSession(nil, Options{User: "alice"})
	candidates := session.DeletionCandidates(
		[]types.NotificationEmail{prEmail("m1")},
		statusMap(&types.PullRequestStatus{Repo: "octo/repo", Number: 7, State: types.StateClosed}),
		policyNow,
	)

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Email.ID != "m1" {
		t.Errorf("wrong email selected: %s", candidates[0].Email.ID)
	}
	if got := candidates[0].Reason; got != "closed PR, not specifically mentioned" {
		t.Errorf("reason = %q", got)
	}
}

func TestDeletionCandidates_MergedReason(t *testing.T) {
	session := NewSession(nil, Options{User: "alice"})
	candidates := session.DeletionCandidates(
		[]types.NotificationEmail{prEmail("m1")},
		statusMap(&types.PullRequestStatus{State: types.StateMerged, Merged: true}),
		policyNow,
	)

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if got := candidates[0].Reason; got != "merged PR, not specifically mentioned" {
		t.Errorf("reason = %q", got)
	}
}

func TestDeletionCandidates_OpenPRIsAlwaysKept(t *testing.T) {
	// Mention/reviewer flags and overrides must not matter for open PRs.
	for _, opts := range []Options{
		{User: "alice"},
		{User: "alice", SkipMentions: true, SkipReviewRequests: true},
	} {
		session := NewSession(nil, opts)
		candidates := session.DeletionCandidates(
			[]types.NotificationEmail{prEmail("m1")},
			statusMap(&types.PullRequestStatus{State: types.StateOpen, Mentioned: true, RequestedReviewer: true}),
			policyNow,
		)
		if len(candidates) != 0 {
			t.Errorf("open PR email selected for deletion with opts %+v", opts)
		}
	}
}

func TestDeletionCandidates_MentionIsProtective(t *testing.T) {
	status := &types.PullRequestStatus{State: types.StateMerged, Merged: true, Mentioned: true}

	session := NewSession(nil, Options{User: "alice"})
	if got := session.DeletionCandidates([]types.NotificationEmail{prEmail("m1")}, statusMap(status), policyNow); len(got) != 0 {
		t.Error("mentioned email deleted without the skip-mentions override")
	}

	session = NewSession(nil, Options{User: "alice", SkipMentions: true})
	if got := session.DeletionCandidates([]types.NotificationEmail{prEmail("m1")}, statusMap(status), policyNow); len(got) != 1 {
		t.Error("skip-mentions override did not delete the mentioned email")
	}
}

func TestDeletionCandidates_ReviewRequestIsProtective(t *testing.T) {
	status := &types.PullRequestStatus{State: types.StateClosed, RequestedReviewer: true}

	session := NewSession(nil, Options{User: "alice"})
	if got := session.DeletionCandidates([]types.NotificationEmail{prEmail("m1")}, statusMap(status), policyNow); len(got) != 0 {
		t.Error("review-requested email deleted without the skip-review-requests override")
	}

	session = NewSession(nil, Options{User: "alice", SkipReviewRequests: true})
	if got := session.DeletionCandidates([]types.NotificationEmail{prEmail("m1")}, statusMap(status), policyNow); len(got) != 1 {
		t.Error("skip-review-requests override did not delete the email")
	}
}

func TestDeletionCandidates_ErrorStatusIsAlwaysKept(t *testing.T) {
	session := NewSession(nil, Options{User: "alice", SkipMentions: true, SkipReviewRequests: true})
	candidates := session.DeletionCandidates(
		[]types.NotificationEmail{prEmail("m1")},
		statusMap(&types.PullRequestStatus{State: types.StateClosed, Err: "PR not found"}),
		policyNow,
	)
	if len(candidates) != 0 {
		t.Error("error-carrying status must never lead to deletion")
	}
}

func TestDeletionCandidates_MissingStatusIsKept(t *testing.T) {
	session := NewSession(nil, Options{User: "alice"})
	candidates := session.DeletionCandidates(
		[]types.NotificationEmail{prEmail("m1")},
		map[string]*types.PullRequestStatus{},
		policyNow,
	)
	if len(candidates) != 0 {
		t.Error("email with no reconciled status must be kept")
	}
}

func TestDeletionCandidates_AgedCIEmail(t *testing.T) {
	ciEmail := types.NotificationEmail{
		ID:       "ci1",
		Subject:  "[octo/repo] Workflow run succeeded: CI - main (abc1234)",
		Received: policyNow.AddDate(0, 0, -10),
	}

	session := NewSession(nil, Options{User: "alice", CIDays: 3})
	candidates := session.DeletionCandidates([]types.NotificationEmail{ciEmail}, nil, policyNow)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if got := candidates[0].Reason; got != "CI email older than 3 days" {
		t.Errorf("reason = %q", got)
	}

	// Threshold unset: the CI pass never runs.
	session = NewSession(nil, Options{User: "alice"})
	if got := session.DeletionCandidates([]types.NotificationEmail{ciEmail}, nil, policyNow); len(got) != 0 {
		t.Error("CI email considered with ci-days unset")
	}
}

func TestDeletionCandidates_CIThresholdIsStrict(t *testing.T) {
	tests := []struct {
		name     string
		received time.Time
		want     int
	}{
		{"older than threshold", policyNow.AddDate(0, 0, -4), 1},
		{"exactly at threshold", policyNow.AddDate(0, 0, -3), 0},
		{"younger than threshold", policyNow.AddDate(0, 0, -2), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := NewSession(nil, Options{User: "alice", CIDays: 3})
			email := types.NotificationEmail{ID: "ci1", Subject: "Run failed: tests", Received: tt.received}
			if got := session.DeletionCandidates([]types.NotificationEmail{email}, nil, policyNow); len(got) != tt.want {
				t.Errorf("got %d candidates, want %d", len(got), tt.want)
			}
		})
	}
}

func TestIsCISubject(t *testing.T) {
	tests := []struct {
		subject string
		want    bool
	}{
		{"Run failed: CI", true},
		{"Run succeeded: deploy", true},
		{"Run cancelled: lint", true},
		{"Run skipped: docs", true},
		{"Your workflow run finished", true},
		{"RUN FAILED", true},
		{"Please review my change", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isCISubject(tt.subject); got != tt.want {
			t.Errorf("isCISubject(%q) = %v, want %v", tt.subject, got, tt.want)
		}
	}
}

func TestDeletionCandidates_PRCandidatesBeforeCICandidates(t *testing.T) {
	ciEmail := types.NotificationEmail{
		ID:       "ci1",
		Subject:  "Run failed: CI",
		Received: policyNow.AddDate(0, 0, -30),
	}

	session := NewSession(nil, Options{User: "alice", CIDays: 3})
	candidates := session.DeletionCandidates(
		[]types.NotificationEmail{ciEmail, prEmail("m1")},
		statusMap(&types.PullRequestStatus{State: types.StateClosed}),
		policyNow,
	)

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Email.ID != "m1" || candidates[1].Email.ID != "ci1" {
		t.Errorf("wrong order: %s, %s", candidates[0].Email.ID, candidates[1].Email.ID)
	}
}
