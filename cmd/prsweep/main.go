// Command prsweep triages GitHub PR notification emails: it reconciles
// each email against live pull request state, moves the safe-to-discard
// ones to the trash, and reports which PRs still wait for your review.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/prsweep/prsweep/pkg/github"
	"github.com/prsweep/prsweep/pkg/gmail"
	"github.com/prsweep/prsweep/pkg/triage"
	"github.com/prsweep/prsweep/pkg/types"

	"github.com/joho/godotenv"
)

var (
	// Identity and auth flags
	user       = flag.String("user", "", "GitHub handle to triage for (default: the authenticated user)")
	token      = flag.String("token", "", "GitHub personal access token (default: GITHUB_TOKEN or gh auth token)")
	useAppAuth = flag.Bool("app", false, "Use GitHub App authentication")
	appID      = flag.String("app-id", "", "GitHub App ID (or GITHUB_APP_ID)")
	appKey     = flag.String("app-key", "", "Path to the GitHub App private key (or GITHUB_APP_KEY)")
	org        = flag.String("org", "", "Organization the App installation belongs to")

	// Behavior flags
	confirm            = flag.Bool("confirm", false, "Actually move emails to trash (default is a dry run)")
	pendingOnly        = flag.Bool("pending", false, "Only print the pending-review report, skip the mailbox")
	label              = flag.String("label", "", "Gmail label to scan (default INBOX)")
	skipMentions       = flag.Bool("skip-mentions", false, "Delete closed/merged PR emails even when you are @-mentioned")
	skipReviewRequests = flag.Bool("skip-review-requests", false, "Delete closed/merged PR emails even when your review was requested")
	ciDays             = flag.Int("ci-days", 0, "Delete CI/workflow emails older than this many days (0 disables)")
	excludeBots        = flag.Bool("exclude-bots", false, "Hide bot-authored PRs from the pending-review report")
	concurrency        = flag.Int("concurrency", triage.DefaultConcurrency, "Maximum in-flight GitHub lookups")
	verbose            = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx := context.Background()
	client, err := github.New(ctx, github.Config{
		Token:       *token,
		AppID:       *appID,
		AppKeyPath:  *appKey,
		Org:         *org,
		UseAppAuth:  *useAppAuth,
		HTTPTimeout: 30 * time.Second,
		CacheTTL:    1 * time.Hour,
	})
	if err != nil {
		log.Fatalf("Failed to create GitHub client: %v", err)
	}

	session := triage.NewSession(client, triage.Options{
		User:               *user,
		SkipMentions:       *skipMentions,
		SkipReviewRequests: *skipReviewRequests,
		CIDays:             *ciDays,
		ExcludeBots:        *excludeBots,
		Concurrency:        *concurrency,
	})

	if !*pendingOnly {
		if err := sweepEmails(ctx, session); err != nil {
			log.Fatalf("Failed to triage emails: %v", err)
		}
	}

	pending, err := session.PendingReview(ctx)
	if err != nil {
		log.Fatalf("Failed to build pending-review report: %v", err)
	}
	fmt.Print(triage.FormatPendingReport(pending))
}

// sweepEmails runs the mailbox phase: fetch, reconcile, decide, and (only
// with -confirm) move the deletion set to the trash.
func sweepEmails(ctx context.Context, session *triage.Session) error {
	mailbox, err := gmail.New(ctx, gmail.Config{})
	if err != nil {
		return err
	}

	emails, err := mailbox.Fetch(ctx, *label)
	if err != nil {
		return err
	}

	var refs []types.PullRequestReference
	for _, email := range emails {
		if email.IsPR() {
			refs = append(refs, types.PullRequestReference{Repo: email.Repo, Number: email.Number})
		}
	}

	statuses, err := session.ReconcileStatuses(ctx, refs)
	if err != nil {
		return err
	}

	candidates := session.DeletionCandidates(emails, statuses, time.Now())
	if len(candidates) == 0 {
		fmt.Printf("\n  ✨ Nothing to clean up: %d emails, all worth keeping\n", len(emails))
		return nil
	}

	for _, candidate := range candidates {
		fmt.Printf("  🗑  %s — %s\n", candidate.Email.Subject, candidate.Reason)
	}

	if !*confirm {
		fmt.Printf("\n  🔍 [DRY RUN] Would trash %d of %d emails (re-run with -confirm)\n", len(candidates), len(emails))
		return nil
	}

	ids := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		ids = append(ids, candidate.Email.ID)
	}
	trashed, failures := mailbox.Trash(ctx, ids)
	fmt.Printf("\n  ✅ Trashed %d of %d emails (%d failed)\n", trashed, len(ids), len(failures))
	for _, failure := range failures {
		slog.Error("Trash failed", "id", failure.ID, "error", failure.Err)
	}
	return nil
}
