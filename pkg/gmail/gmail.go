// Package gmail is the mailbox adapter: it scans a Gmail mailbox for
// GitHub notification emails and moves triaged ones to the trash.
package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prsweep/prsweep/pkg/types"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// notificationSender is the fixed GitHub notification sender address.
const notificationSender = "notifications@github.com"

// Mailbox wraps the Gmail API for notification triage.
type Mailbox struct {
	svc *gmailapi.Service
}

// Config locates the OAuth client credentials and the cached user token.
type Config struct {
	CredentialsFile string // OAuth client secret JSON (GMAIL_CREDENTIALS)
	TokenFile       string // cached oauth2.Token JSON (GMAIL_TOKEN)
}

// New creates a Mailbox from stored OAuth credentials. Token acquisition
// is external: the token file must already exist (for example from a
// one-time `prsweep -authorize` style flow or gcloud tooling); this
// adapter only refreshes it.
func New(ctx context.Context, cfg Config) (*Mailbox, error) {
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = os.Getenv("GMAIL_CREDENTIALS")
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = os.Getenv("GMAIL_TOKEN")
	}
	if cfg.CredentialsFile == "" || cfg.TokenFile == "" {
		return nil, errors.New("gmail credentials are required (GMAIL_CREDENTIALS and GMAIL_TOKEN)")
	}

	secret, err := os.ReadFile(cfg.CredentialsFile) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read OAuth client secret: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(secret, gmailapi.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth client secret: %w", err)
	}

	token, err := loadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Mailbox{svc: svc}, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read Gmail token (authorize first): %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode Gmail token: %w", err)
	}
	return &token, nil
}

// Fetch lists GitHub notification emails under the given label (INBOX when
// empty) and parses repository and PR number out of each subject.
func (m *Mailbox) Fetch(ctx context.Context, label string) ([]types.NotificationEmail, error) {
	if label == "" {
		label = "INBOX"
	}

	var emails []types.NotificationEmail
	pageToken := ""
	for {
		call := m.svc.Users.Messages.List("me").
			Q("from:" + notificationSender).
			LabelIds(label).
			MaxResults(500).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, ref := range page.Messages {
			email, err := m.fetchOne(ctx, ref.Id)
			if err != nil {
				return nil, err
			}
			emails = append(emails, email)
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	slog.Info("Fetched notification emails", "label", label, "count", len(emails))
	return emails, nil
}

func (m *Mailbox) fetchOne(ctx context.Context, id string) (types.NotificationEmail, error) {
	msg, err := m.svc.Users.Messages.Get("me", id).
		Format("metadata").
		MetadataHeaders("Subject").
		Context(ctx).
		Do()
	if err != nil {
		return types.NotificationEmail{}, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	subject := ""
	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			if header.Name == "Subject" {
				subject = header.Value
				break
			}
		}
	}

	repo, number := ParseSubject(subject)
	return types.NotificationEmail{
		ID:       id,
		Subject:  subject,
		Received: time.UnixMilli(msg.InternalDate),
		Repo:     repo,
		Number:   number,
	}, nil
}

// TrashFailure records one email that could not be moved to trash.
type TrashFailure struct {
	ID  string
	Err error
}

// Trash moves the given emails to the Gmail trash. Failures are collected
// per email and do not abort the rest of the batch; an email that is
// already gone counts as success, so retries are idempotent.
func (m *Mailbox) Trash(ctx context.Context, ids []string) (trashed int, failures []TrashFailure) {
	for _, id := range ids {
		_, err := m.svc.Users.Messages.Trash("me", id).Context(ctx).Do()
		if err != nil {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
				trashed++
				continue
			}
			slog.Warn("Failed to trash email", "id", id, "error", err)
			failures = append(failures, TrashFailure{ID: id, Err: err})
			continue
		}
		trashed++
	}
	return trashed, failures
}
