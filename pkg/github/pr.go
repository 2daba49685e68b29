package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prsweep/prsweep/pkg/types"
)

// PullRequest fetches a single pull request with the fields the status
// resolver needs: state, merged flag, author, body, and requested
// reviewers. A missing or invisible PR is reported as ErrNotFound.
func (c *Client) PullRequest(ctx context.Context, repo string, number int) (*types.PullRequest, error) {
	cacheKey := fmt.Sprintf("pr:%s#%d", repo, number)
	if cached, found := c.cache.Get(cacheKey); found {
		if pr, ok := cached.(*types.PullRequest); ok {
			return pr, nil
		}
	}

	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	slog.Info("Fetching PR state, author, body, and requested reviewers", "component", "api", "repo", repo, "pr", number)
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/pulls/%d", owner, name, number)
	resp, err := c.doRequest(ctx, http.MethodGet, apiURL, nil) //nolint:bodyclose // closed via drainAndCloseBody
	if err != nil {
		return nil, err
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s#%d", ErrNotFound, repo, number)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get PR %s#%d (status %d)", repo, number, resp.StatusCode)
	}

	var prData struct {
		Title   string  `json:"title"`
		State   string  `json:"state"`
		Body    *string `json:"body"`
		HTMLURL string  `json:"html_url"`
		User    struct {
			Login string `json:"login"`
		} `json:"user"`
		RequestedReviewers []struct {
			Login string `json:"login"`
		} `json:"requested_reviewers"`
		Number int  `json:"number"`
		Merged bool `json:"merged"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&prData); err != nil {
		return nil, fmt.Errorf("failed to decode pull request: %w", err)
	}

	var reviewers []string
	for _, reviewer := range prData.RequestedReviewers {
		reviewers = append(reviewers, reviewer.Login)
	}
	body := ""
	if prData.Body != nil {
		body = *prData.Body
	}

	pr := &types.PullRequest{
		Repo:               repo,
		Number:             prData.Number,
		State:              prData.State,
		Merged:             prData.Merged,
		Author:             prData.User.Login,
		Body:               body,
		Title:              prData.Title,
		URL:                prData.HTMLURL,
		RequestedReviewers: reviewers,
	}
	c.cache.Set(cacheKey, pr)
	return pr, nil
}

// splitRepo splits an "owner/name" repository identifier.
func splitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository %q: want owner/name", repo)
	}
	return owner, name, nil
}
