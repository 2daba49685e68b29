package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prsweep/prsweep/pkg/types"
)

// searchPageLimit caps a review-requested search at one page.
const searchPageLimit = 100

// SearchReviewRequested returns open pull requests where user is a
// requested reviewer, capped at limit results (at most one 100-item page).
func (c *Client) SearchReviewRequested(ctx context.Context, user string, limit int) ([]*types.PullRequest, error) {
	if limit <= 0 || limit > searchPageLimit {
		limit = searchPageLimit
	}

	query := `
	query($searchQuery: String!, $limit: Int!) {
		search(query: $searchQuery, type: ISSUE, first: $limit) {
			nodes {
				... on PullRequest {
					number
					title
					url
					author { login }
					repository { nameWithOwner }
				}
			}
		}
	}`
	variables := map[string]any{
		"searchQuery": fmt.Sprintf("is:pr is:open review-requested:%s archived:false", user),
		"limit":       limit,
	}

	slog.Info("Searching open PRs awaiting review", "component", "api", "user", user, "limit", limit)
	data, err := c.graphQLRequest(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("review-requested search failed: %w", err)
	}

	var result struct {
		Search struct {
			Nodes []struct {
				Number int    `json:"number"`
				Title  string `json:"title"`
				URL    string `json:"url"`
				Author struct {
					Login string `json:"login"`
				} `json:"author"`
				Repository struct {
					NameWithOwner string `json:"nameWithOwner"`
				} `json:"repository"`
			} `json:"nodes"`
		} `json:"search"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	prs := make([]*types.PullRequest, 0, len(result.Search.Nodes))
	for _, node := range result.Search.Nodes {
		if node.Number == 0 || node.Repository.NameWithOwner == "" {
			continue
		}
		prs = append(prs, &types.PullRequest{
			Repo:   node.Repository.NameWithOwner,
			Number: node.Number,
			Title:  node.Title,
			URL:    node.URL,
			Author: node.Author.Login,
			State:  types.StateOpen,
		})
	}
	return prs, nil
}
