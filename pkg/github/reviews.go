package github

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prsweep/prsweep/pkg/types"
)

// ReviewState fetches the reviews and the overall review decision for one
// pull request.
func (c *Client) ReviewState(ctx context.Context, repo string, number int) (*types.ReviewState, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	query := `
	query($owner: String!, $name: String!, $number: Int!) {
		repository(owner: $owner, name: $name) {
			pullRequest(number: $number) {
				reviewDecision
				reviews(last: 100) {
					nodes {
						author { login }
						state
					}
				}
			}
		}
	}`
	variables := map[string]any{
		"owner":  owner,
		"name":   name,
		"number": number,
	}

	data, err := c.graphQLRequest(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("review state query failed for %s#%d: %w", repo, number, err)
	}

	var result struct {
		Repository struct {
			PullRequest *struct {
				ReviewDecision string `json:"reviewDecision"`
				Reviews        struct {
					Nodes []struct {
						Author struct {
							Login string `json:"login"`
						} `json:"author"`
						State string `json:"state"`
					} `json:"nodes"`
				} `json:"reviews"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode review state: %w", err)
	}
	if result.Repository.PullRequest == nil {
		return nil, fmt.Errorf("%w: %s#%d", ErrNotFound, repo, number)
	}

	state := &types.ReviewState{
		ReviewDecision: result.Repository.PullRequest.ReviewDecision,
	}
	for _, node := range result.Repository.PullRequest.Reviews.Nodes {
		state.Reviews = append(state.Reviews, types.Review{
			Author: node.Author.Login,
			State:  node.State,
		})
	}
	return state, nil
}
