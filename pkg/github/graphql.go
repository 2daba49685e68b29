package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const graphQLEndpoint = "https://api.github.com/graphql"

// graphQLRequest posts a GraphQL query and returns the raw "data" payload.
// Call sites decode it into their own typed response structs.
func (c *Client) graphQLRequest(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	if c.isAppAuth {
		if err := c.refreshJWTIfNeeded(); err != nil {
			return nil, fmt.Errorf("failed to refresh JWT: %w", err)
		}
	}

	payload := map[string]any{
		"query":     query,
		"variables": variables,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	var result struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"errors"`
	}

	err = retryWithBackoff(ctx, "GraphQL query", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, graphQLEndpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("failed to create GraphQL request: %w", err)
		}

		authToken, err := c.authToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+authToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("graphql request failed: %w", err)
		}
		defer drainAndCloseBody(resp.Body)

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("http %d: rate limited", resp.StatusCode)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("http %d: server error", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("graphql request failed with status %d: %s", resp.StatusCode, string(body))
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("failed to decode GraphQL response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, gqlErr := range result.Errors {
		if gqlErr.Type == "NOT_FOUND" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, gqlErr.Message)
		}
	}
	if len(result.Errors) > 0 {
		slog.Error("GraphQL query returned errors", "errors", result.Errors)
		return nil, fmt.Errorf("graphql errors: %s", result.Errors[0].Message)
	}
	return result.Data, nil
}
