package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// CurrentLogin returns the login of the authenticated user. Used only when
// no explicit user handle is configured.
func (c *Client) CurrentLogin(ctx context.Context) (string, error) {
	if cached, found := c.cache.Get("current-login"); found {
		if login, ok := cached.(string); ok {
			return login, nil
		}
	}

	slog.Info("Resolving authenticated user", "component", "api")
	resp, err := c.doRequest(ctx, http.MethodGet, "https://api.github.com/user", nil) //nolint:bodyclose // closed via drainAndCloseBody
	if err != nil {
		return "", err
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get authenticated user (status %d)", resp.StatusCode)
	}

	var userData struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userData); err != nil {
		return "", fmt.Errorf("failed to decode user: %w", err)
	}
	if userData.Login == "" {
		return "", errors.New("authenticated user has no login")
	}

	c.cache.Set("current-login", userData.Login)
	return userData.Login, nil
}
