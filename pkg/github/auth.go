package github

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/prsweep/prsweep/pkg/cache"

	"github.com/golang-jwt/jwt/v5"
)

// Authentication constants.
const (
	minTokenLength = 40  // Minimum expected length for GitHub tokens
	maxTokenLength = 100 // Maximum expected length for GitHub tokens
	jwtLifetime    = 10 * time.Minute
	jwtRefreshPad  = 1 * time.Minute
)

// newPersonalTokenClient creates a GitHub client with personal token
// authentication. An empty token falls back to `gh auth token`.
func newPersonalTokenClient(ctx context.Context, cfg Config) (*Client, error) {
	token := cfg.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		cmd := exec.CommandContext(ctx, "gh", "auth", "token")
		output, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("failed to get GitHub token: %w", err)
		}
		token = strings.TrimSpace(string(output))
	}

	if err := validateToken(token); err != nil {
		return nil, err
	}

	slog.Info("Using personal access token authentication", "component", "auth")

	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		cache:      cache.New(cfg.CacheTTL),
		token:      token,
		org:        cfg.Org,
	}, nil
}

// newAppAuthClient creates a GitHub client with App authentication.
func newAppAuthClient(_ context.Context, cfg Config) (*Client, error) {
	appID := cfg.AppID
	if appID == "" {
		appID = os.Getenv("GITHUB_APP_ID")
	}
	if appID == "" {
		return nil, errors.New("GitHub App ID is required (flag -app-id or GITHUB_APP_ID)")
	}

	privateKey, err := loadPrivateKey(cfg.AppKeyPath)
	if err != nil {
		return nil, err
	}

	jwtToken, err := generateJWT(appID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}
	slog.Info("Generated JWT for GitHub App", "component", "auth", "app_id", appID)

	return &Client{
		httpClient:        &http.Client{Timeout: cfg.HTTPTimeout},
		cache:             cache.New(cfg.CacheTTL),
		token:             jwtToken,
		tokenExpiry:       time.Now().Add(jwtLifetime),
		appID:             appID,
		privateKeyContent: privateKey,
		org:               cfg.Org,
		isAppAuth:         true,
	}, nil
}

// loadPrivateKey reads the App private key from the given path or from the
// GITHUB_APP_KEY / GITHUB_APP_KEY_PATH environment variables.
func loadPrivateKey(keyPath string) ([]byte, error) {
	if keyPath == "" {
		if keyContent := os.Getenv("GITHUB_APP_KEY"); keyContent != "" {
			return []byte(keyContent), nil
		}
		keyPath = os.Getenv("GITHUB_APP_KEY_PATH")
	}
	if keyPath == "" {
		return nil, errors.New("GitHub App private key is required (flag -app-key, GITHUB_APP_KEY, or GITHUB_APP_KEY_PATH)")
	}
	content, err := os.ReadFile(keyPath) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	return content, nil
}

// generateJWT generates a JWT token for GitHub App authentication.
func generateJWT(appID string, privateKey []byte) (string, error) {
	block, _ := pem.Decode(privateKey)
	if block == nil {
		return "", errors.New("failed to parse PEM block containing the private key")
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS8 format if PKCS1 fails
		parsedKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return "", fmt.Errorf("failed to parse private key: %w", err)
		}
		var ok bool
		key, ok = parsedKey.(*rsa.PrivateKey)
		if !ok {
			return "", errors.New("private key is not RSA")
		}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(jwtLifetime).Unix(), // GitHub App JWTs expire after 10 minutes max
		"iss": appID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(key)
}

// refreshJWTIfNeeded regenerates the App JWT shortly before it expires.
func (c *Client) refreshJWTIfNeeded() error {
	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()
	if time.Until(c.tokenExpiry) > jwtRefreshPad {
		return nil
	}
	jwtToken, err := generateJWT(c.appID, c.privateKeyContent)
	if err != nil {
		return err
	}
	c.token = jwtToken
	c.tokenExpiry = time.Now().Add(jwtLifetime)
	return nil
}

// installationToken returns a (cached) installation token for the
// configured organization.
func (c *Client) installationToken(ctx context.Context) (string, error) {
	c.tokenMutex.RLock()
	if c.installToken != "" && time.Until(c.installExpiry) > jwtRefreshPad {
		token := c.installToken
		c.tokenMutex.RUnlock()
		return token, nil
	}
	c.tokenMutex.RUnlock()

	id, err := c.installationID(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("https://api.github.com/app/installations/%d/access_tokens", id), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.tokenMutex.RLock()
	req.Header.Set("Authorization", "Bearer "+c.token)
	c.tokenMutex.RUnlock()
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("installation token request failed: %w", err)
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("installation token request failed (status %d)", resp.StatusCode)
	}

	var tokenData struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenData); err != nil {
		return "", fmt.Errorf("failed to decode installation token: %w", err)
	}

	c.tokenMutex.Lock()
	c.installToken = tokenData.Token
	c.installExpiry = tokenData.ExpiresAt
	c.tokenMutex.Unlock()
	return tokenData.Token, nil
}

// installationID resolves the App installation for the configured org.
func (c *Client) installationID(ctx context.Context) (int, error) {
	c.tokenMutex.RLock()
	if c.installID != 0 {
		id := c.installID
		c.tokenMutex.RUnlock()
		return id, nil
	}
	token := c.token
	c.tokenMutex.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("https://api.github.com/orgs/%s/installation", c.org), http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("installation lookup failed: %w", err)
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("no App installation for org %q (status %d)", c.org, resp.StatusCode)
	}

	var installData struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&installData); err != nil {
		return 0, fmt.Errorf("failed to decode installation: %w", err)
	}

	c.tokenMutex.Lock()
	c.installID = installData.ID
	c.tokenMutex.Unlock()
	return installData.ID, nil
}

// validateToken performs a basic sanity check on a GitHub token.
func validateToken(token string) error {
	if len(token) < minTokenLength || len(token) > maxTokenLength {
		return fmt.Errorf("token length %d outside expected range [%d, %d]", len(token), minTokenLength, maxTokenLength)
	}
	for _, r := range token {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return errors.New("token contains unexpected characters")
		}
	}
	return nil
}
