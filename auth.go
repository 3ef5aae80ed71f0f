package tedee

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// tokenExpiryBuffer is how long before expiry a cached token is
// considered stale and refreshed.
const tokenExpiryBuffer = 120 * time.Second

// accessToken is a cached bearer token with its absolute expiry.
type accessToken struct {
	value     string
	expiresAt time.Time
}

// valid reports whether the token can still be used at the given time,
// accounting for the expiry buffer.
func (t *accessToken) valid(now time.Time) bool {
	if t == nil || t.value == "" {
		return false
	}
	return now.Before(t.expiresAt.Add(-tokenExpiryBuffer))
}

// tokenResponse is the OAuth2 token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type,omitempty"`
}

// GetAccessToken returns a valid bearer token, refreshing it through the
// password grant when the cached one is missing or within the expiry
// buffer. Concurrent callers at expiry share a single refresh.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token.valid(c.now()) {
		token := c.token.value
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.refreshGroup.Do("token", func() (any, error) {
		// A concurrent flight may have refreshed while this caller was
		// waiting to enter the group.
		c.mu.Lock()
		if c.token.valid(c.now()) {
			token := c.token.value
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()

		token, err := withRetry(ctx, c.tokenRetry, func() (*accessToken, error) {
			return c.requestToken(ctx)
		})
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.token = token
		c.mu.Unlock()

		return token.value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// InvalidateToken drops the cached token so the next call performs a
// fresh password grant. Useful after a credentials change.
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

// requestToken performs a single password-grant request against the
// token endpoint.
func (c *Client) requestToken(ctx context.Context) (*accessToken, error) {
	data := url.Values{}
	data.Set("grant_type", "password")
	data.Set("username", c.creds.Username)
	data.Set("password", c.creds.Password)
	data.Set("client_id", c.creds.ClientID)
	data.Set("scope", "openid "+c.creds.ClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.LogResponse(ctx, http.MethodPost, "/oauth2/token", 0, time.Since(start), err)
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	c.LogResponse(ctx, http.MethodPost, "/oauth2/token", resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
			var errResp struct {
				Error            string `json:"error"`
				ErrorDescription string `json:"error_description"`
			}
			if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error == "invalid_grant" {
				return nil, ErrUnauthorized
			}
		}
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, truncatePreview(body))
	}

	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("token response carried no access token")
	}

	return &accessToken{
		value:     tokens.AccessToken,
		expiresAt: c.now().Add(time.Duration(tokens.ExpiresIn) * time.Second),
	}, nil
}
