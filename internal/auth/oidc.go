package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/openlink/openlink/internal/common/errors"
)

// OIDCClient exchanges authorization codes against a provider's token
// endpoint.
type OIDCClient struct {
	httpClient *http.Client
}

// NewOIDCClient creates a client with a bounded request timeout.
func NewOIDCClient(timeout time.Duration) *OIDCClient {
	return &OIDCClient{httpClient: &http.Client{Timeout: timeout}}
}

type oidcTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ExchangeCode sends the authorization code to the provider and returns the
// user's CID. Transport failures map to 502, provider rejections to 401.
//
// The CID is read from the access token, which the identity provider issues
// in the form "{prefix}_{cid}". A production deployment would validate the
// id_token and read its sub claim instead.
func (c *OIDCClient) ExchangeCode(ctx context.Context, tokenURL, code string) (string, error) {
	form := url.Values{
		"code":       {code},
		"grant_type": {"authorization_code"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperrors.InternalError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.BadGateway("identity provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", apperrors.Unauthorized(fmt.Sprintf("provider returned error: %s", strings.TrimSpace(string(body))))
	}

	var token oidcTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", apperrors.BadGateway("invalid token response", err)
	}
	if token.AccessToken == "" {
		return "", apperrors.Unauthorized("missing access_token")
	}
	return extractCIDFromToken(token.AccessToken)
}

// extractCIDFromToken takes everything after the last underscore as the CID.
func extractCIDFromToken(token string) (string, error) {
	cid := token
	if idx := strings.LastIndexByte(token, '_'); idx >= 0 {
		cid = token[idx+1:]
	}
	if cid == "" {
		return "", apperrors.Unauthorized(fmt.Sprintf("unexpected access_token format: %s", token))
	}
	return cid, nil
}
