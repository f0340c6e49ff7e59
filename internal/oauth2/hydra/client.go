// Package hydra implements the remote authorization server collaborator
// for the opaque-token integration: token introspection, client lookup,
// and mirroring of certificate bindings into client metadata.
package hydra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"authgate/internal/oauth2/models"
)

// certificateMetadataKey is where the bound client certificate lives in
// the authorization server's client metadata.
const certificateMetadataKey = "client_certificate"

// Client talks to the authorization server's admin API. All calls are
// synchronous and unretried; a failed call fails the authentication
// attempt that issued it.
type Client struct {
	adminURL   string
	httpClient *http.Client
}

// New builds a client for the admin API at adminURL.
func New(adminURL string, timeout time.Duration) *Client {
	return &Client{
		adminURL:   strings.TrimSuffix(adminURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type introspectionResponse struct {
	Active    bool   `json:"active"`
	Issuer    string `json:"iss"`
	ClientID  string `json:"client_id"`
	Subject   string `json:"sub"`
	Audience  any    `json:"aud"`
	Username  string `json:"username"`
	Scope     string `json:"scope"`
	Expiry    int64  `json:"exp"`
	NotBefore int64  `json:"nbf"`
}

// IntrospectToken asks the authorization server whether token is active
// and for its associated claims.
func (c *Client) IntrospectToken(ctx context.Context, token string) (*models.Introspection, error) {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.adminURL+"/admin/oauth2/introspect", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspect token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("introspect token: unexpected status %d", resp.StatusCode)
	}

	var payload introspectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode introspection response: %w", err)
	}

	intro := &models.Introspection{
		Active:    payload.Active,
		Issuer:    payload.Issuer,
		ClientID:  payload.ClientID,
		Subject:   payload.Subject,
		Username:  payload.Username,
		Scope:     payload.Scope,
		Expiry:    payload.Expiry,
		NotBefore: payload.NotBefore,
	}
	switch aud := payload.Audience.(type) {
	case string:
		intro.Audience = aud
	case []any:
		parts := make([]string, 0, len(aud))
		for _, a := range aud {
			if s, ok := a.(string); ok {
				parts = append(parts, s)
			}
		}
		intro.Audience = strings.Join(parts, " ")
	}
	return intro, nil
}

// GetClient fetches the registered OAuth2 client record.
func (c *Client) GetClient(ctx context.Context, clientID string) (*models.OAuth2Client, error) {
	raw, err := c.getClientRaw(ctx, clientID)
	if err != nil {
		return nil, err
	}

	client := &models.OAuth2Client{ClientID: clientID}
	client.TokenEndpointAuthMethod, _ = raw["token_endpoint_auth_method"].(string)
	if metadata, ok := raw["metadata"].(map[string]any); ok {
		client.Metadata = metadata
	}
	return client, nil
}

// UpdateClientCertificate mirrors a locally bound certificate into the
// client's metadata on the authorization server.
func (c *Client) UpdateClientCertificate(ctx context.Context, clientID, certificatePEM string) error {
	raw, err := c.getClientRaw(ctx, clientID)
	if err != nil {
		return err
	}

	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		metadata = map[string]any{}
	}
	metadata[certificateMetadataKey] = certificatePEM
	raw["metadata"] = metadata

	body, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal client update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.adminURL+"/admin/clients/"+url.PathEscape(clientID), strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("build client update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update client metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update client metadata: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getClientRaw(ctx context.Context, clientID string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.adminURL+"/admin/clients/"+url.PathEscape(clientID), nil)
	if err != nil {
		return nil, fmt.Errorf("build client request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get client %s: unexpected status %d", clientID, resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode client response: %w", err)
	}
	return raw, nil
}
