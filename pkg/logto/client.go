package logto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenRefreshMargin is how long before expiry the cached management token
// is refreshed.
const tokenRefreshMargin = 5 * time.Minute

// ClientConfig holds the endpoints and credentials for the management API.
type ClientConfig struct {
	Endpoint      string
	TokenEndpoint string
	Resource      string
	ClientID      string
	ClientSecret  string
}

// ManagementClient calls the identity provider's management API on behalf of
// the service, authenticating with a client-credentials token held in an
// explicit process-scoped cache. Concurrent refreshes are possible and
// harmless; the last writer wins.
type ManagementClient struct {
	config     ClientConfig
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewManagementClient creates a management API client.
func NewManagementClient(config ClientConfig, httpClient *http.Client) *ManagementClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ManagementClient{
		config:     config,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// AccessToken returns the cached management token, fetching a fresh one when
// the cache is empty or within five minutes of expiry.
func (c *ManagementClient) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiresAt := c.token, c.expiresAt
	c.mu.Unlock()

	if token != "" && c.now().Before(expiresAt.Add(-tokenRefreshMargin)) {
		return token, nil
	}

	return c.fetchToken(ctx)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *ManagementClient) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("resource", c.config.Resource)
	form.Set("scope", "all")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.config.ClientID, c.config.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("management token request failed: %s", resp.Status)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("management token response missing access_token")
	}

	c.mu.Lock()
	c.token = tr.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	c.mu.Unlock()

	return tr.AccessToken, nil
}

// CreateOrganization creates an organization and returns its id.
func (c *ManagementClient) CreateOrganization(ctx context.Context, name, description string) (string, error) {
	payload := map[string]string{"name": name}
	if description != "" {
		payload["description"] = description
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/organizations", payload, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("organization response missing id")
	}
	return created.ID, nil
}

// AddOrganizationUser adds a user to an organization.
func (c *ManagementClient) AddOrganizationUser(ctx context.Context, organizationID, userID string) error {
	payload := map[string][]string{"userIds": {userID}}
	path := fmt.Sprintf("/api/organizations/%s/users", organizationID)
	return c.call(ctx, http.MethodPost, path, payload, nil)
}

// AssignOrganizationRole assigns an organization role to a user by role name.
func (c *ManagementClient) AssignOrganizationRole(ctx context.Context, organizationID, userID, roleName string) error {
	payload := map[string][]string{"organizationRoleNames": {roleName}}
	path := fmt.Sprintf("/api/organizations/%s/users/%s/roles", organizationID, userID)
	return c.call(ctx, http.MethodPost, path, payload, nil)
}

func (c *ManagementClient) call(ctx context.Context, method, path string, payload, out interface{}) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	var body *bytes.Buffer
	if payload != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			return err
		}
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("management API %s %s failed: %s", method, path, resp.Status)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
