// Copyright (c) 2024 Netskope, Inc. All rights reserved.

// Package sharepoint is a thin REST client for the two remote collaborators
// of this tool: the tenant admin service (site enumeration, version-policy
// mutation, batch delete jobs) and the per-site content store (library
// listing and file download). All calls are sequential and read-mostly.
package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"go.uber.org/zap"
)

const (
	acceptJSON = "application/json;odata=nometadata"

	// Refresh tokens a little before their reported expiry.
	tokenExpirySkew = 2 * time.Minute
)

// Client talks to the tenant admin endpoint and to individual site endpoints.
// It is not safe for concurrent use; the tool is single-threaded by design.
type Client struct {
	httpClient *http.Client
	cred       azcore.TokenCredential
	adminURL   string
	logger     *zap.Logger

	tokens map[string]azcore.AccessToken // keyed by resource host
}

// NewClient creates a client for the given tenant admin URL.
func NewClient(adminURL string, cred azcore.TokenCredential, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		cred:       cred,
		adminURL:   strings.TrimRight(adminURL, "/"),
		logger:     logger,
		tokens:     make(map[string]azcore.AccessToken),
	}
}

// AdminURL returns the configured tenant admin endpoint.
func (c *Client) AdminURL() string { return c.adminURL }

// Connect acquires a token for the admin endpoint. A rejected login is
// surfaced as a ConnectionError so menu actions can abort early instead of
// failing on the first real call.
func (c *Client) Connect(ctx context.Context) error {
	if _, err := c.bearer(ctx, c.adminURL); err != nil {
		return &ConnectionError{Endpoint: c.adminURL, Err: err}
	}
	c.logger.Info("Connected to tenant admin service",
		zap.String("admin_url", c.adminURL))
	return nil
}

// ListSites enumerates all site collections in the tenant. Order is the
// enumeration order of the admin service and is preserved.
func (c *Client) ListSites(ctx context.Context) ([]SiteInfo, error) {
	endpoint := c.adminURL + "/_api/SPO.Tenant/sites?$select=Url,Title"

	var out struct {
		Value []SiteInfo `json:"value"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("failed to enumerate sites: %w", err)
	}

	c.logger.Info("Enumerated tenant sites", zap.Int("count", len(out.Value)))
	return out.Value, nil
}

// SetTenantAutoTrim toggles automatic version trimming for the whole tenant.
func (c *Client) SetTenantAutoTrim(ctx context.Context, enabled bool) error {
	endpoint := c.adminURL + "/_api/SPO.Tenant"
	body := map[string]bool{"EnableAutoExpirationVersionTrim": enabled}

	if err := c.send(ctx, http.MethodPatch, endpoint, body); err != nil {
		return fmt.Errorf("failed to set tenant auto-trim: %w", err)
	}

	c.logger.Info("Tenant auto-trim flag updated", zap.Bool("enabled", enabled))
	return nil
}

// SetSiteAutoTrim toggles automatic version trimming for one site collection.
func (c *Client) SetSiteAutoTrim(ctx context.Context, siteURL string, enabled bool) error {
	endpoint := strings.TrimRight(siteURL, "/") + "/_api/site/versionPolicy"
	body := map[string]bool{"EnableAutoExpirationVersionTrim": enabled}

	if err := c.send(ctx, http.MethodPatch, endpoint, body); err != nil {
		return fmt.Errorf("failed to set auto-trim on %s: %w", siteURL, err)
	}

	c.logger.Info("Site auto-trim flag updated",
		zap.String("site", siteURL), zap.Bool("enabled", enabled))
	return nil
}

// CreateVersionTrimJob enqueues an asynchronous version-deletion batch job on
// a site, keyed by age in days (TrimByAge) or by retained major-version count
// (TrimByCount). The job runs server-side; this call only enqueues it.
func (c *Client) CreateVersionTrimJob(ctx context.Context, siteURL string, mode TrimJobMode, threshold int) error {
	if threshold <= 0 {
		return fmt.Errorf("trim threshold must be positive, got %d", threshold)
	}

	endpoint := strings.TrimRight(siteURL, "/") + "/_api/site/versionPolicy/createBatchDeleteJob"

	var body map[string]int
	switch mode {
	case TrimByAge:
		body = map[string]int{"deleteBeforeDays": threshold}
	case TrimByCount:
		body = map[string]int{"majorVersionLimit": threshold}
	default:
		return fmt.Errorf("unknown trim job mode %d", mode)
	}

	if err := c.send(ctx, http.MethodPost, endpoint, body); err != nil {
		return fmt.Errorf("failed to enqueue %s trim job on %s: %w", mode, siteURL, err)
	}

	c.logger.Info("Version trim job enqueued",
		zap.String("site", siteURL),
		zap.String("mode", mode.String()),
		zap.Int("threshold", threshold))
	return nil
}

// ListPreservationItems pages through the site's Preservation Hold Library.
// A site without the library returns a NotFoundError; callers treat that as
// a recorded status, not a failure.
func (c *Client) ListPreservationItems(ctx context.Context, siteURL string, pageSize int) ([]Item, error) {
	base := strings.TrimRight(siteURL, "/")
	next := fmt.Sprintf("%s/_api/web/lists/getbytitle('%s')/items?$select=FileLeafRef,FileRef,SMTotalFileStreamSize,Created,Modified,FSObjType,Author/EMail,Editor/EMail&$expand=Author,Editor&$top=%d",
		base, url.PathEscape(PreservationLibraryTitle), pageSize)

	var items []Item
	for next != "" {
		var page struct {
			Value    []listItemWire `json:"value"`
			NextLink string         `json:"odata.nextLink"`
		}
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}

		for _, w := range page.Value {
			item, err := itemFromWire(w)
			if err != nil {
				return nil, fmt.Errorf("malformed item %q: %w", w.FileLeafRef, err)
			}
			items = append(items, item)
		}

		next = page.NextLink
	}

	c.logger.Info("Listed preservation store",
		zap.String("site", siteURL), zap.Int("items", len(items)))
	return items, nil
}

// DownloadFile streams the bytes of one file by server-relative path.
// The caller owns the returned ReadCloser.
func (c *Client) DownloadFile(ctx context.Context, siteURL, serverRelativeURL string) (io.ReadCloser, error) {
	base := strings.TrimRight(siteURL, "/")
	endpoint := fmt.Sprintf("%s/_api/web/GetFileByServerRelativePath(decodedurl='%s')/$value",
		base, url.PathEscape(serverRelativeURL))

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, &NotFoundError{Resource: serverRelativeURL}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, httpError(resp)
	}

	return resp.Body, nil
}

func itemFromWire(w listItemWire) (Item, error) {
	created, err := time.Parse(time.RFC3339, w.Created)
	if err != nil {
		return Item{}, fmt.Errorf("bad Created timestamp: %w", err)
	}
	modified, err := time.Parse(time.RFC3339, w.Modified)
	if err != nil {
		return Item{}, fmt.Errorf("bad Modified timestamp: %w", err)
	}

	return Item{
		LeafName:          w.FileLeafRef,
		ServerRelativeURL: w.FileRef,
		SizeBytes:         w.SMTotalFileStreamSize,
		Created:           created,
		Modified:          modified,
		AuthorEmail:       w.Author.Email,
		EditorEmail:       w.Editor.Email,
		IsFolder:          w.FSObjType == 1,
	}, nil
}

// getJSON performs a GET and decodes the JSON body into out.
// 404 becomes a NotFoundError.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Resource: endpoint}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send performs a mutating call with a JSON body and discards the response.
func (c *Client) send(ctx context.Context, method, endpoint string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	resp, err := c.do(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Resource: endpoint}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	token, err := c.bearer(ctx, endpoint)
	if err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", acceptJSON)
	if body != nil {
		req.Header.Set("Content-Type", "application/json;odata=nometadata")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Err: err}
	}
	return resp, nil
}

// bearer returns a token for the resource host of endpoint, refreshing the
// cached one when it is near expiry. SharePoint tokens are audience-scoped,
// so the admin host and each site host get their own entry.
func (c *Client) bearer(ctx context.Context, endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("bad endpoint %q: %w", endpoint, err)
	}
	host := u.Scheme + "://" + u.Host

	if tok, ok := c.tokens[host]; ok && time.Until(tok.ExpiresOn) > tokenExpirySkew {
		return tok.Token, nil
	}

	tok, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{host + "/.default"},
	})
	if err != nil {
		return "", fmt.Errorf("token acquisition failed: %w", err)
	}
	c.tokens[host] = tok

	c.logger.Debug("Acquired access token",
		zap.String("resource", host),
		zap.Time("expires", tok.ExpiresOn))
	return tok.Token, nil
}

func httpError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s %s returned %d: %s",
		resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
}
