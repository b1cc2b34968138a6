// Package github is a minimal client for the pieces of the GitHub REST API
// this tool needs: latest-release asset listings and repo descriptions.
package github

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/network"
)

const (
	baseURL   = "https://api.github.com"
	userAgent = "rpm-repo-composer"
)

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name        string    `json:"name"`
	DownloadURL string    `json:"browser_download_url"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type release struct {
	TagName     string    `json:"tag_name"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

type repoInfo struct {
	Description string `json:"description"`
}

// Client talks to the GitHub API, optionally authenticated. The zero token
// falls back to the GITHUB_TOKEN environment variable.
type Client struct {
	base   string
	token  string
	client *http.Client
}

// NewClient builds a Client. Unauthenticated requests work but hit the
// public rate limit quickly.
func NewClient(token string) *Client {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	return &Client{
		base:   baseURL,
		token:  token,
		client: network.NewSecureHTTPClient(30 * time.Second),
	}
}

// NewClientForTest builds a Client against an alternate API base URL.
func NewClientForTest(base string, client *http.Client) *Client {
	return &Client{base: base, client: client}
}

// Token exposes the configured token so asset downloads can reuse it.
func (c *Client) Token() string { return c.token }

// LatestReleaseAssets returns the assets of the repo's latest (non-draft,
// non-prerelease) release.
func (c *Client) LatestReleaseAssets(repo string) ([]Asset, error) {
	var rel release
	if err := c.get(fmt.Sprintf("repos/%s/releases/latest", repo), &rel); err != nil {
		return nil, err
	}
	return rel.Assets, nil
}

// RepoDescription returns the repository's description, empty when unset.
func (c *Client) RepoDescription(repo string) (string, error) {
	var info repoInfo
	if err := c.get(fmt.Sprintf("repos/%s", repo), &info); err != nil {
		return "", err
	}
	return info.Description, nil
}

func (c *Client) get(endpoint string, out any) error {
	url := c.base + "/" + endpoint
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("repository or release not found: %s", endpoint)
	case http.StatusForbidden, http.StatusTooManyRequests:
		return fmt.Errorf("rate limit exceeded for %s; set GITHUB_TOKEN for higher limits", endpoint)
	default:
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response for %s: %w", url, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response for %s: %w", url, err)
	}
	return nil
}
