package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/testpilot/issuetracker"
)

const defaultBaseURL = "https://api.github.com"

// Client files issues in a single GitHub repository.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	owner      string
	repo       string
}

// NewClient creates a GitHub client. Credentials: token and repository
// ("owner/repo") are required, base_url is optional.
func NewClient(credentials map[string]string) (*Client, error) {
	token := credentials["token"]
	if token == "" {
		return nil, fmt.Errorf("github: %w: token", issuetracker.ErrMissingCredential)
	}

	repository := credentials["repository"]
	if repository == "" {
		return nil, fmt.Errorf("github: %w: repository", issuetracker.ErrMissingCredential)
	}
	owner, repo, err := parseOwnerRepo(repository)
	if err != nil {
		return nil, err
	}

	baseURL := defaultBaseURL
	if u := credentials["base_url"]; u != "" {
		baseURL = strings.TrimRight(u, "/")
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		baseURL:    baseURL,
		owner:      owner,
		repo:       repo,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("github: failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("github: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// parseOwnerRepo parses "owner/repo" into owner and repo.
func parseOwnerRepo(repository string) (owner, repo string, err error) {
	parts := strings.SplitN(strings.Trim(repository, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("github: invalid repository %q, expected owner/repo", repository)
	}
	return parts[0], parts[1], nil
}

type createIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

type githubIssue struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
}

// CreateIssue opens a new issue in the configured repository.
func (c *Client) CreateIssue(ctx context.Context, input issuetracker.IssueInput) (*issuetracker.Issue, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues", c.baseURL, c.owner, c.repo)
	resp, err := c.doRequest(ctx, http.MethodPost, url, createIssueRequest{
		Title:  input.Title,
		Body:   input.Body,
		Labels: input.Labels,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusCreated, "create issue"); err != nil {
		return nil, err
	}

	var gi githubIssue
	if err := json.NewDecoder(resp.Body).Decode(&gi); err != nil {
		return nil, fmt.Errorf("github: failed to decode response: %w", err)
	}

	return &issuetracker.Issue{
		ExternalID: fmt.Sprintf("%s/%s#%d", c.owner, c.repo, gi.Number),
		Title:      gi.Title,
		URL:        gi.HTMLURL,
		Provider:   issuetracker.ProviderGitHub,
	}, nil
}

// ValidateConnection checks that the token can see the configured repository.
func (c *Client) ValidateConnection(ctx context.Context) error {
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, c.owner, c.repo)
	resp, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", issuetracker.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK, "validate connection"); err != nil {
		return fmt.Errorf("%w: %v", issuetracker.ErrConnectionFailed, err)
	}
	return nil
}

func checkStatus(resp *http.Response, want int, op string) error {
	if resp.StatusCode == want {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("github: %s: %w (status %d)", op, issuetracker.ErrUnauthorized, resp.StatusCode)
	}
	return fmt.Errorf("github: %s failed with status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}
