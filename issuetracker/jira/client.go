package jira

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

const defaultIssueType = "Bug"

// Client files issues in a single Jira Cloud project through REST API v3.
type Client struct {
	httpClient *http.Client
	baseURL    string
	email      string
	apiToken   string
	project    string
	issueType  string
}

// NewClient creates a Jira client. Credentials: url, email, api_token and
// project are required, issue_type defaults to Bug.
func NewClient(credentials map[string]string) (*Client, error) {
	for _, key := range []string{"url", "email", "api_token", "project"} {
		if credentials[key] == "" {
			return nil, fmt.Errorf("jira: %w: %s", issuetracker.ErrMissingCredential, key)
		}
	}

	issueType := credentials["issue_type"]
	if issueType == "" {
		issueType = defaultIssueType
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(credentials["url"], "/"),
		email:      credentials["email"],
		apiToken:   credentials["api_token"],
		project:    credentials["project"],
		issueType:  issueType,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("jira: failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("jira: failed to create request: %w", err)
	}

	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

type keyRef struct {
	Key string `json:"key,omitempty"`
}

type nameRef struct {
	Name string `json:"name"`
}

type issueFields struct {
	Project     keyRef   `json:"project"`
	Summary     string   `json:"summary"`
	Description document `json:"description"`
	IssueType   nameRef  `json:"issuetype"`
	Labels      []string `json:"labels,omitempty"`
}

type createIssueRequest struct {
	Fields issueFields `json:"fields"`
}

// document is an Atlassian Document Format body.
type document struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Content []node `json:"content"`
}

type node struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Content []node `json:"content,omitempty"`
}

// toDocument renders plain text as ADF, one paragraph per block of lines
// separated by a blank line. Line breaks inside a block become hardBreak nodes.
func toDocument(text string) document {
	doc := document{Type: "doc", Version: 1, Content: []node{}}
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		var inline []node
		for i, line := range strings.Split(block, "\n") {
			if i > 0 {
				inline = append(inline, node{Type: "hardBreak"})
			}
			if line != "" {
				inline = append(inline, node{Type: "text", Text: line})
			}
		}
		doc.Content = append(doc.Content, node{Type: "paragraph", Content: inline})
	}
	return doc
}

// CreateIssue creates a new issue in the configured project.
func (c *Client) CreateIssue(ctx context.Context, input issuetracker.IssueInput) (*issuetracker.Issue, error) {
	reqBody := createIssueRequest{Fields: issueFields{
		Project:     keyRef{Key: c.project},
		Summary:     input.Title,
		Description: toDocument(input.Body),
		IssueType:   nameRef{Name: c.issueType},
		Labels:      input.Labels,
	}}

	apiURL := fmt.Sprintf("%s/rest/api/3/issue", c.baseURL)
	resp, err := c.doRequest(ctx, http.MethodPost, apiURL, reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusCreated, "create issue"); err != nil {
		return nil, err
	}

	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("jira: failed to decode response: %w", err)
	}

	return &issuetracker.Issue{
		ExternalID: created.Key,
		Title:      input.Title,
		URL:        fmt.Sprintf("%s/browse/%s", c.baseURL, created.Key),
		Provider:   issuetracker.ProviderJira,
	}, nil
}

// ValidateConnection validates the Jira connection by fetching the authenticated user.
func (c *Client) ValidateConnection(ctx context.Context) error {
	apiURL := fmt.Sprintf("%s/rest/api/3/myself", c.baseURL)
	resp, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
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
		return fmt.Errorf("jira: %s: %w (status %d)", op, issuetracker.ErrUnauthorized, resp.StatusCode)
	}
	return fmt.Errorf("jira: %s failed with status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}
