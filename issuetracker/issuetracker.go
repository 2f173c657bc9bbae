// Package issuetracker files bug reports for failed test cases in an external
// tracker.
package issuetracker

import (
	"context"
	"errors"
)

var (
	ErrInvalidProvider   = errors.New("invalid issue tracker provider")
	ErrMissingCredential = errors.New("missing issue tracker credential")
	ErrUnauthorized      = errors.New("issue tracker rejected the credentials")
	ErrConnectionFailed  = errors.New("connection validation failed")
)

type ProviderType string

const (
	ProviderJira   ProviderType = "jira"
	ProviderGitHub ProviderType = "github"
)

func (p ProviderType) IsValid() bool {
	return p == ProviderJira || p == ProviderGitHub
}

// Issue is a created issue as reported back by the tracker.
type Issue struct {
	ExternalID string       `json:"external_id"`
	Title      string       `json:"title"`
	URL        string       `json:"url"`
	Provider   ProviderType `json:"provider"`
}

// IssueInput is the content of a new issue. Where it is filed (repository or
// project) comes from the client configuration.
type IssueInput struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

type Client interface {
	CreateIssue(ctx context.Context, input IssueInput) (*Issue, error)
	ValidateConnection(ctx context.Context) error
}
