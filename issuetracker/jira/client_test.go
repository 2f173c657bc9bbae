package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hairizuan-noorazman/testpilot/issuetracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(map[string]string{
		"url":       server.URL,
		"email":     "qa@example.com",
		"api_token": "test-api-token",
		"project":   "SHOP",
	})
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	valid := func() map[string]string {
		return map[string]string{
			"url":       "https://example.atlassian.net/",
			"email":     "qa@example.com",
			"api_token": "token",
			"project":   "SHOP",
		}
	}

	client, err := NewClient(valid())
	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net", client.baseURL)
	assert.Equal(t, defaultIssueType, client.issueType)

	for _, key := range []string{"url", "email", "api_token", "project"} {
		t.Run("missing "+key, func(t *testing.T) {
			t.Parallel()
			creds := valid()
			delete(creds, key)
			_, err := NewClient(creds)
			assert.ErrorIs(t, err, issuetracker.ErrMissingCredential)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestCreateIssue(t *testing.T) {
	t.Parallel()

	var got createIssueRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/3/issue", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "qa@example.com", user)
		assert.Equal(t, "test-api-token", pass)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "10001", "key": "SHOP-7"})
	}))

	issue, err := client.CreateIssue(context.Background(), issuetracker.IssueInput{
		Title:  "[BUG-CART_002] Remove",
		Body:   "Module: Cart\nStatus: Failed\n\nActual Behavior\nstill there",
		Labels: []string{"bug", "testpilot"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SHOP-7", issue.ExternalID)
	assert.Equal(t, "[BUG-CART_002] Remove", issue.Title)
	assert.Contains(t, issue.URL, "/browse/SHOP-7")
	assert.Equal(t, issuetracker.ProviderJira, issue.Provider)

	assert.Equal(t, "SHOP", got.Fields.Project.Key)
	assert.Equal(t, "Bug", got.Fields.IssueType.Name)
	assert.Equal(t, []string{"bug", "testpilot"}, got.Fields.Labels)
	assert.Equal(t, "doc", got.Fields.Description.Type)
	assert.Len(t, got.Fields.Description.Content, 2)
}

func TestCreateIssue_Unauthorized(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.CreateIssue(context.Background(), issuetracker.IssueInput{Title: "x"})
	assert.ErrorIs(t, err, issuetracker.ErrUnauthorized)
}

func TestToDocument(t *testing.T) {
	t.Parallel()

	doc := toDocument("line one\nline two\n\n\n\nsecond paragraph")
	require.Len(t, doc.Content, 2)
	assert.Equal(t, []node{
		{Type: "text", Text: "line one"},
		{Type: "hardBreak"},
		{Type: "text", Text: "line two"},
	}, doc.Content[0].Content)
	assert.Equal(t, "second paragraph", doc.Content[1].Content[0].Text)

	assert.Empty(t, toDocument("  ").Content)
}

func TestValidateConnection(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/myself", r.URL.Path)
		w.WriteHeader(http.StatusForbidden)
	}))
	assert.ErrorIs(t, client.ValidateConnection(context.Background()), issuetracker.ErrConnectionFailed)
}
