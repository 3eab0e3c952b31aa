package jira

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/changectx/internal/errors"
	"github.com/rohankatakam/changectx/internal/logging"
)

const issueBody = `{
  "id": "10001",
  "key": "PROJ-1",
  "fields": {
    "summary": "Add login page",
    "description": {
      "type": "doc",
      "version": 1,
      "content": [
        {"type": "paragraph", "content": [{"type": "text", "text": "Users need to sign in."}]}
      ]
    },
    "customfield_10034": ["Shows form", "Rejects bad password"]
  }
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", "dev@acme.io", "secret", 0, logging.Discard())
}

func TestGetIssue(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/api/3/issue/PROJ-1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "dev@acme.io", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(issueBody))
	})

	issue, err := client.GetIssue(context.Background(), "PROJ-1")
	require.NoError(t, err)

	assert.Equal(t, "PROJ-1", issue.Key)
	assert.Equal(t, "Add login page", issue.Fields.Summary)

	text, ok := DescriptionText(issue.Fields.Description)
	assert.True(t, ok)
	assert.Equal(t, "Users need to sign in.", text)

	assert.Equal(t, []string{"Shows form", "Rejects bad password"},
		NormalizeAcceptanceCriteria(issue.Fields.Field("customfield_10034")))
	assert.Nil(t, issue.Fields.Field("customfield_99999"))
}

func TestGetIssue_NotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages":["Issue does not exist"]}`, http.StatusNotFound)
	})

	_, err := client.GetIssue(context.Background(), "PROJ-404")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.Equal(t, errors.ErrorTypeExternal, errors.GetType(err))
}

func TestGetIssue_HTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, "Unauthorized"},
		{"server error", http.StatusInternalServerError, "boom"},
		{"malformed json", http.StatusOK, "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GetIssue(context.Background(), "PROJ-1")
			require.Error(t, err)
			assert.False(t, stderrors.Is(err, ErrNotFound))
			assert.Equal(t, errors.ErrorTypeExternal, errors.GetType(err))
		})
	}
}

func TestGetIssue_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, "dev@acme.io", "secret", 0, logging.Discard())
	_, err := client.GetIssue(context.Background(), "PROJ-1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.GetType(err))
}

func TestGetIssue_EscapesKey(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/odd%2Fkey", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"fields":{"summary":"x"}}`))
	})

	issue, err := client.GetIssue(context.Background(), "odd/key")
	require.NoError(t, err)
	assert.Equal(t, "odd/key", issue.Key, "key falls back to the requested one")
}

func TestGetIssue_RateLimited(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(issueBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "dev@acme.io", "secret", 20, logging.Discard())

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.GetIssue(context.Background(), "PROJ-1")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	// burst of 1 at 20/s: the 2nd and 3rd calls wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestGetIssue_CancelledContext(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(issueBody))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetIssue(ctx, "PROJ-1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.GetType(err))
}
