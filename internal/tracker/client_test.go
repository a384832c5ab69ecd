package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/planning-poker-backend/internal/session"
)

func newTestClient(t *testing.T, server *httptest.Server, retries int) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:                 server.URL,
		Username:                "bot@example.com",
		Token:                   "secret",
		StoryPointField:         "customfield_10016",
		DescriptionField:        "customfield_20000",
		AcceptanceCriteriaField: "customfield_30000",
		HTTPClient:              server.Client(),
		Retries:                 retries,
		RetryWait:               time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	_, err = NewClient(Config{BaseURL: "not a url"})
	require.Error(t, err)
}

func TestClient_Details(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bot@example.com" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "/rest/api/2/issue/POKER-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"key":"POKER-1","fields":{
			"summary":"Login page",
			"customfield_30000":"* works\n** on mobile",
			"customfield_20000":null,
			"description":"h1. Goal"
		}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 0)
	details, err := client.Details(context.Background(), "POKER-1")
	require.NoError(t, err)
	require.NotNil(t, details.Summary)
	assert.Equal(t, "Login page", *details.Summary)
	require.NotNil(t, details.AcceptanceCriteria)
	assert.Equal(t, "* works\n** on mobile", *details.AcceptanceCriteria)
	// the configured description field is empty, so the standard one is used
	require.NotNil(t, details.Description)
	assert.Equal(t, "h1. Goal", *details.Description)

	summary := client.Summary(context.Background(), "POKER-1")
	require.NotNil(t, summary)
	assert.Equal(t, "Login page", *summary)
}

func TestClient_DetailsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errorMessages":["Issue does not exist or you do not have permission to see it."],"errors":{}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 2)
	details, err := client.Details(context.Background(), "NOPE-1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, session.ItemDetails{}, details)
	assert.Contains(t, err.Error(), "Issue does not exist")
	assert.Nil(t, client.Summary(context.Background(), "NOPE-1"))
}

func TestClient_GetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"fields":{"summary":"third time lucky"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 2)
	summary := client.Summary(context.Background(), "POKER-2")
	require.NotNil(t, summary)
	assert.Equal(t, "third time lucky", *summary)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_GetGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server, 1)
	_, err := client.Details(context.Background(), "POKER-3")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_SetEstimate(t *testing.T) {
	var got map[string]map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server, 0)
	require.NoError(t, client.SetEstimate(context.Background(), "POKER-1", session.Point("5")))
	assert.Equal(t, map[string]map[string]any{"fields": {"customfield_10016": float64(5)}}, got)

	err := client.SetEstimate(context.Background(), "POKER-1", session.Point("?"))
	assert.True(t, errors.Is(err, ErrNonNumericEstimate))
}

func TestClient_SetTextFields(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server, 0)
	ctx := context.Background()
	require.NoError(t, client.SetDescription(ctx, "POKER-1", "new text"))
	require.NoError(t, client.SetAcceptanceCriteria(ctx, "POKER-1", "* a"))
	require.Len(t, bodies, 2)
	assert.JSONEq(t, `{"fields":{"customfield_20000":"new text"}}`, bodies[0])
	assert.JSONEq(t, `{"fields":{"customfield_30000":"* a"}}`, bodies[1])
}

func TestClient_WriteErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"errorMessages":[],"errors":{"customfield_10016":"Field cannot be set."}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 3)
	err := client.SetEstimate(context.Background(), "POKER-1", session.Point("3"))
	require.Error(t, err)
	assert.Equal(t, "tracker: HTTP 400: customfield_10016: Field cannot be set.", err.Error())
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_UnconfiguredField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected")
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)
	require.Error(t, client.SetDescription(context.Background(), "POKER-1", "x"))
}
