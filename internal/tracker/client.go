// Package tracker talks to Jira's REST API on behalf of estimation rooms.
// Every call converts its failures at this boundary: lookups return nil
// values alongside the error and writes return an error value.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/DoyleJ11/planning-poker-backend/internal/session"
)

const issuePath = "/rest/api/2/issue/"

// maxBody caps how much of a response we read.
const maxBody = 4 << 20

type Config struct {
	// BaseURL is the Jira site, e.g. "https://example.atlassian.net".
	BaseURL string

	Username string
	// Token is the API token (or password) sent with basic auth.
	Token string

	// Custom field ids, e.g. "customfield_10016".
	StoryPointField         string
	DescriptionField        string
	AcceptanceCriteriaField string

	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration

	// Retries is how many times a failed GET is repeated. Writes are not
	// retried.
	Retries   int
	RetryWait time.Duration

	Logger *zap.Logger
}

type Client struct {
	baseURL    string
	username   string
	token      string
	fields     fieldNames
	httpClient *http.Client
	retries    int
	retryWait  time.Duration
	logger     *zap.Logger
}

type fieldNames struct {
	storyPoint         string
	description        string
	acceptanceCriteria string
}

var _ session.Tracker = (*Client)(nil)

func NewClient(config Config) (*Client, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("tracker: base URL is required")
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("tracker: invalid base URL %q", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	retryWait := config.RetryWait
	if retryWait <= 0 {
		retryWait = 200 * time.Millisecond
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:  baseURL,
		username: config.Username,
		token:    config.Token,
		fields: fieldNames{
			storyPoint:         config.StoryPointField,
			description:        config.DescriptionField,
			acceptanceCriteria: config.AcceptanceCriteriaField,
		},
		httpClient: httpClient,
		retries:    max(config.Retries, 0),
		retryWait:  retryWait,
		logger:     logger.With(zap.String("component", "tracker")),
	}, nil
}

// Summary returns the item's title, or nil when it cannot be read.
func (c *Client) Summary(ctx context.Context, key string) *string {
	fields, err := c.issueFields(ctx, key)
	if err != nil {
		c.logger.Warn("fetch summary failed", zap.String("item", key), zap.Error(err))
		return nil
	}
	return stringField(fields, "summary")
}

// Details returns the summary, acceptance criteria and description of an
// item. The description falls back to the standard field when the
// configured one holds no text.
func (c *Client) Details(ctx context.Context, key string) (session.ItemDetails, error) {
	fields, err := c.issueFields(ctx, key)
	if err != nil {
		return session.ItemDetails{}, err
	}
	desc := stringField(fields, c.fields.description)
	if desc == nil {
		desc = stringField(fields, "description")
	}
	return session.ItemDetails{
		Summary:            stringField(fields, "summary"),
		AcceptanceCriteria: stringField(fields, c.fields.acceptanceCriteria),
		Description:        desc,
	}, nil
}

func (c *Client) SetEstimate(ctx context.Context, key string, point session.Point) error {
	n, ok := point.Numeric()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNonNumericEstimate, string(point))
	}
	return c.setField(ctx, key, c.fields.storyPoint, n)
}

func (c *Client) SetDescription(ctx context.Context, key, text string) error {
	return c.setField(ctx, key, c.fields.description, text)
}

func (c *Client) SetAcceptanceCriteria(ctx context.Context, key, text string) error {
	return c.setField(ctx, key, c.fields.acceptanceCriteria, text)
}

func (c *Client) issueFields(ctx context.Context, key string) (map[string]json.RawMessage, error) {
	if key == "" {
		return nil, errors.New("tracker: empty item key")
	}
	var issue struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	if err := c.get(ctx, issuePath+url.PathEscape(key), &issue); err != nil {
		return nil, err
	}
	return issue.Fields, nil
}

func (c *Client) setField(ctx context.Context, key, field string, value any) error {
	if key == "" {
		return errors.New("tracker: empty item key")
	}
	if field == "" {
		return errors.New("tracker: field id not configured")
	}
	body := map[string]any{"fields": map[string]any{field: value}}
	_, err := c.do(ctx, http.MethodPut, issuePath+url.PathEscape(key), body)
	if err != nil {
		return err
	}
	c.logger.Debug("field updated", zap.String("item", key), zap.String("field", field))
	return nil
}

// get retries transient failures with exponential backoff.
func (c *Client) get(ctx context.Context, path string, result any) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryWait

	body, err := backoff.RetryWithData(func() ([]byte, error) {
		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil && !IsRetryable(err) && !isNetworkError(err) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.retries)), ctx))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("tracker: decoding response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("tracker: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("tracker: creating request: %w", err)
	}
	request.SetBasicAuth(c.username, c.token)
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, &networkError{err: fmt.Errorf("tracker: %s %s: %w", method, path, err)}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBody))
	if err != nil {
		return nil, &networkError{err: fmt.Errorf("tracker: reading response body: %w", err)}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, parseAPIError(response.StatusCode, body)
	}
	return body, nil
}

type networkError struct{ err error }

func (e *networkError) Error() string { return e.err.Error() }
func (e *networkError) Unwrap() error { return e.err }

func isNetworkError(err error) bool {
	var ne *networkError
	return errors.As(err, &ne) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// stringField returns fields[name] when it holds a JSON string.
func stringField(fields map[string]json.RawMessage, name string) *string {
	if name == "" {
		return nil
	}
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return s
}
