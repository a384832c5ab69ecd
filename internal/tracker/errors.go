package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var ErrNonNumericEstimate = errors.New("tracker: estimate is not a number")

// APIError is a non-2xx response from Jira. Jira error bodies carry
// top-level errorMessages plus per-field errors.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (err *APIError) Error() string {
	if len(err.Messages) == 0 {
		return fmt.Sprintf("tracker: HTTP %d", err.StatusCode)
	}
	return fmt.Sprintf("tracker: HTTP %d: %s", err.StatusCode, strings.Join(err.Messages, "; "))
}

func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}

// IsRetryable reports whether a failed request may succeed if repeated:
// rate limiting and server side errors.
func IsRetryable(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.StatusCode == http.StatusTooManyRequests || apiError.StatusCode >= 500
}

func parseAPIError(status int, body []byte) *APIError {
	apiError := &APIError{StatusCode: status}
	var parsed struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		if text := strings.TrimSpace(string(body)); text != "" {
			apiError.Messages = []string{text}
		}
		return apiError
	}
	apiError.Messages = append(apiError.Messages, parsed.ErrorMessages...)
	fields := make([]string, 0, len(parsed.Errors))
	for field := range parsed.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		apiError.Messages = append(apiError.Messages, field+": "+parsed.Errors[field])
	}
	return apiError
}
