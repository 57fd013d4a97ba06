package ghsdk

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/imroc/req/v3"
)

var (
	// sdk common
	ErrNoToken          = errors.New("sdk: token missing")
	ErrNoServerURL      = errors.New("sdk: server url missing")
	ErrInvalidServerURL = errors.New("sdk: server url must be an absolute http(s) url")

	// status classes, matched against *APIError with errors.Is
	ErrUnauthorized  = errors.New("sdk: unauthorized")
	ErrForbidden     = errors.New("sdk: forbidden")
	ErrRateLimited   = errors.New("sdk: rate limited")
	ErrNotFound      = errors.New("sdk: not found")
	ErrConflict      = errors.New("sdk: conflict")
	ErrUnprocessable = errors.New("sdk: unprocessable entity")

	// contents
	ErrNotAFile = errors.New("sdk: path is not a regular file")
)

// FieldError is one entry of the `errors` array GitHub attaches to 422 responses.
type FieldError struct {
	Resource string `json:"resource,omitempty"`
	Field    string `json:"field,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (f FieldError) String() string {
	switch {
	case f.Message != "":
		return f.Message
	case f.Field != "":
		return fmt.Sprintf("%s %s: %s", f.Resource, f.Field, f.Code)
	default:
		return f.Code
	}
}

// UnmarshalJSON accepts both the object form and the bare string form of an entry.
func (f *FieldError) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var msg string
		if err := jsonUnmarshal(data, &msg); err != nil {
			return err
		}
		*f = FieldError{Message: msg}
		return nil
	}

	type plain FieldError
	var p plain
	if err := jsonUnmarshal(data, &p); err != nil {
		return err
	}
	*f = FieldError(p)
	return nil
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode       int          `json:"-"`
	Message          string       `json:"message"`
	Errors           []FieldError `json:"errors,omitempty"`
	DocumentationURL string       `json:"documentation_url,omitempty"`

	// AcceptedScopes lists the token scopes the endpoint accepts, when the server says so.
	AcceptedScopes string `json:"-"`
	// TokenScopes lists the scopes the request's token carries.
	TokenScopes string `json:"-"`
	// RateLimitRemaining is the raw X-RateLimit-Remaining header.
	RateLimitRemaining string `json:"-"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error: %d %s", e.StatusCode, e.Message)
	if details := e.Details(); len(details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(details, "; "))
	}
	return b.String()
}

// Details flattens the structured sub-errors.
func (e *APIError) Details() []string {
	out := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if s := fe.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrRateLimited:
		return e.isRateLimited()
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden && !e.isRateLimited()
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrUnprocessable:
		return e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

func (e *APIError) isRateLimited() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode == http.StatusForbidden && e.RateLimitRemaining == "0"
}

// handleAPIError is a helper function that handles the common error pattern
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	// a response with an error status wins over a body decode error
	if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusBadRequest {
		apiErr, ok := resp.ErrorResult().(*APIError)
		if !ok || apiErr == nil {
			apiErr = &APIError{}
		}
		apiErr.StatusCode = resp.StatusCode
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.AcceptedScopes = resp.Header.Get(HeaderAcceptedScopes)
		apiErr.TokenScopes = resp.Header.Get(HeaderOAuthScopes)
		apiErr.RateLimitRemaining = resp.Header.Get(HeaderRateLimitRemaining)
		return fmt.Errorf("%s: %w", operation, apiErr)
	}

	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	return nil
}
