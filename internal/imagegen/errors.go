package imagegen

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Kind classifies why an image request failed. The set is closed: every
// failure is mapped to one of these at the provider boundary.
type Kind string

const (
	KindConfigMissing       Kind = "config_missing"
	KindInvalidRequest      Kind = "invalid_request"
	KindRateLimited         Kind = "rate_limited"
	KindServiceError        Kind = "service_error"
	KindConnectionError     Kind = "connection_error"
	KindAuthenticationError Kind = "authentication_error"
	KindPermissionError     Kind = "permission_error"
	KindDecodeError         Kind = "decode_error"
	KindUnknown             Kind = "unknown"
)

// Error is a classified image generation failure. It is terminal for the
// request; nothing is retried.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = strings.ReplaceAll(string(kind), "_", " ")
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Classify maps an error from the OpenAI SDK or the HTTP stack to a Kind.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := kindForStatus(apiErr.HTTPStatusCode)
		if kind == KindUnknown {
			kind = kindForType(apiErr.Type)
		}
		return newError(kind, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		kind := kindForStatus(reqErr.HTTPStatusCode)
		if kind == KindUnknown && reqErr.HTTPStatusCode == 0 {
			kind = KindConnectionError
		}
		return newError(kind, "", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(KindConnectionError, "", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return newError(KindConnectionError, "", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return newError(KindConnectionError, "", err)
	}
	return newError(KindUnknown, "", err)
}

func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized:
		return KindAuthenticationError
	case code == http.StatusForbidden:
		return KindPermissionError
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusRequestTimeout:
		return KindConnectionError
	case code >= 500:
		return KindServiceError
	case code >= 400:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

func kindForType(t string) Kind {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "invalid_request_error":
		return KindInvalidRequest
	case "authentication_error":
		return KindAuthenticationError
	case "permission_error", "insufficient_permissions":
		return KindPermissionError
	case "rate_limit_error", "insufficient_quota":
		return KindRateLimited
	case "server_error", "service_unavailable":
		return KindServiceError
	default:
		return KindUnknown
	}
}
