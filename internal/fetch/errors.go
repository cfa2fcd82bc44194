package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed classification of sync errors, used for the
// per-kind counters in the sync summary. It is assigned at the point an
// HTTP response (or transport failure) is inspected, never inferred
// later from error text.
type Kind int

const (
	KindAuth Kind = iota
	KindRateLimit
	KindNetwork
	KindNotFound
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate-limit"
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not-found"
	default:
		return "other"
	}
}

// AuthError reports a 401 from the source-hosting API.
type AuthError struct {
	URL    string
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("GitHub authentication failed for %s: HTTP %d", e.URL, e.Status)
}

// RateLimitError reports a 403 or 429 from the source-hosting API.
type RateLimitError struct {
	URL    string
	Status int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exceeded for %s: HTTP %d. Set GITHUB_TOKEN/GH_TOKEN.", e.URL, e.Status)
}

// StatusError reports any other non-success HTTP status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP request failed for %s: status %d", e.URL, e.Status)
}

// TransportError reports a connection, timeout, or protocol failure
// that produced no HTTP response.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("HTTP request failed for %s: %s", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FileNotFoundError reports a required file whose candidate paths all
// returned not-found.
type FileNotFoundError struct {
	Repo  string
	Path  string
	Tried []string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("GitHub file not found: %s / %s (candidates tried: %s)",
		e.Repo, e.Path, strings.Join(e.Tried, ", "))
}

// OptionalFileNotFoundError reports an optional file miss. The
// orchestrator filters these out before error counting.
type OptionalFileNotFoundError struct {
	Path string
}

func (e *OptionalFileNotFoundError) Error() string {
	return fmt.Sprintf("optional file not found: %s", e.Path)
}

// IsOptionalMiss reports whether err is an optional-file miss.
func IsOptionalMiss(err error) bool {
	var miss *OptionalFileNotFoundError
	return errors.As(err, &miss)
}

// ClassifyKind maps an error to its Kind for summary counting.
func ClassifyKind(err error) Kind {
	var (
		auth      *AuthError
		rateLimit *RateLimitError
		status    *StatusError
		transport *TransportError
		notFound  *FileNotFoundError
		optional  *OptionalFileNotFoundError
	)
	switch {
	case errors.As(err, &auth):
		return KindAuth
	case errors.As(err, &rateLimit):
		return KindRateLimit
	case errors.As(err, &transport):
		return KindNetwork
	case errors.As(err, &notFound), errors.As(err, &optional):
		return KindNotFound
	case errors.As(err, &status):
		switch {
		case status.Status == 404:
			return KindNotFound
		case status.Status >= 500:
			return KindNetwork
		default:
			return KindOther
		}
	default:
		return KindOther
	}
}
