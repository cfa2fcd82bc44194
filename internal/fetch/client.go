package fetch

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// HTTPClient abstracts http.Client so tests can substitute a fake
// transport without standing up a server.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	requestTimeout   = 30 * time.Second
	maxAttempts      = 3
	baseBackoff      = 500 * time.Millisecond
	userAgentHeader  = "ai-fdocs (github.com/ai-fdocs/cargo-ai-fdocs)"
	githubAPIVersion = "2022-11-28"
)

// NewHTTPClient returns the default client used for all outbound
// requests.
func NewHTTPClient() HTTPClient {
	return &http.Client{Timeout: requestTimeout}
}

var warnNoTokenOnce sync.Once

// TokenFromEnv resolves the GitHub API token from GITHUB_TOKEN, then
// GH_TOKEN. The missing-token warning fires at most once per process;
// unauthenticated requests still work, just with a far lower rate limit.
func TokenFromEnv(logger *log.Logger) string {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}
	if token == "" {
		warnNoTokenOnce.Do(func() {
			logger.Warn("no GITHUB_TOKEN or GH_TOKEN set; using unauthenticated GitHub API (60 requests/hour)")
		})
	}
	return token
}

// retryPolicy controls how sendWithRetry classifies auth-shaped
// statuses. The GitHub API uses 403 for rate limiting, so both 403 and
// 429 become RateLimitError there; other hosts keep 403 as a plain
// status error.
type retryPolicy int

const (
	policyGitHub retryPolicy = iota
	policyPlain
)

// sendWithRetry issues a GET with up to maxAttempts tries and a doubling
// backoff between them. Terminal statuses (auth, rate limit) fail
// immediately; 5xx and transport errors retry. The caller owns the
// response body on success.
func sendWithRetry(ctx context.Context, client HTTPClient, url string, headers map[string]string, policy retryPolicy) (*http.Response, error) {
	backoff := baseBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, &TransportError{URL: url, Err: ctx.Err()}
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &TransportError{URL: url, Err: err}
		}
		req.Header.Set("User-Agent", userAgentHeader)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = &TransportError{URL: url, Err: err}
			continue
		}

		switch code := resp.StatusCode; {
		case policy == policyGitHub && code == 401:
			resp.Body.Close()
			return nil, &AuthError{URL: url, Status: code}
		case policy == policyGitHub && (code == 403 || code == 429):
			resp.Body.Close()
			return nil, &RateLimitError{URL: url, Status: code}
		case code >= 500 || (policy == policyPlain && code == 429):
			resp.Body.Close()
			lastErr = &StatusError{URL: url, Status: code}
			continue
		default:
			return resp, nil
		}
	}

	return nil, lastErr
}
