package httpx

import "net/http"

// Client abstracts the outbound HTTP client so moderation scorers can be
// exercised with a mock in tests.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}
