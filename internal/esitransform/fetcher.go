package esitransform

import (
	"context"
	"net/http"
)

// Fetcher performs the HTTP round trip behind esi:include. It is the
// transformer's only side-effecting dependency, so tests can substitute a
// stub without standing up a real server.
type Fetcher interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

func (f FetcherFunc) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

// DefaultFetcher dispatches through http.DefaultClient.
var DefaultFetcher Fetcher = FetcherFunc(func(ctx context.Context, req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req.WithContext(ctx))
})
