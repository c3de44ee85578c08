package main

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/clems4ever/esi-stream/internal/esitransform"
)

// timeoutFetcher wraps the default Fetcher with a per-request timeout: the
// transformer itself imposes none, leaving it to "the host fetch" per
// spec.md §5.
func timeoutFetcher(timeout time.Duration) esitransform.Fetcher {
	return esitransform.FetcherFunc(func(ctx context.Context, req *http.Request) (*http.Response, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := esitransform.DefaultFetcher.Do(ctx, req)
		if err != nil {
			cancel()
			return nil, err
		}
		resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	})
}

// cancelOnClose defers releasing the timeout context until the response
// body is closed, so the deadline covers the body read too, not just the
// round trip that returned headers.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
