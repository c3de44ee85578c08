// Package esi is the public façade: it wires internal/streamctx,
// internal/esitransform, and internal/esivars into one Stream per spec.md
// §4.8, and re-exports the error taxonomy callers need for errors.As/Is.
package esi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/clems4ever/esi-stream/internal/domtree"
	"github.com/clems4ever/esi-stream/internal/esitransform"
	"github.com/clems4ever/esi-stream/internal/esivars"
	"github.com/clems4ever/esi-stream/internal/streamctx"
)

// Stream transforms one byte stream into another, applying ESI directives
// as complete top-level elements are recognized. It is driven by a single
// producer goroutine calling Write (then Close) and read by a single
// consumer goroutine draining Output or Reader, matching spec.md §5's
// single-logical-producer/single-logical-consumer model; a Stream is not
// safe for concurrent Write calls.
type Stream struct {
	ctx    context.Context
	sctx   *streamctx.Context
	tr     *esitransform.Transformer
	logger *slog.Logger

	out       chan []byte
	closeOnce sync.Once
	err       error
}

// NewStream builds a Stream transforming includes resolved against baseURL,
// forwarding headers to each esi:include request. ctx governs cancellation:
// canceling it unblocks any pending Output send and any in-flight Fetcher
// call, discarding their results, per spec.md §5.
func NewStream(ctx context.Context, baseURL *url.URL, headers http.Header, opts Options) (*Stream, error) {
	prefix, namespace, err := resolvePrefix(opts.EsiPrefix)
	if err != nil {
		return nil, err
	}

	prefixes := map[string]string{}
	if namespace != "" {
		prefixes[prefix] = namespace
	}
	// Unknown prefixes (any tag not under the declared esi prefix) resolve
	// to the empty namespace rather than erroring, so that an ESI-looking
	// tag under a different or undeclared prefix passes through verbatim
	// (spec.md §8 S7) instead of aborting the whole stream.
	doc := domtree.NewDocument(prefixes, true)

	resolver := opts.Vars
	if resolver == nil {
		resolver = esivars.New(baseURL, headers)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Stream{
		ctx:    ctx,
		logger: logger,
		out:    make(chan []byte),
	}

	tr := &esitransform.Transformer{
		Doc:                doc,
		Namespace:          namespace,
		Resolver:           resolver,
		Fetcher:            opts.Fetcher,
		BaseURL:            baseURL,
		Headers:            headers,
		HandleIncludeError: opts.HandleIncludeError,
		Depth:              opts.depth,
		Logger:             logger,
	}
	tr.ProcessIncludeResponse = opts.ProcessIncludeResponse
	if tr.ProcessIncludeResponse == nil {
		tr.ProcessIncludeResponse = s.defaultProcessIncludeResponse(opts)
	}
	s.tr = tr

	s.sctx = streamctx.New(doc, streamctx.Options{
		IgnoreDefaultTags: true,
		BeforeProcess:     streamctx.NewCommentStripper(),
	})
	s.sctx.OnChild = s.emit

	return s, nil
}

// Write feeds p into the stream, dispatching every ESI directive that
// becomes fully closed as a result, emitting their replacement text (and
// any plain text between them) on Output before returning. A non-nil error
// is fatal: the stream is done and Output has been closed.
func (s *Stream) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if err := s.sctx.Append(string(p)); err != nil {
		s.fail(err)
		return 0, err
	}
	return len(p), nil
}

// Close flushes any trailing buffered text, force-closing still-open
// elements exactly as they stand, and closes Output. It is the producer's
// signal that no more bytes are coming.
func (s *Stream) Close() error {
	if s.err != nil {
		return s.err
	}
	if err := s.sctx.Flush(true); err != nil {
		s.fail(err)
		return err
	}
	s.closeOut()
	return nil
}

// Output returns the channel Write/Close send transformed chunks to. It is
// closed once the stream is done, successfully or not; check Err
// afterwards.
func (s *Stream) Output() <-chan []byte {
	return s.out
}

// Err returns the error that ended the stream, if any. Only meaningful
// after Output has been drained to closure.
func (s *Stream) Err() error {
	return s.err
}

// Reader adapts Output into an io.Reader for callers that prefer pull-based
// consumption (e.g. http.ResponseWriter plumbing via io.Copy).
func (s *Stream) Reader() io.Reader {
	return &streamReader{s: s}
}

func (s *Stream) fail(err error) {
	s.logger.Error("esi stream failed", "err", err)
	s.err = err
	s.closeOut()
}

func (s *Stream) closeOut() {
	s.closeOnce.Do(func() { close(s.out) })
}

// emit is streamctx's OnChild hook: it runs the completed node through the
// transformer (elements only; text/raw pass straight through) and forwards
// the resulting bytes downstream. A blocked send here is the stream's
// backpressure point.
func (s *Stream) emit(n domtree.Node) error {
	var text string
	switch v := n.(type) {
	case domtree.Text:
		text = string(v)
	case domtree.Raw:
		text = string(v)
	case *domtree.Element:
		nodes, err := s.tr.Transform(s.ctx, v)
		if err != nil {
			return err
		}
		text = domtree.SerializeNodes(nodes)
	}
	if text == "" {
		return nil
	}
	select {
	case s.out <- []byte(text):
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// defaultProcessIncludeResponse implements spec.md §4.8's recursive-ESI
// default: the include's response body is piped through a fresh Stream
// carrying the same Options one depth deeper, and collected to a string.
// The child Stream's single producer goroutine is this function's own
// io.Copy; the calling goroutine (the parent Transformer's single task) is
// its single consumer, keeping both streams single-producer/single-consumer.
func (s *Stream) defaultProcessIncludeResponse(opts Options) esitransform.ProcessIncludeResponseFunc {
	return func(ctx context.Context, u *url.URL, headers http.Header, resp *http.Response) (string, error) {
		nested := opts
		nested.depth = opts.depth + 1

		child, err := NewStream(ctx, u, headers, nested)
		if err != nil {
			return "", err
		}

		go func() {
			_, copyErr := io.Copy(child, resp.Body)
			closeErr := child.Close()
			if copyErr != nil {
				child.setErrIfUnset(copyErr)
			} else if closeErr != nil {
				child.setErrIfUnset(closeErr)
			}
		}()

		var sb strings.Builder
		for chunk := range child.Output() {
			sb.Write(chunk)
		}
		if err := child.Err(); err != nil {
			return "", err
		}
		s.logger.Info("esi:include served via recursive stream", "url", u.String(), "depth", nested.depth)
		return sb.String(), nil
	}
}

func (s *Stream) setErrIfUnset(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
}

type streamReader struct {
	s   *Stream
	buf []byte
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		chunk, ok := <-r.s.Output()
		if !ok {
			if err := r.s.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		r.buf = chunk
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
