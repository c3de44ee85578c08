// Package esitransform implements the ESI directive dispatch table of
// spec.md §4.7: the table of esi:<name> handlers driven by
// internal/domtree.BuildTransform, include resolution against a Fetcher,
// esi:try/except error recovery, esi:choose/when branch selection, and
// $(...) variable substitution within apply_vars-enabled subtrees.
package esitransform

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/clems4ever/esi-stream/internal/domtree"
	"github.com/clems4ever/esi-stream/internal/esiexpr"
	"github.com/clems4ever/esi-stream/internal/esivars"
)

// Namespace is the ESI directive namespace URI, regardless of which prefix
// a document maps to it.
const Namespace = "http://www.edge-delivery.org/esi/1.0"

// ProcessIncludeResponseFunc turns a successful include response into
// replacement text. A nil value means "read the response body as text".
type ProcessIncludeResponseFunc func(ctx context.Context, u *url.URL, headers http.Header, resp *http.Response) (string, error)

// IncludeErrorInfo is passed to a HandleIncludeErrorFunc after every
// candidate for an esi:include has failed.
type IncludeErrorInfo struct {
	URL     *url.URL
	Headers http.Header
	Element *domtree.Element
}

// HandleIncludeErrorFunc may override include failure with replacement
// text. handled=false falls through to the onerror/IncludeError rule.
type HandleIncludeErrorFunc func(ctx context.Context, info IncludeErrorInfo) (customErrorString string, handled bool)

// Transformer holds everything one esi:-dispatch pass needs: the document
// owning namespace resolution, the variable resolver, the include fetcher,
// and the request context (base URL/headers) includes are resolved against.
// It is single-use per stream instance and not safe for concurrent calls,
// matching spec.md §5's single-task model.
type Transformer struct {
	Doc       *domtree.Document
	Namespace string // "" disables ESI dispatch entirely (esi_prefix == nil)
	Resolver  esivars.Resolver

	Fetcher Fetcher
	BaseURL *url.URL
	Headers http.Header

	ProcessIncludeResponse ProcessIncludeResponseFunc
	HandleIncludeError     HandleIncludeErrorFunc

	Depth  int
	Logger *slog.Logger

	applyVars bool
}

func (t *Transformer) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

// Transform runs the dispatch table over target's subtree and returns the
// node list that should replace it at its original position.
func (t *Transformer) Transform(ctx context.Context, target *domtree.Element) ([]domtree.Node, error) {
	fn := func(el *domtree.Element, parent *domtree.Element) (domtree.TransformResult, error) {
		return t.dispatch(ctx, el, parent)
	}
	return domtree.BuildTransform(t.Doc, fn)(target)
}

func (t *Transformer) dispatch(ctx context.Context, el *domtree.Element, parent *domtree.Element) (domtree.TransformResult, error) {
	if t.Namespace == "" || el.Namespace != t.Namespace {
		if t.applyVars {
			t.substituteTextChildren(el)
		}
		return domtree.Unchanged(), nil
	}

	switch el.LocalName {
	case "comment":
		return domtree.Remove(), nil
	case "remove":
		return domtree.Remove(), nil
	case "include":
		return t.include(ctx, el)
	case "try":
		return t.try(ctx, el)
	case "attempt", "except":
		return domtree.TransformResult{}, &StructureError{Element: el, Message: "esi:" + el.LocalName + " outside esi:try"}
	case "vars":
		nodes, err := t.processChildren(ctx, el.Children, true)
		if err != nil {
			return domtree.TransformResult{}, err
		}
		return domtree.SpliceWith(nodes), nil
	case "choose":
		return t.choose(ctx, el)
	case "when", "otherwise":
		return domtree.TransformResult{}, &StructureError{Element: el, Message: "esi:" + el.LocalName + " outside esi:choose"}
	case "text":
		return domtree.SpliceWith(el.Children), nil
	default:
		return domtree.TransformResult{}, &StructureError{Element: el, Message: "Unknown esi tag esi:" + el.LocalName}
	}
}

// substituteTextChildren rewrites el's own immediate Text children in
// place. Element children are left for the walker's normal descent (which
// re-invokes dispatch on them, carrying the current applyVars state).
func (t *Transformer) substituteTextChildren(el *domtree.Element) {
	for i, child := range el.Children {
		if txt, ok := child.(domtree.Text); ok {
			el.Children[i] = domtree.Text(esivars.Substitute(string(txt), t.Resolver))
		}
	}
}

// processChildren transforms nodes as if they were the children of an
// element whose apply_vars scope is enabled, set to withVars for the
// duration of the call. Text nodes are substituted directly; Element nodes
// are re-run through the full dispatch table via BuildTransform so nested
// ESI directives still fire. The previous apply_vars value is restored
// before returning, matching spec.md §4.7's "restored on exit" rule.
func (t *Transformer) processChildren(ctx context.Context, nodes []domtree.Node, withVars bool) ([]domtree.Node, error) {
	prev := t.applyVars
	t.applyVars = withVars
	defer func() { t.applyVars = prev }()

	out := make([]domtree.Node, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case domtree.Text:
			if withVars {
				out = append(out, domtree.Text(esivars.Substitute(string(v), t.Resolver)))
			} else {
				out = append(out, v)
			}
		case domtree.Raw:
			out = append(out, v)
		case *domtree.Element:
			replaced, err := t.Transform(ctx, v)
			if err != nil {
				return nil, err
			}
			out = append(out, replaced...)
		}
	}
	return out, nil
}

func attr(el *domtree.Element, local string) (string, bool) {
	a, ok := el.Attributes[domtree.AttrKey{Namespace: "", Local: local}]
	if !ok {
		return "", false
	}
	return a.Value, true
}

func (t *Transformer) try(ctx context.Context, el *domtree.Element) (domtree.TransformResult, error) {
	var attempt, except *domtree.Element
	for _, child := range el.Children {
		ce, ok := child.(*domtree.Element)
		if !ok || ce.Namespace != t.Namespace {
			continue
		}
		switch ce.LocalName {
		case "attempt":
			if attempt != nil {
				return domtree.TransformResult{}, &StructureError{Element: el, Message: "esi:try has more than one esi:attempt"}
			}
			attempt = ce
		case "except":
			if except != nil {
				return domtree.TransformResult{}, &StructureError{Element: el, Message: "esi:try has more than one esi:except"}
			}
			except = ce
		}
	}
	if attempt == nil || except == nil {
		return domtree.TransformResult{}, &StructureError{Element: el, Message: "esi:try requires exactly one esi:attempt and one esi:except"}
	}

	nodes, err := t.processChildren(ctx, attempt.Children, true)
	if err == nil {
		return domtree.SpliceWith(nodes), nil
	}
	var incErr *IncludeError
	if !errors.As(err, &incErr) {
		return domtree.TransformResult{}, err
	}

	nodes, err = t.processChildren(ctx, except.Children, true)
	if err != nil {
		return domtree.TransformResult{}, err
	}
	return domtree.SpliceWith(nodes), nil
}

func (t *Transformer) choose(ctx context.Context, el *domtree.Element) (domtree.TransformResult, error) {
	var whens []*domtree.Element
	var otherwise *domtree.Element
	for _, child := range el.Children {
		ce, ok := child.(*domtree.Element)
		if !ok || ce.Namespace != t.Namespace {
			continue
		}
		switch ce.LocalName {
		case "when":
			whens = append(whens, ce)
		case "otherwise":
			if otherwise != nil {
				return domtree.TransformResult{}, &StructureError{Element: el, Message: "esi:choose has more than one esi:otherwise"}
			}
			otherwise = ce
		}
	}
	if len(whens) == 0 {
		return domtree.TransformResult{}, &StructureError{Element: el, Message: "esi:choose requires at least one esi:when"}
	}

	prev := t.applyVars
	t.applyVars = true
	defer func() { t.applyVars = prev }()

	for _, when := range whens {
		test, ok := attr(when, "test")
		if !ok {
			return domtree.TransformResult{}, &StructureError{Element: when, Message: "esi:when requires a test attribute"}
		}
		ok, err := esiexpr.Evaluate(test, t.Resolver)
		if err != nil {
			t.logger().Warn("esi:when expression error", "test", test, "err", err)
		}
		if ok {
			nodes, err := t.processChildren(ctx, when.Children, true)
			if err != nil {
				return domtree.TransformResult{}, err
			}
			return domtree.SpliceWith(nodes), nil
		}
	}

	if otherwise != nil {
		nodes, err := t.processChildren(ctx, otherwise.Children, true)
		if err != nil {
			return domtree.TransformResult{}, err
		}
		return domtree.SpliceWith(nodes), nil
	}
	return domtree.Remove(), nil
}

func (t *Transformer) include(ctx context.Context, el *domtree.Element) (domtree.TransformResult, error) {
	var candidates []string
	if src, ok := attr(el, "src"); ok {
		candidates = append(candidates, esivars.Substitute(src, t.Resolver))
	}
	if alt, ok := attr(el, "alt"); ok {
		candidates = append(candidates, esivars.Substitute(alt, t.Resolver))
	}

	var lastErr error
	for _, c := range candidates {
		u, err := t.resolveCandidate(c)
		if err != nil {
			lastErr = err
			continue
		}
		replacement, err := t.fetchOne(ctx, u)
		if err != nil {
			lastErr = err
			t.logger().Info("esi:include candidate failed", "url", u.String(), "err", err)
			continue
		}
		t.logger().Info("esi:include succeeded", "url", u.String())
		return domtree.ReplaceWith(domtree.Text(replacement)), nil
	}

	return t.includeFailed(ctx, el, lastErr)
}

func (t *Transformer) resolveCandidate(raw string) (*url.URL, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if t.BaseURL != nil {
		return t.BaseURL.ResolveReference(ref), nil
	}
	return ref, nil
}

func (t *Transformer) fetchOne(ctx context.Context, u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header = t.Headers.Clone()
	if t.BaseURL != nil && u.Host != "" && u.Host != t.BaseURL.Host {
		req.Header.Set("Host", u.Host)
		req.Host = u.Host
	}

	fetcher := t.Fetcher
	if fetcher == nil {
		fetcher = DefaultFetcher
	}
	resp, err := fetcher.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &httpStatusError{URL: u.String(), Status: resp.StatusCode}
	}

	if t.ProcessIncludeResponse != nil {
		return t.ProcessIncludeResponse(ctx, u, t.Headers, resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (t *Transformer) includeFailed(ctx context.Context, el *domtree.Element, cause error) (domtree.TransformResult, error) {
	if t.HandleIncludeError != nil {
		info := IncludeErrorInfo{URL: t.BaseURL, Headers: t.Headers, Element: el}
		if custom, handled := t.HandleIncludeError(ctx, info); handled {
			return domtree.ReplaceWith(domtree.Text(custom)), nil
		}
	}

	if onerror, ok := attr(el, "onerror"); ok {
		if strings.TrimSpace(esivars.Substitute(onerror, t.Resolver)) == "continue" {
			return domtree.Remove(), nil
		}
	}

	return domtree.TransformResult{}, &IncludeError{Element: el, Cause: cause}
}

type httpStatusError struct {
	URL    string
	Status int
}

func (e *httpStatusError) Error() string {
	return "esitransform: " + e.URL + " returned status " + strconv.Itoa(e.Status) + " " + http.StatusText(e.Status)
}
