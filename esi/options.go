package esi

import (
	"log/slog"
	"regexp"

	"github.com/clems4ever/esi-stream/internal/esitransform"
	"github.com/clems4ever/esi-stream/internal/esivars"
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z][-A-Za-z0-9]*$`)

// Options configures a Stream, matching spec.md §6's Stream API table.
type Options struct {
	// Vars resolves ESI variable references. Default: the built-in set
	// derived from the stream's base URL and headers (internal/esivars.New).
	Vars esivars.Resolver

	// Fetcher performs the GET behind esi:include. Default: DefaultFetcher
	// (http.DefaultClient).
	Fetcher esitransform.Fetcher

	// ProcessIncludeResponse turns a successful include response into
	// replacement text. Default: pipe the body through a fresh Stream with
	// the same Options at depth+1 (recursive ESI).
	ProcessIncludeResponse esitransform.ProcessIncludeResponseFunc

	// HandleIncludeError may override include failure with replacement
	// text, once every src/alt candidate has failed.
	HandleIncludeError esitransform.HandleIncludeErrorFunc

	// EsiPrefix selects the esi: namespace prefix:
	//   nil              -> default, "esi"
	//   pointer to ""    -> disable ESI dispatch entirely (no namespace declared)
	//   pointer to other -> that prefix, validated as an XML identifier
	// An invalid identifier fails NewStream with a *ConfigurationError.
	EsiPrefix *string

	// Logger receives one line per include dispatched/failed/served from
	// the recursive default, and one line per fatal stream error. Nil
	// means slog.Default().
	Logger *slog.Logger

	depth int
}

// resolvePrefix applies Options.EsiPrefix's three-state defaulting rule and
// returns the prefix to declare plus the namespace URI to map it to. An
// empty namespace means ESI dispatch is disabled.
func resolvePrefix(p *string) (prefix, namespace string, err error) {
	if p == nil {
		return "esi", esitransform.Namespace, nil
	}
	if *p == "" {
		return "", "", nil
	}
	if !prefixPattern.MatchString(*p) {
		return "", "", &ConfigurationError{Value: *p}
	}
	return *p, esitransform.Namespace, nil
}
