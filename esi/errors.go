package esi

import (
	"fmt"

	"github.com/clems4ever/esi-stream/internal/domtree"
	"github.com/clems4ever/esi-stream/internal/esitransform"
	"github.com/clems4ever/esi-stream/internal/streamctx"
)

// The façade re-exports the internal error taxonomy under the names
// spec.md §7 gives them, so callers only need "esi" for errors.As/errors.Is.
type (
	RecognizerError = streamctx.RecognizerError
	NamespaceError  = domtree.NamespaceError
	StructureError  = esitransform.StructureError
	IncludeError    = esitransform.IncludeError
	ExpressionError = esitransform.ExpressionError
)

// ConfigurationError is raised by NewStream when Options.EsiPrefix names a
// string that is not a valid XML identifier ([A-Za-z][-A-Za-z0-9]*).
type ConfigurationError struct {
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("esi: invalid esi_prefix %q", e.Value)
}

func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)
	return ok
}
