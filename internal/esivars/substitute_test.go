package esivars

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeResolver map[string]string

func (f fakeResolver) Value(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

func (f fakeResolver) SubValue(name, sub string) (string, bool) {
	v, ok := f[name+"{"+sub+"}"]
	return v, ok
}

func TestSubstituteScalarValue(t *testing.T) {
	h := http.Header{}
	h.Set("Host", "example.com")
	s := New(&url.URL{}, h)
	assert.Equal(t, "Host: example.com", Substitute("Host: $(HTTP_HOST)", s))
}

func TestSubstituteMissingWithoutDefaultIsEmpty(t *testing.T) {
	r := fakeResolver{}
	assert.Equal(t, "[]", Substitute("[$(MISSING)]", r))
}

func TestSubstituteMissingWithDefault(t *testing.T) {
	r := fakeResolver{}
	assert.Equal(t, "[fallback]", Substitute("[$(MISSING|'fallback')]", r))
}

func TestSubstituteUnquotedDefault(t *testing.T) {
	r := fakeResolver{}
	assert.Equal(t, "[fallback]", Substitute("[$(MISSING|fallback)]", r))
}

func TestSubstituteSubKey(t *testing.T) {
	r := fakeResolver{"LANGS{en}": "true"}
	assert.Equal(t, "[]", Substitute("[$(LANGS{en})]", r))
}

func TestSubstituteLiteralFalseWithoutDefaultIsEmpty(t *testing.T) {
	r := fakeResolver{"FLAG{x}": "false"}
	assert.Equal(t, "[]", Substitute("[$(FLAG{x})]", r))
}

func TestSubstituteLiteralFalseFallsBackToDefault(t *testing.T) {
	r := fakeResolver{"FLAG{x}": "false"}
	assert.Equal(t, "[no]", Substitute("[$(FLAG{x}|'no')]", r))
}

func TestSubstituteQuotedValueIsUnquoted(t *testing.T) {
	r := fakeResolver{"NAME": "'Alice'"}
	assert.Equal(t, "Hi Alice", Substitute("Hi $(NAME)", r))
}

func TestSubstituteMultipleReferences(t *testing.T) {
	r := fakeResolver{"A": "'1'", "B": "'2'"}
	assert.Equal(t, "1-2", Substitute("$(A)-$(B)", r))
}

func TestSubstituteNilResolver(t *testing.T) {
	assert.Equal(t, "[]", Substitute("[$(ANY)]", nil))
}
