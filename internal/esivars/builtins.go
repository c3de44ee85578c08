package esivars

import (
	"net/http"
	"net/url"
	"strings"
)

// Resolver is the subset of Set's surface that esiexpr.Resolver and
// Substitute both need: resolve a variable, or one of its sub-keys, to its
// quoted string form.
type Resolver interface {
	Value(name string) (string, bool)
	SubValue(name, sub string) (string, bool)
}

// Set is the built-in ESI variable namespace derived from a single request,
// per spec.md §4.5. It is immutable once built by New.
type Set struct {
	vars map[string]Variable
}

func (s *Set) Value(name string) (string, bool) {
	v, ok := s.vars[name]
	if !ok {
		return "", false
	}
	return v.GetValue(), true
}

func (s *Set) SubValue(name, sub string) (string, bool) {
	v, ok := s.vars[name]
	if !ok {
		return "", false
	}
	return v.GetSubValue(sub)
}

// New builds the built-in variable set for a single request. HTTP_HOST and
// HTTP_REFERER are only present when the corresponding input is non-empty;
// HTTP_ACCEPT_LANGUAGE, HTTP_COOKIE, HTTP_USER_AGENT, and QUERY_STRING are
// always present, defaulting to their empty forms.
func New(u *url.URL, headers http.Header) *Set {
	s := &Set{vars: make(map[string]Variable)}

	if host := headers.Get("Host"); host != "" {
		s.vars["HTTP_HOST"] = scalarVariable(host)
	}
	if ref := headers.Get("Referer"); ref != "" {
		s.vars["HTTP_REFERER"] = scalarVariable(ref)
	}

	s.vars["HTTP_ACCEPT_LANGUAGE"] = newAcceptLanguage(headers.Get("Accept-Language"))
	s.vars["HTTP_COOKIE"] = newCookieVariable(headers.Get("Cookie"))
	s.vars["HTTP_USER_AGENT"] = newUserAgentVariable(headers.Get("User-Agent"))

	rawQuery := ""
	if u != nil {
		rawQuery = u.RawQuery
	}
	s.vars["QUERY_STRING"] = newQueryStringVariable(rawQuery)

	return s
}

// newAcceptLanguage turns "en-US,en;q=0.9,fr;q=0.8" into a membership list
// keyed by the bare language tag (the part before any "-" or ";").
func newAcceptLanguage(raw string) listVariable {
	members := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if semi := strings.IndexByte(tag, ';'); semi >= 0 {
			tag = tag[:semi]
		}
		if dash := strings.IndexByte(tag, '-'); dash >= 0 {
			tag = tag[:dash]
		}
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			members[tag] = true
		}
	}
	return listVariable{raw: raw, members: members}
}

// newCookieVariable parses a "Cookie" header's "name=value; name2=value2"
// pairs into a dictionary keyed by cookie name.
func newCookieVariable(raw string) dictVariable {
	values := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		values[strings.TrimSpace(name)] = value
	}
	return dictVariable{raw: raw, values: values}
}

// newQueryStringVariable parses a URL's raw query into a dictionary keyed by
// parameter name. Repeated keys keep only their first value, matching
// url.Values' [0] convention for a single-valued sub-key lookup.
func newQueryStringVariable(raw string) dictVariable {
	values := make(map[string]string)
	if parsed, err := url.ParseQuery(raw); err == nil {
		for k, vs := range parsed {
			if len(vs) > 0 {
				values[k] = vs[0]
			}
		}
	}
	return dictVariable{raw: raw, values: values}
}
