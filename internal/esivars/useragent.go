package esivars

import (
	"regexp"
	"strings"
)

var versionRe = regexp.MustCompile(`\d+\.\d+`)

// userAgentVariable is HTTP_USER_AGENT: a dictionary with three fixed
// sub-keys (browser, version, os) derived from the raw header.
type userAgentVariable struct {
	raw     string
	browser string
	version string
	os      string
}

func newUserAgentVariable(raw string) userAgentVariable {
	return userAgentVariable{
		raw:     raw,
		browser: classifyBrowser(raw),
		version: versionRe.FindString(raw),
		os:      classifyOS(raw),
	}
}

func (u userAgentVariable) GetValue() string { return quoteString(u.raw) }

func (u userAgentVariable) GetSubValue(key string) (string, bool) {
	switch key {
	case "browser":
		return quoteString(u.browser), true
	case "version":
		return quoteString(u.version), true
	case "os":
		return quoteString(u.os), true
	default:
		return "", false
	}
}

func classifyBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "MSIE"), strings.Contains(ua, "Trident"):
		return "MSIE"
	case strings.Contains(ua, "Mozilla"):
		return "MOZILLA"
	default:
		return "OTHER"
	}
}

func classifyOS(ua string) string {
	switch {
	case strings.Contains(ua, "Win"):
		return "WIN"
	case strings.Contains(ua, "Mac"):
		return "MAC"
	case strings.Contains(ua, "Linux"), strings.Contains(ua, "X11"), strings.Contains(ua, "Unix"):
		return "UNIX"
	default:
		return "OTHER"
	}
}
