// Package keys builds cache keys for resolved route geometries.
package keys

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

const maxNameLen = 120

// RouteKey identifies a route geometry by name and endpoints, so a route whose
// endpoints move gets a new key instead of a stale path.
//
//	<sanitized name>@<xxhash64 of raw name and endpoints>
func RouteKey(name string, start, end model.Coordinate) string {
	name = strings.TrimSpace(name)
	safe := sanitizeName(collapseASCIIWhitespace(name))
	if len(safe) > maxNameLen {
		safe = safe[:maxNameLen]
	}
	sum := xxhash.Sum64String(name + "|" + endpoint(start) + "|" + endpoint(end))
	return fmt.Sprintf("%s@%016x", safe, sum)
}

// NamePart returns the sanitized route name a key was built from.
func NamePart(key string) string {
	if i := strings.LastIndexByte(key, '@'); i >= 0 {
		return key[:i]
	}
	return key
}

// MatchesRoute reports whether key was built for the named route (any endpoints).
func MatchesRoute(key, name string) bool {
	safe := sanitizeName(collapseASCIIWhitespace(strings.TrimSpace(name)))
	if len(safe) > maxNameLen {
		safe = safe[:maxNameLen]
	}
	return safe != "" && NamePart(key) == safe
}

// StoreKey is the redis key holding one cache snapshot.
func StoreKey(namespace string) string {
	ns := sanitizeName(strings.TrimSpace(namespace))
	if ns == "" {
		ns = "default"
	}
	return "routecache:" + ns
}

// full precision so that distinct endpoints never share a fingerprint input
func endpoint(c model.Coordinate) string {
	return strconv.FormatFloat(c.Lon, 'g', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'g', -1, 64)
}

func sanitizeName(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

// converts any run of ASCII whitespace to a single space.
func collapseASCIIWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasWS := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return strings.TrimSpace(b.String())
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
