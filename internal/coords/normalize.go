// Package coords parses free-text coordinate fields into canonical (lon,lat) pairs.
package coords

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

var ErrParse = errors.New("coordinate parse error")

// Supported layouts:
//
//	"48,2167;11,5667"  lat;lon, decimal comma
//	"48.2167;11.5667"  lat;lon, decimal point
//	"11.5667,48.2167"  lon,lat, decimal point
//
// "11,5667,48,2167" could be either order and is rejected.
func Parse(raw string) (model.Coordinate, error) {
	s := stripNoise(raw)
	if s == "" {
		return model.Coordinate{}, parseErr(raw, "no numeric components")
	}
	for _, r := range s {
		if !isAllowed(r) {
			return model.Coordinate{}, parseErr(raw, fmt.Sprintf("unexpected character %q", r))
		}
	}

	switch strings.Count(s, ";") {
	case 0:
		return parseLonLat(raw, s)
	case 1:
		return parseLatLon(raw, s)
	default:
		return model.Coordinate{}, parseErr(raw, "more than two components")
	}
}

// MustParse panics on malformed input; fixtures only.
func MustParse(raw string) model.Coordinate {
	c, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Format renders the canonical lon,lat form accepted by Parse.
func Format(c model.Coordinate) string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// "lat;lon", decimal separator is either '.' or ','
func parseLatLon(raw, s string) (model.Coordinate, error) {
	latText, lonText, _ := strings.Cut(s, ";")

	decComma := strings.Contains(s, ",")
	if decComma && strings.Contains(s, ".") {
		return model.Coordinate{}, parseErr(raw, "mixed decimal separators")
	}
	if decComma {
		latText = strings.Replace(latText, ",", ".", 1)
		lonText = strings.Replace(lonText, ",", ".", 1)
	}

	lat, err := parseNumber(latText)
	if err != nil {
		return model.Coordinate{}, parseErr(raw, "latitude: "+err.Error())
	}
	lon, err := parseNumber(lonText)
	if err != nil {
		return model.Coordinate{}, parseErr(raw, "longitude: "+err.Error())
	}
	return finish(raw, model.Coordinate{Lon: lon, Lat: lat})
}

// "lon,lat", decimal separator must be '.'
func parseLonLat(raw, s string) (model.Coordinate, error) {
	switch strings.Count(s, ",") {
	case 0:
		return model.Coordinate{}, parseErr(raw, "single component")
	case 1:
	case 3:
		return model.Coordinate{}, parseErr(raw, "ambiguous: decimal commas without ';' separator")
	default:
		return model.Coordinate{}, parseErr(raw, "more than two components")
	}

	lonText, latText, _ := strings.Cut(s, ",")
	lon, err := parseNumber(lonText)
	if err != nil {
		return model.Coordinate{}, parseErr(raw, "longitude: "+err.Error())
	}
	lat, err := parseNumber(latText)
	if err != nil {
		return model.Coordinate{}, parseErr(raw, "latitude: "+err.Error())
	}
	return finish(raw, model.Coordinate{Lon: lon, Lat: lat})
}

var numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// strconv alone would accept NaN, Inf and hex floats
func parseNumber(s string) (float64, error) {
	if !numberPattern.MatchString(s) {
		return 0, fmt.Errorf("not a decimal number: %q", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}

func finish(raw string, c model.Coordinate) (model.Coordinate, error) {
	if err := c.Validate(); err != nil {
		return model.Coordinate{}, parseErr(raw, err.Error())
	}
	return c, nil
}

// drops whitespace (tabs, NBSP included), degree signs and wrapping brackets
func stripNoise(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) || r == '°' || r == '\u200b' || r == '\ufeff' {
			continue
		}
		b.WriteRune(r)
	}
	s := b.String()
	if len(s) >= 2 {
		if (s[0] == '(' && s[len(s)-1] == ')') || (s[0] == '[' && s[len(s)-1] == ']') {
			s = s[1 : len(s)-1]
		}
	}
	return s
}

func isAllowed(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.' || r == ',' || r == ';' || r == '-' || r == '+'
}

func parseErr(raw, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrParse, raw, reason)
}
