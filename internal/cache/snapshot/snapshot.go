// Package snapshot encodes the persisted route cache document.
//
// The document is a JSON object mapping cache key to an array of [lon, lat]
// pairs. Members are written oldest-inserted first and read back in the same
// order, which is what the cache uses to rebuild its eviction order.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

var (
	ErrNotFound = errors.New("snapshot not found")
	ErrCorrupt  = errors.New("snapshot corrupt")
)

type Entry struct {
	Key      string
	Geometry model.Geometry
}

// Snapshot lists entries oldest-inserted first.
type Snapshot []Entry

func Encode(w io.Writer, s Snapshot) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, e := range s {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		k, err := json.Marshal(e.Key)
		if err != nil {
			return fmt.Errorf("encode key %q: %w", e.Key, err)
		}
		buf.Write(k)
		buf.WriteString(": ")

		pairs := make([][2]float64, len(e.Geometry))
		for j, c := range e.Geometry {
			pairs[j] = [2]float64{c.Lon, c.Lat}
		}
		v, err := json.Marshal(pairs)
		if err != nil {
			return fmt.Errorf("encode geometry %q: %w", e.Key, err)
		}
		buf.Write(v)
	}
	if len(s) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func Marshal(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode fails with ErrCorrupt on malformed JSON. Well formed entries that break
// geometry invariants (fewer than 2 points, out of range) are dropped and counted.
func Decode(r io.Reader) (Snapshot, int, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("%w: empty document", ErrCorrupt)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, 0, fmt.Errorf("%w: top level must be an object", ErrCorrupt)
	}

	var out Snapshot
	skipped := 0
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		key, ok := kt.(string)
		if !ok {
			return nil, 0, fmt.Errorf("%w: non-string member name", ErrCorrupt)
		}

		var pairs [][]float64
		if err := dec.Decode(&pairs); err != nil {
			return nil, 0, fmt.Errorf("%w: member %q: %v", ErrCorrupt, key, err)
		}

		g, ok := toGeometry(pairs)
		if !ok {
			skipped++
			continue
		}
		out = append(out, Entry{Key: key, Geometry: g})
	}

	if _, err := dec.Token(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("%w: trailing data after object", ErrCorrupt)
	}
	return out, skipped, nil
}

func Unmarshal(b []byte) (Snapshot, int, error) {
	return Decode(bytes.NewReader(b))
}

func toGeometry(pairs [][]float64) (model.Geometry, bool) {
	g := make(model.Geometry, 0, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			return nil, false
		}
		g = append(g, model.Coordinate{Lon: p[0], Lat: p[1]})
	}
	if err := g.Validate(); err != nil {
		return nil, false
	}
	return g, true
}
