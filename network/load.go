// SPDX-License-Identifier: MIT

package network

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a case file (YAML, or JSON as a YAML subset), fills dependent
// values and validates the result.
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("network: open case: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode is Load over an arbitrary reader.
func Decode(r io.Reader) (*Network, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("network: read case: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var n Network
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("network: decode case: %w", err)
	}
	n.CalculateDependentValues()
	if err := n.Validate(); err != nil {
		return nil, err
	}

	return &n, nil
}

// Timeline is the ordered snapshot axis of a network.
type Timeline []time.Time

var timelineLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// UnmarshalYAML accepts RFC 3339 timestamps as well as the space-separated
// and date-only forms common in exported time series, quoted or not.
func (tl *Timeline) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("network: line %d: snapshots must be a sequence", node.Line)
	}
	out := make(Timeline, 0, len(node.Content))
	for _, item := range node.Content {
		t, err := parseSnapshot(item.Value)
		if err != nil {
			return fmt.Errorf("network: line %d: %w", item.Line, err)
		}
		out = append(out, t)
	}
	*tl = out

	return nil
}

func parseSnapshot(s string) (time.Time, error) {
	for _, layout := range timelineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unparsable snapshot %q", s)
}
