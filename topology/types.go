// SPDX-License-Identifier: MIT

package topology

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for topology operations.
var (
	// ErrTopology is matched by every *TopologyError.
	ErrTopology = errors.New("topology: invalid topology")

	// ErrUnknownKey indicates a branch key absent from the graph.
	ErrUnknownKey = errors.New("topology: unknown branch")
)

// Component names a branch table. Components are not interchangeable:
// a line and a link may share a name and remain distinct branches.
type Component string

// Branch component types.
const (
	Line Component = "Line"
	Link Component = "Link"
)

// DefaultComponents is the branch set used when none is given.
var DefaultComponents = []Component{Line, Link}

// BranchKey identifies a branch by (component, name).
type BranchKey struct {
	Component Component
	Name      string
}

// String renders the key as "Component:name", the label used in frames.
func (k BranchKey) String() string { return string(k.Component) + ":" + k.Name }

// ParseBranchKey is the inverse of BranchKey.String.
func ParseBranchKey(s string) (BranchKey, error) {
	c, name, ok := strings.Cut(s, ":")
	if !ok || (Component(c) != Line && Component(c) != Link) {
		return BranchKey{}, fmt.Errorf("%w: malformed key %q", ErrUnknownKey, s)
	}

	return BranchKey{Component: Component(c), Name: name}, nil
}

// TopologyError reports a structural defect: a branch that references an
// unknown bus, or a network without the reference bus a method needs.
type TopologyError struct {
	Branch BranchKey // zero when the defect is not tied to a branch
	Bus    string
	Reason string
}

func (e *TopologyError) Error() string {
	var b strings.Builder
	b.WriteString("topology: ")
	if e.Branch.Name != "" {
		fmt.Fprintf(&b, "branch %s: ", e.Branch)
	}
	if e.Bus != "" {
		fmt.Fprintf(&b, "bus %q: ", e.Bus)
	}
	b.WriteString(e.Reason)

	return b.String()
}

// Unwrap lets errors.Is(err, ErrTopology) match.
func (e *TopologyError) Unwrap() error { return ErrTopology }

// Branch is one directed edge of the graph.
type Branch struct {
	Key  BranchKey
	Bus0 string
	Bus1 string
}
