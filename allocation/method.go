// SPDX-License-Identifier: MIT

package allocation

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/gridflow/topology"
)

// Direction selects which side of the injection pattern is traced.
type Direction int

const (
	// Downstream follows each source's power to where it is consumed.
	Downstream Direction = iota
	// Upstream follows each sink's demand back to where it was produced.
	Upstream
	// Both returns downstream and upstream results, tagged by direction.
	Both
)

func (d Direction) String() string {
	switch d {
	case Downstream:
		return "downstream"
	case Upstream:
		return "upstream"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "downstream", "upstream" and "both".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "downstream":
		return Downstream, nil
	case "upstream":
		return Upstream, nil
	case "both":
		return Both, nil
	}

	return 0, fmt.Errorf("allocation: unknown direction %q", s)
}

// Objective selects minimization or maximization of the squared color flows.
type Objective int

const (
	Min Objective = iota
	Max
)

func (o Objective) String() string {
	if o == Max {
		return "max"
	}

	return "min"
}

// ParseObjective accepts "min" and "max".
func ParseObjective(s string) (Objective, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "min":
		return Min, nil
	case "max":
		return Max, nil
	}

	return 0, fmt.Errorf("allocation: unknown objective %q", s)
}

// Method names.
const (
	NameAverageParticipation    = "average_participation"
	NameMarginalParticipation   = "marginal_participation"
	NameVirtualInjectionPattern = "virtual_injection_pattern"
	NameOptimalFlowShares       = "optimal_flow_shares"
)

// DefaultQ is the producer/consumer split of marginal participation.
const DefaultQ = 0.5

// Method is one of AverageParticipation, MarginalParticipation,
// VirtualInjectionPattern or OptimalFlowShares. The set is closed.
type Method interface {
	Name() string
	isMethod()
}

// AverageParticipation traces flows by proportional sharing.
type AverageParticipation struct {
	// PerBus allocates peer-to-peer (source, sink) instead of onto branches.
	PerBus bool
	// Normalized returns shares of the traced flow instead of MW.
	Normalized bool
	Direction  Direction
	// Disaggregated uses gross production and demand instead of the net
	// nodal injection.
	Disaggregated bool
	// BranchComponents defaults to lines and links.
	BranchComponents []topology.Component
}

// MarginalParticipation allocates line flows by PTDF sensitivities.
// Q = 0 is demand driven, Q = 1 production driven.
//
// Q is used as given: the zero value is the demand-driven split, not
// DefaultQ. NewMarginalParticipation and ParseMethod start from DefaultQ.
type MarginalParticipation struct {
	Q          float64
	PerBus     bool
	Normalized bool
}

// NewMarginalParticipation returns marginal participation with the
// balanced split Q = DefaultQ.
func NewMarginalParticipation() MarginalParticipation {
	return MarginalParticipation{Q: DefaultQ}
}

// VirtualInjectionPattern superposes the flows of single-source (or
// single-sink) injection patterns.
type VirtualInjectionPattern struct {
	PerBus     bool
	Normalized bool
	Direction  Direction
}

// OptimalFlowShares searches the color matrix that extremizes the squared
// PTDF-mapped flows. MaxIter and Tol default to the solver defaults.
type OptimalFlowShares struct {
	Objective Objective
	Direction Direction
	PerBus    bool
	MaxIter   int
	Tol       float64
}

func (AverageParticipation) Name() string    { return NameAverageParticipation }
func (MarginalParticipation) Name() string   { return NameMarginalParticipation }
func (VirtualInjectionPattern) Name() string { return NameVirtualInjectionPattern }
func (OptimalFlowShares) Name() string       { return NameOptimalFlowShares }

func (AverageParticipation) isMethod()    {}
func (MarginalParticipation) isMethod()   {}
func (VirtualInjectionPattern) isMethod() {}
func (OptimalFlowShares) isMethod()       {}

var methodAliases = map[string]func() Method{
	"average participation":     func() Method { return AverageParticipation{} },
	NameAverageParticipation:    func() Method { return AverageParticipation{} },
	"ap":                        func() Method { return AverageParticipation{} },
	"marginal participation":    func() Method { return NewMarginalParticipation() },
	NameMarginalParticipation:   func() Method { return NewMarginalParticipation() },
	"mp":                        func() Method { return NewMarginalParticipation() },
	"virtual injection pattern": func() Method { return VirtualInjectionPattern{} },
	NameVirtualInjectionPattern: func() Method { return VirtualInjectionPattern{} },
	"vip":                       func() Method { return VirtualInjectionPattern{} },
	"minimal flow shares":       func() Method { return OptimalFlowShares{} },
	NameOptimalFlowShares:       func() Method { return OptimalFlowShares{} },
	"mfs":                       func() Method { return OptimalFlowShares{} },
	"ofs":                       func() Method { return OptimalFlowShares{} },
}

// ValidMethods lists the accepted identifiers in presentation order.
var ValidMethods = []string{
	"Average participation", NameAverageParticipation, "ap",
	"Marginal participation", NameMarginalParticipation, "mp",
	"Virtual injection pattern", NameVirtualInjectionPattern, "vip",
	"Minimal flow shares", NameOptimalFlowShares, "mfs", "ofs",
}

// ParseMethod resolves a long name, identifier or short alias
// (case-insensitive) to a method with default options.
// Errors: *UnsupportedMethodError.
func ParseMethod(name string) (Method, error) {
	if mk, ok := methodAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return mk(), nil
	}

	return nil, &UnsupportedMethodError{Name: name, Valid: append([]string(nil), ValidMethods...)}
}
