// SPDX-License-Identifier: MIT

// Package injection aggregates per-snapshot nodal quantities of a network:
// net injection from branch flows, gross production and demand of one-bus
// components (optionally split by carrier) and self-consumption.
//
// Results are memoized by an Aggregator keyed by the snapshot set, the
// quantity, the component set and the carrier split. The cache is explicit:
// callers pass update=true to recompute one entry or call Invalidate after
// mutating the network.
package injection

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/gridflow/frame"
)

// Sentinel errors.
var (
	// ErrAmbiguousCarrier is matched by every *AmbiguousCarrierError.
	ErrAmbiguousCarrier = errors.New("injection: ambiguous carrier")

	// ErrUnknownKind indicates a one-bus component type outside Kind.
	ErrUnknownKind = errors.New("injection: unknown component kind")
)

// Kind names a one-bus component table.
type Kind string

// One-bus component kinds.
const (
	Generator   Kind = "Generator"
	Load        Kind = "Load"
	StorageUnit Kind = "StorageUnit"
)

// Default component sets.
var (
	DefaultProducers = []Kind{Generator, StorageUnit}
	DefaultConsumers = []Kind{Load, StorageUnit}
)

// AmbiguousCarrierError reports carrier names shared by different component
// kinds in one carrier breakdown. Distinct carriers are never merged.
type AmbiguousCarrierError struct {
	Carriers   []string
	Components []Kind
}

func (e *AmbiguousCarrierError) Error() string {
	kinds := make([]string, len(e.Components))
	for i, k := range e.Components {
		kinds[i] = string(k)
	}

	return fmt.Sprintf("injection: carrier names %v are not unique across components %s",
		e.Carriers, strings.Join(kinds, ", "))
}

// Unwrap lets errors.Is(err, ErrAmbiguousCarrier) match.
func (e *AmbiguousCarrierError) Unwrap() error { return ErrAmbiguousCarrier }

// CarrierKey identifies one (bus, carrier) column of a carrier breakdown.
type CarrierKey struct {
	Bus     string
	Carrier string
}

// String renders the column label "bus@carrier".
func (k CarrierKey) String() string { return k.Bus + "@" + k.Carrier }

// CarrierTable is a snapshots × (bus, carrier) frame. Keys[j] describes
// column j of Frame.
type CarrierTable struct {
	Frame *frame.Frame
	Keys  []CarrierKey
}

// ByBus returns, per bus, the carriers present in the table, sorted.
func (t *CarrierTable) ByBus() map[string][]CarrierKey {
	out := make(map[string][]CarrierKey)
	for _, k := range t.Keys {
		out[k.Bus] = append(out[k.Bus], k)
	}
	for _, ks := range out {
		sort.Slice(ks, func(i, j int) bool { return ks[i].Carrier < ks[j].Carrier })
	}

	return out
}
