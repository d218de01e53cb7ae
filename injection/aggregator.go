// SPDX-License-Identifier: MIT

package injection

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/network"
	"github.com/katalvlaran/gridflow/topology"
)

// injectionDecimals rounds network injection to suppress flow noise.
const injectionDecimals = 10

type quantity string

const (
	qInjection         quantity = "injection"
	qProduction        quantity = "production"
	qDemand            quantity = "demand"
	qProductionCarrier quantity = "production_carrier"
	qDemandCarrier     quantity = "demand_carrier"
	qSelf              quantity = "self_consumption"
)

// cacheKey identifies one memoized table. set is a fingerprint of the
// network's snapshot axis, so a replaced timeline never hits stale entries.
type cacheKey struct {
	set        uuid.UUID
	q          quantity
	components string
}

type entry struct {
	frame *frame.Frame
	keys  []CarrierKey
}

// axis is the snapshot axis the cache was last filled for. It is rebuilt
// only when Network.Snapshots is replaced or resized.
type axis struct {
	head  *time.Time
	n     int
	set   uuid.UUID
	index frame.Index
}

// Aggregator computes and memoizes nodal aggregates of one network.
// It is safe for concurrent use; concurrent misses on the same key compute
// the value once.
//
// Editing Network.Snapshots in place (same slice, same length) is not
// detected; call Invalidate afterwards.
type Aggregator struct {
	net *network.Network

	mu    sync.Mutex
	cache map[cacheKey]entry
	axis  axis
}

// NewAggregator returns an Aggregator over n.
func NewAggregator(n *network.Network) *Aggregator {
	return &Aggregator{net: n, cache: make(map[cacheKey]entry)}
}

// Network returns the aggregated network.
func (a *Aggregator) Network() *network.Network { return a.net }

// Invalidate drops every memoized table and the snapshot fingerprint.
func (a *Aggregator) Invalidate() {
	a.mu.Lock()
	a.cache = make(map[cacheKey]entry)
	a.axis = axis{}
	a.mu.Unlock()
}

// Warm computes the default tables (injection over lines and links,
// production, demand, self-consumption) so later readers only hit the cache.
func (a *Aggregator) Warm() error {
	if _, err := a.NetworkInjection(nil); err != nil {
		return err
	}
	if _, err := a.NetworkInjection(nil, topology.Line); err != nil {
		return err
	}
	_, err := a.SelfConsumption(nil, false)

	return err
}

// snapshotAxis returns the fingerprinted axis, rebuilding it when the
// snapshot slice changed. Callers hold a.mu.
// Errors: network.ErrDuplicateSnapshot.
func (a *Aggregator) snapshotAxis() (axis, error) {
	snaps := a.net.Snapshots
	var head *time.Time
	if len(snaps) > 0 {
		head = &snaps[0]
	}
	if a.axis.set != uuid.Nil && a.axis.n == len(snaps) && a.axis.head == head {
		return a.axis, nil
	}

	labels := make([]string, len(snaps))
	var b strings.Builder
	for i, t := range snaps {
		labels[i] = network.SnapshotLabel(t)
		b.WriteString(labels[i])
		b.WriteByte(';')
	}
	ix, err := frame.NewIndex(labels...)
	if err != nil {
		return axis{}, fmt.Errorf("injection: %w: %w", network.ErrDuplicateSnapshot, err)
	}
	a.axis = axis{
		head:  head,
		n:     len(snaps),
		set:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.String())),
		index: ix,
	}

	return a.axis, nil
}

// cached returns the memoized entry for (q, components), computing it with
// build over all snapshots on a miss or when update is set.
func (a *Aggregator) cached(q quantity, components string, update bool, build func(snapshots frame.Index) (entry, error)) (entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ax, err := a.snapshotAxis()
	if err != nil {
		return entry{}, err
	}
	key := cacheKey{set: ax.set, q: q, components: components}
	if e, ok := a.cache[key]; ok && !update {
		return e, nil
	}
	e, err := build(ax.index)
	if err != nil {
		return entry{}, err
	}
	a.cache[key] = e

	return e, nil
}

// rows selects the requested snapshots from a cached table. Only the
// requested rows are copied; nil copies the whole table.
func (a *Aggregator) rows(f *frame.Frame, snapshots []time.Time) (*frame.Frame, error) {
	if snapshots == nil {
		return f.Select(nil, nil)
	}
	labels := make([]string, len(snapshots))
	for i, t := range snapshots {
		if _, err := a.net.SnapshotIndex(t); err != nil {
			return nil, fmt.Errorf("injection: %w", err)
		}
		labels[i] = network.SnapshotLabel(t)
	}
	out, err := f.Select(labels, nil)
	if err != nil {
		return nil, fmt.Errorf("injection: %w", err)
	}

	return out, nil
}

// NetworkInjection returns net injection per snapshot and bus
// (snapshots × buses): for every branch of the given components (lines and
// links when none are given), p0 counts at bus0 and p1 at bus1. Positive
// values are net production. Values are rounded to 10 decimals.
func (a *Aggregator) NetworkInjection(snapshots []time.Time, components ...topology.Component) (*frame.Frame, error) {
	if len(components) == 0 {
		components = topology.DefaultComponents
	}
	names := make([]string, len(components))
	for i, c := range components {
		names[i] = string(c)
	}
	sort.Strings(names)

	e, err := a.cached(qInjection, strings.Join(names, ","), false, func(ix frame.Index) (entry, error) {
		g, err := topology.New(a.net, components...)
		if err != nil {
			return entry{}, err
		}
		out := frame.New(ix, g.Buses())
		branches := g.Branches()
		for i, t := range a.net.Snapshots {
			row := network.SnapshotLabel(t)
			p0 := topology.Flows(a.net, g, i, topology.P0)
			p1 := topology.Flows(a.net, g, i, topology.P1)
			acc := make(map[string]float64, g.Buses().Len())
			for _, b := range branches {
				acc[b.Bus0] += p0.Get(b.Key.String())
				acc[b.Bus1] += p1.Get(b.Key.String())
			}
			for bus, v := range acc {
				_ = out.Set(row, bus, frame.Round(v, injectionDecimals))
			}
		}

		return entry{frame: out}, nil
	})
	if err != nil {
		return nil, err
	}

	return a.rows(e.frame, snapshots)
}

// table returns the rows and sign of a one-bus component kind.
func (a *Aggregator) table(k Kind) ([]network.OneBus, network.OneBusSeries, error) {
	switch k {
	case Generator:
		return a.net.Generators, a.net.GeneratorsT, nil
	case Load:
		return a.net.Loads, a.net.LoadsT, nil
	case StorageUnit:
		return a.net.StorageUnits, a.net.StorageUnitsT, nil
	default:
		return nil, network.OneBusSeries{}, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
}

func kindsKey(kinds []Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	sort.Strings(names)

	return strings.Join(names, ",")
}

// clipFn keeps the producing (positive) or consuming (negative) half of a
// signed power value and returns it as a non-negative magnitude.
func clipFn(produce bool) func(float64) float64 {
	if produce {
		return func(v float64) float64 { return math.Max(v, 0) }
	}

	return func(v float64) float64 { return -math.Min(v, 0) }
}

// gross sums clipped signed power by bus over kinds.
func (a *Aggregator) gross(kinds []Kind, produce bool, ix frame.Index) (entry, error) {
	clip := clipFn(produce)
	out := frame.New(ix, frame.MustIndex(a.net.BusNames()...))
	for _, k := range kinds {
		rows, series, err := a.table(k)
		if err != nil {
			return entry{}, err
		}
		for i, t := range a.net.Snapshots {
			row := network.SnapshotLabel(t)
			for _, c := range rows {
				v := clip(c.Sign * network.OneBusP(series, c.Name, i))
				if v == 0 {
					continue
				}
				if err := out.Set(row, c.Bus, out.Get(row, c.Bus)+v); err != nil {
					return entry{}, fmt.Errorf("injection: %s %q: %w", k, c.Name, err)
				}
			}
		}
	}

	return entry{frame: out}, nil
}

// perCarrier sums clipped signed power by (bus, carrier) over kinds and
// keeps only columns that are non-zero in some snapshot.
func (a *Aggregator) perCarrier(kinds []Kind, produce bool, ix frame.Index) (entry, error) {
	if err := a.checkCarriers(kinds); err != nil {
		return entry{}, err
	}
	clip := clipFn(produce)
	ns := len(a.net.Snapshots)
	sums := make(map[CarrierKey][]float64)
	var order []CarrierKey
	for _, k := range kinds {
		rows, series, err := a.table(k)
		if err != nil {
			return entry{}, err
		}
		for _, c := range rows {
			key := CarrierKey{Bus: c.Bus, Carrier: carrierOf(k, c)}
			acc, ok := sums[key]
			if !ok {
				acc = make([]float64, ns)
				sums[key] = acc
				order = append(order, key)
			}
			for i := 0; i < ns; i++ {
				acc[i] += clip(c.Sign * network.OneBusP(series, c.Name, i))
			}
		}
	}

	var keys []CarrierKey
	for _, k := range order {
		for _, v := range sums[k] {
			if v > 0 {
				keys = append(keys, k)
				break
			}
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].Bus != keys[j].Bus {
			return keys[i].Bus < keys[j].Bus
		}

		return keys[i].Carrier < keys[j].Carrier
	})
	labels := make([]string, len(keys))
	for j, k := range keys {
		labels[j] = k.String()
	}
	out := frame.New(ix, frame.MustIndex(labels...))
	for i, t := range a.net.Snapshots {
		row := network.SnapshotLabel(t)
		for j, k := range keys {
			_ = out.Set(row, labels[j], sums[k][i])
		}
	}

	return entry{frame: out, keys: keys}, nil
}

func carrierOf(k Kind, c network.OneBus) string {
	if k == Load {
		return network.CarrierLoad
	}

	return c.Carrier
}

// checkCarriers fails when two kinds of one breakdown share a carrier name.
func (a *Aggregator) checkCarriers(kinds []Kind) error {
	seen := make(map[string]Kind)
	clash := make(map[string]struct{})
	involved := make(map[Kind]struct{})
	for _, k := range kinds {
		rows, _, err := a.table(k)
		if err != nil {
			return err
		}
		for _, c := range rows {
			name := carrierOf(k, c)
			if prev, ok := seen[name]; ok && prev != k {
				clash[name] = struct{}{}
				involved[prev] = struct{}{}
				involved[k] = struct{}{}
			}
			if _, ok := seen[name]; !ok {
				seen[name] = k
			}
		}
	}
	if len(clash) == 0 {
		return nil
	}
	e := &AmbiguousCarrierError{}
	for name := range clash {
		e.Carriers = append(e.Carriers, name)
	}
	sort.Strings(e.Carriers)
	for _, k := range kinds {
		if _, ok := involved[k]; ok {
			e.Components = append(e.Components, k)
		}
	}

	return e
}

func orDefault(kinds, def []Kind) []Kind {
	if len(kinds) == 0 {
		return def
	}

	return kinds
}

// PowerProduction returns gross production per snapshot and bus:
// Σ max(sign·p, 0) over components of the given kinds (generators and
// storage units by default).
func (a *Aggregator) PowerProduction(snapshots []time.Time, kinds []Kind, update bool) (*frame.Frame, error) {
	kinds = orDefault(kinds, DefaultProducers)
	e, err := a.cached(qProduction, kindsKey(kinds), update, func(ix frame.Index) (entry, error) { return a.gross(kinds, true, ix) })
	if err != nil {
		return nil, err
	}

	return a.rows(e.frame, snapshots)
}

// PowerDemand returns gross demand per snapshot and bus as a non-negative
// magnitude: |Σ min(sign·p, 0)| over components of the given kinds (loads
// and storage units by default).
func (a *Aggregator) PowerDemand(snapshots []time.Time, kinds []Kind, update bool) (*frame.Frame, error) {
	kinds = orDefault(kinds, DefaultConsumers)
	e, err := a.cached(qDemand, kindsKey(kinds), update, func(ix frame.Index) (entry, error) { return a.gross(kinds, false, ix) })
	if err != nil {
		return nil, err
	}

	return a.rows(e.frame, snapshots)
}

// PowerProductionPerCarrier splits production by (bus, carrier).
// Errors: *AmbiguousCarrierError.
func (a *Aggregator) PowerProductionPerCarrier(snapshots []time.Time, kinds []Kind, update bool) (*CarrierTable, error) {
	kinds = orDefault(kinds, DefaultProducers)

	return a.carrierTable(qProductionCarrier, kinds, true, snapshots, update)
}

// PowerDemandPerCarrier splits demand by (bus, carrier); every load
// reports carrier "load".
// Errors: *AmbiguousCarrierError.
func (a *Aggregator) PowerDemandPerCarrier(snapshots []time.Time, kinds []Kind, update bool) (*CarrierTable, error) {
	kinds = orDefault(kinds, DefaultConsumers)

	return a.carrierTable(qDemandCarrier, kinds, false, snapshots, update)
}

func (a *Aggregator) carrierTable(q quantity, kinds []Kind, produce bool, snapshots []time.Time, update bool) (*CarrierTable, error) {
	e, err := a.cached(q, kindsKey(kinds), update, func(ix frame.Index) (entry, error) { return a.perCarrier(kinds, produce, ix) })
	if err != nil {
		return nil, err
	}
	f, err := a.rows(e.frame, snapshots)
	if err != nil {
		return nil, err
	}

	return &CarrierTable{Frame: f, Keys: append([]CarrierKey(nil), e.keys...)}, nil
}

// SelfConsumption returns, per snapshot and bus, min(production, demand)
// over the default component sets: power consumed where it is produced
// without crossing any branch.
func (a *Aggregator) SelfConsumption(snapshots []time.Time, update bool) (*frame.Frame, error) {
	prod, err := a.cached(qProduction, kindsKey(DefaultProducers), update, func(ix frame.Index) (entry, error) {
		return a.gross(DefaultProducers, true, ix)
	})
	if err != nil {
		return nil, err
	}
	dem, err := a.cached(qDemand, kindsKey(DefaultConsumers), update, func(ix frame.Index) (entry, error) {
		return a.gross(DefaultConsumers, false, ix)
	})
	if err != nil {
		return nil, err
	}
	e, err := a.cached(qSelf, "", update, func(ix frame.Index) (entry, error) {
		out := frame.New(ix, prod.frame.Cols())
		var setErr error
		prod.frame.Each(func(r, c string, p float64) {
			if setErr == nil {
				setErr = out.Set(r, c, math.Min(p, dem.frame.Get(r, c)))
			}
		})

		return entry{frame: out}, setErr
	})
	if err != nil {
		return nil, err
	}

	return a.rows(e.frame, snapshots)
}
