// SPDX-License-Identifier: MIT

package topology

import (
	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/network"
)

// End selects a branch terminal.
type End int

// Branch terminals: P0 is measured at bus0, P1 at bus1.
const (
	P0 End = iota
	P1
)

// Flows returns the active power of every branch of g at terminal end for
// snapshot position i, labeled like g's incidence columns.
func Flows(n *network.Network, g *Graph, i int, end End) *frame.Vector {
	out := frame.ZeroVector(g.keys)
	for j, b := range g.branches {
		var v float64
		switch {
		case b.Key.Component == Line && end == P0:
			v = n.LineP0(b.Key.Name, i)
		case b.Key.Component == Line:
			v = n.LineP1(b.Key.Name, i)
		case end == P0:
			v = n.LinkP0(b.Key.Name, i)
		default:
			v = n.LinkP1(b.Key.Name, i)
		}
		_ = out.Set(g.keys.Label(j), v)
	}

	return out
}
