// Package layout places resolved graph nodes in 3D space. Placement is a
// pure function of the node list and the query hash: hop distance picks a
// ring radius, owners share angular slots, a seeded PRNG adds jitter, and a
// fixed number of relaxation passes separates overlapping nodes. Identical
// inputs produce bit-identical positions, which is what makes cached and
// shared layouts stable.
package layout

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/atlasops/blastradius/internal/graph"
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config holds the tuned layout constants. Defaults are preserved because
// changing them changes previously cached and shared layout URLs.
//
// Zero values mean "unset" and fall back to DefaultConfig in New, so a field
// cannot be explicitly configured to 0. None of the fields has a meaningful
// zero: no jitter, no elevation, no relaxation and no separation all degrade
// the layout rather than tune it.
type Config struct {
	RingRadii     []float64 // radius per hop distance, last entry reused beyond
	MinOwnerSlots int       // floor on angular slot count, avoids crowding
	Jitter        float64   // max +/- jitter applied to x and z
	ProdOffsetY   float64   // y for nodes present in production
	LowOffsetY    float64   // y for nodes in neither production nor staging
	RelaxPasses   int
	MinDistance   float64 // pairs closer than this get pushed apart
	MaxAdjust     float64 // per-pass displacement cap
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		RingRadii:     []float64{0, 4, 8, 13, 19, 26},
		MinOwnerSlots: 8,
		Jitter:        0.9,
		ProdOffsetY:   1.5,
		LowOffsetY:    -1.5,
		RelaxPasses:   3,
		MinDistance:   1.2,
		MaxAdjust:     0.5,
	}
}

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// Engine computes deterministic 3D layouts.
type Engine struct {
	cfg Config
}

// New creates an Engine. Zero-value config fields fall back to defaults.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if len(cfg.RingRadii) == 0 {
		cfg.RingRadii = def.RingRadii
	}
	if cfg.MinOwnerSlots <= 0 {
		cfg.MinOwnerSlots = def.MinOwnerSlots
	}
	if cfg.Jitter == 0 {
		cfg.Jitter = def.Jitter
	}
	if cfg.ProdOffsetY == 0 {
		cfg.ProdOffsetY = def.ProdOffsetY
	}
	if cfg.LowOffsetY == 0 {
		cfg.LowOffsetY = def.LowOffsetY
	}
	if cfg.RelaxPasses <= 0 {
		cfg.RelaxPasses = def.RelaxPasses
	}
	if cfg.MinDistance == 0 {
		cfg.MinDistance = def.MinDistance
	}
	if cfg.MaxAdjust == 0 {
		cfg.MaxAdjust = def.MaxAdjust
	}
	return &Engine{cfg: cfg}
}

// Compute places every node and returns positions 1:1 and order-matched
// with the input node list.
func (e *Engine) Compute(nodes []graph.Node, queryHash string) *graph.Layout {
	rng := newMulberry32(seedFromHash(queryHash))

	// Distinct owners, sorted; unowned nodes share a sentinel bucket.
	ownerSet := make(map[string]bool)
	for i := range nodes {
		ownerSet[ownerKey(&nodes[i])] = true
	}
	owners := make([]string, 0, len(ownerSet))
	for o := range ownerSet {
		owners = append(owners, o)
	}
	sort.Strings(owners)

	slotOf := make(map[string]int, len(owners))
	for i, o := range owners {
		slotOf[o] = i
	}
	slotCount := len(owners)
	if slotCount < e.cfg.MinOwnerSlots {
		slotCount = e.cfg.MinOwnerSlots
	}
	slotSize := 2 * math.Pi / float64(slotCount)

	positions := make([]graph.NodePosition, len(nodes))
	fanCount := make(map[string]int) // "(hop|owner)" → nodes placed so far

	for i := range nodes {
		n := &nodes[i]

		y := e.cfg.LowOffsetY
		switch {
		case n.EnvPresence.Production:
			y = e.cfg.ProdOffsetY
		case n.EnvPresence.Staging:
			y = 0
		}

		if n.HopDistance == 0 {
			// Focus is pinned at the origin of its ring.
			positions[i] = graph.NodePosition{NodeID: n.NodeID, X: 0, Y: y, Z: 0}
			continue
		}

		ringIdx := n.HopDistance
		if ringIdx >= len(e.cfg.RingRadii) {
			ringIdx = len(e.cfg.RingRadii) - 1
		}
		radius := e.cfg.RingRadii[ringIdx]

		owner := ownerKey(n)
		fanKey := fmt.Sprintf("%d|%s", n.HopDistance, owner)
		fan := fanCount[fanKey]
		fanCount[fanKey]++

		angle := float64(slotOf[owner])*slotSize + float64(fan)*slotSize/6

		jx := (rng.next() - 0.5) * 2 * e.cfg.Jitter
		jz := (rng.next() - 0.5) * 2 * e.cfg.Jitter

		positions[i] = graph.NodePosition{
			NodeID: n.NodeID,
			X:      radius*math.Cos(angle) + jx,
			Y:      y,
			Z:      radius*math.Sin(angle) + jz,
		}
	}

	e.relax(positions)

	return &graph.Layout{Positions: positions, QueryHash: queryHash}
}

// relax runs the fixed collision passes: any pair closer than MinDistance is
// pushed apart symmetrically along its connecting line by half the deficit,
// capped per pass. O(n²) per pass; the resolver's node cap bounds n.
func (e *Engine) relax(positions []graph.NodePosition) {
	for pass := 0; pass < e.cfg.RelaxPasses; pass++ {
		for i := 0; i < len(positions); i++ {
			for j := i + 1; j < len(positions); j++ {
				dx := positions[j].X - positions[i].X
				dy := positions[j].Y - positions[i].Y
				dz := positions[j].Z - positions[i].Z
				dist := math.Sqrt(dx*dx + dy*dy + dz*dz)

				if dist >= e.cfg.MinDistance {
					continue
				}

				push := (e.cfg.MinDistance - dist) / 2
				if push > e.cfg.MaxAdjust {
					push = e.cfg.MaxAdjust
				}

				var ux, uy, uz float64
				if dist > 0 {
					ux, uy, uz = dx/dist, dy/dist, dz/dist
				} else {
					// Coincident pair: separate along x, direction fixed by
					// index order so the result stays deterministic.
					ux = 1
				}

				positions[i].X -= ux * push
				positions[i].Y -= uy * push
				positions[i].Z -= uz * push
				positions[j].X += ux * push
				positions[j].Y += uy * push
				positions[j].Z += uz * push
			}
		}
	}
}

// ownerKey buckets a node by normalized owner; unowned nodes share "".
func ownerKey(n *graph.Node) string {
	return strings.ToLower(strings.TrimSpace(n.Owner()))
}

// ---------------------------------------------------------------------------
// Seeded PRNG
// ---------------------------------------------------------------------------

// seedFromHash derives a 32-bit seed from the query hash with a rolling
// multiply-add over its bytes.
func seedFromHash(queryHash string) uint32 {
	var h uint32
	for i := 0; i < len(queryHash); i++ {
		h = h*31 + uint32(queryHash[i])
	}
	return h
}

// mulberry32 is a small, fast seeded PRNG with 32-bit state. It exists so
// layouts depend only on the seed, never on any global random source.
type mulberry32 struct {
	state uint32
}

func newMulberry32(seed uint32) *mulberry32 {
	return &mulberry32{state: seed}
}

// next returns a float64 in [0, 1).
func (m *mulberry32) next() float64 {
	m.state += 0x6D2B79F5
	z := m.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / 4294967296.0
}
