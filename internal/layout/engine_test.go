package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasops/blastradius/internal/graph"
)

func owned(name string) *string { return &name }

func testNodes() []graph.Node {
	return []graph.Node{
		{NodeID: "svc:focus", Kind: graph.KindSoftware, HopDistance: 0, OwnerName: owned("platform"),
			EnvPresence: graph.EnvPresence{Production: true}},
		{NodeID: "svc:a", Kind: graph.KindSoftware, HopDistance: 1, OwnerName: owned("platform"),
			EnvPresence: graph.EnvPresence{Production: true}},
		{NodeID: "svc:b", Kind: graph.KindSoftware, HopDistance: 1, OwnerName: owned("growth"),
			EnvPresence: graph.EnvPresence{Staging: true}},
		{NodeID: "dep:x", Kind: graph.KindDependency, HopDistance: 2},
	}
}

func TestComputeDeterminism(t *testing.T) {
	e := New(Config{})

	first := e.Compute(testNodes(), "abc123")
	second := e.Compute(testNodes(), "abc123")

	// Bit-identical, not merely approximately equal.
	require.Equal(t, first.Positions, second.Positions)
	assert.Equal(t, "abc123", first.QueryHash)
}

func TestComputeSeedVariesWithHash(t *testing.T) {
	e := New(Config{})

	first := e.Compute(testNodes(), "abc123")
	second := e.Compute(testNodes(), "def456")

	assert.NotEqual(t, first.Positions, second.Positions)
}

func TestComputePositionsMatchNodeOrder(t *testing.T) {
	e := New(Config{})
	nodes := testNodes()

	l := e.Compute(nodes, "abc123")

	require.Len(t, l.Positions, len(nodes))
	for i := range nodes {
		assert.Equal(t, nodes[i].NodeID, l.Positions[i].NodeID)
	}
}

func TestComputeFocusPinned(t *testing.T) {
	// Ring radii keep every non-focus node well past MinDistance, so the
	// relaxation passes never move the focus.
	e := New(Config{})

	l := e.Compute(testNodes(), "abc123")

	focus := l.Positions[0]
	assert.Equal(t, 0.0, focus.X)
	assert.Equal(t, 0.0, focus.Z)
	assert.Equal(t, 1.5, focus.Y)
}

func TestComputeEnvElevation(t *testing.T) {
	e := New(Config{})
	nodes := []graph.Node{
		{NodeID: "focus", HopDistance: 0, EnvPresence: graph.EnvPresence{Production: true}},
		{NodeID: "prod", HopDistance: 1, OwnerName: owned("a"), EnvPresence: graph.EnvPresence{Production: true}},
		{NodeID: "staging", HopDistance: 2, OwnerName: owned("b"), EnvPresence: graph.EnvPresence{Staging: true}},
		{NodeID: "dark", HopDistance: 3, OwnerName: owned("c")},
	}

	l := e.Compute(nodes, "abc123")

	assert.Equal(t, 1.5, l.Positions[1].Y)
	assert.Equal(t, 0.0, l.Positions[2].Y)
	assert.Equal(t, -1.5, l.Positions[3].Y)
}

func TestComputeRingRadii(t *testing.T) {
	e := New(Config{})

	t.Run("hop picks its ring", func(t *testing.T) {
		nodes := []graph.Node{
			{NodeID: "focus", HopDistance: 0},
			{NodeID: "near", HopDistance: 1, OwnerName: owned("a")},
			{NodeID: "far", HopDistance: 3, OwnerName: owned("b")},
		}
		l := e.Compute(nodes, "abc123")

		// Jitter moves a node at most ±0.9 on each axis.
		assert.InDelta(t, 4, planarRadius(l.Positions[1]), 2)
		assert.InDelta(t, 13, planarRadius(l.Positions[2]), 2)
	})

	t.Run("hops past the last ring reuse it", func(t *testing.T) {
		nodes := []graph.Node{
			{NodeID: "focus", HopDistance: 0},
			{NodeID: "beyond", HopDistance: 9, OwnerName: owned("a")},
		}
		l := e.Compute(nodes, "abc123")
		assert.InDelta(t, 26, planarRadius(l.Positions[1]), 2)
	})
}

func TestComputeSeparatesCrowdedNodes(t *testing.T) {
	// Many unowned nodes on the same ring start crowded; relaxation must
	// leave no pair exactly coincident.
	e := New(Config{})
	nodes := []graph.Node{{NodeID: "focus", HopDistance: 0}}
	for i := 0; i < 12; i++ {
		nodes = append(nodes, graph.Node{
			NodeID:      "dep:" + string(rune('a'+i)),
			HopDistance: 1,
		})
	}

	l := e.Compute(nodes, "abc123")

	for i := 0; i < len(l.Positions); i++ {
		for j := i + 1; j < len(l.Positions); j++ {
			dx := l.Positions[j].X - l.Positions[i].X
			dy := l.Positions[j].Y - l.Positions[i].Y
			dz := l.Positions[j].Z - l.Positions[i].Z
			dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
			assert.Greater(t, dist, 0.0, "nodes %d and %d are coincident", i, j)
		}
	}
}

func TestConfigDefaultsFillZeroFields(t *testing.T) {
	e := New(Config{MinDistance: 2.0})
	def := DefaultConfig()

	assert.Equal(t, 2.0, e.cfg.MinDistance)
	assert.Equal(t, def.RingRadii, e.cfg.RingRadii)
	assert.Equal(t, def.RelaxPasses, e.cfg.RelaxPasses)
	assert.Equal(t, def.MinOwnerSlots, e.cfg.MinOwnerSlots)
}

func planarRadius(p graph.NodePosition) float64 {
	return math.Sqrt(p.X*p.X + p.Z*p.Z)
}
