package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasops/blastradius/internal/graph"
	"github.com/atlasops/blastradius/internal/inventory"
	"github.com/atlasops/blastradius/internal/scoring"
)

type fakeStore struct {
	services []*inventory.Service
	err      error
}

func (f *fakeStore) ListServices(ctx context.Context, organizationID string) ([]*inventory.Service, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.services, nil
}

func checkoutService() *inventory.Service {
	return &inventory.Service{
		ID:             "svc-1",
		OrganizationID: "org-1",
		Name:           "checkout",
		Owner:          "platform",
		Repository:     "github.com/acme/checkout",
		Interfaces: []inventory.Interface{
			{Domain: "checkout.acme.io", Environment: inventory.EnvProduction, Runtime: "aws:lambda:eu-west-1"},
		},
		Dependencies: []string{"redis", "postgres"},
	}
}

func resolveQuery(t *testing.T, store Store, q Query) *graph.Response {
	t.Helper()
	resp, err := New(store, DefaultConfig()).Resolve(context.Background(), q)
	require.NoError(t, err)
	return resp
}

func TestResolveSingleService(t *testing.T) {
	store := &fakeStore{services: []*inventory.Service{checkoutService()}}
	resp := resolveQuery(t, store, Query{
		OrganizationID: "org-1",
		FocusKind:      graph.KindSoftware,
		FocusID:        "svc-1",
		Hops:           2,
	})

	// 1 service + 2 dependencies + 1 runtime.
	require.Len(t, resp.Nodes, 4)
	assert.False(t, resp.Truncated)
	assert.Equal(t, 4, resp.Meta.SubgraphSize)

	focus := resp.FindNode(resp.FocusNodeID)
	require.NotNil(t, focus)
	assert.Equal(t, "svc:svc-1", focus.NodeID)
	assert.Equal(t, 0, focus.HopDistance)
	assert.Equal(t, graph.KindSoftware, focus.Kind)
	assert.Equal(t, 1, focus.ProdInterfaceCount)
	require.NotNil(t, focus.OwnerName)
	assert.Equal(t, "platform", *focus.OwnerName)
	assert.Equal(t, scoring.ColorKey("platform"), focus.ColorKey)
	assert.Equal(t, 1.0, focus.ConfidenceScore)
	assert.Empty(t, focus.MissingFields)
	assert.True(t, focus.EnvPresence.Production)

	// Node IDs unique.
	seen := make(map[string]bool)
	for _, n := range resp.Nodes {
		assert.False(t, seen[n.NodeID], "duplicate node %s", n.NodeID)
		seen[n.NodeID] = true
	}

	// Every edge endpoint exists.
	require.Len(t, resp.Edges, 3)
	for _, e := range resp.Edges {
		assert.NotNil(t, resp.FindNode(e.FromID), "dangling edge from %s", e.FromID)
		assert.NotNil(t, resp.FindNode(e.ToID), "dangling edge to %s", e.ToID)
	}

	// Synthetic nodes carry full confidence and no owner.
	dep := resp.FindNode(scoring.DepID("redis"))
	require.NotNil(t, dep)
	assert.Equal(t, 1, dep.HopDistance)
	assert.Equal(t, graph.KindDependency, dep.Kind)
	assert.Equal(t, 1.0, dep.ConfidenceScore)
	assert.Empty(t, dep.MissingFields)
	assert.Nil(t, dep.OwnerName)
	assert.Equal(t, scoring.NoOwnerColorKey, dep.ColorKey)

	rt := resp.FindNode(scoring.RuntimeID("aws:lambda:eu-west-1"))
	require.NotNil(t, rt)
	assert.Equal(t, graph.KindRuntime, rt.Kind)
	assert.True(t, rt.EnvPresence.Production)
}

func TestResolveDeterminism(t *testing.T) {
	store := &fakeStore{services: []*inventory.Service{checkoutService()}}
	q := Query{OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 2}

	first := resolveQuery(t, store, q)
	second := resolveQuery(t, store, q)

	assert.Equal(t, first.Nodes, second.Nodes)
	assert.Equal(t, first.Edges, second.Edges)
	assert.Equal(t, first.QueryHash, second.QueryHash)
}

func TestResolveBFSLayering(t *testing.T) {
	// a → shared-db ← b, distinct owners so the only path a→b is 2 hops.
	a := &inventory.Service{ID: "a", OrganizationID: "org-1", Name: "a", Owner: "team-a", Dependencies: []string{"shared-db"}}
	b := &inventory.Service{ID: "b", OrganizationID: "org-1", Name: "b", Owner: "team-b", Dependencies: []string{"shared-db"}}
	store := &fakeStore{services: []*inventory.Service{a, b}}

	t.Run("transitive service reached at hop 2", func(t *testing.T) {
		resp := resolveQuery(t, store, Query{
			OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "a", Hops: 2,
		})
		require.Len(t, resp.Nodes, 3)
		assert.Equal(t, 1, resp.FindNode(scoring.DepID("shared-db")).HopDistance)
		assert.Equal(t, 2, resp.FindNode("svc:b").HopDistance)
	})

	t.Run("hop bound cuts traversal", func(t *testing.T) {
		resp := resolveQuery(t, store, Query{
			OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "a", Hops: 1,
		})
		require.Len(t, resp.Nodes, 2)
		assert.Nil(t, resp.FindNode("svc:b"))
		for _, n := range resp.Nodes {
			assert.LessOrEqual(t, n.HopDistance, 1)
		}
	})
}

func TestResolveMinimumHopWins(t *testing.T) {
	// b is reachable both directly (shared owner, hop 1) and through the
	// shared dependency (hop 2). The shorter path must win.
	a := &inventory.Service{ID: "a", OrganizationID: "org-1", Name: "a", Owner: "platform", Dependencies: []string{"shared-db"}}
	b := &inventory.Service{ID: "b", OrganizationID: "org-1", Name: "b", Owner: "platform", Dependencies: []string{"shared-db"}}
	store := &fakeStore{services: []*inventory.Service{a, b}}

	resp := resolveQuery(t, store, Query{
		OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "a", Hops: 3,
	})

	nb := resp.FindNode("svc:b")
	require.NotNil(t, nb)
	assert.Equal(t, 1, nb.HopDistance)
}

func TestResolveSharedOwnerEdgeWeight(t *testing.T) {
	a := &inventory.Service{ID: "a", OrganizationID: "org-1", Name: "a", Owner: "platform"}
	b := &inventory.Service{ID: "b", OrganizationID: "org-1", Name: "b", Owner: "Platform"} // owner match is case-insensitive
	store := &fakeStore{services: []*inventory.Service{a, b}}

	resp := resolveQuery(t, store, Query{
		OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "a", Hops: 1,
	})

	require.Len(t, resp.Edges, 1)
	assert.Equal(t, 0.5, resp.Edges[0].Weight)
}

func TestResolveTruncation(t *testing.T) {
	// 1 focus + 6 dependencies against a cap of 4.
	svc := &inventory.Service{
		ID: "svc-1", OrganizationID: "org-1", Name: "hub", Owner: "platform",
		Dependencies: []string{"d1", "d2", "d3", "d4", "d5", "d6"},
	}
	store := &fakeStore{services: []*inventory.Service{svc}}
	r := New(store, Config{MinHops: 1, MaxHops: 5, NodeCap: 4})

	resp, err := r.Resolve(context.Background(), Query{
		OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 2,
	})
	require.NoError(t, err)

	assert.True(t, resp.Truncated)
	require.Len(t, resp.Nodes, 4)
	require.NotNil(t, resp.FindNode("svc:svc-1"), "focus must survive truncation")

	for _, e := range resp.Edges {
		assert.NotNil(t, resp.FindNode(e.FromID))
		assert.NotNil(t, resp.FindNode(e.ToID))
	}
}

func TestResolveTruncationDeterministic(t *testing.T) {
	svc := &inventory.Service{
		ID: "svc-1", OrganizationID: "org-1", Name: "hub", Owner: "platform",
		Dependencies: []string{"d1", "d2", "d3", "d4", "d5", "d6"},
	}
	store := &fakeStore{services: []*inventory.Service{svc}}
	r := New(store, Config{MinHops: 1, MaxHops: 5, NodeCap: 4})
	q := Query{OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 2}

	first, err := r.Resolve(context.Background(), q)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, first.Nodes, second.Nodes)
	assert.Equal(t, first.Edges, second.Edges)
}

func TestResolveDependencyFocus(t *testing.T) {
	store := &fakeStore{services: []*inventory.Service{checkoutService()}}

	t.Run("raw dependency name", func(t *testing.T) {
		resp := resolveQuery(t, store, Query{
			OrganizationID: "org-1", FocusKind: graph.KindDependency, FocusID: "redis", Hops: 1,
		})
		assert.Equal(t, scoring.DepID("redis"), resp.FocusNodeID)
		assert.Equal(t, 0, resp.FindNode(resp.FocusNodeID).HopDistance)
	})

	t.Run("pre-hashed dependency node ID", func(t *testing.T) {
		resp := resolveQuery(t, store, Query{
			OrganizationID: "org-1", FocusKind: graph.KindDependency, FocusID: scoring.DepID("redis"), Hops: 1,
		})
		assert.Equal(t, scoring.DepID("redis"), resp.FocusNodeID)
	})
}

func TestResolveHopsClamped(t *testing.T) {
	store := &fakeStore{services: []*inventory.Service{checkoutService()}}

	over := resolveQuery(t, store, Query{
		OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 99,
	})
	atMax := resolveQuery(t, store, Query{
		OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 5,
	})

	assert.Equal(t, atMax.QueryHash, over.QueryHash)
}

func TestResolveConfidencePenalties(t *testing.T) {
	// Prod interface but no owner, no repository.
	svc := &inventory.Service{
		ID: "svc-1", OrganizationID: "org-1", Name: "orphan",
		Interfaces: []inventory.Interface{
			{Domain: "orphan.acme.io", Environment: inventory.EnvProduction},
		},
	}
	store := &fakeStore{services: []*inventory.Service{svc}}

	resp := resolveQuery(t, store, Query{
		OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 1,
	})

	focus := resp.FindNode(resp.FocusNodeID)
	require.NotNil(t, focus)
	assert.Equal(t, []string{"owner", "repository", "prod_interface_owner"}, focus.MissingFields)
	assert.InDelta(t, 0.25, focus.ConfidenceScore, 1e-9)
	assert.Nil(t, focus.OwnerName)
	assert.Equal(t, scoring.NoOwnerColorKey, focus.ColorKey)
}

func TestResolveUndocumentedService(t *testing.T) {
	// No interfaces at all: only the owner and repository penalties apply.
	svc := &inventory.Service{ID: "svc-1", OrganizationID: "org-1", Name: "mystery"}
	store := &fakeStore{services: []*inventory.Service{svc}}

	resp := resolveQuery(t, store, Query{
		OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 1,
	})

	focus := resp.FindNode(resp.FocusNodeID)
	require.NotNil(t, focus)
	assert.InDelta(t, 0.55, focus.ConfidenceScore, 1e-9)
	assert.Equal(t, []string{"owner", "repository"}, focus.MissingFields)
}

func TestResolveDefaultCap(t *testing.T) {
	// 149 dependencies push the subgraph to 150 nodes against the default
	// cap of 100.
	deps := make([]string, 149)
	for i := range deps {
		deps[i] = fmt.Sprintf("dep-%03d", i)
	}
	svc := &inventory.Service{
		ID: "svc-1", OrganizationID: "org-1", Name: "hub", Owner: "platform",
		Dependencies: deps,
	}
	store := &fakeStore{services: []*inventory.Service{svc}}

	resp := resolveQuery(t, store, Query{
		OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 2,
	})

	assert.True(t, resp.Truncated)
	require.Len(t, resp.Nodes, 100)
	require.NotNil(t, resp.FindNode("svc:svc-1"))
	for _, n := range resp.Nodes {
		assert.GreaterOrEqual(t, n.ImpactScore, 0)
		assert.LessOrEqual(t, n.ImpactScore, 100)
	}
}

func TestResolveInvalidProdDomain(t *testing.T) {
	svc := &inventory.Service{
		ID: "svc-1", OrganizationID: "org-1", Name: "web", Owner: "platform",
		Repository: "github.com/acme/web",
		Interfaces: []inventory.Interface{
			{Domain: "not a domain", Environment: inventory.EnvProduction},
		},
	}
	store := &fakeStore{services: []*inventory.Service{svc}}

	resp := resolveQuery(t, store, Query{
		OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 1,
	})

	focus := resp.FindNode(resp.FocusNodeID)
	assert.Contains(t, focus.MissingFields, "valid_domains")
}

func TestResolveErrors(t *testing.T) {
	store := &fakeStore{services: []*inventory.Service{checkoutService()}}
	r := New(store, DefaultConfig())
	ctx := context.Background()

	t.Run("empty organization", func(t *testing.T) {
		_, err := r.Resolve(ctx, Query{FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 2})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "organizationId", verr.Field)
	})

	t.Run("unknown focus kind", func(t *testing.T) {
		_, err := r.Resolve(ctx, Query{OrganizationID: "org-1", FocusKind: "cluster", FocusID: "x", Hops: 2})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "focusKind", verr.Field)
	})

	t.Run("empty focus ID", func(t *testing.T) {
		_, err := r.Resolve(ctx, Query{OrganizationID: "org-1", FocusKind: graph.KindSoftware, Hops: 2})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "focusId", verr.Field)
	})

	t.Run("focus not found", func(t *testing.T) {
		_, err := r.Resolve(ctx, Query{OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "nope", Hops: 2})
		var nferr *NotFoundError
		require.ErrorAs(t, err, &nferr)
		assert.Equal(t, "nope", nferr.FocusID)
	})

	t.Run("kind mismatch is not found", func(t *testing.T) {
		_, err := r.Resolve(ctx, Query{OrganizationID: "org-1", FocusKind: graph.KindRuntime, FocusID: "redis", Hops: 2})
		var nferr *NotFoundError
		require.ErrorAs(t, err, &nferr)
	})

	t.Run("store failure wraps as upstream error", func(t *testing.T) {
		boom := errors.New("disk exploded")
		failing := New(&fakeStore{err: boom}, DefaultConfig())
		_, err := failing.Resolve(ctx, Query{OrganizationID: "org-1", FocusKind: graph.KindSoftware, FocusID: "svc-1", Hops: 2})
		var uerr *UpstreamDataError
		require.ErrorAs(t, err, &uerr)
		assert.ErrorIs(t, err, boom)
	})
}
