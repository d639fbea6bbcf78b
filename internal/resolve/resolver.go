// Package resolve computes bounded blast-radius subgraphs around a focus
// entity. Resolution is a read-only pipeline over an immutable inventory
// snapshot: resolve focus → traverse → annotate and score → truncate →
// assemble. Identical inputs always produce identical responses.
package resolve

import (
	"context"
	"sort"
	"strings"

	"github.com/atlasops/blastradius/internal/graph"
	"github.com/atlasops/blastradius/internal/inventory"
	"github.com/atlasops/blastradius/internal/scoring"
)

// Edge weights by binding kind. Dependency links dominate, runtime bindings
// are secondary, shared ownership is the weakest signal.
const (
	weightDependency  = 1.0
	weightRuntime     = 0.8
	weightSharedOwner = 0.5
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config holds the empirically tuned traversal constants. Defaults are
// preserved because changing them changes previously shared layout URLs.
type Config struct {
	MinHops int
	MaxHops int
	NodeCap int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{MinHops: 1, MaxHops: 5, NodeCap: 100}
}

// ClampHops restricts a requested hop count to the configured range.
func (c Config) ClampHops(hops int) int {
	if hops < c.MinHops {
		return c.MinHops
	}
	if hops > c.MaxHops {
		return c.MaxHops
	}
	return hops
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

// Store is the minimal read-only inventory surface the resolver traverses.
type Store interface {
	ListServices(ctx context.Context, organizationID string) ([]*inventory.Service, error)
}

// Query is a normalized resolve input tuple.
type Query struct {
	OrganizationID string
	FocusKind      graph.NodeKind
	FocusID        string
	Hops           int
}

// Resolver resolves bounded subgraphs against an inventory store.
type Resolver struct {
	store Store
	cfg   Config
}

// New creates a Resolver with the given store and configuration.
func New(store Store, cfg Config) *Resolver {
	return &Resolver{store: store, cfg: cfg}
}

// Config returns the resolver's traversal configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve computes the blast-radius subgraph for q.
//
// Fails with *ValidationError on malformed input, *NotFoundError when no
// entity matches the focus tuple, and *UpstreamDataError when the store
// fails. Side effects: none.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*graph.Response, error) {
	q.OrganizationID = strings.TrimSpace(q.OrganizationID)
	q.FocusID = strings.TrimSpace(q.FocusID)

	if q.OrganizationID == "" {
		return nil, &ValidationError{Field: "organizationId", Detail: "must not be empty"}
	}
	if !q.FocusKind.IsValid() {
		return nil, &ValidationError{Field: "focusKind", Detail: "must be software, dependency or runtime"}
	}
	if q.FocusID == "" {
		return nil, &ValidationError{Field: "focusId", Detail: "must not be empty"}
	}
	hops := r.cfg.ClampHops(q.Hops)

	services, err := r.store.ListServices(ctx, q.OrganizationID)
	if err != nil {
		return nil, &UpstreamDataError{Err: err}
	}

	snap := buildSnapshot(services)

	focusID, ok := snap.resolveFocus(q.FocusKind, q.FocusID)
	if !ok {
		return nil, &NotFoundError{FocusKind: string(q.FocusKind), FocusID: q.FocusID}
	}

	hopOf := snap.traverse(focusID, hops)
	nodes := snap.annotate(hopOf, hops)
	nodes, truncated := truncate(nodes, focusID, r.cfg.NodeCap)
	edges := snap.edgesAmong(nodes)

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].HopDistance != nodes[j].HopDistance {
			return nodes[i].HopDistance < nodes[j].HopDistance
		}
		return nodes[i].NodeID < nodes[j].NodeID
	})

	return &graph.Response{
		Nodes:       nodes,
		Edges:       edges,
		FocusNodeID: focusID,
		Truncated:   truncated,
		QueryHash:   scoring.QueryHash(q.OrganizationID, string(q.FocusKind), q.FocusID, hops),
		Meta:        graph.Meta{SubgraphSize: len(nodes)},
	}, nil
}

// ---------------------------------------------------------------------------
// Snapshot — the full organization graph built from one store read
// ---------------------------------------------------------------------------

type candidate struct {
	id          string
	kind        graph.NodeKind
	displayName string
	svc         *inventory.Service // software nodes only
	env         graph.EnvPresence  // runtime nodes: union over binding interfaces
}

type snapshot struct {
	candidates map[string]*candidate
	adj        map[string]map[string]float64 // nodeID → neighbor → weight
	edges      map[string]graph.Edge         // unordered pair key → edge
	nameCount  map[string]int                // normalized service name → occurrences
}

func buildSnapshot(services []*inventory.Service) *snapshot {
	snap := &snapshot{
		candidates: make(map[string]*candidate),
		adj:        make(map[string]map[string]float64),
		edges:      make(map[string]graph.Edge),
		nameCount:  make(map[string]int),
	}

	byOwner := make(map[string][]string) // normalized owner → service node IDs

	for _, svc := range services {
		svcID := scoring.SoftwareID(svc.ID)
		snap.candidates[svcID] = &candidate{
			id:          svcID,
			kind:        graph.KindSoftware,
			displayName: svc.Name,
			svc:         svc,
		}
		snap.nameCount[strings.ToLower(strings.TrimSpace(svc.Name))]++

		owner := strings.ToLower(strings.TrimSpace(svc.Owner))
		if owner != "" {
			byOwner[owner] = append(byOwner[owner], svcID)
		}

		for _, dep := range svc.Dependencies {
			name := strings.TrimSpace(dep)
			if name == "" {
				continue
			}
			depID := scoring.DepID(name)
			if _, ok := snap.candidates[depID]; !ok {
				snap.candidates[depID] = &candidate{
					id:          depID,
					kind:        graph.KindDependency,
					displayName: name,
				}
			}
			snap.addEdge(svcID, depID, weightDependency)
		}

		for _, in := range svc.Interfaces {
			rt := strings.TrimSpace(in.Runtime)
			if rt == "" {
				continue
			}
			rtID := scoring.RuntimeID(rt)
			cand, ok := snap.candidates[rtID]
			if !ok {
				cand = &candidate{
					id:          rtID,
					kind:        graph.KindRuntime,
					displayName: rt,
				}
				snap.candidates[rtID] = cand
			}
			switch in.Environment {
			case inventory.EnvProduction:
				cand.env.Production = true
			case inventory.EnvStaging:
				cand.env.Staging = true
			case inventory.EnvDevelopment:
				cand.env.Development = true
			}
			snap.addEdge(svcID, rtID, weightRuntime)
		}
	}

	// Shared-ownership edges between services of the same owner.
	for _, ids := range byOwner {
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				snap.addEdge(ids[i], ids[j], weightSharedOwner)
			}
		}
	}

	return snap
}

// addEdge records an undirected edge once, keeping the highest weight when
// the same pair is linked through more than one binding.
func (snap *snapshot) addEdge(from, to string, weight float64) {
	if from == to {
		return
	}
	key := pairKey(from, to)
	if existing, ok := snap.edges[key]; !ok || weight > existing.Weight {
		snap.edges[key] = graph.Edge{FromID: from, ToID: to, Weight: weight}
	}
	if snap.adj[from] == nil {
		snap.adj[from] = make(map[string]float64)
	}
	if snap.adj[to] == nil {
		snap.adj[to] = make(map[string]float64)
	}
	if weight > snap.adj[from][to] {
		snap.adj[from][to] = weight
	}
	if weight > snap.adj[to][from] {
		snap.adj[to][from] = weight
	}
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// resolveFocus maps a focus tuple onto a node ID present in the snapshot.
// Dependency and runtime focuses accept either the raw value or an already
// synthesized "dep:"/"rt:" node ID.
func (snap *snapshot) resolveFocus(kind graph.NodeKind, focusID string) (string, bool) {
	var id string
	switch kind {
	case graph.KindSoftware:
		id = scoring.SoftwareID(focusID)
	case graph.KindDependency:
		if strings.HasPrefix(focusID, "dep:") {
			id = focusID
		} else {
			id = scoring.DepID(focusID)
		}
	case graph.KindRuntime:
		if strings.HasPrefix(focusID, "rt:") {
			id = focusID
		} else {
			id = scoring.RuntimeID(focusID)
		}
	default:
		return "", false
	}
	cand, ok := snap.candidates[id]
	if !ok || cand.kind != kind {
		return "", false
	}
	return id, true
}

// traverse BFSes outward from focusID up to the hop bound, returning each
// reached node's minimum hop distance. Neighbor expansion is sorted so the
// traversal order (and therefore everything downstream) is deterministic.
func (snap *snapshot) traverse(focusID string, hops int) map[string]int {
	hopOf := map[string]int{focusID: 0}
	queue := []string{focusID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if hopOf[cur] >= hops {
			continue
		}

		neighbors := make([]string, 0, len(snap.adj[cur]))
		for nb := range snap.adj[cur] {
			neighbors = append(neighbors, nb)
		}
		sort.Strings(neighbors)

		for _, nb := range neighbors {
			if _, seen := hopOf[nb]; seen {
				continue
			}
			hopOf[nb] = hopOf[cur] + 1
			queue = append(queue, nb)
		}
	}
	return hopOf
}

// annotate turns every visited candidate into a scored graph node.
func (snap *snapshot) annotate(hopOf map[string]int, hops int) []graph.Node {
	nodes := make([]graph.Node, 0, len(hopOf))

	for id, hop := range hopOf {
		cand := snap.candidates[id]
		if cand == nil {
			continue
		}
		degree := len(snap.adj[id])

		node := graph.Node{
			NodeID:        id,
			Kind:          cand.kind,
			DisplayName:   cand.displayName,
			ColorKey:      scoring.NoOwnerColorKey,
			HopDistance:   hop,
			MissingFields: []string{},
		}

		if cand.kind == graph.KindSoftware {
			svc := cand.svc
			prodCount := svc.ProdInterfaceCount()

			node.ProdInterfaceCount = prodCount
			node.EnvPresence = graph.EnvPresence{
				Production:  svc.HasEnv(inventory.EnvProduction),
				Staging:     svc.HasEnv(inventory.EnvStaging),
				Development: svc.HasEnv(inventory.EnvDevelopment),
			}
			if owner := strings.TrimSpace(svc.Owner); owner != "" {
				node.OwnerName = &owner
			}
			node.ColorKey = scoring.ColorKey(svc.Owner)
			node.ImpactScore = scoring.ImpactScore(prodCount, degree, hop, hops)

			flags := scoring.ConfidenceFlags{
				MissingOwner:       strings.TrimSpace(svc.Owner) == "",
				MissingRepository:  strings.TrimSpace(svc.Repository) == "",
				ProdWithoutOwner:   prodCount > 0 && strings.TrimSpace(svc.Owner) == "",
				NoProdInterface:    len(svc.Interfaces) > 0 && prodCount == 0,
				NonUniqueName:      snap.nameCount[strings.ToLower(strings.TrimSpace(svc.Name))] > 1,
				InvalidProdDomains: hasInvalidProdDomain(svc),
			}
			node.ConfidenceScore, node.MissingFields = scoring.ConfidenceScore(flags)
		} else {
			// Synthetic dependency/runtime nodes carry no service metadata,
			// so there is nothing to doubt: confidence stays at 1.
			node.EnvPresence = cand.env
			node.ImpactScore = scoring.ImpactScore(0, degree, hop, hops)
			node.ConfidenceScore = 1.0
		}

		nodes = append(nodes, node)
	}
	return nodes
}

// hasInvalidProdDomain reports whether any production interface carries a
// domain that does not look like a hostname.
func hasInvalidProdDomain(svc *inventory.Service) bool {
	for _, in := range svc.Interfaces {
		if in.Environment != inventory.EnvProduction {
			continue
		}
		if !validDomain(in.Domain) {
			return true
		}
	}
	return false
}

func validDomain(domain string) bool {
	d := strings.TrimSpace(domain)
	return d != "" && strings.Contains(d, ".") && !strings.ContainsAny(d, " /")
}

// truncate enforces the node cap: the focus always survives, the remainder
// is ranked by impact (ties broken by lower hop distance, then node ID) and
// everything past the cap is dropped.
func truncate(nodes []graph.Node, focusID string, limit int) ([]graph.Node, bool) {
	if limit <= 0 || len(nodes) <= limit {
		return nodes, false
	}

	var focus *graph.Node
	rest := make([]graph.Node, 0, len(nodes)-1)
	for i := range nodes {
		if nodes[i].NodeID == focusID {
			focus = &nodes[i]
			continue
		}
		rest = append(rest, nodes[i])
	}

	sort.Slice(rest, func(i, j int) bool {
		if rest[i].ImpactScore != rest[j].ImpactScore {
			return rest[i].ImpactScore > rest[j].ImpactScore
		}
		if rest[i].HopDistance != rest[j].HopDistance {
			return rest[i].HopDistance < rest[j].HopDistance
		}
		return rest[i].NodeID < rest[j].NodeID
	})

	kept := make([]graph.Node, 0, limit)
	if focus != nil {
		kept = append(kept, *focus)
		kept = append(kept, rest[:limit-1]...)
	} else {
		kept = append(kept, rest[:limit]...)
	}
	return kept, true
}

// edgesAmong returns every snapshot edge whose endpoints both survive in
// nodes, sorted for determinism. Edges touching dropped nodes are discarded,
// never emitted dangling.
func (snap *snapshot) edgesAmong(nodes []graph.Node) []graph.Edge {
	kept := make(map[string]bool, len(nodes))
	for i := range nodes {
		kept[nodes[i].NodeID] = true
	}

	edges := make([]graph.Edge, 0, len(snap.edges))
	for _, e := range snap.edges {
		if kept[e.FromID] && kept[e.ToID] {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromID != edges[j].FromID {
			return edges[i].FromID < edges[j].FromID
		}
		return edges[i].ToID < edges[j].ToID
	})
	return edges
}
