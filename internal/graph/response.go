package graph

// ---------------------------------------------------------------------------
// Response
// ---------------------------------------------------------------------------

// Meta carries summary information about a resolved subgraph.
type Meta struct {
	SubgraphSize int `json:"subgraphSize"`
}

// Response is the full result of one subgraph resolution. It is computed per
// resolver call and never persisted; a server-side TTL cache may hold one
// copy per query signature.
//
// Invariants: node IDs are unique, every edge endpoint exists in Nodes, the
// focus node is present with HopDistance 0, and QueryHash is a pure function
// of the normalized query tuple.
type Response struct {
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
	FocusNodeID string `json:"focusNodeId"`
	Truncated   bool   `json:"truncated"`
	QueryHash   string `json:"queryHash"`
	Meta        Meta   `json:"meta"`
}

// FindNode returns the node with the given ID, or nil.
func (r *Response) FindNode(nodeID string) *Node {
	for i := range r.Nodes {
		if r.Nodes[i].NodeID == nodeID {
			return &r.Nodes[i]
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Layout
// ---------------------------------------------------------------------------

// NodePosition is a 3D scene-unit position for one node.
type NodePosition struct {
	NodeID string  `json:"nodeId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
}

// Layout holds positions for every node of a response, 1:1 and
// order-matching Response.Nodes. Layout computation is pure, so a layout is
// computed once per distinct QueryHash and cached on the client.
type Layout struct {
	Positions []NodePosition `json:"positions"`
	QueryHash string         `json:"queryHash"`
}
