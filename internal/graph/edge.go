package graph

// Edge is an undirected relationship between two nodes in a resolved
// subgraph. Weight reflects the strongest binding between the endpoints.
type Edge struct {
	FromID string  `json:"fromId"`
	ToID   string  `json:"toId"`
	Weight float64 `json:"weight"`
}

// Touches reports whether the edge has nodeID as either endpoint.
func (e Edge) Touches(nodeID string) bool {
	return e.FromID == nodeID || e.ToID == nodeID
}
