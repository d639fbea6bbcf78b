package graph

// ---------------------------------------------------------------------------
// Node kinds
// ---------------------------------------------------------------------------

// NodeKind identifies the kind of inventory entity a graph node models.
type NodeKind string

const (
	KindSoftware   NodeKind = "software"
	KindDependency NodeKind = "dependency"
	KindRuntime    NodeKind = "runtime"
)

// IsValid reports whether k is one of the three known node kinds.
func (k NodeKind) IsValid() bool {
	switch k {
	case KindSoftware, KindDependency, KindRuntime:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// EnvPresence
// ---------------------------------------------------------------------------

// EnvPresence records which environments a node is bound to.
type EnvPresence struct {
	Production  bool `json:"production"`
	Staging     bool `json:"staging"`
	Development bool `json:"development"`
}

// ---------------------------------------------------------------------------
// Node
// ---------------------------------------------------------------------------

// Node is a vertex in a resolved blast-radius subgraph. IDs are stable and
// kind-prefixed ("svc:<id>", "dep:<hash>", "rt:<hash>") so the same inventory
// entity always maps to the same node across queries.
type Node struct {
	NodeID             string      `json:"nodeId"`
	Kind               NodeKind    `json:"kind"`
	DisplayName        string      `json:"displayName"`
	OwnerName          *string     `json:"ownerName"`
	ColorKey           string      `json:"colorKey"`
	HopDistance        int         `json:"hopDistance"`
	ImpactScore        int         `json:"impactScore"`
	ConfidenceScore    float64     `json:"confidenceScore"`
	MissingFields      []string    `json:"missingFields"`
	EnvPresence        EnvPresence `json:"envPresence"`
	ProdInterfaceCount int         `json:"prodInterfaceCount"`
}

// Owner returns the owner name or "" when the node is unowned.
func (n *Node) Owner() string {
	if n.OwnerName == nil {
		return ""
	}
	return *n.OwnerName
}
