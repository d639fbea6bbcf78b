// Package inventory models the organization service inventory the graph
// engine resolves against: services, their exposed interfaces and their
// declared dependencies. Access control is enforced upstream of this layer.
package inventory

// Environment names used by interface bindings.
const (
	EnvProduction  = "production"
	EnvStaging     = "staging"
	EnvDevelopment = "development"
)

// Interface is a single exposed interface of a service: where it is served
// (domain), in which environment, from which branch, and on which runtime.
type Interface struct {
	Domain      string `json:"domain"`
	Environment string `json:"environment"`
	Branch      string `json:"branch,omitempty"`
	Runtime     string `json:"runtime,omitempty"` // runtime locator, e.g. "aws:lambda:eu-west-1"
}

// Service is one service record in an organization's inventory.
type Service struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organization_id"`
	Name           string      `json:"name"`
	Owner          string      `json:"owner,omitempty"`
	Repository     string      `json:"repository,omitempty"`
	Description    string      `json:"description,omitempty"`
	Language       string      `json:"language,omitempty"`
	Interfaces     []Interface `json:"interfaces"`
	Dependencies   []string    `json:"dependencies"`
}

// ProdInterfaceCount returns how many interfaces are bound to production.
func (s *Service) ProdInterfaceCount() int {
	count := 0
	for _, in := range s.Interfaces {
		if in.Environment == EnvProduction {
			count++
		}
	}
	return count
}

// HasEnv reports whether any interface is bound to the given environment.
func (s *Service) HasEnv(env string) bool {
	for _, in := range s.Interfaces {
		if in.Environment == env {
			return true
		}
	}
	return false
}
