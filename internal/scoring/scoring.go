// Package scoring computes the heuristic scores and stable hash-derived
// identifiers that annotate blast-radius graph nodes. Every function here is
// pure and I/O-free; inputs are pre-validated by callers and none of the
// functions can fail.
package scoring

import "math"

// ---------------------------------------------------------------------------
// Impact
// ---------------------------------------------------------------------------

// ImpactScore computes the 0–100 operational impact heuristic for a node.
// Production exposure and fan-out dominate; proximity to the focus is a
// secondary, linearly decaying signal.
func ImpactScore(prodInterfaceCount, dependencyDegree, hopDistance, maxHops int) int {
	denom := maxHops
	if denom < 1 {
		denom = 1
	}
	proximity := float64(maxHops-hopDistance) / float64(denom)

	raw := float64(prodInterfaceCount)*40 +
		float64(dependencyDegree)*30 +
		proximity*30

	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}
	return int(math.Round(raw))
}

// ---------------------------------------------------------------------------
// Confidence
// ---------------------------------------------------------------------------

// ConfidenceFlags captures the metadata-quality signals behind a node's
// confidence score.
type ConfidenceFlags struct {
	MissingOwner       bool
	MissingRepository  bool
	ProdWithoutOwner   bool // prod interfaces exist but no owner is set
	NoProdInterface    bool // interfaces exist but none in production
	NonUniqueName      bool
	InvalidProdDomains bool
}

// Fixed confidence penalties, applied in evaluation order. The order is
// load-bearing: MissingFields preserves it.
const (
	penaltyMissingOwner       = 0.25
	penaltyMissingRepository  = 0.20
	penaltyProdWithoutOwner   = 0.30
	penaltyNoProdInterface    = 0.15
	penaltyNonUniqueName      = 0.10
	penaltyInvalidProdDomains = 0.15
)

// ConfidenceScore starts at 1.0, applies fixed penalties in evaluation
// order and floors at 0. The returned missing-field labels preserve
// evaluation order, not severity order.
func ConfidenceScore(f ConfidenceFlags) (float64, []string) {
	score := 1.0
	missing := []string{}

	if f.MissingOwner {
		score -= penaltyMissingOwner
		missing = append(missing, "owner")
	}
	if f.MissingRepository {
		score -= penaltyMissingRepository
		missing = append(missing, "repository")
	}
	if f.ProdWithoutOwner {
		score -= penaltyProdWithoutOwner
		missing = append(missing, "prod_interface_owner")
	}
	if f.NoProdInterface {
		score -= penaltyNoProdInterface
		missing = append(missing, "production_presence")
	}
	if f.NonUniqueName {
		score -= penaltyNonUniqueName
		missing = append(missing, "unique_name")
	}
	if f.InvalidProdDomains {
		score -= penaltyInvalidProdDomains
		missing = append(missing, "valid_domains")
	}

	if score < 0 {
		score = 0
	}
	return score, missing
}

// ---------------------------------------------------------------------------
// Completeness
// ---------------------------------------------------------------------------

// CompletenessFlags captures the descriptive-data signals behind a node's
// completeness score. Completeness is independent of confidence: it measures
// how fully a service record is filled in, not how trustworthy its
// operational metadata is.
type CompletenessFlags struct {
	MissingDescription bool
	MissingLanguage    bool
	MissingInterfaces  bool
}

// CompletenessScore starts at 1.0, applies fixed penalties in evaluation
// order and floors at 0.
func CompletenessScore(f CompletenessFlags) (float64, []string) {
	score := 1.0
	incomplete := []string{}

	if f.MissingDescription {
		score -= 0.15
		incomplete = append(incomplete, "description")
	}
	if f.MissingLanguage {
		score -= 0.10
		incomplete = append(incomplete, "language")
	}
	if f.MissingInterfaces {
		score -= 0.20
		incomplete = append(incomplete, "interfaces")
	}

	if score < 0 {
		score = 0
	}
	return score, incomplete
}
