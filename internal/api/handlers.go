package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/atlasops/blastradius/internal/graph"
	"github.com/atlasops/blastradius/internal/resolve"
	"github.com/atlasops/blastradius/internal/scoring"
)

// defaultHops is used when the hops query parameter is absent.
const defaultHops = 2

// ---------------------------------------------------------------------------
// GET /graph
// ---------------------------------------------------------------------------

// handleGraph resolves a blast-radius subgraph for the requested focus.
//
// Query parameters: organizationId, focusKind (software|dependency|runtime),
// focusId, hops (integer, clamped to the configured range).
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	orgID := strings.TrimSpace(params.Get("organizationId"))
	focusKind := strings.TrimSpace(params.Get("focusKind"))
	focusID := strings.TrimSpace(params.Get("focusId"))

	var details []string
	if orgID == "" {
		details = append(details, "organizationId: must not be empty")
	}
	kind := graph.NodeKind(strings.ToLower(focusKind))
	if !kind.IsValid() {
		details = append(details, "focusKind: must be software, dependency or runtime")
	}
	if focusID == "" {
		details = append(details, "focusId: must not be empty")
	}

	hops := defaultHops
	if raw := strings.TrimSpace(params.Get("hops")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, "hops: must be an integer")
		} else {
			hops = parsed
		}
	}

	if len(details) > 0 {
		writeValidationError(w, "invalid query parameters", details)
		return
	}

	hops = s.resolver.Config().ClampHops(hops)
	cacheKey := scoring.QueryHash(orgID, string(kind), focusID, hops)

	if s.responses != nil {
		if resp := s.responses.Get(cacheKey); resp != nil {
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	resp, err := s.resolver.Resolve(r.Context(), resolve.Query{
		OrganizationID: orgID,
		FocusKind:      kind,
		FocusID:        focusID,
		Hops:           hops,
	})
	if err != nil {
		writeResolveError(w, err)
		return
	}

	if s.responses != nil {
		s.responses.Set(cacheKey, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeResolveError maps resolver error taxonomy onto HTTP statuses.
func writeResolveError(w http.ResponseWriter, err error) {
	var verr *resolve.ValidationError
	if errors.As(err, &verr) {
		writeValidationError(w, "invalid query parameters", []string{verr.Field + ": " + verr.Detail})
		return
	}

	var nferr *resolve.NotFoundError
	if errors.As(err, &nferr) {
		writeError(w, http.StatusNotFound, nferr.Error())
		return
	}

	slog.Error("graph resolution failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// ---------------------------------------------------------------------------
// GET /services
// ---------------------------------------------------------------------------

// handleServices lists the inventory services for an organization, giving
// callers the focus candidates to feed into /graph.
func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimSpace(r.URL.Query().Get("organizationId"))
	if orgID == "" {
		writeValidationError(w, "invalid query parameters", []string{"organizationId: must not be empty"})
		return
	}

	if s.store == nil {
		writeError(w, http.StatusInternalServerError, "service listing unavailable")
		return
	}

	services, err := s.store.ListServices(r.Context(), orgID)
	if err != nil {
		slog.Error("service listing failed", "error", err, "organization_id", orgID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"services": services,
		"count":    len(services),
	})
}
