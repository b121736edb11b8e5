package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ottiehq/ottie-server/internal/api/middleware"
	"github.com/ottiehq/ottie-server/internal/domain"
	"github.com/ottiehq/ottie-server/internal/service"
)

type DomainHandler struct {
	svc *service.DomainService
}

func NewDomainHandler(svc *service.DomainService) *DomainHandler {
	return &DomainHandler{svc: svc}
}

type attachDomainRequest struct {
	Domain string `json:"domain"`
}

type attachDomainResponse struct {
	Domain       string                 `json:"domain"`
	Instructions []domain.DNSRecordHint `json:"instructions"`
}

func (h *DomainHandler) Attach(w http.ResponseWriter, r *http.Request) {
	member := middleware.MemberFromContext(r.Context())
	if member == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req attachDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	instructions, err := h.svc.AttachDomain(r.Context(), member.WorkspaceID, member.Role, req.Domain)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, attachDomainResponse{
		Domain:       service.NormalizeDomain(req.Domain),
		Instructions: instructions,
	})
}

func (h *DomainHandler) Verify(w http.ResponseWriter, r *http.Request) {
	member := middleware.MemberFromContext(r.Context())
	if member == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.VerifyDomain(r.Context(), member.WorkspaceID, member.Role); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *DomainHandler) Detach(w http.ResponseWriter, r *http.Request) {
	member := middleware.MemberFromContext(r.Context())
	if member == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.DetachDomain(r.Context(), member.WorkspaceID, member.Role); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
