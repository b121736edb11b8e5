package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ottiehq/ottie-server/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors onto HTTP statuses with their
// user-facing messages.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	var nv *service.NotVerifiedError

	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.As(err, &nv):
		writeError(w, http.StatusConflict, nv.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "insufficient role")
	case errors.Is(err, service.ErrPlanRestricted):
		writeError(w, http.StatusPaymentRequired, "your plan does not include custom domains")
	case errors.Is(err, service.ErrAlreadyInUse):
		writeError(w, http.StatusConflict, "that domain is already in use")
	case errors.Is(err, service.ErrNoDomainConfigured):
		writeError(w, http.StatusBadRequest, "no custom domain is configured")
	case errors.Is(err, service.ErrRegistrarUnavailable):
		writeError(w, http.StatusBadGateway, "the domain provider is temporarily unavailable, please retry")
	case errors.Is(err, service.ErrWorkspaceNotFound):
		writeError(w, http.StatusNotFound, "workspace not found")
	case errors.Is(err, service.ErrSiteNotFound):
		writeError(w, http.StatusNotFound, "site not found")
	case errors.Is(err, service.ErrSlugTaken):
		writeError(w, http.StatusConflict, "slug is already taken")
	case errors.Is(err, service.ErrWorkspaceNameEmpty),
		errors.Is(err, service.ErrSiteNameEmpty),
		errors.Is(err, service.ErrSiteSlugInvalid),
		errors.Is(err, service.ErrInvalidPlan):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
