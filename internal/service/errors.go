package service

import (
	"errors"
	"strings"
)

var (
	ErrForbidden            = errors.New("insufficient role")
	ErrPlanRestricted       = errors.New("plan does not include custom domains")
	ErrAlreadyInUse         = errors.New("domain is already in use")
	ErrRegistrarUnavailable = errors.New("registrar unavailable")
	ErrNoDomainConfigured   = errors.New("no custom domain configured")
	ErrPersistenceFailure   = errors.New("failed to persist domain state")

	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrSiteNotFound      = errors.New("site not found")
	ErrInvalidPlan       = errors.New("invalid plan")
	ErrSiteNameEmpty     = errors.New("name is required")
	ErrSiteSlugInvalid   = errors.New("slug must be lowercase letters, digits and hyphens")
	ErrSlugTaken         = errors.New("slug is already taken")
)

// ValidationError reports a rejected custom-domain candidate with a
// user-facing message.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotVerifiedError means DNS has not yet been pointed correctly. It carries
// the registrar's human-readable reasons when any were given.
type NotVerifiedError struct {
	Reasons []string
}

func (e *NotVerifiedError) Error() string {
	if len(e.Reasons) == 0 {
		return "DNS is not yet correct, please wait for propagation and retry"
	}
	return strings.Join(e.Reasons, "; ")
}
