package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/identity"
	"github.com/xraph/castellan/tenant"
)

// ErrorBody is the JSON body written on rejection.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps a reason code to its HTTP status.
func StatusFor(reason string) int {
	switch reason {
	case castellan.ReasonUnauthenticated:
		return http.StatusUnauthorized
	case castellan.ReasonInsufficientRole,
		castellan.ReasonInvalidAdminType,
		castellan.ReasonInsufficientPermission,
		castellan.ReasonTenantMismatch:
		return http.StatusForbidden
	case castellan.ReasonNotFound:
		return http.StatusNotFound
	case castellan.ReasonConflict, castellan.ReasonRoleInUse:
		return http.StatusConflict
	case castellan.ReasonInvalidCatalogReference,
		castellan.ReasonInvalidHierarchy,
		castellan.ReasonImmutable,
		castellan.ReasonInactive:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a JSON rejection with its mapped status.
func WriteError(w http.ResponseWriter, err error) {
	reason := castellan.Reason(err)
	status := StatusFor(reason)
	msg := http.StatusText(status)
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: reason, Message: msg}) //nolint:errcheck // client went away
}

// Handler authorizes every request against cfg before calling next. The
// token is read from the Authorization bearer header. On success the
// identity is placed on the request context.
func (a *Authorizer) Handler(cfg RouteConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := identity.BearerToken(r.Header.Get("Authorization"))
			pc, err := a.Authorize(r.Context(), token, cfg)
			if err != nil {
				a.logDenied(r, err)
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(castellan.WithPermissionContext(r.Context(), pc)))
		})
	}
}

// RequireTenant rejects requests whose path tenant differs from the
// authorized identity's tenant. param names the path wildcard read with
// Request.PathValue. It must run after Handler.
func RequireTenant(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pc, ok := castellan.FromContext(r.Context())
			if !ok {
				WriteError(w, castellan.ErrUnauthenticated)
				return
			}
			if err := tenant.RequireTenantAccess(pc.TenantID, r.PathValue(param)); err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Authorizer) logDenied(r *http.Request, err error) {
	level := slog.LevelInfo
	if !errors.Is(err, castellan.ErrUnauthenticated) {
		level = slog.LevelWarn
	}
	a.logger.Log(r.Context(), level, "castellan: request denied",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("reason", castellan.Reason(err)),
	)
}
