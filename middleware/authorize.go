// Package middleware turns an inbound request and a declared RouteConfig
// into an allow or a deny with a distinct reason. Authorizer holds the
// decision logic; Handler and Require adapt it to net/http and forge.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/xraph/castellan"
	"github.com/xraph/castellan/identity"
	"github.com/xraph/castellan/tenant"
)

// RouteConfig declares who may reach a route. Empty fields do not restrict.
type RouteConfig struct {
	AllowedRoles          []string           `json:"allowed_roles,omitempty"`
	AllowedAdminTypes     []tenant.AdminType `json:"allowed_admin_types,omitempty"`
	RequiredPermissions   []castellan.Check  `json:"required_permissions,omitempty"`
	RequireAllPermissions bool               `json:"require_all_permissions,omitempty"`
}

// Checker answers multi-permission queries. *castellan.Engine implements it.
type Checker interface {
	HasAllPermissions(ctx context.Context, pc castellan.PermissionContext, checks []castellan.Check) bool
	HasAnyPermission(ctx context.Context, pc castellan.PermissionContext, checks []castellan.Check) bool
}

// Authorizer verifies identity and evaluates RouteConfigs.
type Authorizer struct {
	checker  Checker
	provider identity.Provider
	logger   *slog.Logger
}

// AuthorizerOption configures an Authorizer.
type AuthorizerOption func(*Authorizer)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) AuthorizerOption { return func(a *Authorizer) { a.logger = l } }

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(checker Checker, provider identity.Provider, opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{
		checker:  checker,
		provider: provider,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authorize evaluates cfg for the session token. Checks run in order:
// identity, role, admin type, permissions. The first failure is returned.
func (a *Authorizer) Authorize(ctx context.Context, token string, cfg RouteConfig) (*castellan.PermissionContext, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", castellan.ErrUnauthenticated)
	}
	pc, err := a.provider.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, castellan.ErrUnauthenticated) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", castellan.ErrUnauthenticated, err)
	}
	if pc == nil {
		return nil, fmt.Errorf("%w: provider returned no identity", castellan.ErrUnauthenticated)
	}

	if len(cfg.AllowedRoles) > 0 && !slices.Contains(cfg.AllowedRoles, pc.UserRole) {
		return nil, fmt.Errorf("%w: role %q", castellan.ErrInsufficientRole, pc.UserRole)
	}
	if len(cfg.AllowedAdminTypes) > 0 && !slices.Contains(cfg.AllowedAdminTypes, pc.AdminType) {
		return nil, fmt.Errorf("%w: %q", castellan.ErrInvalidAdminType, pc.AdminType)
	}
	if len(cfg.RequiredPermissions) > 0 {
		var ok bool
		if cfg.RequireAllPermissions {
			ok = a.checker.HasAllPermissions(ctx, *pc, cfg.RequiredPermissions)
		} else {
			ok = a.checker.HasAnyPermission(ctx, *pc, cfg.RequiredPermissions)
		}
		if !ok {
			return nil, fmt.Errorf("%w: user %s in tenant %s", castellan.ErrInsufficientPermission, pc.UserID, pc.TenantID)
		}
	}
	return pc, nil
}

// Permissions is a RouteConfig helper: every key is required when all is
// true, any one otherwise. Keys are "module:action"; malformed keys panic
// because route tables are static.
func Permissions(all bool, keys ...string) RouteConfig {
	checks := make([]castellan.Check, len(keys))
	for i, k := range keys {
		c, err := castellan.ParseCheck(k)
		if err != nil {
			panic("castellan: route permission: " + err.Error())
		}
		checks[i] = c
	}
	return RouteConfig{RequiredPermissions: checks, RequireAllPermissions: all}
}
