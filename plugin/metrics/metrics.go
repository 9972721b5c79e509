// Package metrics is a castellan plugin that exports permission checks,
// resolution failures, cache invalidations and role changes as Prometheus
// metrics.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/castellan/assignment"
	"github.com/xraph/castellan/permset"
	"github.com/xraph/castellan/plugin"
	"github.com/xraph/castellan/role"
)

// Namespace prefixes every metric name.
const Namespace = "castellan"

// Compile-time hook assertions.
var (
	_ plugin.Plugin                 = (*Metrics)(nil)
	_ plugin.AfterCheck             = (*Metrics)(nil)
	_ plugin.ResolveFailed          = (*Metrics)(nil)
	_ plugin.CacheInvalidated       = (*Metrics)(nil)
	_ plugin.RolePermissionsChanged = (*Metrics)(nil)
	_ plugin.RoleAssigned           = (*Metrics)(nil)
	_ plugin.RoleUnassigned         = (*Metrics)(nil)
)

// Metrics holds the castellan collectors.
type Metrics struct {
	// Engine metrics
	ChecksTotal     *prometheus.CounterVec
	CheckDuration   *prometheus.HistogramVec
	ResolveFailures prometheus.Counter

	// Cache metrics
	Invalidations *prometheus.CounterVec

	// Management metrics
	PermissionChanges *prometheus.CounterVec
	Assignments       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "checks_total",
				Help:      "Total number of permission queries answered",
			},
			[]string{"allowed", "cache"},
		),
		CheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "check_duration_seconds",
				Help:      "Permission query latency in seconds",
				Buckets:   []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"cache"},
		),
		ResolveFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "resolve_failures_total",
				Help:      "Permission resolutions that failed closed",
			},
		),
		Invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_invalidations_total",
				Help:      "Cache invalidations by scope",
			},
			[]string{"scope"},
		),
		PermissionChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "role_permission_changes_total",
				Help:      "Grants added to or removed from roles",
			},
			[]string{"change"},
		),
		Assignments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "assignments_total",
				Help:      "Role assignments granted and revoked",
			},
			[]string{"op"},
		),
	}

	reg.MustRegister(
		m.ChecksTotal,
		m.CheckDuration,
		m.ResolveFailures,
		m.Invalidations,
		m.PermissionChanges,
		m.Assignments,
	)
	return m
}

// Name implements plugin.Plugin.
func (m *Metrics) Name() string { return "metrics" }

// OnAfterCheck records one answered query.
func (m *Metrics) OnAfterCheck(_ context.Context, ev plugin.CheckEvent) error {
	cache := cacheLabel(ev.CacheHit)
	m.ChecksTotal.WithLabelValues(strconv.FormatBool(ev.Allowed), cache).Inc()
	m.CheckDuration.WithLabelValues(cache).Observe(ev.Duration.Seconds())
	return nil
}

// OnResolveFailed counts a fail-closed resolution.
func (m *Metrics) OnResolveFailed(context.Context, string, string, error) error {
	m.ResolveFailures.Inc()
	return nil
}

// OnCacheInvalidated counts single-user and full invalidations.
func (m *Metrics) OnCacheInvalidated(_ context.Context, key string) error {
	scope := "user"
	if key == "" {
		scope = "all"
	}
	m.Invalidations.WithLabelValues(scope).Inc()
	return nil
}

// OnRolePermissionsChanged counts the grants a role gained and lost.
func (m *Metrics) OnRolePermissionsChanged(_ context.Context, _ *role.Role, diff permset.DiffResult) error {
	m.PermissionChanges.WithLabelValues("added").Add(float64(diff.Added.Len()))
	m.PermissionChanges.WithLabelValues("removed").Add(float64(diff.Removed.Len()))
	return nil
}

// OnRoleAssigned counts a granted assignment.
func (m *Metrics) OnRoleAssigned(context.Context, *assignment.Assignment) error {
	m.Assignments.WithLabelValues("assign").Inc()
	return nil
}

// OnRoleUnassigned counts a revoked assignment.
func (m *Metrics) OnRoleUnassigned(context.Context, *assignment.Assignment) error {
	m.Assignments.WithLabelValues("unassign").Inc()
	return nil
}

func cacheLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
