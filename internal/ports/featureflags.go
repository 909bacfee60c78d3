package ports

import (
	"context"
)

// Feature flag names.
const (
	// FlagCatalogEnrichment fills reading-log fields from the catalog service.
	FlagCatalogEnrichment = "catalog_enrichment"

	// FlagDashboardCache serves dashboards from the cache between mutations.
	FlagDashboardCache = "dashboard_cache"
)

// FeatureFlags defines the contract for feature flag evaluation.
// This port allows the application to check feature enablement without
// knowing where flags come from.
//
// Design principles:
//   - Always provide default values for graceful degradation
//   - Context parameter for request targeting
//   - Synchronous evaluation
//
// Example usage:
//
//	if flags.IsEnabled(ctx, ports.FlagCatalogEnrichment, true) {
//	    log = s.enrich(ctx, log)
//	}
type FeatureFlags interface {
	// IsEnabled checks if a boolean feature flag is enabled.
	// Returns defaultValue if the flag doesn't exist.
	IsEnabled(ctx context.Context, flag string, defaultValue bool) bool
}
