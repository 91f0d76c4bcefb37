// Package entitlement resolves feature flags with device-over-tenant
// precedence plus a fixed default table.
package entitlement

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/store"
)

// defaults is the fallback when neither a device- nor a tenant-scope row
// exists.
var defaults = map[model.EntitlementKey]bool{
	model.EntitlementBasicRemoteBoost:     true,
	model.EntitlementSmartHomeIntegration: false,
}

// Resolver answers entitlement checks from stored rows plus defaults.
type Resolver struct {
	store store.Store
}

func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// Check resolves (tenant, key, deviceID?). A device-scope row wins over a
// tenant-scope row; absent both, the default table decides. Deterministic
// for a fixed store state.
func (r *Resolver) Check(ctx context.Context, tenantID string, key model.EntitlementKey, deviceID string) (bool, error) {
	if deviceID != "" {
		row, err := r.store.GetEntitlementRow(ctx, tenantID, key, deviceID)
		if err == nil {
			return row.Enabled, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
	}

	row, err := r.store.GetEntitlementRow(ctx, tenantID, key, "")
	if err == nil {
		return row.Enabled, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	return defaults[key], nil
}

// Require fails with FEATURE_DISABLED when the flag resolves to false.
func (r *Resolver) Require(ctx context.Context, tenantID string, key model.EntitlementKey, deviceID string) error {
	ok, err := r.Check(ctx, tenantID, key, deviceID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.FeatureDisabled("feature " + string(key) + " is not enabled")
	}
	return nil
}
