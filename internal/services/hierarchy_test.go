// internal/services/hierarchy_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/models"
)

func TestValidateTransferEdge(t *testing.T) {
	legal := []struct{ from, to models.Role }{
		{models.RoleSuperAdmin, models.RoleSuperDistributor},
		{models.RoleSuperDistributor, models.RoleDistributor},
		{models.RoleDistributor, models.RoleRetailer},
	}
	for _, tc := range legal {
		assert.NoError(t, ValidateTransferEdge(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	illegal := []struct{ from, to models.Role }{
		{models.RoleSuperAdmin, models.RoleDistributor},   // skips a tier
		{models.RoleSuperAdmin, models.RoleRetailer},      // skips two tiers
		{models.RoleDistributor, models.RoleSuperDistributor}, // upward
		{models.RoleRetailer, models.RoleEndUser},         // provisioning, not transfer
		{models.RoleEndUser, models.RoleRetailer},         // leaf cannot send
		{models.RoleSuperDistributor, models.RoleSuperDistributor},
	}
	for _, tc := range illegal {
		err := ValidateTransferEdge(tc.from, tc.to)
		require.Error(t, err, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	}
}

func TestEligibleSourceStatus(t *testing.T) {
	assert.Equal(t, models.KeyStatusUnassigned, EligibleSourceStatus(models.RoleSuperAdmin))
	assert.Equal(t, models.KeyStatusCredited, EligibleSourceStatus(models.RoleSuperDistributor))
	assert.Equal(t, models.KeyStatusCredited, EligibleSourceStatus(models.RoleDistributor))
	assert.Equal(t, models.KeyStatusCredited, EligibleSourceStatus(models.RoleRetailer))
}

func TestAncestorSnapshot(t *testing.T) {
	root := &models.User{Role: models.RoleSuperAdmin}
	root.ID = uuid.New()

	snap := AncestorSnapshot(root)
	assert.Equal(t, []string{root.ID.String()}, snap["ancestors"])

	// A child built from that snapshot accumulates the chain.
	child := &models.User{Role: models.RoleSuperDistributor, Hierarchy: models.JSONB{
		"ancestors": []interface{}{root.ID.String()},
	}}
	child.ID = uuid.New()

	snap = AncestorSnapshot(child)
	assert.Equal(t, []string{root.ID.String(), child.ID.String()}, snap["ancestors"])
}
