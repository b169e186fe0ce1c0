// internal/models/common_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in    string
		want  Role
		valid bool
	}{
		{"super_admin", RoleSuperAdmin, true},
		{"super-admin", RoleSuperAdmin, true},
		{"Super-Admin", RoleSuperAdmin, true},
		{" super_distributor ", RoleSuperDistributor, true},
		{"distributor", RoleDistributor, true},
		{"retailer", RoleRetailer, true},
		{"end-user", RoleEndUser, true},
		{"superadmin", "", false},
		{"admin", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		assert.Equal(t, tc.valid, ok, "input %q", tc.in)
		if tc.valid {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestEdgeFor(t *testing.T) {
	edge, ok := EdgeFor(RoleSuperAdmin)
	assert.True(t, ok)
	assert.Equal(t, RoleSuperDistributor, edge.ChildRole)
	assert.Equal(t, "super_admin_id", edge.LinkField)

	edge, ok = EdgeFor(RoleDistributor)
	assert.True(t, ok)
	assert.Equal(t, RoleRetailer, edge.ChildRole)

	// End users are leaves
	_, ok = EdgeFor(RoleEndUser)
	assert.False(t, ok)
}

func TestKeyEffectiveStatus(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	key := Key{Status: KeyStatusCredited, ValidUntil: &future}
	assert.Equal(t, KeyStatusCredited, key.EffectiveStatus())
	assert.False(t, key.Expired())

	key.ValidUntil = &past
	assert.Equal(t, KeyStatusExpired, key.EffectiveStatus())
	assert.True(t, key.Expired())

	// Terminal statuses are never overlaid
	key.Status = KeyStatusProvisioned
	assert.Equal(t, KeyStatusProvisioned, key.EffectiveStatus())

	key.Status = KeyStatusRevoked
	assert.Equal(t, KeyStatusRevoked, key.EffectiveStatus())

	// No expiry set means no expiry
	key = Key{Status: KeyStatusUnassigned}
	assert.Equal(t, KeyStatusUnassigned, key.EffectiveStatus())
}

func TestWalletBalanced(t *testing.T) {
	w := Wallet{
		AvailableKeys:        6,
		TotalKeysReceived:    10,
		TotalKeysTransferred: 4,
	}
	assert.True(t, w.Balanced())

	w.TotalRevoked = 1
	assert.False(t, w.Balanced())

	w.AvailableKeys = 5
	assert.True(t, w.Balanced())
}
