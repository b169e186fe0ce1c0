// internal/services/hierarchy.go
package services

import (
	"github.com/distrokey/distrokey-backend/internal/apperrors"
	"github.com/distrokey/distrokey-backend/internal/models"
)

// ValidateTransferEdge checks that a key transfer follows a permitted
// hierarchy edge. Transfers skip no tiers and never flow upward.
func ValidateTransferEdge(fromRole, toRole models.Role) error {
	edge, ok := models.EdgeFor(fromRole)
	if !ok {
		return apperrors.Newf(apperrors.KindForbidden, "role %q cannot transfer keys", fromRole)
	}

	// End users receive keys through provisioning, not transfer.
	if edge.ChildRole == models.RoleEndUser {
		return apperrors.Newf(apperrors.KindForbidden, "role %q cannot transfer keys", fromRole)
	}

	if edge.ChildRole != toRole {
		return apperrors.Newf(apperrors.KindForbidden,
			"transfers from %q must go to %q, not %q", fromRole, edge.ChildRole, toRole)
	}

	return nil
}

// EligibleSourceStatus is the key status a sender's keys must be in to
// leave its wallet. Freshly created stock sits unassigned on the super
// admin; everyone further down transfers keys they were credited.
func EligibleSourceStatus(fromRole models.Role) models.KeyStatus {
	if fromRole == models.RoleSuperAdmin {
		return models.KeyStatusUnassigned
	}
	return models.KeyStatusCredited
}

// AncestorSnapshot builds the denormalized hierarchy field stored on a
// new subordinate: the parent's ancestors plus the parent itself.
func AncestorSnapshot(parent *models.User) models.JSONB {
	ancestors := []string{}
	if parent.Hierarchy != nil {
		if prev, ok := parent.Hierarchy["ancestors"].([]interface{}); ok {
			for _, a := range prev {
				if s, ok := a.(string); ok {
					ancestors = append(ancestors, s)
				}
			}
		}
	}
	ancestors = append(ancestors, parent.ID.String())

	return models.JSONB{"ancestors": ancestors}
}
