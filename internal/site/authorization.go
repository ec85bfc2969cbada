package site

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/apperr"
	"parking-core/internal/models"
)

// Operation classifies what kind of access an operation needs, per the
// authorization rule applied uniformly across every core operation.
type Operation int

const (
	// OpRead covers any read of a site-scoped resource.
	OpRead Operation = iota
	// OpSiteMutation covers site record updates (CreateSite/UpdateSite/
	// DeactivateSite/DeleteSitePermanently/AssignUserToSite).
	OpSiteMutation
	// OpBookingOrMachineMutation covers booking and machine writes.
	OpBookingOrMachineMutation
)

const (
	siteRoleSiteAdmin  = "site-admin"
	siteRoleSupervisor = "supervisor"
)

// Authorize implements the authorization rule: admin bypasses site
// scoping entirely; every other role must be assigned to siteID (via
// assignedSites or primarySite) to read; site mutations additionally
// require a site-level role of site-admin or supervisor; booking and
// machine mutations additionally require a global role of operator,
// supervisor, or admin.
func Authorize(user *models.User, siteID primitive.ObjectID, op Operation) error {
	if user.Role == models.RoleAdmin {
		return nil
	}
	assignment, ok := findAssignment(user, siteID)
	if !ok {
		return apperr.New(apperr.Forbidden, "user is not assigned to this site")
	}

	switch op {
	case OpRead:
		return nil
	case OpSiteMutation:
		if assignment.SiteRole == siteRoleSiteAdmin || assignment.SiteRole == siteRoleSupervisor {
			return nil
		}
		return apperr.New(apperr.Forbidden, "site mutations require a site-admin or supervisor role")
	case OpBookingOrMachineMutation:
		switch user.Role {
		case models.RoleOperator, models.RoleSupervisor:
			return nil
		}
		return apperr.New(apperr.Forbidden, "booking and machine mutations require operator, supervisor, or admin")
	default:
		return apperr.New(apperr.Forbidden, "unrecognized operation")
	}
}

func findAssignment(user *models.User, siteID primitive.ObjectID) (models.SiteAssignment, bool) {
	if user.PrimarySite != nil && *user.PrimarySite == siteID {
		for _, a := range user.AssignedSites {
			if a.SiteRef == siteID {
				return a, true
			}
		}
		return models.SiteAssignment{SiteRef: siteID}, true
	}
	for _, a := range user.AssignedSites {
		if a.SiteRef == siteID {
			return a, true
		}
	}
	return models.SiteAssignment{}, false
}
