package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/apperr"
	"parking-core/internal/models"
)

func TestAuthorize_AdminBypassesEverything(t *testing.T) {
	admin := &models.User{Role: models.RoleAdmin}
	unrelatedSite := primitive.NewObjectID()
	require.NoError(t, Authorize(admin, unrelatedSite, OpSiteMutation))
	require.NoError(t, Authorize(admin, unrelatedSite, OpBookingOrMachineMutation))
}

func TestAuthorize_UnassignedUserForbiddenFromRead(t *testing.T) {
	siteID := primitive.NewObjectID()
	u := &models.User{Role: models.RoleOperator}
	err := Authorize(u, siteID, OpRead)
	require.Error(t, err)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestAuthorize_AssignedOperatorCanRead(t *testing.T) {
	siteID := primitive.NewObjectID()
	u := &models.User{
		Role:          models.RoleOperator,
		AssignedSites: []models.SiteAssignment{{SiteRef: siteID, SiteRole: "operator"}},
	}
	require.NoError(t, Authorize(u, siteID, OpRead))
}

func TestAuthorize_SiteMutationRequiresSiteAdminOrSupervisorRole(t *testing.T) {
	siteID := primitive.NewObjectID()
	operator := &models.User{
		Role:          models.RoleOperator,
		AssignedSites: []models.SiteAssignment{{SiteRef: siteID, SiteRole: "operator"}},
	}
	err := Authorize(operator, siteID, OpSiteMutation)
	require.Error(t, err)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	siteAdmin := &models.User{
		Role:          models.RoleOperator,
		AssignedSites: []models.SiteAssignment{{SiteRef: siteID, SiteRole: "site-admin"}},
	}
	require.NoError(t, Authorize(siteAdmin, siteID, OpSiteMutation))
}

func TestAuthorize_BookingMutationRequiresGlobalOperatorSupervisorOrAdmin(t *testing.T) {
	siteID := primitive.NewObjectID()
	viewer := &models.User{
		Role:          "viewer",
		AssignedSites: []models.SiteAssignment{{SiteRef: siteID}},
	}
	err := Authorize(viewer, siteID, OpBookingOrMachineMutation)
	require.Error(t, err)

	supervisor := &models.User{
		Role:          models.RoleSupervisor,
		AssignedSites: []models.SiteAssignment{{SiteRef: siteID}},
	}
	require.NoError(t, Authorize(supervisor, siteID, OpBookingOrMachineMutation))
}

func TestAuthorize_PrimarySiteGrantsAccessWithoutExplicitAssignment(t *testing.T) {
	siteID := primitive.NewObjectID()
	u := &models.User{Role: models.RoleOperator, PrimarySite: &siteID}
	require.NoError(t, Authorize(u, siteID, OpRead))
}
