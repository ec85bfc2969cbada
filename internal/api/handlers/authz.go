package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/api/middleware"
	"parking-core/internal/apperr"
	"parking-core/internal/site"
)

// authorizeSite loads the caller's full user record — site.Authorize needs
// its assignedSites/primarySite, which the access token itself does not
// carry, only {userId, operatorId, role} — and checks it against the
// target site and operation.
func authorizeSite(c *gin.Context, sites *site.Service, siteID primitive.ObjectID, op site.Operation) error {
	userID, err := primitive.ObjectIDFromHex(middleware.UserID(c))
	if err != nil {
		return apperr.New(apperr.Unauthorized, "invalid session")
	}
	user, err := sites.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	return site.Authorize(user, siteID, op)
}
