package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/api/middleware"
	"parking-core/internal/apperr"
	"parking-core/internal/models"
	"parking-core/internal/response"
	"parking-core/internal/site"
)

type SiteHandler struct {
	Sites *site.Service
}

type createSiteRequest struct {
	SiteCode                string                 `json:"siteCode" binding:"required"`
	Name                    string                 `json:"name" binding:"required"`
	Address                 string                 `json:"address" binding:"required"`
	Coordinates             *models.Coordinates    `json:"coordinates"`
	OperatingHours          models.OperatingHours  `json:"operatingHours"`
	Pricing                 models.Pricing         `json:"pricing"`
	DeclaredMachineCount    int                    `json:"declaredMachineCount"`
	DeclaredVehicleCapacity int                    `json:"declaredVehicleCapacity"`
}

func (h *SiteHandler) Create(c *gin.Context) {
	var req createSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "siteCode, name and address are required"))
		return
	}
	s, err := h.Sites.CreateSite(c.Request.Context(), site.CreateSiteInput{
		SiteCode:                req.SiteCode,
		Name:                    req.Name,
		Address:                 req.Address,
		Coordinates:             req.Coordinates,
		OperatingHours:          req.OperatingHours,
		Pricing:                 req.Pricing,
		DeclaredMachineCount:    req.DeclaredMachineCount,
		DeclaredVehicleCapacity: req.DeclaredVehicleCapacity,
	}, middleware.OperatorID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "site created", s)
}

func (h *SiteHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid site id"))
		return
	}
	if err := authorizeSite(c, h.Sites, id, site.OpRead); err != nil {
		response.Fail(c, err)
		return
	}
	s, err := h.Sites.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "site retrieved", s)
}

func (h *SiteHandler) List(c *gin.Context) {
	list, err := h.Sites.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "sites retrieved", list)
}

type updateSiteRequest struct {
	Name                    *string                `json:"name"`
	Address                 *string                `json:"address"`
	Coordinates             *models.Coordinates    `json:"coordinates"`
	OperatingHours          *models.OperatingHours `json:"operatingHours"`
	Pricing                 *models.Pricing        `json:"pricing"`
	DeclaredMachineCount    *int                   `json:"declaredMachineCount"`
	DeclaredVehicleCapacity *int                   `json:"declaredVehicleCapacity"`
	Status                  *models.SiteStatus     `json:"status"`
}

func (h *SiteHandler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid site id"))
		return
	}
	if err := authorizeSite(c, h.Sites, id, site.OpSiteMutation); err != nil {
		response.Fail(c, err)
		return
	}
	var req updateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	s, err := h.Sites.UpdateSite(c.Request.Context(), id, site.UpdateSiteInput{
		Name:                    req.Name,
		Address:                 req.Address,
		Coordinates:             req.Coordinates,
		OperatingHours:          req.OperatingHours,
		Pricing:                 req.Pricing,
		DeclaredMachineCount:    req.DeclaredMachineCount,
		DeclaredVehicleCapacity: req.DeclaredVehicleCapacity,
		Status:                  req.Status,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "site updated", s)
}

func (h *SiteHandler) Deactivate(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid site id"))
		return
	}
	if err := authorizeSite(c, h.Sites, id, site.OpSiteMutation); err != nil {
		response.Fail(c, err)
		return
	}
	s, err := h.Sites.DeactivateSite(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "site deactivated", s)
}

func (h *SiteHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid site id"))
		return
	}
	if err := authorizeSite(c, h.Sites, id, site.OpSiteMutation); err != nil {
		response.Fail(c, err)
		return
	}
	force := c.Query("force") == "true"
	if err := h.Sites.DeleteSitePermanently(c.Request.Context(), id, force); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "site deleted", nil)
}

type assignUserRequest struct {
	UserID      string   `json:"userId" binding:"required"`
	Role        string   `json:"role" binding:"required"`
	Permissions []string `json:"permissions"`
}

func (h *SiteHandler) AssignUser(c *gin.Context) {
	siteID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid site id"))
		return
	}
	if err := authorizeSite(c, h.Sites, siteID, site.OpSiteMutation); err != nil {
		response.Fail(c, err)
		return
	}
	var req assignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "userId and role are required"))
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid userId"))
		return
	}
	u, err := h.Sites.AssignUserToSite(c.Request.Context(), siteID, userID, req.Role, req.Permissions)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "user assigned to site", u)
}

func (h *SiteHandler) ListUsers(c *gin.Context) {
	siteID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid site id"))
		return
	}
	if err := authorizeSite(c, h.Sites, siteID, site.OpSiteMutation); err != nil {
		response.Fail(c, err)
		return
	}
	users, err := h.Sites.ListUsersForSite(c.Request.Context(), siteID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "site users retrieved", users)
}

func (h *SiteHandler) Statistics(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid site id"))
		return
	}
	if err := authorizeSite(c, h.Sites, id, site.OpRead); err != nil {
		response.Fail(c, err)
		return
	}
	stats, err := h.Sites.GetSiteStatistics(c.Request.Context(), id, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "statistics retrieved", stats)
}
