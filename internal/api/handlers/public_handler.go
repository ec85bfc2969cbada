package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"parking-core/internal/apperr"
	"parking-core/internal/customerstore"
	"parking-core/internal/models"
	"parking-core/internal/response"
)

// PublicHandler serves the unauthenticated customer-facing membership
// surface named in §6.2: no bearer token, no actor audit trail, and
// behind the shared IP rate limiter applied at the route group.
type PublicHandler struct {
	Customers *customerstore.Service
}

// publicActor stands in for the normal operator/operatorId audit field
// on a self-service purchase, which has no authenticated actor.
const publicActor = "customer-self-service"

type purchaseMembershipRequest struct {
	Phone               string                `json:"phone" binding:"required"`
	Type                models.MembershipType `json:"type" binding:"required"`
	TermMonths          int                   `json:"termMonths" binding:"required"`
	CoveredVehicleTypes []models.VehicleClass `json:"coveredVehicleTypes" binding:"required"`
	Amount              float64               `json:"amount"`
	Method              string                `json:"method" binding:"required"`
	TransactionRef      string                `json:"transactionRef"`
}

func (h *PublicHandler) PurchaseMembership(c *gin.Context) {
	var req purchaseMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "phone, type, termMonths, coveredVehicleTypes and method are required"))
		return
	}
	cust, err := h.Customers.GetByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		response.Fail(c, err)
		return
	}
	updated, err := h.Customers.CreateMembership(c.Request.Context(), cust.ID.Hex(), req.Type, req.TermMonths, req.CoveredVehicleTypes,
		customerstore.MembershipPaymentInput{Amount: req.Amount, Method: req.Method, TransactionRef: req.TransactionRef},
		publicActor, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "membership purchased", updated)
}

type validateMembershipRequest struct {
	MembershipNumber string                `json:"membershipNumber" binding:"required"`
	PIN              string                `json:"pin" binding:"required"`
	VehicleType      *models.VehicleClass  `json:"vehicleType"`
}

func (h *PublicHandler) ValidateMembership(c *gin.Context) {
	var req validateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "membershipNumber and pin are required"))
		return
	}
	cust, err := h.Customers.ValidateMembership(c.Request.Context(), req.MembershipNumber, req.PIN, req.VehicleType, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	if cust == nil {
		response.OK(c, "membership not valid", gin.H{"valid": false})
		return
	}
	response.OK(c, "membership valid", gin.H{"valid": true, "customer": cust})
}
