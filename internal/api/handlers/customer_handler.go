package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/api/middleware"
	"parking-core/internal/apperr"
	"parking-core/internal/booking"
	"parking-core/internal/customerstore"
	"parking-core/internal/models"
	"parking-core/internal/response"
)

type CustomerHandler struct {
	Customers *customerstore.Service
	Bookings  *booking.Service
}

type createCustomerRequest struct {
	FirstName string                `json:"firstName" binding:"required"`
	LastName  string                `json:"lastName" binding:"required"`
	Phone     string                `json:"phone" binding:"required"`
	Email     string                `json:"email"`
	Vehicle   *vehicleRequestFields `json:"vehicle"`
}

type vehicleRequestFields struct {
	Plate string              `json:"plate" binding:"required"`
	Class models.VehicleClass `json:"class" binding:"required"`
	Make  string              `json:"make"`
	Model string              `json:"model"`
	Color string              `json:"color"`
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "firstName, lastName and phone are required"))
		return
	}
	in := customerstore.CreateCustomerInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
	}
	if req.Vehicle != nil {
		in.Vehicle = &customerstore.VehicleInput{
			Plate: req.Vehicle.Plate,
			Class: req.Vehicle.Class,
			Make:  req.Vehicle.Make,
			Model: req.Vehicle.Model,
			Color: req.Vehicle.Color,
		}
	}
	cust, err := h.Customers.CreateCustomer(c.Request.Context(), in, middleware.OperatorID(c), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "customer created", cust)
}

func (h *CustomerHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid customer id"))
		return
	}
	cust, err := h.Customers.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "customer retrieved", cust)
}

func (h *CustomerHandler) Search(c *gin.Context) {
	cust, err := h.Customers.Search(c.Request.Context(), c.Query("q"), c.Query("type"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "search results", cust)
}

func (h *CustomerHandler) AddVehicle(c *gin.Context) {
	var req vehicleRequestFields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "plate and class are required"))
		return
	}
	cust, err := h.Customers.AddVehicle(c.Request.Context(), c.Param("id"), customerstore.VehicleInput{
		Plate: req.Plate,
		Class: req.Class,
		Make:  req.Make,
		Model: req.Model,
		Color: req.Color,
	}, middleware.OperatorID(c), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "vehicle added", cust)
}

func (h *CustomerHandler) RemoveVehicle(c *gin.Context) {
	customerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid customer id"))
		return
	}
	active, err := h.Bookings.HasActiveBooking(c.Request.Context(), customerID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	cust, err := h.Customers.RemoveVehicle(c.Request.Context(), c.Param("id"), c.Param("vehicleId"), active, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "vehicle removed", cust)
}

type deleteCustomerRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	var req deleteCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "reason is required"))
		return
	}
	customerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid customer id"))
		return
	}
	active, err := h.Bookings.HasActiveBooking(c.Request.Context(), customerID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	cust, err := h.Customers.SoftDeleteCustomer(c.Request.Context(), c.Param("id"), req.Reason, active, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "customer deactivated", cust)
}

type createMembershipRequest struct {
	Type                models.MembershipType `json:"type" binding:"required"`
	TermMonths          int                   `json:"termMonths" binding:"required"`
	CoveredVehicleTypes []models.VehicleClass `json:"coveredVehicleTypes" binding:"required"`
	Amount              float64               `json:"amount"`
	Method              string                `json:"method" binding:"required"`
	TransactionRef      string                `json:"transactionRef"`
}

func (h *CustomerHandler) CreateMembership(c *gin.Context) {
	var req createMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "type, termMonths, coveredVehicleTypes and method are required"))
		return
	}
	cust, err := h.Customers.CreateMembership(c.Request.Context(), c.Param("id"), req.Type, req.TermMonths, req.CoveredVehicleTypes,
		customerstore.MembershipPaymentInput{Amount: req.Amount, Method: req.Method, TransactionRef: req.TransactionRef},
		middleware.OperatorID(c), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "membership created", cust)
}

func (h *CustomerHandler) DeactivateMembership(c *gin.Context) {
	cust, err := h.Customers.DeactivateMembership(c.Request.Context(), c.Param("id"), middleware.OperatorID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "membership deactivated", cust)
}
