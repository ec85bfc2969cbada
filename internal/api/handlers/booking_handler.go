package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/api/middleware"
	"parking-core/internal/apperr"
	"parking-core/internal/booking"
	"parking-core/internal/models"
	"parking-core/internal/response"
	"parking-core/internal/site"
)

type BookingHandler struct {
	Bookings *booking.Service
	Sites    *site.Service
}

type createBookingRequest struct {
	FirstName           string               `json:"firstName" binding:"required"`
	LastName            string               `json:"lastName" binding:"required"`
	Phone               string               `json:"phone" binding:"required"`
	Email               string               `json:"email"`
	VehiclePlate        string               `json:"vehiclePlate" binding:"required"`
	VehicleClass        models.VehicleClass  `json:"vehicleClass" binding:"required"`
	MachineNumber       string               `json:"machineNumber" binding:"required"`
	PalletKey           string               `json:"palletKey" binding:"required"`
	Position            *int                 `json:"position"`
	Notes               string               `json:"notes"`
	SpecialInstructions string               `json:"specialInstructions"`
	SiteID              string               `json:"siteId" binding:"required"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "firstName, lastName, phone, vehiclePlate, vehicleClass, machineNumber, palletKey and siteId are required"))
		return
	}
	siteID, err := primitive.ObjectIDFromHex(req.SiteID)
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid siteId"))
		return
	}
	if err := h.authorize(c, siteID, site.OpBookingOrMachineMutation); err != nil {
		response.Fail(c, err)
		return
	}
	b, err := h.Bookings.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Phone:               req.Phone,
		Email:               req.Email,
		VehiclePlate:        req.VehiclePlate,
		VehicleClass:        req.VehicleClass,
		MachineNumber:       req.MachineNumber,
		PalletKey:           req.PalletKey,
		Position:            req.Position,
		Notes:               req.Notes,
		SpecialInstructions: req.SpecialInstructions,
		SiteID:              siteID,
	}, middleware.OperatorID(c), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "booking created", b)
}

func (h *BookingHandler) authorize(c *gin.Context, siteID primitive.ObjectID, op site.Operation) error {
	return authorizeSite(c, h.Sites, siteID, op)
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.Bookings.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "booking retrieved", b)
}

type updateBookingRequest struct {
	Notes        *string              `json:"notes"`
	VehicleClass *models.VehicleClass `json:"vehicleClass"`
}

func (h *BookingHandler) Update(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	b, err := h.Bookings.UpdateBooking(c.Request.Context(), c.Param("id"), booking.UpdateBookingInput{
		Notes:        req.Notes,
		VehicleClass: req.VehicleClass,
	}, middleware.OperatorID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "booking updated", b)
}

func (h *BookingHandler) ByMachine(c *gin.Context) {
	var status *models.BookingStatus
	if v := c.Query("status"); v != "" {
		st := models.BookingStatus(v)
		status = &st
	}
	list, err := h.Bookings.GetBookingsByMachine(c.Request.Context(), c.Param("m"), status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "bookings retrieved", list)
}

type verifyOTPRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *BookingHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "code is required"))
		return
	}
	b, err := h.Bookings.VerifyOTP(c.Request.Context(), req.Code, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "otp verified", b)
}

func (h *BookingHandler) GenerateNewOTP(c *gin.Context) {
	b, err := h.Bookings.GenerateNewOTP(c.Request.Context(), c.Param("id"), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "otp reissued", b)
}

type completeBookingRequest struct {
	Method         models.PaymentMethod `json:"method" binding:"required"`
	TransactionRef string                `json:"transactionRef"`
}

func (h *BookingHandler) Complete(c *gin.Context) {
	var req completeBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "method is required"))
		return
	}
	b, err := h.Bookings.CompleteBooking(c.Request.Context(), c.Param("id"), req.Method, req.TransactionRef, middleware.OperatorID(c), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "booking completed", b)
}

type cancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "reason is required"))
		return
	}
	b, err := h.Bookings.CancelBooking(c.Request.Context(), c.Param("id"), req.Reason, middleware.OperatorID(c), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "booking cancelled", b)
}

type extendBookingRequest struct {
	ExtraHours   int    `json:"extraHours"`
	ExtraMinutes int    `json:"extraMinutes"`
	Reason       string `json:"reason" binding:"required"`
}

func (h *BookingHandler) Extend(c *gin.Context) {
	var req extendBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "reason is required"))
		return
	}
	b, err := h.Bookings.ExtendBooking(c.Request.Context(), c.Param("id"), req.ExtraHours, req.ExtraMinutes, req.Reason, middleware.OperatorID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "booking extended", b)
}

func (h *BookingHandler) List(c *gin.Context) {
	var f booking.ListFilters
	if v := c.Query("machineNumber"); v != "" {
		f.MachineNumber = v
	}
	if v := c.Query("vehicleNumber"); v != "" {
		f.VehicleNumber = v
	}
	if v := c.Query("status"); v != "" {
		st := models.BookingStatus(v)
		f.Status = &st
	}
	if v := c.Query("siteId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			response.Fail(c, apperr.New(apperr.Validation, "invalid siteId"))
			return
		}
		f.SiteID = &id
	}
	f.Page = queryInt(c, "page", 1)
	f.Limit = queryInt(c, "limit", 20)

	list, total, err := h.Bookings.ListBookings(c.Request.Context(), f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	response.Paginated(c, "bookings retrieved", list, response.Pagination{
		Page: f.Page, Limit: f.Limit, Total: total, TotalPages: totalPages,
	})
}

func (h *BookingHandler) Search(c *gin.Context) {
	list, err := h.Bookings.SearchBookings(c.Request.Context(), c.Query("q"), c.Query("type"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "search results", list)
}

func (h *BookingHandler) ByVehicle(c *gin.Context) {
	list, err := h.Bookings.GetBookingsByVehicle(c.Request.Context(), c.Param("plate"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "bookings retrieved", list)
}

func (h *BookingHandler) Active(c *gin.Context) {
	list, err := h.Bookings.GetActiveBookings(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "active bookings retrieved", list)
}

func (h *BookingHandler) Stats(c *gin.Context) {
	from := parseDateOrZero(c.Query("from"))
	to := parseDateOrZero(c.Query("to"))
	if to.IsZero() {
		to = time.Now()
	}
	stats, err := h.Bookings.GetBookingStats(c.Request.Context(), from, to)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "booking stats retrieved", stats)
}

func parseDateOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
