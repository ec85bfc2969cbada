package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/api/middleware"
	"parking-core/internal/apperr"
	"parking-core/internal/machine"
	"parking-core/internal/models"
	"parking-core/internal/response"
	"parking-core/internal/site"
)

type MachineHandler struct {
	Machines *machine.Service
	Sites    *site.Service
}

type registerMachineRequest struct {
	SiteID         string                 `json:"siteId" binding:"required"`
	MachineCode    string                 `json:"machineCode" binding:"required"`
	MachineType    models.KinematicType   `json:"machineType" binding:"required"`
	ParkingType    models.VehicleClass    `json:"parkingType" binding:"required"`
	DeclaredTotal  int                    `json:"declaredTotal" binding:"required"`
	Specifications models.Specifications  `json:"specifications"`
}

func (h *MachineHandler) Register(c *gin.Context) {
	var req registerMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "siteId, machineCode, machineType, parkingType and declaredTotal are required"))
		return
	}
	siteID, err := primitive.ObjectIDFromHex(req.SiteID)
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid siteId"))
		return
	}
	if err := authorizeSite(c, h.Sites, siteID, site.OpBookingOrMachineMutation); err != nil {
		response.Fail(c, err)
		return
	}
	m, err := h.Machines.Register(c.Request.Context(), machine.RegisterInput{
		SiteID:         siteID,
		MachineCode:    req.MachineCode,
		MachineType:    req.MachineType,
		ParkingType:    req.ParkingType,
		DeclaredTotal:  req.DeclaredTotal,
		Specifications: req.Specifications,
	}, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "machine registered", m)
}

func (h *MachineHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	m, err := h.Machines.Store.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "machine retrieved", m)
}

func (h *MachineHandler) ListBySite(c *gin.Context) {
	siteID, err := primitive.ObjectIDFromHex(c.Param("siteId"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid siteId"))
		return
	}
	list, err := h.Machines.Store.ListBySite(c.Request.Context(), siteID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "machines retrieved", list)
}

func (h *MachineHandler) Available(c *gin.Context) {
	var siteID *primitive.ObjectID
	if q := c.Query("siteId"); q != "" {
		id, err := primitive.ObjectIDFromHex(q)
		if err != nil {
			response.Fail(c, apperr.New(apperr.Validation, "invalid siteId"))
			return
		}
		siteID = &id
	}
	class := models.VehicleClass(c.Query("class"))
	list, err := h.Machines.FindAvailable(c.Request.Context(), siteID, class, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "available pallets", list)
}

// MaintenanceDue answers GET /machines/maintenance-due, optionally scoped
// to a site via ?siteId=.
func (h *MachineHandler) MaintenanceDue(c *gin.Context) {
	var siteID *primitive.ObjectID
	if q := c.Query("siteId"); q != "" {
		id, err := primitive.ObjectIDFromHex(q)
		if err != nil {
			response.Fail(c, apperr.New(apperr.Validation, "invalid siteId"))
			return
		}
		siteID = &id
	}
	list, err := h.Machines.MaintenanceDue(c.Request.Context(), siteID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "machines awaiting maintenance clearance", list)
}

// authorizeMachine loads the machine to find its site and checks the
// caller against it, since machine mutation routes are keyed by machine
// id rather than site id.
func (h *MachineHandler) authorizeMachine(c *gin.Context, id primitive.ObjectID) error {
	m, err := h.Machines.Store.Get(c.Request.Context(), id)
	if err != nil {
		return err
	}
	return authorizeSite(c, h.Sites, m.SiteID, site.OpBookingOrMachineMutation)
}

type maintenanceRequest struct {
	PalletKey string `json:"palletKey" binding:"required"`
	Notes     string `json:"notes"`
}

func (h *MachineHandler) SetMaintenance(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	if err := h.authorizeMachine(c, id); err != nil {
		response.Fail(c, err)
		return
	}
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "palletKey is required"))
		return
	}
	m, err := h.Machines.SetMaintenance(c.Request.Context(), id, req.PalletKey, req.Notes, middleware.OperatorID(c), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "pallet marked for maintenance", m)
}

func (h *MachineHandler) ClearMaintenance(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	if err := h.authorizeMachine(c, id); err != nil {
		response.Fail(c, err)
		return
	}
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "palletKey is required"))
		return
	}
	m, err := h.Machines.ClearMaintenance(c.Request.Context(), id, req.PalletKey)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "pallet maintenance cleared", m)
}

type occupyPalletRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
	Plate     string `json:"plate" binding:"required"`
	Position  *int   `json:"position"`
}

// OccupyPallet wires §4.D.3's occupy operation to its own named route
// (§6.2's /machines/:id/pallets/:n/occupy), giving operators a direct path
// that does not depend on creating a booking first.
func (h *MachineHandler) OccupyPallet(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	if err := h.authorizeMachine(c, id); err != nil {
		response.Fail(c, err)
		return
	}
	var req occupyPalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "bookingId and plate are required"))
		return
	}
	m, err := h.Machines.Occupy(c.Request.Context(), id, c.Param("n"), req.BookingID, req.Plate, req.Position, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "pallet occupied", m)
}

type releasePalletRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
}

// ReleasePallet wires §4.D.4's booking-scoped release to /pallets/:n/release.
func (h *MachineHandler) ReleasePallet(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	if err := h.authorizeMachine(c, id); err != nil {
		response.Fail(c, err)
		return
	}
	var req releasePalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "bookingId is required"))
		return
	}
	m, err := h.Machines.ReleaseByBooking(c.Request.Context(), id, c.Param("n"), req.BookingID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "pallet released", m)
}

type releasePalletVehicleRequest struct {
	Plate string `json:"plate" binding:"required"`
}

// ReleasePalletVehicle wires §4.D.4's single-vehicle release (no booking id
// on hand) to /pallets/:n/release-vehicle.
func (h *MachineHandler) ReleasePalletVehicle(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	if err := h.authorizeMachine(c, id); err != nil {
		response.Fail(c, err)
		return
	}
	var req releasePalletVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "plate is required"))
		return
	}
	m, err := h.Machines.ReleaseVehicle(c.Request.Context(), id, c.Param("n"), req.Plate)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "vehicle released", m)
}

type palletMaintenanceRequest struct {
	Notes string `json:"notes"`
}

// MaintainPallet is the path-param counterpart of SetMaintenance, matching
// §6.2's /machines/:id/pallets/:n/maintenance route shape; SetMaintenance
// itself stays as the body-keyed admin route already wired at
// /machines/:id/maintenance.
func (h *MachineHandler) MaintainPallet(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	if err := h.authorizeMachine(c, id); err != nil {
		response.Fail(c, err)
		return
	}
	var req palletMaintenanceRequest
	_ = c.ShouldBindJSON(&req)
	m, err := h.Machines.SetMaintenance(c.Request.Context(), id, c.Param("n"), req.Notes, middleware.OperatorID(c), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "pallet marked for maintenance", m)
}

func (h *MachineHandler) Deactivate(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	if err := h.authorizeMachine(c, id); err != nil {
		response.Fail(c, err)
		return
	}
	m, err := h.Machines.Deactivate(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "machine deactivated", m)
}

type heartbeatRequest struct {
	FirmwareVersion string `json:"firmwareVersion"`
}

func (h *MachineHandler) Heartbeat(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	var req heartbeatRequest
	_ = c.ShouldBindJSON(&req)
	m, err := h.Machines.Heartbeat(c.Request.Context(), id, req.FirmwareVersion, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "heartbeat recorded", m)
}

type retypeRequest struct {
	MachineType models.KinematicType `json:"machineType" binding:"required"`
	ParkingType models.VehicleClass  `json:"parkingType" binding:"required"`
}

func (h *MachineHandler) Retype(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	if err := h.authorizeMachine(c, id); err != nil {
		response.Fail(c, err)
		return
	}
	var req retypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "machineType and parkingType are required"))
		return
	}
	m, err := h.Machines.Retype(c.Request.Context(), id, req.MachineType, req.ParkingType)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "machine retyped", m)
}

type serviceEventRequest struct {
	Kind  string `json:"kind" binding:"required"`
	Notes string `json:"notes"`
}

func (h *MachineHandler) RecordServiceEvent(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	if err := h.authorizeMachine(c, id); err != nil {
		response.Fail(c, err)
		return
	}
	var req serviceEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "kind is required"))
		return
	}
	m, err := h.Machines.RecordServiceEvent(c.Request.Context(), id, req.Kind, req.Notes, middleware.OperatorID(c), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "service event recorded", m)
}
