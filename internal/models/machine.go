package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type KinematicType string

const (
	KinematicRotary KinematicType = "rotary"
	KinematicPuzzle KinematicType = "puzzle"
)

type VehicleClass string

const (
	ClassTwoWheeler  VehicleClass = "two-wheeler"
	ClassFourWheeler VehicleClass = "four-wheeler"
)

type MachineStatus string

const (
	MachineOnline      MachineStatus = "online"
	MachineOffline     MachineStatus = "offline"
	MachineMaintenance MachineStatus = "maintenance"
	MachineError       MachineStatus = "error"
)

type PalletStatus string

const (
	PalletAvailable   PalletStatus = "available"
	PalletOccupied    PalletStatus = "occupied"
	PalletMaintenance PalletStatus = "maintenance"
	PalletBlocked     PalletStatus = "blocked"
)

type Occupant struct {
	BookingID     string    `bson:"bookingId" json:"bookingId"`
	VehicleNumber string    `bson:"vehicleNumber" json:"vehicleNumber"`
	Position      int       `bson:"position" json:"position"`
	OccupiedSince time.Time `bson:"occupiedSince" json:"occupiedSince"`
}

type Pallet struct {
	Number           int          `bson:"number" json:"number"`
	CustomName       string       `bson:"customName,omitempty" json:"customName,omitempty"`
	Status           PalletStatus `bson:"status" json:"status"`
	VehicleCapacity  int          `bson:"vehicleCapacity" json:"vehicleCapacity"`
	CurrentOccupancy int          `bson:"currentOccupancy" json:"currentOccupancy"`
	CurrentBookings  []Occupant   `bson:"currentBookings" json:"currentBookings"`
	OccupiedSince    *time.Time   `bson:"occupiedSince,omitempty" json:"occupiedSince,omitempty"`
	LastMaintenance  *time.Time   `bson:"lastMaintenance,omitempty" json:"lastMaintenance,omitempty"`
	MaintenanceNotes string       `bson:"maintenanceNotes,omitempty" json:"maintenanceNotes,omitempty"`
}

type Capacity struct {
	Total       int `bson:"total" json:"total"`
	Available   int `bson:"available" json:"available"`
	Occupied    int `bson:"occupied" json:"occupied"`
	Maintenance int `bson:"maintenance" json:"maintenance"`
}

type Specifications struct {
	MaxLengthMM          float64        `bson:"maxLengthMm" json:"maxLengthMm"`
	MaxWidthMM           float64        `bson:"maxWidthMm" json:"maxWidthMm"`
	MaxHeightMM          float64        `bson:"maxHeightMm" json:"maxHeightMm"`
	MaxWeightKG          float64        `bson:"maxWeightKg" json:"maxWeightKg"`
	SupportedVehicleTypes []VehicleClass `bson:"supportedVehicleTypes" json:"supportedVehicleTypes"`
}

type Integration struct {
	LastHeartbeat    *time.Time `bson:"lastHeartbeat,omitempty" json:"lastHeartbeat,omitempty"`
	FirmwareVersion  string     `bson:"firmwareVersion,omitempty" json:"firmwareVersion,omitempty"`
	ConnectionStatus string     `bson:"connectionStatus,omitempty" json:"connectionStatus,omitempty"`
}

type ServiceEvent struct {
	Kind  string    `bson:"kind" json:"kind"`
	Notes string    `bson:"notes" json:"notes"`
	Actor string    `bson:"actor" json:"actor"`
	At    time.Time `bson:"at" json:"at"`
}

type Machine struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SiteID         primitive.ObjectID `bson:"siteId" json:"siteId"`
	MachineCode    string             `bson:"machineCode" json:"machineCode"` // M\d{3}, unique per site
	MachineType    KinematicType      `bson:"machineType" json:"machineType"`
	ParkingType    VehicleClass       `bson:"parkingType" json:"parkingType"`
	Status         MachineStatus      `bson:"status" json:"status"`
	Specifications Specifications     `bson:"specifications" json:"specifications"`
	Capacity       Capacity           `bson:"capacity" json:"capacity"`
	Pallets        []Pallet           `bson:"pallets" json:"pallets"`
	OperatingHours *OperatingHours    `bson:"operatingHours,omitempty" json:"operatingHours,omitempty"`
	Pricing        *Pricing           `bson:"pricing,omitempty" json:"pricing,omitempty"`
	Integration    Integration        `bson:"integration" json:"integration"`
	ServiceHistory []ServiceEvent     `bson:"serviceHistory,omitempty" json:"serviceHistory,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsOnline is derived: true iff the last heartbeat happened within 5 minutes of `now`.
func (m *Machine) IsOnline(now time.Time) bool {
	if m.Integration.LastHeartbeat == nil {
		return false
	}
	return now.Sub(*m.Integration.LastHeartbeat) <= 5*time.Minute
}

// VehicleCapacityFor returns V per §4.D.1's capacity model table.
func VehicleCapacityFor(k KinematicType, t VehicleClass) int {
	if t == ClassFourWheeler {
		return 1
	}
	if k == KinematicRotary {
		return 6
	}
	return 3
}
