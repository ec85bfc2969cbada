// Package machine implements Component D: the pallet allocation and
// occupancy state machine described in §4.D. The engine functions here are
// pure — they take a *models.Machine and a clock and return an error or
// mutate the machine in place — so §8's round-trip and boundary properties
// can be tested without a database.
package machine

import (
	"strconv"
	"strings"
	"time"

	"parking-core/internal/apperr"
	"parking-core/internal/models"
)

// InitializePallets generates a machine's pallet array on first
// persistence (§4.D.2). It is a no-op if pallets already exist.
func InitializePallets(m *models.Machine) {
	if len(m.Pallets) > 0 {
		return
	}
	v := models.VehicleCapacityFor(m.MachineType, m.ParkingType)
	n := m.Capacity.Total

	switch m.MachineType {
	case models.KinematicRotary:
		for i := 1; i <= n; i++ {
			m.Pallets = append(m.Pallets, newPallet(i, v))
		}
	case models.KinematicPuzzle:
		// Four per floor, floor-major, numbered 101..104, 201..204, ...
		// Truncates to a multiple of four even when n is not one (§4.D.2, §9).
		floors := n / 4
		for f := 1; f <= floors; f++ {
			for slot := 1; slot <= 4; slot++ {
				number := f*100 + slot
				m.Pallets = append(m.Pallets, newPallet(number, v))
			}
		}
	}
	RecomputeCapacity(m)
}

func newPallet(number, capacity int) models.Pallet {
	return models.Pallet{
		Number:          number,
		Status:          models.PalletAvailable,
		VehicleCapacity: capacity,
	}
}

// RetypePallets rewrites every pallet's vehicleCapacity when machineType or
// parkingType changes. If the new capacity is smaller than the current
// occupancy the occupant list is truncated to the first V entries and
// currentOccupancy clamped — a destructive operation the caller should log
// as a warning (§4.D.2).
func RetypePallets(m *models.Machine) (truncated bool) {
	v := models.VehicleCapacityFor(m.MachineType, m.ParkingType)
	for i := range m.Pallets {
		p := &m.Pallets[i]
		p.VehicleCapacity = v
		if p.CurrentOccupancy > v {
			p.CurrentBookings = p.CurrentBookings[:v]
			p.CurrentOccupancy = v
			truncated = true
		}
		recomputePalletStatus(p)
	}
	RecomputeCapacity(m)
	return truncated
}

func recomputePalletStatus(p *models.Pallet) {
	if p.Status == models.PalletMaintenance || p.Status == models.PalletBlocked {
		return
	}
	if p.CurrentOccupancy >= p.VehicleCapacity {
		p.Status = models.PalletOccupied
	} else {
		p.Status = models.PalletAvailable
	}
}

// RecomputeCapacity derives the machine's aggregate counters from its
// pallets, per §4.D.1. capacity.total is left untouched (operator-declared).
func RecomputeCapacity(m *models.Machine) {
	var available, occupied, maintenance int
	for _, p := range m.Pallets {
		switch p.Status {
		case models.PalletMaintenance:
			maintenance++
		case models.PalletOccupied:
			occupied += p.CurrentOccupancy
		case models.PalletAvailable:
			available += p.VehicleCapacity - p.CurrentOccupancy
		}
	}
	m.Capacity.Available = available
	m.Capacity.Occupied = occupied
	m.Capacity.Maintenance = maintenance
}

func findPallet(m *models.Machine, key string) *models.Pallet {
	for i := range m.Pallets {
		p := &m.Pallets[i]
		if intKeyMatches(p.Number, key) || (p.CustomName != "" && p.CustomName == key) {
			return p
		}
	}
	return nil
}

func intKeyMatches(number int, key string) bool {
	n, err := strconv.Atoi(key)
	return err == nil && n == number
}

// OccupyPallet implements §4.D.3. position is nil when the caller did not
// supply one.
func OccupyPallet(m *models.Machine, palletKey string, bookingID, plate string, position *int, now time.Time) error {
	if m.Status != models.MachineOnline {
		return apperr.New(apperr.MachineOffline, "machine is not online")
	}
	p := findPallet(m, palletKey)
	if p == nil {
		return apperr.New(apperr.NotFound, "pallet not found")
	}
	if p.Status == models.PalletMaintenance {
		return apperr.New(apperr.PalletMaintenance, "pallet is under maintenance")
	}
	if p.CurrentOccupancy >= p.VehicleCapacity {
		return apperr.New(apperr.PalletFull, "pallet is full")
	}

	assigned, err := assignPosition(m, p, position)
	if err != nil {
		return err
	}

	p.CurrentBookings = append(p.CurrentBookings, models.Occupant{
		BookingID:     bookingID,
		VehicleNumber: strings.ToUpper(plate),
		Position:      assigned,
		OccupiedSince: now,
	})
	p.CurrentOccupancy++
	if p.CurrentOccupancy == 1 {
		t := now
		p.OccupiedSince = &t
	}
	if p.CurrentOccupancy == p.VehicleCapacity {
		p.Status = models.PalletOccupied
	}
	RecomputeCapacity(m)
	return nil
}

func assignPosition(m *models.Machine, p *models.Pallet, requested *int) (int, error) {
	if m.ParkingType == models.ClassFourWheeler {
		return 1, nil
	}
	occupied := make(map[int]bool, len(p.CurrentBookings))
	for _, o := range p.CurrentBookings {
		occupied[o.Position] = true
	}
	if requested != nil {
		if occupied[*requested] {
			return 0, apperr.New(apperr.PositionTaken, "position already occupied")
		}
		return *requested, nil
	}
	for pos := 1; pos <= 6; pos++ {
		if !occupied[pos] {
			return pos, nil
		}
	}
	return 0, apperr.New(apperr.PalletFull, "no free position")
}

// ReleasePalletByBooking implements the bookingId-keyed release of §4.D.4.
func ReleasePalletByBooking(m *models.Machine, palletKey, bookingID string) error {
	p := findPallet(m, palletKey)
	if p == nil {
		return apperr.New(apperr.NotFound, "pallet not found")
	}
	idx := -1
	for i, o := range p.CurrentBookings {
		if o.BookingID == bookingID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperr.New(apperr.OccupantNotFound, "no occupant with that booking id")
	}
	removeOccupant(m, p, idx)
	return nil
}

// ReleaseVehicle implements the plate-keyed release of §4.D.4.
func ReleaseVehicle(m *models.Machine, palletKey, plate string) error {
	p := findPallet(m, palletKey)
	if p == nil {
		return apperr.New(apperr.NotFound, "pallet not found")
	}
	up := strings.ToUpper(plate)
	idx := -1
	for i, o := range p.CurrentBookings {
		if o.VehicleNumber == up {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperr.New(apperr.OccupantNotFound, "no occupant with that plate")
	}
	removeOccupant(m, p, idx)
	return nil
}

func removeOccupant(m *models.Machine, p *models.Pallet, idx int) {
	wasOccupied := p.Status == models.PalletOccupied
	p.CurrentBookings = append(p.CurrentBookings[:idx], p.CurrentBookings[idx+1:]...)
	if p.CurrentOccupancy > 0 {
		p.CurrentOccupancy--
	}
	if p.CurrentOccupancy == 0 {
		p.OccupiedSince = nil
		p.Status = models.PalletAvailable
	} else if wasOccupied {
		p.Status = models.PalletAvailable
	}
	RecomputeCapacity(m)
}

// SetPalletMaintenance implements §4.D.5. It does not release occupants.
// The caller should emit a warning event when occupancy > 0.
func SetPalletMaintenance(m *models.Machine, palletKey, notes string, now time.Time) (occupantsPresent bool, err error) {
	p := findPallet(m, palletKey)
	if p == nil {
		return false, apperr.New(apperr.NotFound, "pallet not found")
	}
	occupantsPresent = p.CurrentOccupancy > 0
	p.Status = models.PalletMaintenance
	t := now
	p.LastMaintenance = &t
	p.MaintenanceNotes = notes
	RecomputeCapacity(m)
	return occupantsPresent, nil
}

// ClearPalletMaintenance returns a pallet from maintenance to available
// (§4.D.8's operator-clear transition).
func ClearPalletMaintenance(m *models.Machine, palletKey string) error {
	p := findPallet(m, palletKey)
	if p == nil {
		return apperr.New(apperr.NotFound, "pallet not found")
	}
	if p.CurrentOccupancy >= p.VehicleCapacity {
		p.Status = models.PalletOccupied
	} else {
		p.Status = models.PalletAvailable
	}
	RecomputeCapacity(m)
	return nil
}

// DeactivateMachine requires zero total occupancy across all pallets (§4.D.5).
func DeactivateMachine(m *models.Machine) error {
	for _, p := range m.Pallets {
		if p.CurrentOccupancy > 0 {
			return apperr.New(apperr.IllegalTransition, "machine has occupied pallets")
		}
	}
	m.Status = models.MachineOffline
	return nil
}

// UpdateHeartbeat implements §4.D.6.
func UpdateHeartbeat(m *models.Machine, firmwareVersion string, now time.Time) {
	t := now
	m.Integration.LastHeartbeat = &t
	m.Integration.ConnectionStatus = "connected"
	if firmwareVersion != "" {
		m.Integration.FirmwareVersion = firmwareVersion
	}
}
