package machine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-core/internal/apperr"
	"parking-core/internal/models"
)

func rotaryTwoWheeler(total int) *models.Machine {
	m := &models.Machine{
		MachineCode: "M001",
		MachineType: models.KinematicRotary,
		ParkingType: models.ClassTwoWheeler,
		Status:      models.MachineOnline,
		Capacity:    models.Capacity{Total: total},
		Specifications: models.Specifications{
			SupportedVehicleTypes: []models.VehicleClass{models.ClassTwoWheeler},
		},
	}
	InitializePallets(m)
	return m
}

func fourWheelerRotary(total int) *models.Machine {
	m := &models.Machine{
		MachineCode: "M002",
		MachineType: models.KinematicRotary,
		ParkingType: models.ClassFourWheeler,
		Status:      models.MachineOnline,
		Capacity:    models.Capacity{Total: total},
	}
	InitializePallets(m)
	return m
}

// Scenario 1 (§8): rotary two-wheeler pallet fills and drains.
func TestOccupyRelease_RotaryTwoWheeler_FillsAndDrains(t *testing.T) {
	m := rotaryTwoWheeler(8)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	plates := []string{"KA01AB1001", "KA01AB1002", "KA01AB1003", "KA01AB1004", "KA01AB1005", "KA01AB1006"}
	bookings := []string{"B1", "B2", "B3", "B4", "B5", "B6"}
	for i := range plates {
		require.NoError(t, OccupyPallet(m, "1", bookings[i], plates[i], nil, now))
	}

	p := m.Pallets[0]
	assert.Equal(t, models.PalletOccupied, p.Status)
	assert.Equal(t, 6, p.CurrentOccupancy)
	positions := occupantPositions(p)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, positions)

	require.NoError(t, ReleasePalletByBooking(m, "1", "B3"))
	p = m.Pallets[0]
	assert.Equal(t, models.PalletAvailable, p.Status)
	assert.Equal(t, 5, p.CurrentOccupancy)
	assert.Equal(t, []int{1, 2, 4, 5, 6}, occupantPositions(p))

	require.NoError(t, OccupyPallet(m, "1", "B7", "KA01AB2001", nil, now))
	p = m.Pallets[0]
	assert.Equal(t, models.PalletOccupied, p.Status)
	found := false
	for _, o := range p.CurrentBookings {
		if o.BookingID == "B7" {
			found = true
			assert.Equal(t, 3, o.Position)
		}
	}
	assert.True(t, found)
}

func occupantPositions(p models.Pallet) []int {
	out := make([]int, 0, len(p.CurrentBookings))
	for _, o := range p.CurrentBookings {
		out = append(out, o.Position)
	}
	// stable ascending for comparison
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j] < out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// Scenario 2 (§8): four-wheeler machine rejects second occupancy.
func TestOccupy_FourWheeler_RejectsSecond(t *testing.T) {
	m := fourWheelerRotary(1)
	now := time.Now()
	require.NoError(t, OccupyPallet(m, "1", "B10", "KA05MH1234", nil, now))
	err := OccupyPallet(m, "1", "B11", "KA05MH5678", nil, now)
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.PalletFull, ae.Kind)
}

func TestOccupy_UnknownPallet_NotFound(t *testing.T) {
	m := fourWheelerRotary(1)
	err := OccupyPallet(m, "99", "B20", "KA01AB0001", nil, time.Now())
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.NotFound, ae.Kind)
}

func TestOccupy_MachineOffline(t *testing.T) {
	m := fourWheelerRotary(1)
	m.Status = models.MachineOffline
	err := OccupyPallet(m, "1", "B1", "KA01AB0001", nil, time.Now())
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.MachineOffline, ae.Kind)
}

func TestOccupy_PositionTaken(t *testing.T) {
	m := rotaryTwoWheeler(4)
	now := time.Now()
	one := 1
	require.NoError(t, OccupyPallet(m, "1", "B1", "KA01AB0001", &one, now))
	err := OccupyPallet(m, "1", "B2", "KA01AB0002", &one, now)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.PositionTaken, ae.Kind)
}

// Round-trip law: Occupy then Release returns to pre-state.
func TestOccupyThenRelease_RoundTrip(t *testing.T) {
	m := rotaryTwoWheeler(4)
	before := m.Pallets[0]
	now := time.Now()
	require.NoError(t, OccupyPallet(m, "1", "B1", "KA01AB0001", nil, now))
	require.NoError(t, ReleasePalletByBooking(m, "1", "B1"))
	after := m.Pallets[0]
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.CurrentOccupancy, after.CurrentOccupancy)
	assert.Nil(t, after.OccupiedSince)
	assert.Empty(t, after.CurrentBookings)
}

func TestReleaseVehicle_UnambiguousEquivalence(t *testing.T) {
	m := rotaryTwoWheeler(4)
	now := time.Now()
	require.NoError(t, OccupyPallet(m, "1", "B1", "KA01AB0001", nil, now))
	require.NoError(t, ReleaseVehicle(m, "1", "ka01ab0001"))
	assert.Equal(t, 0, m.Pallets[0].CurrentOccupancy)
}

func TestReleaseByBooking_MissingBooking_OccupantNotFound(t *testing.T) {
	m := rotaryTwoWheeler(4)
	err := ReleasePalletByBooking(m, "1", "nope")
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.OccupantNotFound, ae.Kind)
}

func TestSetPalletMaintenance_DoesNotReleaseOccupants(t *testing.T) {
	m := rotaryTwoWheeler(4)
	now := time.Now()
	require.NoError(t, OccupyPallet(m, "1", "B1", "KA01AB0001", nil, now))
	occupied, err := SetPalletMaintenance(m, "1", "declared unsafe", now)
	require.NoError(t, err)
	assert.True(t, occupied)
	assert.Equal(t, models.PalletMaintenance, m.Pallets[0].Status)
	assert.Equal(t, 1, m.Pallets[0].CurrentOccupancy)
}

func TestDeactivateMachine_RequiresZeroOccupancy(t *testing.T) {
	m := rotaryTwoWheeler(4)
	require.NoError(t, OccupyPallet(m, "1", "B1", "KA01AB0001", nil, time.Now()))
	err := DeactivateMachine(m)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.IllegalTransition, ae.Kind)

	require.NoError(t, ReleasePalletByBooking(m, "1", "B1"))
	require.NoError(t, DeactivateMachine(m))
	assert.Equal(t, models.MachineOffline, m.Status)
}

func TestIsOnline_DerivedFromHeartbeat(t *testing.T) {
	m := fourWheelerRotary(1)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	UpdateHeartbeat(m, "1.2.3", now)
	assert.True(t, m.IsOnline(now.Add(4*time.Minute)))
	assert.False(t, m.IsOnline(now.Add(6*time.Minute)))
}

func TestPuzzlePalletNumbering_FourPerFloor(t *testing.T) {
	m := &models.Machine{
		MachineType: models.KinematicPuzzle,
		ParkingType: models.ClassTwoWheeler,
		Capacity:    models.Capacity{Total: 10}, // not a multiple of 4: truncates (§4.D.2, §9)
	}
	InitializePallets(m)
	numbers := make([]int, 0, len(m.Pallets))
	for _, p := range m.Pallets {
		numbers = append(numbers, p.Number)
	}
	assert.Equal(t, []int{101, 102, 103, 104, 201, 202, 203, 204}, numbers)
	for _, p := range m.Pallets {
		assert.Equal(t, 3, p.VehicleCapacity)
	}
}

func TestFindAvailableMachines_SortsByAvailableDescending(t *testing.T) {
	now := time.Now()
	a := rotaryTwoWheeler(6) // 6 pallets, V=6, available 36
	a.MachineCode = "M-A"
	RecomputeCapacity(a)
	b := rotaryTwoWheeler(12) // 12 pallets, available 72
	b.MachineCode = "M-B"
	RecomputeCapacity(b)

	out := FindAvailableMachines([]models.Machine{*a, *b}, models.ClassTwoWheeler, now)
	require.Len(t, out, 2)
	assert.Equal(t, "M-B", out[0].MachineCode)
	assert.Equal(t, "M-A", out[1].MachineCode)
}
