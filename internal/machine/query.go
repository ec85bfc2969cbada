package machine

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/models"
)

// FindAvailableMachines implements §4.D.7 over an already-loaded candidate
// set (the store layer narrows by status and optional siteId before calling
// this, since that part is a plain indexed query; vehicle type is filtered
// here).
func FindAvailableMachines(candidates []models.Machine, vehicleType models.VehicleClass, now time.Time) []models.Machine {
	out := make([]models.Machine, 0, len(candidates))
	for _, m := range candidates {
		if m.Status != models.MachineOnline || m.Capacity.Available <= 0 {
			continue
		}
		if !supports(m.Specifications.SupportedVehicleTypes, vehicleType) {
			continue
		}
		if !hasFreePallet(m) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Capacity.Available > out[j].Capacity.Available
	})
	return out
}

func supports(types []models.VehicleClass, want models.VehicleClass) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func hasFreePallet(m models.Machine) bool {
	for _, p := range m.Pallets {
		if p.Status != models.PalletMaintenance && p.CurrentOccupancy < p.VehicleCapacity {
			return true
		}
	}
	return false
}

// SiteFilter narrows a query to one site when siteID is non-nil.
type SiteFilter struct {
	SiteID      *primitive.ObjectID
	VehicleType models.VehicleClass
}
