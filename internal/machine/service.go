package machine

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/logging"
	"parking-core/internal/models"
)

// Broadcaster is satisfied by internal/socket.Hub. Declared here instead
// of imported directly so the domain engine has no dependency on the
// transport layer — the hub is wired in by main.go.
type Broadcaster interface {
	BroadcastSite(siteID string, event string, payload any)
}

// Service orchestrates load -> pure-engine-mutate -> save under a
// per-machine advisory lock, and publishes a best-effort event after each
// occupy, release, maintenance set/clear and heartbeat (SPEC_FULL's live
// occupancy broadcast). Register, Deactivate, Retype and RecordServiceEvent
// publish nothing.
type Service struct {
	Store  *Store
	Locker *Locker
	Log    *logging.Logger
	Hub    Broadcaster
	// availableCache holds short-lived (500ms) FindAvailableMachines results,
	// matching §5's "clients tolerate eventual consistency of aggregate
	// counters within a sub-second window."
	availableCache *cache.Cache
}

func NewService(store *Store, log *logging.Logger, hub Broadcaster) *Service {
	return &Service{
		Store:          store,
		Locker:         NewLocker(),
		Log:            log,
		Hub:            hub,
		availableCache: cache.New(500*time.Millisecond, 10*time.Second),
	}
}

// RegisterInput describes a newly commissioned machine (§4.D.2). Pallets
// are auto-initialized on first persistence, never supplied by the
// caller.
type RegisterInput struct {
	SiteID         primitive.ObjectID
	MachineCode    string
	MachineType    models.KinematicType
	ParkingType    models.VehicleClass
	DeclaredTotal  int
	Specifications models.Specifications
}

// Register commissions a new machine, initializing its pallets and
// deriving its aggregate capacity counters before the first save.
func (s *Service) Register(ctx context.Context, in RegisterInput, now time.Time) (*models.Machine, error) {
	m := &models.Machine{
		SiteID:         in.SiteID,
		MachineCode:    in.MachineCode,
		MachineType:    in.MachineType,
		ParkingType:    in.ParkingType,
		Status:         models.MachineOffline,
		Specifications: in.Specifications,
		Capacity:       models.Capacity{Total: in.DeclaredTotal},
	}
	InitializePallets(m)
	if err := s.Store.Insert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) broadcast(m *models.Machine, event string) {
	if s.Hub == nil {
		return
	}
	s.Hub.BroadcastSite(m.SiteID.Hex(), event, map[string]any{
		"machineCode": m.MachineCode,
		"capacity":    m.Capacity,
	})
}

// Occupy loads the machine, applies OccupyPallet, and saves it while
// holding the machine's advisory lock — the atomic unit §4.D.3 requires.
func (s *Service) Occupy(ctx context.Context, machineID primitive.ObjectID, palletKey, bookingID, plate string, position *int, now time.Time) (*models.Machine, error) {
	var result *models.Machine
	err := s.Locker.WithLock(machineID.Hex(), func() error {
		m, err := s.Store.Get(ctx, machineID)
		if err != nil {
			return err
		}
		if err := OccupyPallet(m, palletKey, bookingID, plate, position, now); err != nil {
			return err
		}
		if err := s.Store.Replace(ctx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcast(result, "pallet.occupied")
	return result, nil
}

func (s *Service) ReleaseByBooking(ctx context.Context, machineID primitive.ObjectID, palletKey, bookingID string) (*models.Machine, error) {
	var result *models.Machine
	err := s.Locker.WithLock(machineID.Hex(), func() error {
		m, err := s.Store.Get(ctx, machineID)
		if err != nil {
			return err
		}
		if err := ReleasePalletByBooking(m, palletKey, bookingID); err != nil {
			return err
		}
		if err := s.Store.Replace(ctx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcast(result, "pallet.released")
	return result, nil
}

func (s *Service) ReleaseVehicle(ctx context.Context, machineID primitive.ObjectID, palletKey, plate string) (*models.Machine, error) {
	var result *models.Machine
	err := s.Locker.WithLock(machineID.Hex(), func() error {
		m, err := s.Store.Get(ctx, machineID)
		if err != nil {
			return err
		}
		if err := ReleaseVehicle(m, palletKey, plate); err != nil {
			return err
		}
		if err := s.Store.Replace(ctx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcast(result, "pallet.released")
	return result, nil
}

func (s *Service) SetMaintenance(ctx context.Context, machineID primitive.ObjectID, palletKey, notes, actor string, now time.Time) (*models.Machine, error) {
	var result *models.Machine
	err := s.Locker.WithLock(machineID.Hex(), func() error {
		m, err := s.Store.Get(ctx, machineID)
		if err != nil {
			return err
		}
		occupied, err := SetPalletMaintenance(m, palletKey, notes, now)
		if err != nil {
			return err
		}
		if occupied {
			s.Log.Warnf("pallet %s on machine %s declared maintenance with vehicles aboard, by %s", palletKey, m.MachineCode, actor)
		}
		if err := s.Store.Replace(ctx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcast(result, "pallet.maintenance")
	return result, nil
}

func (s *Service) ClearMaintenance(ctx context.Context, machineID primitive.ObjectID, palletKey string) (*models.Machine, error) {
	var result *models.Machine
	err := s.Locker.WithLock(machineID.Hex(), func() error {
		m, err := s.Store.Get(ctx, machineID)
		if err != nil {
			return err
		}
		if err := ClearPalletMaintenance(m, palletKey); err != nil {
			return err
		}
		if err := s.Store.Replace(ctx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcast(result, "pallet.cleared")
	return result, nil
}

func (s *Service) Deactivate(ctx context.Context, machineID primitive.ObjectID) (*models.Machine, error) {
	var result *models.Machine
	err := s.Locker.WithLock(machineID.Hex(), func() error {
		m, err := s.Store.Get(ctx, machineID)
		if err != nil {
			return err
		}
		if err := DeactivateMachine(m); err != nil {
			return err
		}
		if err := s.Store.Replace(ctx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	return result, err
}

func (s *Service) Heartbeat(ctx context.Context, machineID primitive.ObjectID, firmwareVersion string, now time.Time) (*models.Machine, error) {
	var result *models.Machine
	err := s.Locker.WithLock(machineID.Hex(), func() error {
		m, err := s.Store.Get(ctx, machineID)
		if err != nil {
			return err
		}
		UpdateHeartbeat(m, firmwareVersion, now)
		if err := s.Store.Replace(ctx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcast(result, "machine.heartbeat")
	return result, nil
}

// FindAvailable answers §4.D.7, cached for 500ms per (site, class) key.
func (s *Service) FindAvailable(ctx context.Context, siteID *primitive.ObjectID, vehicleType models.VehicleClass, now time.Time) ([]models.Machine, error) {
	key := cacheKey(siteID, vehicleType)
	if cached, ok := s.availableCache.Get(key); ok {
		return cached.([]models.Machine), nil
	}
	candidates, err := s.Store.ListOnline(ctx, siteID)
	if err != nil {
		return nil, err
	}
	result := FindAvailableMachines(candidates, vehicleType, now)
	s.availableCache.Set(key, result, cache.DefaultExpiration)
	return result, nil
}

// MaintenanceDue answers §6.2's GET /machines/maintenance-due: machines
// with a pallet currently under maintenance and awaiting clearance.
func (s *Service) MaintenanceDue(ctx context.Context, siteID *primitive.ObjectID) ([]models.Machine, error) {
	return s.Store.ListInMaintenance(ctx, siteID)
}

func cacheKey(siteID *primitive.ObjectID, vehicleType models.VehicleClass) string {
	if siteID == nil {
		return "any:" + string(vehicleType)
	}
	return siteID.Hex() + ":" + string(vehicleType)
}

// Retype updates a machine's kinematic/target class and rewrites its
// pallets (§4.D.2's "later modified" clause).
func (s *Service) Retype(ctx context.Context, machineID primitive.ObjectID, kinematic models.KinematicType, target models.VehicleClass) (*models.Machine, error) {
	var result *models.Machine
	err := s.Locker.WithLock(machineID.Hex(), func() error {
		m, err := s.Store.Get(ctx, machineID)
		if err != nil {
			return err
		}
		m.MachineType = kinematic
		m.ParkingType = target
		if truncated := RetypePallets(m); truncated {
			s.Log.Warnf("retyping machine %s truncated occupant lists on one or more pallets", m.MachineCode)
		}
		if err := s.Store.Replace(ctx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	return result, err
}

// RecordServiceEvent appends a maintenance/service audit entry (SPEC_FULL
// supplement to §3.1's serviceHistory field).
func (s *Service) RecordServiceEvent(ctx context.Context, machineID primitive.ObjectID, kind, notes, actor string, now time.Time) (*models.Machine, error) {
	var result *models.Machine
	err := s.Locker.WithLock(machineID.Hex(), func() error {
		m, err := s.Store.Get(ctx, machineID)
		if err != nil {
			return err
		}
		m.ServiceHistory = append(m.ServiceHistory, models.ServiceEvent{
			Kind: kind, Notes: notes, Actor: actor, At: now,
		})
		if err := s.Store.Replace(ctx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	return result, err
}
