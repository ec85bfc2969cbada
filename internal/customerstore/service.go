package customerstore

import (
	"context"
	"math/rand"
	"time"

	"parking-core/internal/apperr"
	"parking-core/internal/ids"
	"parking-core/internal/models"
	"parking-core/internal/validation"
)

type Service struct {
	Store *Store
	Rng   *rand.Rand
}

func NewService(store *Store, rng *rand.Rand) *Service {
	return &Service{Store: store, Rng: rng}
}

type CreateCustomerInput struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Vehicle   *VehicleInput
}

type VehicleInput struct {
	Plate string
	Class models.VehicleClass
	Make  string
	Model string
	Color string
}

// CreateCustomer implements §4.C.1.
func (s *Service) CreateCustomer(ctx context.Context, in CreateCustomerInput, actor string, now time.Time) (*models.Customer, error) {
	if err := validation.Phone(in.Phone); err != nil {
		return nil, err
	}
	if in.Email != "" {
		if err := validation.Email(in.Email); err != nil {
			return nil, err
		}
	}
	existing, err := s.Store.GetActiveByPhone(ctx, in.Phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.New(apperr.Conflict, "phone number already registered to an active customer")
	}

	c := &models.Customer{
		CustomerCode: ids.CustomerCode(now),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Email:        in.Email,
		Status:       models.CustomerActive,
		CreatedBy:    actor,
	}
	if in.Vehicle != nil {
		v, err := s.buildVehicle(*in.Vehicle, actor, now)
		if err != nil {
			return nil, err
		}
		c.Vehicles = append(c.Vehicles, v)
	}
	if err := s.Store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) buildVehicle(in VehicleInput, actor string, now time.Time) (models.Vehicle, error) {
	plate, err := validation.Plate(in.Plate)
	if err != nil {
		return models.Vehicle{}, err
	}
	return models.Vehicle{
		VehicleID: newVehicleID(),
		Plate:     plate,
		Class:     in.Class,
		Make:      in.Make,
		Model:     in.Model,
		Color:     in.Color,
		IsActive:  true,
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Search implements §4.C.2.
func (s *Service) Search(ctx context.Context, query, searchType string) ([]models.Customer, error) {
	return s.Store.Search(ctx, query, searchType)
}

// AddVehicle implements §4.C.3.
func (s *Service) AddVehicle(ctx context.Context, customerID string, in VehicleInput, actor string, now time.Time) (*models.Customer, error) {
	c, err := s.getByHexID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	v, err := s.buildVehicle(in, actor, now)
	if err != nil {
		return nil, err
	}
	for _, existing := range c.Vehicles {
		if existing.IsActive && existing.Plate == v.Plate {
			return nil, apperr.New(apperr.Conflict, "vehicle plate already registered to this customer")
		}
	}
	c.Vehicles = append(c.Vehicles, v)
	if err := s.Store.Replace(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveVehicle implements §4.C.4. hasActiveBooking is supplied by the
// caller (the booking engine owns that check; this package does not
// depend on it to avoid an import cycle).
func (s *Service) RemoveVehicle(ctx context.Context, customerID, vehicleID string, hasActiveBooking bool, now time.Time) (*models.Customer, error) {
	if hasActiveBooking {
		return nil, apperr.New(apperr.IllegalTransition, "vehicle has an active booking")
	}
	c, err := s.getByHexID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range c.Vehicles {
		if c.Vehicles[i].VehicleID == vehicleID {
			c.Vehicles[i].IsActive = false
			c.Vehicles[i].UpdatedAt = now
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.New(apperr.NotFound, "vehicle not found")
	}
	if err := s.Store.Replace(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SoftDeleteCustomer implements §4.C.5.
func (s *Service) SoftDeleteCustomer(ctx context.Context, customerID, reason string, hasActiveBooking bool, now time.Time) (*models.Customer, error) {
	if hasActiveBooking {
		return nil, apperr.New(apperr.IllegalTransition, "customer has an active booking")
	}
	c, err := s.getByHexID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.Status = models.CustomerInactive
	c.DeletedReason = reason
	c.DeletedAt = &now
	if err := s.Store.Replace(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
