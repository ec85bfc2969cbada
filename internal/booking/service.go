package booking

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/apperr"
	"parking-core/internal/customerstore"
	"parking-core/internal/ids"
	"parking-core/internal/logging"
	"parking-core/internal/machine"
	"parking-core/internal/models"
	"parking-core/internal/validation"
)

// Pricer is satisfied by internal/site.Service. Declared here rather than
// imported so the booking engine does not depend on the site package
// (which itself needs to authorize against bookings/machines) — the same
// interface-seam pattern as machine.Broadcaster.
type Pricer interface {
	QuoteCharge(ctx context.Context, siteID primitive.ObjectID, class models.VehicleClass, start, end time.Time) (models.Payment, error)
}

type Service struct {
	Store     *Store
	Customers *customerstore.Service
	Machines  *machine.Service
	Pricing   Pricer
	Rng       *rand.Rand
	Log       *logging.Logger
}

func NewService(store *Store, customers *customerstore.Service, machines *machine.Service, pricing Pricer, rng *rand.Rand, log *logging.Logger) *Service {
	return &Service{Store: store, Customers: customers, Machines: machines, Pricing: pricing, Rng: rng, Log: log}
}

type CreateBookingInput struct {
	FirstName           string
	LastName            string
	Phone               string
	Email               string
	VehiclePlate        string
	VehicleClass        models.VehicleClass
	MachineNumber       string
	PalletKey           string
	Position            *int
	Notes               string
	SpecialInstructions string
	SiteID              primitive.ObjectID
}

// CreateBooking implements §4.E.1: resolve-or-create the customer by
// phone, register the vehicle if new, allocate a booking number and OTP,
// and best-effort occupy the requested pallet. A pallet or machine that
// cannot be found or is already full does not fail booking creation — the
// booking is the system of record, the pallet write is advisory.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput, actor string, now time.Time) (*models.Booking, error) {
	if err := validation.Phone(in.Phone); err != nil {
		return nil, err
	}
	plate, err := validation.Plate(in.VehiclePlate)
	if err != nil {
		return nil, err
	}

	customer, err := s.resolveCustomer(ctx, in, plate, actor, now)
	if err != nil {
		return nil, err
	}

	b := &models.Booking{
		BookingNumber: ids.BookingNumber(string(in.VehicleClass), now),
		CustomerID:    customer.ID,
		CustomerName:  customer.FullName(),
		PhoneNumber:   customer.Phone,
		VehicleNumber: plate,
		VehicleClass:  in.VehicleClass,
		MachineNumber: in.MachineNumber,
		Status:        models.BookingActive,
		StartTime:     now,
		OTP:           newOTP(ids.OTP(s.Rng), now),
		Payment:       models.Payment{Status: models.PaymentPending},
		Notes:         in.Notes,
		SpecialInstructions: in.SpecialInstructions,
		Audit:         models.BookingAudit{CreatedBy: actor, SiteID: in.SiteID},
	}
	if palletNum, ok := parsePalletKey(in.PalletKey); ok {
		b.PalletNumber = palletNum
	}

	if err := s.Store.Insert(ctx, b); err != nil {
		return nil, err
	}

	m, err := s.Machines.Store.GetByCode(ctx, in.SiteID, in.MachineNumber)
	if err != nil {
		s.Log.Warnf("booking %s references unknown machine %s: %v", b.BookingNumber, in.MachineNumber, err)
		return b, nil
	}
	if _, err := s.Machines.Occupy(ctx, m.ID, in.PalletKey, b.ID.Hex(), plate, in.Position, now); err != nil {
		s.Log.Warnf("booking %s could not occupy pallet %s on machine %s: %v", b.BookingNumber, in.PalletKey, in.MachineNumber, err)
	}
	return b, nil
}

func (s *Service) resolveCustomer(ctx context.Context, in CreateBookingInput, plate, actor string, now time.Time) (*models.Customer, error) {
	existing, err := s.Customers.GetByPhone(ctx, in.Phone)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		created, err := s.Customers.CreateCustomer(ctx, customerstore.CreateCustomerInput{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Phone:     in.Phone,
			Email:     in.Email,
			Vehicle: &customerstore.VehicleInput{
				Plate: plate,
				Class: in.VehicleClass,
			},
		}, actor, now)
		if err != nil {
			return nil, err
		}
		return created, nil
	}

	// §4.E.1's name-overwrite rule: a booking's supplied name always wins
	// over a stale customer record, since the front desk sees the person
	// at the wheel.
	changed := false
	if in.FirstName != "" && in.FirstName != existing.FirstName {
		existing.FirstName = in.FirstName
		changed = true
	}
	if in.LastName != "" && in.LastName != existing.LastName {
		existing.LastName = in.LastName
		changed = true
	}
	hasVehicle := false
	for _, v := range existing.Vehicles {
		if v.IsActive && v.Plate == plate {
			hasVehicle = true
			break
		}
	}
	if changed {
		if err := s.Customers.Save(ctx, existing); err != nil {
			return nil, err
		}
	}
	if !hasVehicle {
		if _, err := s.Customers.AddVehicle(ctx, existing.ID.Hex(), customerstore.VehicleInput{
			Plate: plate,
			Class: in.VehicleClass,
		}, actor, now); err != nil {
			return nil, err
		}
	}
	return s.Customers.GetByID(ctx, existing.ID)
}

func parsePalletKey(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return n, true
}

// VerifyOTP implements §4.E.2's redemption path.
func (s *Service) VerifyOTP(ctx context.Context, code string, now time.Time) (*models.Booking, error) {
	b, err := s.Store.FindActiveByOTP(ctx, code, now)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.New(apperr.NotFound, "no active booking matches that otp")
	}
	if err := redeemOTP(b, now); err != nil {
		return nil, err
	}
	if err := s.Store.Replace(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateNewOTP re-issues a code for a booking whose original was lost or
// expired before redemption, per §4.E.2's reissue clause.
func (s *Service) GenerateNewOTP(ctx context.Context, bookingID string, now time.Time) (*models.Booking, error) {
	b, err := s.getByHexID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingActive {
		return nil, apperr.New(apperr.IllegalTransition, "only active bookings can reissue an otp")
	}
	b.OTP = newOTP(ids.OTP(s.Rng), now)
	if err := s.Store.Replace(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// CompleteBooking implements §4.E.3: settle payment (by rate quote or by
// membership coverage) and best-effort release the occupied pallet.
func (s *Service) CompleteBooking(ctx context.Context, bookingID string, method models.PaymentMethod, transactionRef, actor string, now time.Time) (*models.Booking, error) {
	b, err := s.getByHexID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingActive {
		return nil, apperr.New(apperr.IllegalTransition, "only active bookings can be completed")
	}

	payment, err := s.settlePayment(ctx, b, method, transactionRef, now)
	if err != nil {
		return nil, err
	}
	if err := completeTransition(b, payment, actor, now); err != nil {
		return nil, err
	}
	if err := s.Store.Replace(ctx, b); err != nil {
		return nil, err
	}

	if m, err := s.Machines.Store.GetByCode(ctx, b.Audit.SiteID, b.MachineNumber); err == nil {
		key := paletteKeyForBooking(b)
		if _, err := s.Machines.ReleaseByBooking(ctx, m.ID, key, b.ID.Hex()); err != nil {
			s.Log.Warnf("booking %s completed but could not release pallet %s: %v", b.BookingNumber, key, err)
		}
	} else {
		s.Log.Warnf("booking %s completed but machine %s could not be found for release: %v", b.BookingNumber, b.MachineNumber, err)
	}
	return b, nil
}

func (s *Service) settlePayment(ctx context.Context, b *models.Booking, method models.PaymentMethod, transactionRef string, now time.Time) (models.Payment, error) {
	if method == models.PaymentMembership {
		customer, err := s.Customers.GetByID(ctx, b.CustomerID)
		if err != nil {
			return models.Payment{}, err
		}
		if customer.Membership == nil || !customer.Membership.Covers(b.VehicleClass, now) {
			return models.Payment{}, apperr.New(apperr.Conflict, "customer has no membership covering this vehicle class")
		}
		return models.Payment{
			Amount:           0,
			Method:           models.PaymentMembership,
			Status:           models.PaymentCompleted,
			PaidAt:           &now,
			MembershipNumber: customer.Membership.MembershipNumber,
		}, nil
	}

	quote, err := s.Pricing.QuoteCharge(ctx, b.Audit.SiteID, b.VehicleClass, b.StartTime, now)
	if err != nil {
		return models.Payment{}, err
	}
	quote.Method = method
	quote.Status = models.PaymentCompleted
	quote.PaidAt = &now
	quote.TransactionRef = transactionRef
	return quote, nil
}

// CancelBooking implements §4.E.4: release the pallet best-effort, mark
// cancelled, never touch payment.
func (s *Service) CancelBooking(ctx context.Context, bookingID, reason, actor string, now time.Time) (*models.Booking, error) {
	b, err := s.getByHexID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := cancelTransition(b, reason, actor, now); err != nil {
		return nil, err
	}
	if err := s.Store.Replace(ctx, b); err != nil {
		return nil, err
	}

	if m, err := s.Machines.Store.GetByCode(ctx, b.Audit.SiteID, b.MachineNumber); err == nil {
		key := paletteKeyForBooking(b)
		if _, err := s.Machines.ReleaseByBooking(ctx, m.ID, key, b.ID.Hex()); err != nil {
			s.Log.Warnf("booking %s cancelled but could not release pallet %s: %v", b.BookingNumber, key, err)
		}
	}
	return b, nil
}

// ExtendBooking implements §4.E.5.
func (s *Service) ExtendBooking(ctx context.Context, bookingID string, extraHours, extraMinutes int, reason, actor string) (*models.Booking, error) {
	b, err := s.getByHexID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := extendTransition(b, extraHours, extraMinutes, reason, actor); err != nil {
		return nil, err
	}
	if err := s.Store.Replace(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func paletteKeyForBooking(b *models.Booking) string {
	return strconv.Itoa(b.PalletNumber)
}

func (s *Service) getByHexID(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid booking id")
	}
	return s.Store.Get(ctx, oid)
}

// GetBooking fetches a single booking, per §6.2's GET /bookings/:id.
func (s *Service) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.getByHexID(ctx, bookingID)
}

// UpdateBookingInput carries the fields §3.1 allows an operator to amend on
// an existing booking: notes and the declared vehicle class.
type UpdateBookingInput struct {
	Notes        *string
	VehicleClass *models.VehicleClass
}

// UpdateBooking implements §3.1's update allowance and §6.2's PUT
// /bookings/:id. Only an active booking can be amended; a completed or
// cancelled one is closed history.
func (s *Service) UpdateBooking(ctx context.Context, bookingID string, in UpdateBookingInput, actor string) (*models.Booking, error) {
	b, err := s.getByHexID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingActive {
		return nil, apperr.New(apperr.IllegalTransition, "only active bookings can be updated")
	}
	if in.Notes != nil {
		b.Notes = *in.Notes
	}
	if in.VehicleClass != nil {
		b.VehicleClass = *in.VehicleClass
	}
	b.Audit.UpdatedBy = actor
	if err := s.Store.Replace(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookings, SearchBookings, and the by-machine/by-vehicle/active
// queries implement §4.E.6; they are thin pass-throughs over Store since
// filtering and paging are pure data-shape concerns with no invariants to
// enforce beyond what the store already validates (search min-length).

func (s *Service) ListBookings(ctx context.Context, f ListFilters) ([]models.Booking, int64, error) {
	return s.Store.List(ctx, f)
}

func (s *Service) SearchBookings(ctx context.Context, query, filterType string) ([]models.Booking, error) {
	return s.Store.Search(ctx, query, filterType)
}

func (s *Service) GetBookingsByMachine(ctx context.Context, machineCode string, status *models.BookingStatus) ([]models.Booking, error) {
	return s.Store.ByMachine(ctx, machineCode, status)
}

func (s *Service) GetBookingsByVehicle(ctx context.Context, plate string) ([]models.Booking, error) {
	return s.Store.ByVehicle(ctx, strings.ToUpper(plate))
}

func (s *Service) GetActiveBookings(ctx context.Context) ([]models.Booking, error) {
	return s.Store.Active(ctx)
}

func (s *Service) GetBookingStats(ctx context.Context, from, to time.Time) (Stats, error) {
	return s.Store.Stats(ctx, from, to)
}

// HasActiveBooking backs the customer/vehicle mutation guards in
// internal/customerstore, which cannot import this package without
// creating a cycle (booking already depends on customerstore).
func (s *Service) HasActiveBooking(ctx context.Context, customerID primitive.ObjectID) (bool, error) {
	b, err := s.Store.ActiveByCustomerID(ctx, customerID)
	if err != nil {
		return false, err
	}
	return b != nil, nil
}
