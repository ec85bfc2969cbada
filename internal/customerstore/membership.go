package customerstore

import (
	"context"
	"time"

	"parking-core/internal/apperr"
	"parking-core/internal/ids"
	"parking-core/internal/models"
)

type MembershipPaymentInput struct {
	Amount         float64 // zero means "use the default for Type" (§4.C.6)
	Method         string
	TransactionRef string
}

// CreateMembership implements §4.C.6, including the superset-extension and
// fresh-issuance branches.
func (s *Service) CreateMembership(ctx context.Context, customerID string, memType models.MembershipType, termMonths int, covered []models.VehicleClass, payment MembershipPaymentInput, actor string, now time.Time) (*models.Customer, error) {
	c, err := s.getByHexID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	amount := payment.Amount
	if amount == 0 {
		amount = models.DefaultMembershipAmount(memType)
	}

	if c.Membership != nil && c.Membership.IsActive && now.Before(c.Membership.ExpiresAt) {
		if isSubset(covered, c.Membership.CoveredVehicleTypes) {
			return nil, apperr.New(apperr.Conflict, "coverage already included in the active membership")
		}
		if isSubset(c.Membership.CoveredVehicleTypes, covered) {
			// proper superset (or equal-but-already-handled-above): extend in place, keep expiry.
			c.Membership.CoveredVehicleTypes = union(c.Membership.CoveredVehicleTypes, covered)
			if err := s.appendLedgerAndSave(ctx, c, memType, amount, payment, termMonths, covered, c.Membership.ExpiresAt, actor, now); err != nil {
				return nil, err
			}
			return c, nil
		}
	}

	number, err := s.generateMembershipNumber(ctx)
	if err != nil {
		return nil, err
	}
	pin := ids.MembershipPIN(s.Rng)
	expiresAt := now.AddDate(0, termMonths, 0)

	c.Membership = &models.Membership{
		MembershipNumber:    number,
		PIN:                 pin,
		Type:                memType,
		CoveredVehicleTypes: covered,
		IssuedAt:            now,
		ExpiresAt:           expiresAt,
		ValidityTermMonths:  termMonths,
		IsActive:            true,
	}
	if err := s.appendLedgerAndSave(ctx, c, memType, amount, payment, termMonths, covered, expiresAt, actor, now); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) appendLedgerAndSave(ctx context.Context, c *models.Customer, memType models.MembershipType, amount float64, payment MembershipPaymentInput, termMonths int, covered []models.VehicleClass, expiresAt time.Time, actor string, now time.Time) error {
	row := &models.MembershipPayment{
		CustomerID:          c.ID,
		CustomerName:        c.FullName(),
		CustomerPhone:       c.Phone,
		MembershipNumber:    c.Membership.MembershipNumber,
		Type:                memType,
		Amount:              amount,
		Method:              payment.Method,
		TransactionRef:      payment.TransactionRef,
		StartDate:           now,
		ExpiryDate:          expiresAt,
		ValidityTerm:        termMonths,
		CoveredVehicleTypes: covered,
		Status:              "completed",
		CreatedBy:           actor,
	}
	if err := s.Store.AppendLedgerRow(ctx, row); err != nil {
		return err
	}
	return s.Store.Replace(ctx, c)
}

func (s *Service) generateMembershipNumber(ctx context.Context) (string, error) {
	for i := 0; i < ids.MaxMembershipNumberRetries; i++ {
		candidate := ids.MembershipNumber(s.Rng)
		inUse, err := s.Store.MembershipNumberInUse(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !inUse {
			return candidate, nil
		}
	}
	return "", apperr.New(apperr.Internal, "could not allocate a unique membership number")
}

// ValidateMembership implements §4.C.7.
func (s *Service) ValidateMembership(ctx context.Context, membershipNumber, pin string, forVehicleType *models.VehicleClass, now time.Time) (*models.Customer, error) {
	c, err := s.Store.FindByMembershipCredentials(ctx, membershipNumber)
	if err != nil {
		return nil, err
	}
	if c == nil || c.Membership == nil {
		return nil, nil
	}
	if !ids.ConstantTimeEqual(c.Membership.PIN, pin) {
		return nil, nil
	}
	if !c.Membership.IsActive || !now.Before(c.Membership.ExpiresAt) {
		return nil, nil
	}
	if forVehicleType != nil && !c.Membership.Covers(*forVehicleType, now) {
		return nil, nil
	}
	return c, nil
}

// DeactivateMembership implements §4.C.8.
func (s *Service) DeactivateMembership(ctx context.Context, customerID, actor string) (*models.Customer, error) {
	c, err := s.getByHexID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c.Membership == nil {
		return nil, apperr.New(apperr.NotFound, "customer has no membership")
	}
	c.Membership.IsActive = false
	if err := s.Store.Replace(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func isSubset(a, b []models.VehicleClass) bool {
	set := make(map[models.VehicleClass]bool, len(b))
	for _, x := range b {
		set[x] = true
	}
	for _, x := range a {
		if !set[x] {
			return false
		}
	}
	return true
}

func union(a, b []models.VehicleClass) []models.VehicleClass {
	set := make(map[models.VehicleClass]bool)
	var out []models.VehicleClass
	for _, x := range a {
		if !set[x] {
			set[x] = true
			out = append(out, x)
		}
	}
	for _, x := range b {
		if !set[x] {
			set[x] = true
			out = append(out, x)
		}
	}
	return out
}
