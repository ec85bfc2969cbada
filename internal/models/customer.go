package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
	CustomerBlocked  CustomerStatus = "blocked"
)

type Vehicle struct {
	VehicleID string       `bson:"vehicleId" json:"vehicleId"` // uuid, stable sub-id
	Plate     string       `bson:"plate" json:"plate"`
	Class     VehicleClass `bson:"class" json:"class"`
	Make      string       `bson:"make,omitempty" json:"make,omitempty"`
	Model     string       `bson:"model,omitempty" json:"model,omitempty"`
	Color     string       `bson:"color,omitempty" json:"color,omitempty"`
	IsActive  bool         `bson:"isActive" json:"isActive"`
	CreatedBy string       `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time    `bson:"updatedAt" json:"updatedAt"`
}

type MembershipType string

const (
	MembershipMonthly   MembershipType = "monthly"
	MembershipQuarterly MembershipType = "quarterly"
	MembershipYearly    MembershipType = "yearly"
	MembershipPremium   MembershipType = "premium"
)

type Membership struct {
	MembershipNumber    string         `bson:"membershipNumber" json:"membershipNumber"` // 6 digits
	PIN                 string         `bson:"pin" json:"-"`                             // 4 digits, never serialized
	Type                MembershipType `bson:"type" json:"type"`
	CoveredVehicleTypes []VehicleClass `bson:"coveredVehicleTypes" json:"coveredVehicleTypes"`
	IssuedAt            time.Time      `bson:"issuedAt" json:"issuedAt"`
	ExpiresAt           time.Time      `bson:"expiresAt" json:"expiresAt"`
	ValidityTermMonths  int            `bson:"validityTermMonths" json:"validityTermMonths"`
	IsActive            bool           `bson:"isActive" json:"isActive"`
}

// Covers reports whether the membership is currently active, unexpired,
// and covers the given vehicle class (§3.1 invariant M2).
func (m *Membership) Covers(class VehicleClass, now time.Time) bool {
	if m == nil || !m.IsActive || !now.Before(m.ExpiresAt) {
		return false
	}
	for _, c := range m.CoveredVehicleTypes {
		if c == class {
			return true
		}
	}
	return false
}

type CustomerCounters struct {
	TotalBookings int        `bson:"totalBookings" json:"totalBookings"`
	TotalAmount   float64    `bson:"totalAmount" json:"totalAmount"`
	LastBookingAt *time.Time `bson:"lastBookingAt,omitempty" json:"lastBookingAt,omitempty"`
}

type Customer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerCode string             `bson:"customerCode" json:"customerCode"` // CUST + 6 digits
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`
	Phone        string             `bson:"phone" json:"phone"` // ^[6-9]\d{9}$, unique among active
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	Vehicles     []Vehicle          `bson:"vehicles" json:"vehicles"`
	Membership   *Membership        `bson:"membership,omitempty" json:"membership,omitempty"`
	Counters     CustomerCounters   `bson:"counters" json:"counters"`
	Status       CustomerStatus     `bson:"status" json:"status"`
	DeletedReason string            `bson:"deletedReason,omitempty" json:"deletedReason,omitempty"`
	DeletedAt    *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedBy    string             `bson:"createdBy" json:"createdBy"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// MembershipPayment is an append-only ledger row; never mutated once completed.
type MembershipPayment struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID          primitive.ObjectID `bson:"customerId" json:"customerId"`
	CustomerName        string             `bson:"customerName" json:"customerName"`
	CustomerPhone       string             `bson:"customerPhone" json:"customerPhone"`
	MembershipNumber    string             `bson:"membershipNumber" json:"membershipNumber"`
	Type                MembershipType     `bson:"type" json:"type"`
	Amount              float64            `bson:"amount" json:"amount"`
	Method              string             `bson:"method" json:"method"`
	TransactionRef      string             `bson:"transactionRef,omitempty" json:"transactionRef,omitempty"`
	StartDate           time.Time          `bson:"startDate" json:"startDate"`
	ExpiryDate          time.Time          `bson:"expiryDate" json:"expiryDate"`
	ValidityTerm        int                `bson:"validityTerm" json:"validityTerm"`
	CoveredVehicleTypes []VehicleClass     `bson:"coveredVehicleTypes" json:"coveredVehicleTypes"`
	Status              string             `bson:"status" json:"status"` // completed
	CreatedBy           string             `bson:"createdBy" json:"createdBy"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
}

// DefaultMembershipAmount returns the source's default price table (§4.C.6).
func DefaultMembershipAmount(t MembershipType) float64 {
	switch t {
	case MembershipMonthly:
		return 500
	case MembershipQuarterly:
		return 1200
	case MembershipYearly:
		return 4000
	case MembershipPremium:
		return 6000
	default:
		return 0
	}
}
