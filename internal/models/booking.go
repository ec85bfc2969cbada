package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentMembership PaymentMethod = "membership"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

type OTP struct {
	Code      string     `bson:"code" json:"-"`
	IssuedAt  time.Time  `bson:"issuedAt" json:"issuedAt"`
	ExpiresAt time.Time  `bson:"expiresAt" json:"expiresAt"`
	IsUsed    bool       `bson:"isUsed" json:"isUsed"`
	UsedAt    *time.Time `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
}

type Payment struct {
	Amount            float64       `bson:"amount" json:"amount"`
	Method            PaymentMethod `bson:"method,omitempty" json:"method,omitempty"`
	Status            PaymentStatus `bson:"status" json:"status"`
	TransactionRef    string        `bson:"transactionRef,omitempty" json:"transactionRef,omitempty"`
	PaidAt            *time.Time    `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	MembershipNumber  string        `bson:"membershipNumber,omitempty" json:"membershipNumber,omitempty"`
	BaseRate          float64       `bson:"baseRate,omitempty" json:"baseRate,omitempty"`
	AdditionalCharges float64       `bson:"additionalCharges,omitempty" json:"additionalCharges,omitempty"`
	Discount          float64       `bson:"discount,omitempty" json:"discount,omitempty"`
	Tax               float64       `bson:"tax,omitempty" json:"tax,omitempty"`
}

type Duration struct {
	Hours   int `bson:"hours" json:"hours"`
	Minutes int `bson:"minutes" json:"minutes"`
}

type BookingAudit struct {
	CreatedBy   string             `bson:"createdBy" json:"createdBy"`
	UpdatedBy   string             `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CompletedBy string             `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	SiteID      primitive.ObjectID `bson:"siteId" json:"siteId"`
}

type Booking struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingNumber       string             `bson:"bookingNumber" json:"bookingNumber"`
	CustomerID          primitive.ObjectID `bson:"customerId" json:"customerId"`
	CustomerName        string             `bson:"customerName" json:"customerName"`
	PhoneNumber         string             `bson:"phoneNumber" json:"phoneNumber"`
	VehicleNumber       string             `bson:"vehicleNumber" json:"vehicleNumber"`
	VehicleClass        VehicleClass       `bson:"vehicleClass" json:"vehicleClass"`
	MachineNumber       string             `bson:"machineNumber" json:"machineNumber"`
	PalletNumber        int                `bson:"palletNumber" json:"palletNumber"`
	Status              BookingStatus      `bson:"status" json:"status"`
	StartTime           time.Time          `bson:"startTime" json:"startTime"`
	EndTime             *time.Time         `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Duration            *Duration          `bson:"duration,omitempty" json:"duration,omitempty"`
	OTP                 OTP                `bson:"otp" json:"otp"`
	Payment             Payment            `bson:"payment" json:"payment"`
	Notes               string             `bson:"notes,omitempty" json:"notes,omitempty"`
	SpecialInstructions string             `bson:"specialInstructions,omitempty" json:"specialInstructions,omitempty"`
	Audit               BookingAudit       `bson:"audit" json:"audit"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}
