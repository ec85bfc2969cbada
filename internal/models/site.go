// Package models holds the persisted document shapes shared across the
// core: sites, machines, customers and bookings. Every collection uses
// primitive.ObjectID as its Mongo key and carries a separate human-facing
// code field for lookups from the outside world.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SiteStatus string

const (
	SiteActive             SiteStatus = "active"
	SiteInactive           SiteStatus = "inactive"
	SiteMaintenance        SiteStatus = "maintenance"
	SiteUnderConstruction  SiteStatus = "under-construction"
)

type DayHours struct {
	Open      bool   `bson:"open" json:"open"`
	OpenTime  string `bson:"openTime,omitempty" json:"openTime,omitempty"`
	CloseTime string `bson:"closeTime,omitempty" json:"closeTime,omitempty"`
}

// OperatingHours indexes by lowercase English weekday name.
type OperatingHours struct {
	Monday    DayHours `bson:"monday" json:"monday"`
	Tuesday   DayHours `bson:"tuesday" json:"tuesday"`
	Wednesday DayHours `bson:"wednesday" json:"wednesday"`
	Thursday  DayHours `bson:"thursday" json:"thursday"`
	Friday    DayHours `bson:"friday" json:"friday"`
	Saturday  DayHours `bson:"saturday" json:"saturday"`
	Sunday    DayHours `bson:"sunday" json:"sunday"`
}

type ClassPricing struct {
	BaseRate       float64 `bson:"baseRate" json:"baseRate"`
	MinimumCharge  float64 `bson:"minimumCharge" json:"minimumCharge"`
}

type PeakWindow struct {
	StartTime string `bson:"startTime" json:"startTime"` // "HH:MM" local wall clock
	EndTime   string `bson:"endTime" json:"endTime"`
}

type Pricing struct {
	TwoWheeler     ClassPricing `bson:"twoWheeler" json:"twoWheeler"`
	FourWheeler    ClassPricing `bson:"fourWheeler" json:"fourWheeler"`
	PeakMultiplier float64      `bson:"peakMultiplier" json:"peakMultiplier"`
	PeakWindow     PeakWindow   `bson:"peakWindow" json:"peakWindow"`
}

type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

type Site struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SiteCode               string             `bson:"siteCode" json:"siteCode"` // SITE\d{3,6}
	Name                   string             `bson:"name" json:"name"`
	Address                string             `bson:"address" json:"address"`
	Coordinates            *Coordinates       `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	OperatingHours         OperatingHours     `bson:"operatingHours" json:"operatingHours"`
	Pricing                Pricing            `bson:"pricing" json:"pricing"`
	DeclaredMachineCount   int                `bson:"declaredMachineCount" json:"declaredMachineCount"`
	DeclaredVehicleCapacity int               `bson:"declaredVehicleCapacity" json:"declaredVehicleCapacity"`
	Status                 SiteStatus         `bson:"status" json:"status"`
	CreatedBy              string             `bson:"createdBy" json:"createdBy"`
	CreatedAt              time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time          `bson:"updatedAt" json:"updatedAt"`
	DeactivatedAt          *time.Time         `bson:"deactivatedAt,omitempty" json:"deactivatedAt,omitempty"`
}

// SiteAssignment is embedded on a User to scope operations to a site.
type SiteAssignment struct {
	SiteRef     primitive.ObjectID `bson:"siteRef" json:"siteRef"`
	SiteRole    string             `bson:"siteRole" json:"siteRole"` // site-admin | supervisor | operator
	Permissions []string           `bson:"permissions" json:"permissions"`
}

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleSupervisor UserRole = "supervisor"
	RoleOperator   UserRole = "operator"
)

type UserStatus string

const (
	UserActive UserStatus = "active"
	UserBlocked UserStatus = "blocked"
)

type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OperatorID      string             `bson:"operatorId" json:"operatorId"` // OP\d{3,6}
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email" json:"email"`
	PasswordHash    string             `bson:"passwordHash" json:"-"`
	Role            UserRole           `bson:"role" json:"role"`
	Status          UserStatus         `bson:"status" json:"status"`
	AssignedSites   []SiteAssignment   `bson:"assignedSites" json:"assignedSites"`
	PrimarySite     *primitive.ObjectID `bson:"primarySite,omitempty" json:"primarySite,omitempty"`
	Permissions     []string           `bson:"permissions" json:"permissions"`
	RefreshTokenID  string             `bson:"refreshTokenId,omitempty" json:"-"`
	FailedLogins    int                `bson:"failedLogins" json:"-"`
	LockedUntil     *time.Time         `bson:"lockedUntil,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
