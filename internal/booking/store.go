// Package booking implements Component E: the parking session state
// machine, OTP issuance/redemption, and payment capture on completion.
package booking

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parking-core/internal/apperr"
	"parking-core/internal/models"
)

type Store struct {
	Collection *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{Collection: db.Collection("bookings")}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "booking not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load booking", err)
	}
	return &b, nil
}

func (s *Store) Insert(ctx context.Context, b *models.Booking) error {
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	res, err := s.Collection.InsertOne(ctx, b)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to create booking", err)
	}
	b.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *Store) Replace(ctx context.Context, b *models.Booking) error {
	b.UpdatedAt = time.Now()
	_, err := s.Collection.ReplaceOne(ctx, bson.M{"_id": b.ID}, b)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to save booking", err)
	}
	return nil
}

// FindActiveByOTP implements the lookup at the heart of §4.E.2: the unique
// active booking whose OTP is unused and unexpired.
func (s *Store) FindActiveByOTP(ctx context.Context, code string, now time.Time) (*models.Booking, error) {
	var b models.Booking
	err := s.Collection.FindOne(ctx, bson.M{
		"status":        models.BookingActive,
		"otp.code":      code,
		"otp.isUsed":    false,
		"otp.expiresAt": bson.M{"$gt": now},
	}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to look up otp", err)
	}
	return &b, nil
}

type ListFilters struct {
	SiteID        *primitive.ObjectID
	Status        *models.BookingStatus
	MachineNumber string
	VehicleNumber string
	DateFrom      *time.Time
	DateTo        *time.Time
	Search        string
	Page          int
	Limit         int
}

func (s *Store) List(ctx context.Context, f ListFilters) ([]models.Booking, int64, error) {
	filter := bson.M{}
	if f.SiteID != nil {
		filter["audit.siteId"] = *f.SiteID
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.MachineNumber != "" {
		filter["machineNumber"] = f.MachineNumber
	}
	if f.VehicleNumber != "" {
		filter["vehicleNumber"] = f.VehicleNumber
	}
	if f.DateFrom != nil || f.DateTo != nil {
		rng := bson.M{}
		if f.DateFrom != nil {
			rng["$gte"] = *f.DateFrom
		}
		if f.DateTo != nil {
			rng["$lte"] = *f.DateTo
		}
		filter["startTime"] = rng
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: f.Search, Options: "i"}
		filter["$or"] = []bson.M{
			{"customerName": pattern},
			{"phoneNumber": pattern},
			{"vehicleNumber": pattern},
			{"bookingNumber": pattern},
			{"otp.code": pattern},
		}
	}

	total, err := s.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "failed to count bookings", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "startTime", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := s.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "failed to query bookings", err)
	}
	defer cur.Close(ctx)
	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "failed to decode bookings", err)
	}
	return out, total, nil
}

func (s *Store) Search(ctx context.Context, q, filterType string) ([]models.Booking, error) {
	if len(q) < 2 {
		return nil, apperr.New(apperr.Validation, "search query must be at least 2 characters")
	}
	pattern := primitive.Regex{Pattern: q, Options: "i"}
	var filter bson.M
	switch filterType {
	case "vehicle":
		filter = bson.M{"vehicleNumber": pattern}
	case "pallet":
		filter = bson.M{"palletNumber": q}
	case "otp":
		filter = bson.M{"otp.code": pattern}
	case "customer":
		filter = bson.M{"customerName": pattern}
	case "phone":
		filter = bson.M{"phoneNumber": pattern}
	default:
		filter = bson.M{"$or": []bson.M{
			{"vehicleNumber": pattern},
			{"otp.code": pattern},
			{"customerName": pattern},
			{"phoneNumber": pattern},
			{"bookingNumber": pattern},
		}}
	}
	cur, err := s.Collection.Find(ctx, filter, options.Find().SetLimit(50))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "search failed", err)
	}
	defer cur.Close(ctx)
	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode bookings", err)
	}
	return out, nil
}

func (s *Store) ByMachine(ctx context.Context, machineCode string, status *models.BookingStatus) ([]models.Booking, error) {
	filter := bson.M{"machineNumber": machineCode}
	if status != nil {
		filter["status"] = *status
	}
	cur, err := s.Collection.Find(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to query bookings", err)
	}
	defer cur.Close(ctx)
	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode bookings", err)
	}
	return out, nil
}

func (s *Store) ByVehicle(ctx context.Context, plate string) ([]models.Booking, error) {
	cur, err := s.Collection.Find(ctx, bson.M{"vehicleNumber": plate})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to query bookings", err)
	}
	defer cur.Close(ctx)
	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode bookings", err)
	}
	return out, nil
}

// ActiveByCustomerID backs the customer soft-delete and vehicle-removal
// guards in §4.C.4/§4.C.5: neither is permitted while the customer has a
// booking in progress.
func (s *Store) ActiveByCustomerID(ctx context.Context, customerID primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	err := s.Collection.FindOne(ctx, bson.M{"customerId": customerID, "status": models.BookingActive}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to check active bookings", err)
	}
	return &b, nil
}

func (s *Store) Active(ctx context.Context) ([]models.Booking, error) {
	cur, err := s.Collection.Find(ctx, bson.M{"status": models.BookingActive})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to query bookings", err)
	}
	defer cur.Close(ctx)
	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode bookings", err)
	}
	return out, nil
}

type Stats struct {
	TotalByStatus   map[models.BookingStatus]int64
	CompletedRevenue float64
}

func (s *Store) Stats(ctx context.Context, from, to time.Time) (Stats, error) {
	filter := bson.M{"startTime": bson.M{"$gte": from, "$lte": to}}
	cur, err := s.Collection.Find(ctx, filter)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.Internal, "failed to query bookings", err)
	}
	defer cur.Close(ctx)
	var rows []models.Booking
	if err := cur.All(ctx, &rows); err != nil {
		return Stats{}, apperr.Wrap(apperr.Internal, "failed to decode bookings", err)
	}
	out := Stats{TotalByStatus: map[models.BookingStatus]int64{}}
	for _, b := range rows {
		out.TotalByStatus[b.Status]++
		if b.Status == models.BookingCompleted {
			out.CompletedRevenue += b.Payment.Amount
		}
	}
	return out, nil
}
