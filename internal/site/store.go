// Package site implements Component F: the site registry, per-site
// pricing, and the multi-tenant authorization envelope that scopes every
// core operation to a site the caller is assigned to.
package site

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"parking-core/internal/apperr"
	"parking-core/internal/models"
)

type Store struct {
	Sites    *mongo.Collection
	Users    *mongo.Collection
	Machines *mongo.Collection
	Bookings *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		Sites:    db.Collection("sites"),
		Users:    db.Collection("users"),
		Machines: db.Collection("machines"),
		Bookings: db.Collection("bookings"),
	}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Site, error) {
	var site models.Site
	err := s.Sites.FindOne(ctx, bson.M{"_id": id}).Decode(&site)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "site not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load site", err)
	}
	return &site, nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (*models.Site, error) {
	var site models.Site
	err := s.Sites.FindOne(ctx, bson.M{"siteCode": code}).Decode(&site)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "site not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load site", err)
	}
	return &site, nil
}

func (s *Store) Insert(ctx context.Context, site *models.Site) error {
	now := time.Now()
	site.CreatedAt, site.UpdatedAt = now, now
	res, err := s.Sites.InsertOne(ctx, site)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to create site", err)
	}
	site.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *Store) Replace(ctx context.Context, site *models.Site) error {
	site.UpdatedAt = time.Now()
	_, err := s.Sites.ReplaceOne(ctx, bson.M{"_id": site.ID}, site)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to save site", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]models.Site, error) {
	cur, err := s.Sites.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to list sites", err)
	}
	defer cur.Close(ctx)
	var out []models.Site
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode sites", err)
	}
	return out, nil
}

func (s *Store) CountMachines(ctx context.Context, siteID primitive.ObjectID) (total, online int64, err error) {
	total, err = s.Machines.CountDocuments(ctx, bson.M{"siteId": siteID})
	if err != nil {
		return 0, 0, apperr.Wrap(apperr.Internal, "failed to count machines", err)
	}
	online, err = s.Machines.CountDocuments(ctx, bson.M{"siteId": siteID, "status": models.MachineOnline})
	if err != nil {
		return 0, 0, apperr.Wrap(apperr.Internal, "failed to count online machines", err)
	}
	return total, online, nil
}

func (s *Store) SetAllMachinesOffline(ctx context.Context, siteID primitive.ObjectID) error {
	_, err := s.Machines.UpdateMany(ctx,
		bson.M{"siteId": siteID},
		bson.M{"$set": bson.M{"status": models.MachineOffline, "updatedAt": time.Now()}},
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to force machines offline", err)
	}
	return nil
}

func (s *Store) CountActiveBookings(ctx context.Context, siteID primitive.ObjectID) (int64, error) {
	count, err := s.Bookings.CountDocuments(ctx, bson.M{"audit.siteId": siteID, "status": models.BookingActive})
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "failed to count active bookings", err)
	}
	return count, nil
}

func (s *Store) BookingCounts(ctx context.Context, siteID primitive.ObjectID, dayStart, dayEnd time.Time) (total, today, active int64, revenue, revenueToday float64, err error) {
	filter := bson.M{"audit.siteId": siteID}
	total, err = s.Bookings.CountDocuments(ctx, filter)
	if err != nil {
		return 0, 0, 0, 0, 0, apperr.Wrap(apperr.Internal, "failed to count bookings", err)
	}
	todayFilter := bson.M{"audit.siteId": siteID, "startTime": bson.M{"$gte": dayStart, "$lt": dayEnd}}
	today, err = s.Bookings.CountDocuments(ctx, todayFilter)
	if err != nil {
		return 0, 0, 0, 0, 0, apperr.Wrap(apperr.Internal, "failed to count today's bookings", err)
	}
	active, err = s.CountActiveBookings(ctx, siteID)
	if err != nil {
		return 0, 0, 0, 0, 0, err
	}

	cur, err := s.Bookings.Find(ctx, bson.M{"audit.siteId": siteID, "status": models.BookingCompleted})
	if err != nil {
		return 0, 0, 0, 0, 0, apperr.Wrap(apperr.Internal, "failed to query completed bookings", err)
	}
	defer cur.Close(ctx)
	var completed []models.Booking
	if err := cur.All(ctx, &completed); err != nil {
		return 0, 0, 0, 0, 0, apperr.Wrap(apperr.Internal, "failed to decode completed bookings", err)
	}
	for _, b := range completed {
		revenue += b.Payment.Amount
		if !b.StartTime.Before(dayStart) && b.StartTime.Before(dayEnd) {
			revenueToday += b.Payment.Amount
		}
	}
	return total, today, active, revenue, revenueToday, nil
}

func (s *Store) DeleteMachinesAndBookings(ctx context.Context, siteID primitive.ObjectID) error {
	if _, err := s.Machines.DeleteMany(ctx, bson.M{"siteId": siteID}); err != nil {
		return apperr.Wrap(apperr.Internal, "failed to delete machines", err)
	}
	if _, err := s.Bookings.DeleteMany(ctx, bson.M{"audit.siteId": siteID}); err != nil {
		return apperr.Wrap(apperr.Internal, "failed to delete bookings", err)
	}
	return nil
}

func (s *Store) StripSiteFromUsers(ctx context.Context, siteID primitive.ObjectID) error {
	_, err := s.Users.UpdateMany(ctx,
		bson.M{"assignedSites.siteRef": siteID},
		bson.M{"$pull": bson.M{"assignedSites": bson.M{"siteRef": siteID}}},
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to strip site from user assignments", err)
	}
	_, err = s.Users.UpdateMany(ctx,
		bson.M{"primarySite": siteID},
		bson.M{"$unset": bson.M{"primarySite": ""}},
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to clear primary site", err)
	}
	return nil
}

func (s *Store) DeleteSite(ctx context.Context, siteID primitive.ObjectID) error {
	_, err := s.Sites.DeleteOne(ctx, bson.M{"_id": siteID})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to delete site", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load user", err)
	}
	return &u, nil
}

// ListUsersForSite answers GET /sites/:id/users: every user carrying an
// assignment on this site.
func (s *Store) ListUsersForSite(ctx context.Context, siteID primitive.ObjectID) ([]models.User, error) {
	cur, err := s.Users.Find(ctx, bson.M{"assignedSites.siteRef": siteID})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to query site users", err)
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode users", err)
	}
	return out, nil
}

// GetUserByEmail backs login, where the caller has no user id yet.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.Users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load user", err)
	}
	return &u, nil
}

// InsertUser creates a user record. No route calls it: the API has no
// signup or user-provisioning endpoint.
func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	_, err := s.Users.InsertOne(ctx, u)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to create user", err)
	}
	return nil
}

func (s *Store) ReplaceUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	_, err := s.Users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to save user", err)
	}
	return nil
}
