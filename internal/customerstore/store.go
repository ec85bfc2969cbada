// Package customerstore implements Component C: the customer record with
// embedded vehicles and single customer-level membership, plus the
// append-only MembershipPayment ledger.
package customerstore

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
	Customers *mongo.Collection
	Ledger    *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		Customers: db.Collection("customers"),
		Ledger:    db.Collection("membership_payments"),
	}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var c models.Customer
	err := s.Customers.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "customer not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load customer", err)
	}
	return &c, nil
}

func (s *Store) GetActiveByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var c models.Customer
	err := s.Customers.FindOne(ctx, bson.M{"phone": phone, "status": models.CustomerActive}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load customer", err)
	}
	return &c, nil
}

func (s *Store) Insert(ctx context.Context, c *models.Customer) error {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	res, err := s.Customers.InsertOne(ctx, c)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to create customer", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *Store) Replace(ctx context.Context, c *models.Customer) error {
	c.UpdatedAt = time.Now()
	_, err := s.Customers.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to save customer", err)
	}
	return nil
}

// MembershipNumberInUse reports whether an active membership with this
// number already exists, backing the uniqueness check-and-retry of §5.
func (s *Store) MembershipNumberInUse(ctx context.Context, number string) (bool, error) {
	count, err := s.Customers.CountDocuments(ctx, bson.M{
		"membership.membershipNumber": number,
		"membership.isActive":         true,
	})
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "failed to check membership number", err)
	}
	return count > 0, nil
}

// FindByMembershipCredentials looks up the customer whose active
// membership carries this number; PIN comparison happens in the service
// layer via a constant-time compare.
func (s *Store) FindByMembershipCredentials(ctx context.Context, membershipNumber string) (*models.Customer, error) {
	var c models.Customer
	err := s.Customers.FindOne(ctx, bson.M{
		"membership.membershipNumber": membershipNumber,
		"membership.isActive":         true,
	}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to look up membership", err)
	}
	return &c, nil
}

// Search implements §4.C.2: case-insensitive substring search, minimum
// query length 2, capped at 50 results.
func (s *Store) Search(ctx context.Context, query, searchType string) ([]models.Customer, error) {
	if len(query) < 2 {
		return nil, apperr.New(apperr.Validation, "search query must be at least 2 characters")
	}
	pattern := primitive.Regex{Pattern: query, Options: "i"}
	var filter bson.M
	switch searchType {
	case "phone":
		filter = bson.M{"phone": pattern}
	case "name":
		filter = bson.M{"$or": []bson.M{{"firstName": pattern}, {"lastName": pattern}}}
	case "vehicle":
		filter = bson.M{"vehicles.plate": pattern}
	default:
		filter = bson.M{"$or": []bson.M{
			{"phone": pattern},
			{"firstName": pattern},
			{"lastName": pattern},
			{"vehicles.plate": pattern},
		}}
	}
	cur, err := s.Customers.Find(ctx, filter, options.Find().SetLimit(50))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "search failed", err)
	}
	defer cur.Close(ctx)
	var out []models.Customer
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode customers", err)
	}
	return out, nil
}

func (s *Store) AppendLedgerRow(ctx context.Context, row *models.MembershipPayment) error {
	row.CreatedAt = time.Now()
	res, err := s.Ledger.InsertOne(ctx, row)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to append membership payment", err)
	}
	row.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}
