package machine

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"parking-core/internal/apperr"
	"parking-core/internal/models"
)

// Store wraps the "machines" collection, matching the teacher's direct
// *mongo.Collection field on each handler/service (internal/api/handlers
// /facility_handler.go).
type Store struct {
	Collection *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{Collection: db.Collection("machines")}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Machine, error) {
	var m models.Machine
	err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "machine not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load machine", err)
	}
	return &m, nil
}

func (s *Store) GetByCode(ctx context.Context, siteID primitive.ObjectID, code string) (*models.Machine, error) {
	var m models.Machine
	err := s.Collection.FindOne(ctx, bson.M{"siteId": siteID, "machineCode": code}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "machine not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load machine", err)
	}
	return &m, nil
}

func (s *Store) Insert(ctx context.Context, m *models.Machine) error {
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	InitializePallets(m)
	res, err := s.Collection.InsertOne(ctx, m)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to create machine", err)
	}
	m.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Replace persists the whole machine document. Combined with the
// per-machine lock in Service, this satisfies §5's "serialized per pallet"
// requirement without needing a document-level compare-and-set.
func (s *Store) Replace(ctx context.Context, m *models.Machine) error {
	m.UpdatedAt = time.Now()
	_, err := s.Collection.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to save machine", err)
	}
	return nil
}

func (s *Store) ListBySite(ctx context.Context, siteID primitive.ObjectID) ([]models.Machine, error) {
	cur, err := s.Collection.Find(ctx, bson.M{"siteId": siteID})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to query machines", err)
	}
	defer cur.Close(ctx)
	var out []models.Machine
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode machines", err)
	}
	return out, nil
}

// ListInMaintenance answers /machines/maintenance-due: machines carrying at
// least one pallet currently flagged for maintenance, i.e. already flagged
// and awaiting operator clearance rather than past some staleness interval
// (the domain model has no maintenance schedule/interval concept).
func (s *Store) ListInMaintenance(ctx context.Context, siteID *primitive.ObjectID) ([]models.Machine, error) {
	filter := bson.M{"pallets.status": models.PalletMaintenance}
	if siteID != nil {
		filter["siteId"] = *siteID
	}
	cur, err := s.Collection.Find(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to query machines", err)
	}
	defer cur.Close(ctx)
	var out []models.Machine
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode machines", err)
	}
	return out, nil
}

func (s *Store) ListOnline(ctx context.Context, siteID *primitive.ObjectID) ([]models.Machine, error) {
	filter := bson.M{"status": models.MachineOnline}
	if siteID != nil {
		filter["siteId"] = *siteID
	}
	cur, err := s.Collection.Find(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to query machines", err)
	}
	defer cur.Close(ctx)
	var out []models.Machine
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to decode machines", err)
	}
	return out, nil
}
