package customerstore

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/apperr"
	"parking-core/internal/models"
)

func newVehicleID() string {
	return uuid.NewString()
}

func (s *Service) getByHexID(ctx context.Context, id string) (*models.Customer, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid customer id")
	}
	return s.Store.Get(ctx, oid)
}

// GetByID is the public accessor used by other engines (booking) that need
// a read-only customer snapshot.
func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return s.Store.GetActiveByPhone(ctx, phone)
}

func (s *Service) Save(ctx context.Context, c *models.Customer) error {
	return s.Store.Replace(ctx, c)
}
