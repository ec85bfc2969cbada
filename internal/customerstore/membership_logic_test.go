package customerstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"parking-core/internal/models"
)

func TestIsSubset(t *testing.T) {
	assert.True(t, isSubset(nil, []models.VehicleClass{models.ClassTwoWheeler}))
	assert.True(t, isSubset([]models.VehicleClass{models.ClassTwoWheeler}, []models.VehicleClass{models.ClassTwoWheeler, models.ClassFourWheeler}))
	assert.False(t, isSubset([]models.VehicleClass{models.ClassFourWheeler}, []models.VehicleClass{models.ClassTwoWheeler}))
}

func TestUnion(t *testing.T) {
	got := union([]models.VehicleClass{models.ClassTwoWheeler}, []models.VehicleClass{models.ClassFourWheeler, models.ClassTwoWheeler})
	assert.ElementsMatch(t, []models.VehicleClass{models.ClassTwoWheeler, models.ClassFourWheeler}, got)
}

func TestMembershipCovers(t *testing.T) {
	m := &models.Membership{IsActive: true}
	assert.False(t, m.Covers(models.ClassTwoWheeler, time.Now()))
}
