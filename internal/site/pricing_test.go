package site

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"parking-core/internal/models"
)

func TestOverlapsPeakWindow_InsideWindow(t *testing.T) {
	start := time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC)
	end := time.Date(2026, 3, 5, 19, 0, 0, 0, time.UTC)
	w := models.PeakWindow{StartTime: "18:00", EndTime: "21:00"}
	assert.True(t, overlapsPeakWindow(start, end, w))
}

func TestOverlapsPeakWindow_OutsideWindow(t *testing.T) {
	start := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	w := models.PeakWindow{StartTime: "18:00", EndTime: "21:00"}
	assert.False(t, overlapsPeakWindow(start, end, w))
}

func TestOverlapsPeakWindow_EmptyWindowNeverMatches(t *testing.T) {
	start := time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC)
	end := time.Date(2026, 3, 5, 19, 0, 0, 0, time.UTC)
	assert.False(t, overlapsPeakWindow(start, end, models.PeakWindow{}))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 12.35, round2(12.345))
	assert.Equal(t, 10.0, round2(10))
}
