package site

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/models"
)

// QuoteCharge implements the pricing rule read off the site's declared
// rate table: charge = max(minimumCharge, baseRate * durationHours *
// multiplier), where multiplier is the site's peakMultiplier if any
// minute of [start, end] falls inside the daily peak window, else 1.
func (s *Service) QuoteCharge(ctx context.Context, siteID primitive.ObjectID, class models.VehicleClass, start, end time.Time) (models.Payment, error) {
	st, err := s.Store.Get(ctx, siteID)
	if err != nil {
		return models.Payment{}, err
	}
	rate := st.Pricing.TwoWheeler
	if class == models.ClassFourWheeler {
		rate = st.Pricing.FourWheeler
	}

	durationHours := end.Sub(start).Hours()
	if durationHours < 0 {
		durationHours = 0
	}

	multiplier := 1.0
	if overlapsPeakWindow(start, end, st.Pricing.PeakWindow) {
		multiplier = st.Pricing.PeakMultiplier
		if multiplier <= 0 {
			multiplier = 1
		}
	}

	unpeaked := rate.BaseRate * durationHours
	computed := unpeaked * multiplier
	amount := computed
	if amount < rate.MinimumCharge {
		amount = rate.MinimumCharge
	}
	surcharge := computed - unpeaked

	return models.Payment{
		Amount:            round2(amount),
		BaseRate:          rate.BaseRate,
		AdditionalCharges: round2(surcharge),
		Status:            models.PaymentPending,
	}, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// overlapsPeakWindow walks each calendar day touched by [start, end] and
// checks whether that day's peak window (in site-local wall clock) meets
// the interval.
func overlapsPeakWindow(start, end time.Time, w models.PeakWindow) bool {
	if w.StartTime == "" || w.EndTime == "" {
		return false
	}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	for !day.After(last) {
		ws, ok1 := parseClock(day, w.StartTime)
		we, ok2 := parseClock(day, w.EndTime)
		if ok1 && ok2 && ws.Before(we) {
			if start.Before(we) && end.After(ws) {
				return true
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return false
}

func parseClock(day time.Time, hhmm string) (time.Time, bool) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location()), true
}
