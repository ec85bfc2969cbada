package site

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/apperr"
	"parking-core/internal/models"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

type CreateSiteInput struct {
	SiteCode                string
	Name                    string
	Address                 string
	Coordinates             *models.Coordinates
	OperatingHours          models.OperatingHours
	Pricing                 models.Pricing
	DeclaredMachineCount    int
	DeclaredVehicleCapacity int
}

func (s *Service) CreateSite(ctx context.Context, in CreateSiteInput, actor string) (*models.Site, error) {
	existing, err := s.Store.GetByCode(ctx, in.SiteCode)
	if err != nil {
		if ae, ok := apperr.As(err); !ok || ae.Kind != apperr.NotFound {
			return nil, err
		}
	}
	if existing != nil {
		return nil, apperr.New(apperr.Conflict, "site code already in use")
	}

	site := &models.Site{
		SiteCode:                in.SiteCode,
		Name:                    in.Name,
		Address:                 in.Address,
		Coordinates:             in.Coordinates,
		OperatingHours:          in.OperatingHours,
		Pricing:                 in.Pricing,
		DeclaredMachineCount:    in.DeclaredMachineCount,
		DeclaredVehicleCapacity: in.DeclaredVehicleCapacity,
		Status:                  models.SiteActive,
		CreatedBy:               actor,
	}
	if err := s.Store.Insert(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

type UpdateSiteInput struct {
	Name                    *string
	Address                 *string
	Coordinates             *models.Coordinates
	OperatingHours          *models.OperatingHours
	Pricing                 *models.Pricing
	DeclaredMachineCount    *int
	DeclaredVehicleCapacity *int
	Status                  *models.SiteStatus
}

func (s *Service) UpdateSite(ctx context.Context, siteID primitive.ObjectID, in UpdateSiteInput) (*models.Site, error) {
	site, err := s.Store.Get(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		site.Name = *in.Name
	}
	if in.Address != nil {
		site.Address = *in.Address
	}
	if in.Coordinates != nil {
		site.Coordinates = in.Coordinates
	}
	if in.OperatingHours != nil {
		site.OperatingHours = *in.OperatingHours
	}
	if in.Pricing != nil {
		site.Pricing = *in.Pricing
	}
	if in.DeclaredMachineCount != nil {
		site.DeclaredMachineCount = *in.DeclaredMachineCount
	}
	if in.DeclaredVehicleCapacity != nil {
		site.DeclaredVehicleCapacity = *in.DeclaredVehicleCapacity
	}
	if in.Status != nil {
		site.Status = *in.Status
	}
	if err := s.Store.Replace(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// DeactivateSite implements §4.F: refuses while a booking is active at the
// site, and forces every machine at the site offline.
func (s *Service) DeactivateSite(ctx context.Context, siteID primitive.ObjectID) (*models.Site, error) {
	active, err := s.Store.CountActiveBookings(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, apperr.New(apperr.IllegalTransition, "site has active bookings")
	}
	site, err := s.Store.Get(ctx, siteID)
	if err != nil {
		return nil, err
	}
	site.Status = models.SiteInactive
	now := time.Now()
	site.DeactivatedAt = &now
	if err := s.Store.Replace(ctx, site); err != nil {
		return nil, err
	}
	if err := s.Store.SetAllMachinesOffline(ctx, siteID); err != nil {
		return nil, err
	}
	return site, nil
}

// DeleteSitePermanently implements §4.F: without force, refuses when the
// site has any machines or bookings; with force, drops both
// (best-effort — no multi-document transaction, matching the rest of the
// core's single-collection-write style) before deleting the site itself.
// Either way, the site reference is stripped from every user's
// assignedSites and cleared from primarySite.
func (s *Service) DeleteSitePermanently(ctx context.Context, siteID primitive.ObjectID, force bool) error {
	machineCount, _, err := s.Store.CountMachines(ctx, siteID)
	if err != nil {
		return err
	}
	bookingCount, err := s.countAllBookings(ctx, siteID)
	if err != nil {
		return err
	}
	if !force && (machineCount > 0 || bookingCount > 0) {
		return apperr.New(apperr.Conflict, "site has machines or bookings; pass force=true to delete anyway")
	}
	if force {
		if err := s.Store.DeleteMachinesAndBookings(ctx, siteID); err != nil {
			return err
		}
	}
	if err := s.Store.StripSiteFromUsers(ctx, siteID); err != nil {
		return err
	}
	return s.Store.DeleteSite(ctx, siteID)
}

func (s *Service) countAllBookings(ctx context.Context, siteID primitive.ObjectID) (int64, error) {
	total, _, _, _, _, err := s.Store.BookingCounts(ctx, siteID, time.Time{}, time.Time{})
	return total, err
}

// AssignUserToSite implements §4.F: idempotent upsert of a site
// assignment, and sets primarySite the first time a user gets any
// assignment.
func (s *Service) AssignUserToSite(ctx context.Context, siteID, userID primitive.ObjectID, role string, permissions []string) (*models.User, error) {
	if _, err := s.Store.Get(ctx, siteID); err != nil {
		return nil, err
	}
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range u.AssignedSites {
		if u.AssignedSites[i].SiteRef == siteID {
			u.AssignedSites[i].SiteRole = role
			u.AssignedSites[i].Permissions = permissions
			found = true
			break
		}
	}
	if !found {
		u.AssignedSites = append(u.AssignedSites, models.SiteAssignment{
			SiteRef:     siteID,
			SiteRole:    role,
			Permissions: permissions,
		})
	}
	if u.PrimarySite == nil {
		id := siteID
		u.PrimarySite = &id
	}
	if err := s.Store.ReplaceUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsersForSite answers §6.2's GET /sites/:id/users.
func (s *Service) ListUsersForSite(ctx context.Context, siteID primitive.ObjectID) ([]models.User, error) {
	if _, err := s.Store.Get(ctx, siteID); err != nil {
		return nil, err
	}
	return s.Store.ListUsersForSite(ctx, siteID)
}

type Statistics struct {
	MachinesTotal    int64
	MachinesOnline   int64
	BookingsTotal    int64
	BookingsToday    int64
	BookingsActive   int64
	RevenueTotal     float64
	RevenueToday     float64
}

// GetSiteStatistics implements §4.F: every figure computed on demand,
// no cached rollups.
func (s *Service) GetSiteStatistics(ctx context.Context, siteID primitive.ObjectID, now time.Time) (Statistics, error) {
	machinesTotal, machinesOnline, err := s.Store.CountMachines(ctx, siteID)
	if err != nil {
		return Statistics{}, err
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	total, today, active, revenue, revenueToday, err := s.Store.BookingCounts(ctx, siteID, dayStart, dayEnd)
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{
		MachinesTotal:  machinesTotal,
		MachinesOnline: machinesOnline,
		BookingsTotal:  total,
		BookingsToday:  today,
		BookingsActive: active,
		RevenueTotal:   revenue,
		RevenueToday:   revenueToday,
	}, nil
}

func (s *Service) Get(ctx context.Context, siteID primitive.ObjectID) (*models.Site, error) {
	return s.Store.Get(ctx, siteID)
}

func (s *Service) List(ctx context.Context) ([]models.Site, error) {
	return s.Store.List(ctx)
}
