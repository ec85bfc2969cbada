package routes

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	"parking-core/config"
	"parking-core/internal/api/handlers"
	"parking-core/internal/api/middleware"
	"parking-core/internal/booking"
	"parking-core/internal/customerstore"
	"parking-core/internal/identity"
	"parking-core/internal/machine"
	"parking-core/internal/media"
	"parking-core/internal/models"
	"parking-core/internal/site"
	"parking-core/internal/socket"
)

// SetupRouter wires every handler against its service dependencies and
// registers the full endpoint surface behind role-scoped middleware groups.
// Per-site authorization within a role is enforced in the handlers
// themselves via internal/site.Authorize, which needs the target site id
// out of the path or body.
func SetupRouter(
	cfg config.Config,
	db *mongo.Database,
	identitySvc *identity.Service,
	customers *customerstore.Service,
	machines *machine.Service,
	bookings *booking.Service,
	sites *site.Service,
	uploader *media.Uploader,
	hub *socket.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	authHandler := &handlers.AuthHandler{Identity: identitySvc}
	customerHandler := &handlers.CustomerHandler{Customers: customers, Bookings: bookings}
	machineHandler := &handlers.MachineHandler{Machines: machines, Sites: sites}
	bookingHandler := &handlers.BookingHandler{Bookings: bookings, Sites: sites}
	siteHandler := &handlers.SiteHandler{Sites: sites}
	publicHandler := &handlers.PublicHandler{Customers: customers}
	healthHandler := &handlers.HealthHandler{DB: db}
	socketHandler := &handlers.SocketHandler{Hub: hub, AccessSecret: []byte(cfg.JWT.Secret)}
	mediaHandler := &handlers.MediaHandler{Uploader: uploader, Machines: machines, Sites: sites}

	router.GET("/health", healthHandler.Health)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", socketHandler.ServeWs)

		auth := apiV1.Group("/auth")
		auth.Use(middleware.RateLimit(rate.Limit(1), 5))
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		public := apiV1.Group("/public")
		public.Use(middleware.RateLimit(rate.Limit(1), 5))
		{
			public.POST("/membership/purchase", publicHandler.PurchaseMembership)
			public.POST("/membership/validate", publicHandler.ValidateMembership)
		}

		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate([]byte(cfg.JWT.Secret)))
		{
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/auth/profile", authHandler.Profile)
			protected.POST("/auth/change-password", authHandler.ChangePassword)

			// No role check: any caller holding a valid bearer access token
			// may record a machine heartbeat.
			protected.POST("/machines/:id/heartbeat", machineHandler.Heartbeat)

			staff := protected.Group("/")
			staff.Use(middleware.RequireRole(string(models.RoleAdmin), string(models.RoleSupervisor), string(models.RoleOperator)))
			{
				customersGroup := staff.Group("/customers")
				{
					customersGroup.POST("", customerHandler.Create)
					customersGroup.GET("/search", customerHandler.Search)
					customersGroup.GET("/:id", customerHandler.Get)
					customersGroup.POST("/:id/vehicles", customerHandler.AddVehicle)
					customersGroup.DELETE("/:id/vehicles/:vehicleId", customerHandler.RemoveVehicle)
					customersGroup.POST("/:id/memberships", customerHandler.CreateMembership)
					customersGroup.POST("/:id/memberships/deactivate", customerHandler.DeactivateMembership)
				}

				sitesGroup := staff.Group("/sites")
				{
					sitesGroup.GET("", siteHandler.List)
					sitesGroup.GET("/:id", siteHandler.Get)
					sitesGroup.GET("/:id/statistics", siteHandler.Statistics)
				}

				machinesGroup := staff.Group("/machines")
				{
					machinesGroup.GET("/:id", machineHandler.Get)
					machinesGroup.GET("/available", machineHandler.Available)
					machinesGroup.GET("/maintenance-due", machineHandler.MaintenanceDue)
					machinesGroup.GET("/site/:siteId", machineHandler.ListBySite)
					machinesGroup.POST("/:id/incident-media", mediaHandler.UploadIncidentEvidence)
					machinesGroup.POST("/:id/pallets/:n/occupy", machineHandler.OccupyPallet)
					machinesGroup.POST("/:id/pallets/:n/release", machineHandler.ReleasePallet)
					machinesGroup.POST("/:id/pallets/:n/release-vehicle", machineHandler.ReleasePalletVehicle)
					machinesGroup.POST("/:id/pallets/:n/maintenance", machineHandler.MaintainPallet)
				}

				bookingsGroup := staff.Group("/bookings")
				{
					bookingsGroup.POST("", bookingHandler.Create)
					bookingsGroup.POST("/:id/verify-otp", bookingHandler.VerifyOTP)
					bookingsGroup.POST("/:id/regenerate-otp", bookingHandler.GenerateNewOTP)
					bookingsGroup.POST("/:id/complete", bookingHandler.Complete)
					bookingsGroup.POST("/:id/cancel", bookingHandler.Cancel)
					bookingsGroup.POST("/:id/extend", bookingHandler.Extend)
					bookingsGroup.PUT("/:id", bookingHandler.Update)
					bookingsGroup.GET("", bookingHandler.List)
					bookingsGroup.GET("/search", bookingHandler.Search)
					bookingsGroup.GET("/active", bookingHandler.Active)
					bookingsGroup.GET("/stats", bookingHandler.Stats)
					bookingsGroup.GET("/vehicle/:plate", bookingHandler.ByVehicle)
					bookingsGroup.GET("/machine/:m", bookingHandler.ByMachine)
					bookingsGroup.GET("/:id", bookingHandler.Get)
				}
			}

			admin := protected.Group("/")
			admin.Use(middleware.RequireRole(string(models.RoleAdmin)))
			{
				adminSites := admin.Group("/sites")
				{
					adminSites.POST("", siteHandler.Create)
					adminSites.PUT("/:id", siteHandler.Update)
					adminSites.POST("/:id/deactivate", siteHandler.Deactivate)
					adminSites.DELETE("/:id", siteHandler.Delete)
					adminSites.POST("/:id/users", siteHandler.AssignUser)
					adminSites.GET("/:id/users", siteHandler.ListUsers)
				}

				adminMachines := admin.Group("/machines")
				{
					adminMachines.POST("", machineHandler.Register)
					adminMachines.POST("/:id/maintenance", machineHandler.SetMaintenance)
					adminMachines.POST("/:id/maintenance/clear", machineHandler.ClearMaintenance)
					adminMachines.POST("/:id/deactivate", machineHandler.Deactivate)
					adminMachines.POST("/:id/retype", machineHandler.Retype)
					adminMachines.POST("/:id/service-events", machineHandler.RecordServiceEvent)
				}

				adminCustomers := admin.Group("/customers")
				{
					adminCustomers.DELETE("/:id", customerHandler.Delete)
				}
			}
		}
	}

	return router
}
