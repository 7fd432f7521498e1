package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Vehicles *handlers.VehiclesHandler
	Drivers  *handlers.DriversHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	vehicles := app.Group("/vehicles")
	vehicles.Get("", cfg.Vehicles.ListVehicles)
	vehicles.Post("", cfg.Vehicles.CreateVehicle)
	vehicles.Get("/:id", cfg.Vehicles.GetVehicle)
	vehicles.Patch("/:id", cfg.Vehicles.UpdateVehicle)
	vehicles.Delete("/:id", cfg.Vehicles.DeleteVehicle)
	vehicles.Post("/:id/assignment", cfg.Vehicles.Assignment)
	vehicles.Put("/:id/status", cfg.Vehicles.SetStatus)
	vehicles.Get("/:id/maintenance", cfg.Vehicles.ListMaintenance)

	drivers := app.Group("/drivers")
	drivers.Get("", cfg.Drivers.ListDrivers)
	drivers.Post("", cfg.Drivers.CreateDriver)
	drivers.Get("/:id", cfg.Drivers.GetDriver)
	drivers.Patch("/:id", cfg.Drivers.UpdateDriver)
	drivers.Delete("/:id", cfg.Drivers.DeleteDriver)
}
