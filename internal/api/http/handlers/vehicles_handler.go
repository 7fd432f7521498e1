package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/api/dto"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/repository"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/service"
	apperrors "github.com/FleetTrackPigs/fleet-track-sub000/pkg/util"
)

// VehiclesHandler manages vehicle endpoints. Directory CRUD goes through
// the vehicle service; anything touching status or the driver relationship
// goes through the assignment coordinator.
type VehiclesHandler struct {
	vehicles    *service.VehicleService
	assignments *service.AssignmentService
	maintenance *service.MaintenanceService
}

// NewVehiclesHandler constructs handler.
func NewVehiclesHandler(vehicles *service.VehicleService, assignments *service.AssignmentService, maintenance *service.MaintenanceService) *VehiclesHandler {
	return &VehiclesHandler{vehicles: vehicles, assignments: assignments, maintenance: maintenance}
}

// ListVehicles GET /vehicles.
func (h *VehiclesHandler) ListVehicles(c *fiber.Ctx) error {
	filter := repository.VehicleFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.VehicleStatus(statusStr)
		if !domain.ValidVehicleStatus(status) {
			return apperrors.NewValidationError("invalid status filter", map[string]any{"status": statusStr})
		}
		filter.Status = &status
	}
	if brand := c.Query("brand"); brand != "" {
		filter.Brand = &brand
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	vehicles, err := h.vehicles.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]*dto.VehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		items = append(items, dto.NewVehicleResponse(&vehicles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateVehicle POST /vehicles.
func (h *VehiclesHandler) CreateVehicle(c *fiber.Ctx) error {
	var req dto.CreateVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	vehicle, err := h.vehicles.Create(c.UserContext(), service.VehicleCreateInput{
		Brand: req.Brand,
		Model: req.Model,
		Plate: req.Plate,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewVehicleResponse(vehicle)})
}

// GetVehicle GET /vehicles/:id returns the merged vehicle+driver view.
func (h *VehiclesHandler) GetVehicle(c *fiber.Ctx) error {
	view, err := h.assignments.GetVehicle(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mergedVehicle(view)})
}

// UpdateVehicle PATCH /vehicles/:id.
func (h *VehiclesHandler) UpdateVehicle(c *fiber.Ctx) error {
	var req dto.UpdateVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Plate != nil && strings.TrimSpace(*req.Plate) == "" {
		return apperrors.NewValidationError("plate must not be empty", nil)
	}
	view, err := h.assignments.UpdateVehicle(c.UserContext(), c.Params("id"), service.VehiclePatch{
		Brand:       req.Brand,
		Model:       req.Model,
		Plate:       req.Plate,
		DriverID:    req.DriverID.Value,
		DriverIDSet: req.DriverID.Set,
	})
	if err != nil {
		return err
	}
	return c.JSON(viewEnvelope(mergedVehicle(view), view.Warning))
}

// DeleteVehicle DELETE /vehicles/:id.
func (h *VehiclesHandler) DeleteVehicle(c *fiber.Ctx) error {
	if err := h.assignments.DeleteVehicle(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "vehicle deleted"})
}

// Assignment POST /vehicles/:id/assignment assigns (driverId set) or
// unassigns (driverId null) the vehicle.
func (h *VehiclesHandler) Assignment(c *fiber.Ctx) error {
	var req dto.AssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	var view *service.AssignmentView
	var err error
	if req.DriverID == nil {
		view, err = h.assignments.Unassign(c.UserContext(), c.Params("id"))
	} else {
		view, err = h.assignments.Assign(c.UserContext(), c.Params("id"), *req.DriverID)
	}
	if err != nil {
		return err
	}
	return c.JSON(viewEnvelope(mergedVehicle(view), view.Warning))
}

// SetStatus PUT /vehicles/:id/status.
func (h *VehiclesHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.SetVehicleStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := service.MaintenanceDetails{}
	if req.MaintenanceData != nil {
		details.ScheduledDate = req.MaintenanceData.ScheduledDate
		details.Description = req.MaintenanceData.Description
	}
	view, err := h.assignments.SetVehicleStatus(c.UserContext(), c.Params("id"), domain.VehicleStatus(req.Status), details)
	if err != nil {
		return err
	}
	body := dto.StatusChangeResponse{
		Vehicle:     dto.NewVehicleResponse(view.Vehicle),
		Maintenance: dto.NewMaintenanceResponse(view.Maintenance),
	}
	return c.JSON(viewEnvelope(body, view.Warning))
}

// ListMaintenance GET /vehicles/:id/maintenance.
func (h *VehiclesHandler) ListMaintenance(c *fiber.Ctx) error {
	vehicleID := c.Params("id")
	if _, err := h.vehicles.Get(c.UserContext(), vehicleID); err != nil {
		return err
	}
	entries, err := h.maintenance.ListForVehicle(c.UserContext(), vehicleID)
	if err != nil {
		return err
	}
	items := make([]*dto.MaintenanceResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewMaintenanceResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func mergedVehicle(view *service.AssignmentView) dto.MergedVehicleResponse {
	return dto.MergedVehicleResponse{
		Vehicle: dto.NewVehicleResponse(view.Vehicle),
		Driver:  dto.NewDriverResponse(view.Driver),
	}
}

// viewEnvelope wraps a response body, attaching the partial-failure warning
// when one is present. Dependent callers key off the 200 + warning shape.
func viewEnvelope(body any, warning string) fiber.Map {
	envelope := fiber.Map{"data": body}
	if warning != "" {
		envelope["warning"] = warning
	}
	return envelope
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
