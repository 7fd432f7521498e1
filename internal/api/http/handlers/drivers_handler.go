package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/api/dto"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/repository"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/service"
	apperrors "github.com/FleetTrackPigs/fleet-track-sub000/pkg/util"
)

// DriversHandler manages driver endpoints.
type DriversHandler struct {
	drivers     *service.DriverService
	assignments *service.AssignmentService
}

// NewDriversHandler constructs handler.
func NewDriversHandler(drivers *service.DriverService, assignments *service.AssignmentService) *DriversHandler {
	return &DriversHandler{drivers: drivers, assignments: assignments}
}

// ListDrivers GET /drivers.
func (h *DriversHandler) ListDrivers(c *fiber.Ctx) error {
	filter := repository.DriverFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.DriverStatus(statusStr)
		if !domain.ValidDriverStatus(status) {
			return apperrors.NewValidationError("invalid status filter", map[string]any{"status": statusStr})
		}
		filter.Status = &status
	}
	if c.QueryBool("assigned") {
		filter.AssignedOnly = true
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	drivers, err := h.drivers.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]*dto.DriverResponse, 0, len(drivers))
	for i := range drivers {
		items = append(items, dto.NewDriverResponse(&drivers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateDriver POST /drivers.
func (h *DriversHandler) CreateDriver(c *fiber.Ctx) error {
	var req dto.CreateDriverRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	driver, err := h.drivers.Create(c.UserContext(), service.DriverCreateInput{
		UserID:        req.UserID,
		Name:          req.Name,
		LastName:      req.LastName,
		Phone:         req.Phone,
		LicenseType:   req.LicenseType,
		LicenseExpiry: req.LicenseExpiry,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewDriverResponse(driver)})
}

// GetDriver GET /drivers/:id.
func (h *DriversHandler) GetDriver(c *fiber.Ctx) error {
	driver, err := h.drivers.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDriverResponse(driver)})
}

// UpdateDriver PATCH /drivers/:id.
func (h *DriversHandler) UpdateDriver(c *fiber.Ctx) error {
	var req dto.UpdateDriverRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch := service.DriverPatch{
		Name:          req.Name,
		LastName:      req.LastName,
		Phone:         req.Phone,
		LicenseType:   req.LicenseType,
		LicenseExpiry: req.LicenseExpiry,
		VehicleID:     req.VehicleID.Value,
		VehicleIDSet:  req.VehicleID.Set,
	}
	if req.Status != nil {
		status := domain.DriverStatus(*req.Status)
		patch.Status = &status
	}
	view, err := h.assignments.UpdateDriver(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	body := dto.MergedDriverResponse{
		Driver:  dto.NewDriverResponse(view.Driver),
		Vehicle: dto.NewVehicleResponse(view.Vehicle),
	}
	return c.JSON(viewEnvelope(body, view.Warning))
}

// DeleteDriver DELETE /drivers/:id.
func (h *DriversHandler) DeleteDriver(c *fiber.Ctx) error {
	warning, err := h.assignments.DeleteDriver(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	envelope := fiber.Map{"message": "driver deleted"}
	if warning != "" {
		envelope["warning"] = warning
	}
	return c.JSON(envelope)
}
