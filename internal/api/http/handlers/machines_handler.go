package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// MachinesHandler manages machine endpoints.
type MachinesHandler struct {
	service *service.MachineService
}

// NewMachinesHandler constructs handler.
func NewMachinesHandler(machineService *service.MachineService) *MachinesHandler {
	return &MachinesHandler{service: machineService}
}

// List GET /machines.
func (h *MachinesHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := paging(c)
	machines, err := h.service.List(c.UserContext(), principal, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.MachineResponse, 0, len(machines))
	for i := range machines {
		items = append(items, machineResponse(&machines[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /machines.
func (h *MachinesHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.MachineRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	machine, err := h.service.Create(c.UserContext(), principal, service.MachineInput{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": machineResponse(machine)})
}

// Update PATCH /machines/:id.
func (h *MachinesHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.MachineRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	machine, err := h.service.Update(c.UserContext(), principal, c.Params("id"), service.MachineInput{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": machineResponse(machine)})
}

// Delete DELETE /machines/:id.
func (h *MachinesHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
