package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// AssignmentsHandler exposes assignment operations and the trail.
type AssignmentsHandler struct {
	service *service.AssignmentService
}

// NewAssignmentsHandler constructs handler.
func NewAssignmentsHandler(assignmentService *service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{service: assignmentService}
}

// Assign POST /requests/:id/assignment.
func (h *AssignmentsHandler) Assign(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	out, err := h.service.Assign(c.UserContext(), principal, c.Params("id"), req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(out)})
}

// Reassign PUT /requests/:id/assignment.
func (h *AssignmentsHandler) Reassign(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	out, err := h.service.Reassign(c.UserContext(), principal, c.Params("id"), req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(out)})
}

// Unassign DELETE /requests/:id/assignment.
func (h *AssignmentsHandler) Unassign(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	out, err := h.service.Unassign(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(out)})
}

// List GET /assignments.
func (h *AssignmentsHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := paging(c)
	items, err := h.service.List(c.UserContext(), principal, service.ListAssignmentsInput{
		RequestID:    c.Query("requestId"),
		TechnicianID: c.Query("technicianId"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": assignmentList(items)})
}

// Get GET /assignments/:id.
func (h *AssignmentsHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	a, err := h.service.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": assignmentResponse(a)})
}

// Delete DELETE /assignments/:id.
func (h *AssignmentsHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	out, err := h.service.Delete(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(out)})
}

// ListForTechnician GET /technicians/:id/assignments.
func (h *AssignmentsHandler) ListForTechnician(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := paging(c)
	items, err := h.service.ListForTechnician(c.UserContext(), principal, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": assignmentList(items)})
}

func assignmentList(items []domain.Assignment) []*dto.AssignmentResponse {
	resp := make([]*dto.AssignmentResponse, 0, len(items))
	for i := range items {
		resp = append(resp, assignmentResponse(&items[i]))
	}
	return resp
}
