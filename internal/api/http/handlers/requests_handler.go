package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// RequestsHandler exposes the request lifecycle.
type RequestsHandler struct {
	requests    *service.RequestService
	resolutions *service.ResolutionService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService, resolutions *service.ResolutionService) *RequestsHandler {
	return &RequestsHandler{requests: requests, resolutions: resolutions}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	out, err := h.requests.Create(c.UserContext(), principal, service.CreateRequestInput{
		Title:       req.Title,
		Description: req.Description,
		MachineID:   req.MachineID,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": mutationResponse(out)})
}

// List GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := paging(c)
	reqs, err := h.requests.List(c.UserContext(), principal, service.ListRequestsInput{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		AssignedTo: c.Query("assignedTo"),
		MachineID:  c.Query("machineId"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return err
	}
	items := make([]*dto.RequestResponse, 0, len(reqs))
	for i := range reqs {
		items = append(items, requestResponse(&reqs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	req, err := h.requests.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}

// Update PATCH /requests/:id.
func (h *RequestsHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRequestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	out, err := h.requests.UpdateDetails(c.UserContext(), principal, c.Params("id"), service.UpdateRequestInput{
		Title:       req.Title,
		Description: req.Description,
		MachineID:   req.MachineID,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(out)})
}

// UpdateStatus PATCH /requests/:id/status.
func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	out, err := h.requests.UpdateStatus(c.UserContext(), principal, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(out)})
}

// Delete DELETE /requests/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	out, err := h.requests.Delete(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	resp := mutationResponse(out)
	resp.RemovedAssignments = &out.RemovedAssignments
	return c.JSON(fiber.Map{"data": resp})
}

// RequestDeletion POST /requests/:id/deletion-requests.
func (h *RequestsHandler) RequestDeletion(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DeletionRequestRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	out, err := h.requests.RequestDeletion(c.UserContext(), principal, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": mutationResponse(out)})
}

// ListDeletionRequests GET /deletion-requests.
func (h *RequestsHandler) ListDeletionRequests(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := paging(c)
	items, err := h.requests.ListDeletionRequests(c.UserContext(), principal, limit, offset)
	if err != nil {
		return err
	}
	resp := make([]*dto.DeletionRequestResponse, 0, len(items))
	for i := range items {
		resp = append(resp, deletionRequestResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// History GET /requests/:id/history.
func (h *RequestsHandler) History(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := paging(c)
	entries, err := h.requests.History(c.UserContext(), principal, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.HistoryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.HistoryResponse{
			ID:        e.ID,
			RequestID: e.RequestID,
			ActorID:   e.ActorID,
			Action:    e.Action,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ProposeResolution POST /requests/:id/resolution.
func (h *RequestsHandler) ProposeResolution(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ProposeResolutionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	out, err := h.resolutions.Propose(c.UserContext(), principal, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(out)})
}

// DecideResolution POST /requests/:id/resolution/decision.
func (h *RequestsHandler) DecideResolution(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DecisionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	out, err := h.resolutions.Decide(c.UserContext(), principal, c.Params("id"), req.Decision)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(out)})
}
