package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/service"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

func currentPrincipal(c *fiber.Ctx) (domain.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Principal{}, apperrors.NewUnauthenticated("authentication required")
	}
	return principal, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

// paging reads limit/offset query parameters; zero lets the store pick its
// default page size.
func paging(c *fiber.Ctx) (int, int) {
	return parseInt(c.Query("limit"), 0), parseInt(c.Query("offset"), 0)
}

func requestResponse(r *domain.Request) *dto.RequestResponse {
	if r == nil {
		return nil
	}
	resp := &dto.RequestResponse{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		MachineID:    r.MachineID,
		Priority:     r.Priority,
		Status:       r.Status,
		CreatedBy:    r.CreatedBy,
		AssignedTo:   r.AssignedTo,
		AssignedBy:   r.AssignedBy,
		Participants: append([]string{}, r.Participants...),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if res := r.Resolution; res != nil {
		phase := res.Phase
		resp.ResolutionRequestStatus = &phase
		resp.Resolution = &dto.ResolutionResponse{
			Phase:      res.Phase,
			Outcome:    res.Outcome,
			ProposedBy: res.ProposedBy,
			ProposedAt: res.ProposedAt,
			DecidedBy:  res.DecidedBy,
			DecidedAt:  res.DecidedAt,
		}
		if res.Phase == domain.ResolutionPending {
			resp.PendingResolution = &dto.PendingResolution{Status: res.Outcome, By: res.ProposedBy, At: res.ProposedAt}
		}
		resp.UserApproval = userApproval(r)
	}
	return resp
}

// userApproval reports the creator's verdict: pending while a proposal is
// open, and the decision only when the creator made it.
func userApproval(r *domain.Request) *string {
	res := r.Resolution
	switch {
	case res.Phase == domain.ResolutionPending:
		v := "pending"
		return &v
	case res.DecidedBy != nil && *res.DecidedBy == r.CreatedBy:
		v := string(res.Phase)
		return &v
	default:
		return nil
	}
}

func assignmentResponse(a *domain.Assignment) *dto.AssignmentResponse {
	if a == nil {
		return nil
	}
	return &dto.AssignmentResponse{
		ID:           a.ID,
		RequestID:    a.RequestID,
		TechnicianID: a.TechnicianID,
		AssignedBy:   a.AssignedBy,
		AssignedAt:   a.AssignedAt,
	}
}

func deletionRequestResponse(d *domain.DeletionRequest) *dto.DeletionRequestResponse {
	if d == nil {
		return nil
	}
	return &dto.DeletionRequestResponse{
		ID:          d.ID,
		RequestID:   d.RequestID,
		RequestedBy: d.RequestedBy,
		Reason:      d.Reason,
		CreatedAt:   d.CreatedAt,
	}
}

func mutationResponse(out *service.Outcome) dto.MutationResponse {
	resp := dto.MutationResponse{
		Request:         requestResponse(out.Request),
		Assignment:      assignmentResponse(out.Assignment),
		DeletionRequest: deletionRequestResponse(out.DeletionRequest),
		Intents:         make([]dto.IntentResponse, 0, len(out.Intents)),
	}
	for _, intent := range out.Intents {
		resp.Intents = append(resp.Intents, dto.IntentResponse{Type: intent.Type, Target: intent.Target, Message: intent.Message})
	}
	return resp
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func machineResponse(m *domain.Machine) dto.MachineResponse {
	return dto.MachineResponse{
		ID:          m.ID,
		Name:        m.Name,
		Location:    m.Location,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
