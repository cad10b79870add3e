package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/makeasinger/mashup/internal/model"
	"github.com/makeasinger/mashup/internal/service"
	"github.com/makeasinger/mashup/internal/validation"
	"github.com/makeasinger/mashup/pkg/response"
)

// MashupGenerator runs and reports mashup jobs
type MashupGenerator interface {
	Generate(ctx context.Context, req *model.MashupRequest, progress service.ProgressFunc) (*model.MashupResult, error)
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	Defaults() (clipCount, clipDuration int)
}

type MashupHandler struct {
	service MashupGenerator
}

func NewMashupHandler(svc MashupGenerator) *MashupHandler {
	return &MashupHandler{service: svc}
}

// Create handles POST /api/mashup
// @Summary Generate and email a mashup
// @Description Runs one job to completion. Pass jobId to follow progress on /ws/jobs/{jobId}.
// @Tags mashup
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body model.MashupForm true "Mashup form"
// @Success 200 {object} model.MashupResult
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/mashup [post]
func (h *MashupHandler) Create(c *fiber.Ctx) error {
	var form model.MashupForm
	if err := c.BodyParser(&form); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	req := form.Request(h.service.Defaults())

	result, err := h.service.Generate(c.UserContext(), &req, nil)
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			return response.ValidationError(c, verr.Message, formatValidationErrors(verr))
		case errors.Is(err, service.ErrBusy):
			return response.Busy(c, "A mashup is already being generated. Please try again shortly.")
		default:
			return response.JobFailed(c, string(service.FailedStage(err)), service.FailureMessage(err))
		}
	}

	return response.OK(c, result)
}

// Status handles GET /api/mashup/status/:jobId
// @Summary Get mashup job status
// @Tags mashup
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} model.Job
// @Failure 404 {object} response.ErrorResponse
// @Router /api/mashup/status/{jobId} [get]
func (h *MashupHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.service.GetJob(c.UserContext(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, job)
}

// formatValidationErrors returns the failing fields keyed to their tags
func formatValidationErrors(verr *validation.Error) interface{} {
	if len(verr.Fields) == 0 {
		return nil
	}
	return verr.Fields
}
