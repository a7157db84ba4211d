package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fieldops/api-gateway/internal/apperr"
	"fieldops/api-gateway/internal/authz"
	"fieldops/api-gateway/internal/lifecycle"
	"fieldops/api-gateway/internal/session"
	"fieldops/api-gateway/middleware"
	"fieldops/api-gateway/models"
	"fieldops/api-gateway/utils"
)

// HistoryResponse is the body of the job history endpoint.
type HistoryResponse struct {
	JobID   uuid.UUID                   `json:"job_id"`
	History []models.StatusHistoryEntry `json:"history"`
}

// CompleteJob godoc
// @Summary Complete a job
// @Description Marks an in-progress job as completed with the client's signature, optional checklist, parts and notes.
// @Description Restores the engineer's availability and opens a pending payment when the job carries a fee.
// @Tags jobs
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   jobId path string true "Job ID (uuid)"
// @Param   completion body lifecycle.CompleteJobRequest true "Completion artifacts"
// @Success 200 {object} lifecycle.CompletionResult "Job completed"
// @Failure 400 {object} utils.ErrorBody "INVALID_ID or VALIDATION_ERROR"
// @Failure 401 {object} utils.ErrorBody "No valid session"
// @Failure 403 {object} utils.ErrorBody "Missing capability or not the job owner"
// @Failure 404 {object} utils.ErrorBody "Job not found"
// @Failure 409 {object} utils.ErrorBody "Job already completed or cancelled"
// @Failure 500 {object} utils.ErrorBody "Database or internal error"
// @Router /jobs/{jobId}/complete [post]
func (h *ApplicationHandler) CompleteJob(c *fiber.Ctx) error {
	sess, jobID, err := h.authorizeJobRequest(c, authz.ActionJobWrite)
	if err != nil {
		return h.fail(c, err)
	}

	var req lifecycle.CompleteJobRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperr.Wrap(apperr.KindValidation, err, "Request body must be a valid JSON completion payload"))
	}

	result, err := h.Jobs.Complete(c.UserContext(), sess, jobID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, result)
}

// TransitionJob godoc
// @Summary Change a job's status
// @Description Moves a job along its lifecycle (accepted, travelling, onsite) or cancels it. Completion has its own endpoint.
// @Tags jobs
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   jobId path string true "Job ID (uuid)"
// @Param   transition body lifecycle.TransitionRequest true "Target status"
// @Success 200 {object} models.Job "Updated job"
// @Failure 400 {object} utils.ErrorBody "INVALID_ID or VALIDATION_ERROR"
// @Failure 401 {object} utils.ErrorBody "No valid session"
// @Failure 403 {object} utils.ErrorBody "Missing capability or not the job owner"
// @Failure 404 {object} utils.ErrorBody "Job not found"
// @Failure 409 {object} utils.ErrorBody "Transition not allowed from the current status"
// @Failure 500 {object} utils.ErrorBody "Database or internal error"
// @Router /jobs/{jobId}/status [patch]
func (h *ApplicationHandler) TransitionJob(c *fiber.Ctx) error {
	sess, jobID, err := h.authorizeJobRequest(c, authz.ActionJobWrite)
	if err != nil {
		return h.fail(c, err)
	}

	var req lifecycle.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperr.Wrap(apperr.KindValidation, err, "Request body must be a valid JSON status change"))
	}

	job, err := h.Jobs.Transition(c.UserContext(), sess, jobID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, job)
}

// GetJob godoc
// @Summary Get a job
// @Tags jobs
// @Produce  json
// @Security BearerAuth
// @Param   jobId path string true "Job ID (uuid)"
// @Success 200 {object} models.Job
// @Failure 400 {object} utils.ErrorBody "INVALID_ID"
// @Failure 401 {object} utils.ErrorBody
// @Failure 403 {object} utils.ErrorBody
// @Failure 404 {object} utils.ErrorBody
// @Router /jobs/{jobId} [get]
func (h *ApplicationHandler) GetJob(c *fiber.Ctx) error {
	sess, jobID, err := h.authorizeJobRequest(c, authz.ActionJobRead)
	if err != nil {
		return h.fail(c, err)
	}

	job, err := h.Jobs.GetJob(c.UserContext(), sess, jobID)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, job)
}

// GetJobHistory godoc
// @Summary List a job's status history
// @Description Returns the audit trail of status changes, oldest first.
// @Tags jobs
// @Produce  json
// @Security BearerAuth
// @Param   jobId path string true "Job ID (uuid)"
// @Success 200 {object} HistoryResponse
// @Failure 400 {object} utils.ErrorBody "INVALID_ID"
// @Failure 401 {object} utils.ErrorBody
// @Failure 403 {object} utils.ErrorBody
// @Failure 404 {object} utils.ErrorBody
// @Router /jobs/{jobId}/history [get]
func (h *ApplicationHandler) GetJobHistory(c *fiber.Ctx) error {
	sess, jobID, err := h.authorizeJobRequest(c, authz.ActionJobRead)
	if err != nil {
		return h.fail(c, err)
	}

	history, err := h.Jobs.History(c.UserContext(), sess, jobID)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, HistoryResponse{JobID: jobID, History: history})
}

// authorizeJobRequest checks the caller's capability before the job id is
// looked at, so unauthenticated callers never learn whether an id is valid.
func (h *ApplicationHandler) authorizeJobRequest(c *fiber.Ctx, action authz.Action) (*session.Session, uuid.UUID, error) {
	sess := middleware.SessionFrom(c)
	if err := authz.Authorize(sess, action, nil); err != nil {
		return nil, uuid.Nil, err
	}

	jobIDStr := c.Params("jobId")
	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		return nil, uuid.Nil, apperr.InvalidID("Invalid job ID format").
			WithDetails(map[string]interface{}{"field": "jobId", "value": jobIDStr})
	}
	return sess, jobID, nil
}

// fail logs server-side failures with their cause and writes the error envelope.
func (h *ApplicationHandler) fail(c *fiber.Ctx, err error) error {
	appErr := apperr.From(err)
	if appErr.Kind.HTTPStatus() >= fiber.StatusInternalServerError {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFrom(c),
			"job_id":     c.Params("jobId"),
			"code":       appErr.Kind.Code(),
		}).Error("Job request failed")
	}
	return utils.RespondWithError(c, appErr)
}
