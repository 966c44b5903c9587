package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/adminkit/internal/middleware"
	"github.com/noah-isme/adminkit/internal/models"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
	"github.com/noah-isme/adminkit/pkg/response"
)

type taskService interface {
	Submit(ctx context.Context, req models.TaskRequest) (*models.TaskAck, error)
}

// TaskHandler submits background tasks.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(svc taskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// Submit godoc
// @Summary Run a background task
// @Description Queue a task with free-form args and kwargs; it runs after the response is sent
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body models.TaskRequest false "Task arguments"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Submit(c *gin.Context) {
	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}

	ack, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetAuditTarget(c, ack.ID)
	response.JSON(c, http.StatusAccepted, ack)
}
