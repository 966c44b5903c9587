package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/adminkit/internal/middleware"
	"github.com/noah-isme/adminkit/internal/models"
	"github.com/noah-isme/adminkit/internal/service"
	"github.com/noah-isme/adminkit/pkg/crud"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
	"github.com/noah-isme/adminkit/pkg/response"
)

type userService interface {
	List(ctx context.Context, filter models.UserFilter) (*crud.Page[models.UserOut], error)
	All(ctx context.Context, filter models.UserFilter) ([]models.UserOut, error)
	Get(ctx context.Context, id int64) (*models.UserOut, error)
	Create(ctx context.Context, req models.CreateUserRequest) (*models.UserOut, error)
	Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.UserOut, error)
	Delete(ctx context.Context, id int64) (string, error)
}

type userExporter interface {
	ExportUsers(ctx context.Context, format string, filter models.UserFilter) (*service.ExportResult, error)
}

// UserHandler handles user CRUD endpoints.
type UserHandler struct {
	service  userService
	exporter userExporter
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService, exporter userExporter) *UserHandler {
	return &UserHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List users
// @Description Page through users with filtering and sorting
// @Tags Users
// @Produce json
// @Param name query string false "Name contains"
// @Param username query string false "Exact username"
// @Param is_superuser query bool false "Superuser filter"
// @Param is_active query bool false "Active filter"
// @Param order_by query string false "Sort order, e.g. {\"name\":\"desc\"}"
// @Param offset query int false "Offset, a multiple of limit"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter, err := bindFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, page)
}

// All godoc
// @Summary List all users
// @Description Return every user matching the filters without pagination
// @Tags Users
// @Produce json
// @Param name query string false "Name contains"
// @Param order_by query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /users/all [get]
func (h *UserHandler) All(c *gin.Context) {
	filter, err := bindFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	users, err := h.service.All(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, map[string]interface{}{"total": len(users)})
}

// Export godoc
// @Summary Export users
// @Description Download the filtered user list as CSV or PDF
// @Tags Users
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /users/export [get]
func (h *UserHandler) Export(c *gin.Context) {
	filter, err := bindFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.exporter.ExportUsers(c.Request.Context(), c.DefaultQuery("format", "csv"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

// Get godoc
// @Summary Get user
// @Description Get user detail
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user)
}

// Create godoc
// @Summary Create user
// @Description Create a new user from a JSON body or a form
// @Tags Users
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param payload body models.CreateUserRequest true "Create user payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if err := bindPayload(c, &req, "invalid create user payload"); err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetAuditTarget(c, strconv.FormatInt(user.ID, 10))
	response.Created(c, user)
}

// Update godoc
// @Summary Update user
// @Description Partially update a user. Superusers cannot be modified.
// @Tags Users
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param id path int true "User ID"
// @Param payload body models.UpdateUserRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateUserRequest
	if err := bindPayload(c, &req, "invalid update user payload"); err != nil {
		response.Error(c, err)
		return
	}
	if req.Empty() {
		response.Error(c, appErrors.InvalidArgument("no fields to update"))
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user)
}

// Delete godoc
// @Summary Delete user
// @Description Delete a user. Superusers cannot be deleted.
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	msg, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": msg})
}

func bindFilter(c *gin.Context) (models.UserFilter, error) {
	var filter models.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		return filter, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid query parameters")
	}
	return filter, nil
}
