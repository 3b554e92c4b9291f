package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"github.com/brooklane/housecare/internal/repository"
	"github.com/brooklane/housecare/internal/service"
)

// principalKey is the gin context key holding the resolved user
const principalKey = "principal"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger *zap.Logger) *Handlers {
	return &Handlers{services: services, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool             `json:"success"`
	Data    interface{}      `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
	Reason  *workflow.Reason `json:"reason,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// IdentityMiddleware resolves the acting principal from the X-User-Email
// header and aborts with 401 when the account is unknown or inactive.
func (h *Handlers) IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader("X-User-Email")
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing X-User-Email header",
			})
			return
		}

		user, err := h.services.Users.GetByEmail(c.Request.Context(), email)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "unknown or inactive user",
			})
			return
		}

		c.Set(principalKey, user)
		c.Next()
	}
}

func (h *Handlers) principal(c *gin.Context) *entity.User {
	return c.MustGet(principalKey).(*entity.User)
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateUserRequest is the payload for POST /api/users
type CreateUserRequest struct {
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password" binding:"required,min=6"`
	Roles     []string `json:"roles" binding:"required"`
	FirstName string   `json:"first_name" binding:"required"`
	LastName  string   `json:"last_name" binding:"required"`
	Phone     string   `json:"phone"`
}

// CreateUser handles POST /api/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.services.Users.Create(c.Request.Context(), h.principal(c), service.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		Roles:     req.Roles,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: user})
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.services.Users.List(c.Request.Context(), h.principal(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: users})
}

// GetUser handles GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.services.Users.Get(c.Request.Context(), h.principal(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

// UpdateUserRequest is the payload for PUT /api/users/:id
type UpdateUserRequest struct {
	Roles     []string `json:"roles"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Phone     string   `json:"phone"`
	IsActive  *bool    `json:"is_active"`
}

// UpdateUser handles PUT /api/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	principal := h.principal(c)
	user, err := h.services.Users.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if req.Roles != nil {
		user.Roles = req.Roles
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.services.Users.Update(c.Request.Context(), principal, user); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

// HouseRequest is the payload for creating or updating a house
type HouseRequest struct {
	Name         string `json:"name" binding:"required"`
	Address      string `json:"address" binding:"required"`
	City         string `json:"city" binding:"required"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Description  string `json:"description"`
	Bedrooms     int    `json:"bedrooms"`
	Bathrooms    int    `json:"bathrooms"`
	SquareMeters int    `json:"square_meters"`
	OwnerID      int64  `json:"owner_id" binding:"required"`
	IsActive     *bool  `json:"is_active"`
}

func (r *HouseRequest) apply(house *entity.House) {
	house.Name = r.Name
	house.Address = r.Address
	house.City = r.City
	house.PostalCode = r.PostalCode
	house.Country = r.Country
	house.Description = r.Description
	house.Bedrooms = r.Bedrooms
	house.Bathrooms = r.Bathrooms
	house.SquareMeters = r.SquareMeters
	house.OwnerID = r.OwnerID
	if r.IsActive != nil {
		house.IsActive = *r.IsActive
	}
}

// CreateHouse handles POST /api/houses
func (h *Handlers) CreateHouse(c *gin.Context) {
	var req HouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	house := &entity.House{IsActive: true}
	req.apply(house)

	if err := h.services.Houses.Create(c.Request.Context(), h.principal(c), house); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: house})
}

// ListHouses handles GET /api/houses
func (h *Handlers) ListHouses(c *gin.Context) {
	houses, err := h.services.Houses.List(c.Request.Context(), h.principal(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: houses})
}

// GetHouse handles GET /api/houses/:id
func (h *Handlers) GetHouse(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	house, err := h.services.Houses.Get(c.Request.Context(), h.principal(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: house})
}

// UpdateHouse handles PUT /api/houses/:id
func (h *Handlers) UpdateHouse(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req HouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	principal := h.principal(c)
	house, err := h.services.Houses.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	req.apply(house)

	if err := h.services.Houses.Update(c.Request.Context(), principal, house); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: house})
}

// DeleteHouse handles DELETE /api/houses/:id
func (h *Handlers) DeleteHouse(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Houses.Delete(c.Request.Context(), h.principal(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// CreateServiceRequestRequest is the payload for POST /api/requests
type CreateServiceRequestRequest struct {
	HouseID           int64     `json:"house_id" binding:"required"`
	ServiceType       string    `json:"service_type" binding:"required"`
	ScheduledDate     time.Time `json:"scheduled_date" binding:"required"`
	Description       string    `json:"description"`
	Notes             string    `json:"notes"`
	EstimatedDuration float64   `json:"estimated_duration"`
	Priority          string    `json:"priority"`
	AssignedCleanerID *int64    `json:"assigned_cleaner_id"`
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var req CreateServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	request, err := h.services.Requests.Create(c.Request.Context(), h.principal(c), service.CreateRequestInput{
		HouseID:           req.HouseID,
		ServiceType:       req.ServiceType,
		ScheduledDate:     req.ScheduledDate,
		Description:       req.Description,
		Notes:             req.Notes,
		EstimatedDuration: req.EstimatedDuration,
		Priority:          req.Priority,
		AssignedCleanerID: req.AssignedCleanerID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: request})
}

// ListRequests handles GET /api/requests. The service narrows the result
// set to what the principal's role may see.
func (h *Handlers) ListRequests(c *gin.Context) {
	requests, err := h.services.Requests.List(c.Request.Context(), h.principal(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.services.Requests.Get(c.Request.Context(), h.principal(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// UpdateServiceRequestRequest is the payload for PUT /api/requests/:id
type UpdateServiceRequestRequest struct {
	ServiceType       string    `json:"service_type" binding:"required"`
	ScheduledDate     time.Time `json:"scheduled_date" binding:"required"`
	Description       string    `json:"description"`
	Notes             string    `json:"notes"`
	EstimatedDuration float64   `json:"estimated_duration"`
	ActualDuration    float64   `json:"actual_duration"`
	Priority          string    `json:"priority"`
}

// UpdateRequest handles PUT /api/requests/:id
func (h *Handlers) UpdateRequest(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	request, err := h.services.Requests.Update(c.Request.Context(), h.principal(c), id, service.UpdateRequestInput{
		ServiceType:       req.ServiceType,
		ScheduledDate:     req.ScheduledDate,
		Description:       req.Description,
		Notes:             req.Notes,
		EstimatedDuration: req.EstimatedDuration,
		ActualDuration:    req.ActualDuration,
		Priority:          req.Priority,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// DeleteRequest handles DELETE /api/requests/:id
func (h *Handlers) DeleteRequest(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Requests.Delete(c.Request.Context(), h.principal(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ApplyTransitionRequest is the optional payload for a transition
type ApplyTransitionRequest struct {
	AssignedCleanerID *int64 `json:"assigned_cleaner_id"`
}

// ApplyTransition handles POST /api/requests/:id/transitions/:name
func (h *Handlers) ApplyTransition(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	name := c.Param("name")

	var req ApplyTransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, err)
			return
		}
	}

	detail, err := h.services.Requests.ApplyTransition(c.Request.Context(), h.principal(c), id, name, service.TransitionOptions{
		AssignCleanerID: req.AssignedCleanerID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// CreateTaskRequest is the payload for POST /api/requests/:id/tasks
type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
	IsRequired  bool   `json:"is_required"`
}

// CreateTask handles POST /api/requests/:id/tasks
func (h *Handlers) CreateTask(c *gin.Context) {
	requestID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	task := &entity.ServiceTask{
		RequestID:   requestID,
		Title:       req.Title,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsRequired:  req.IsRequired,
	}
	if err := h.services.Tasks.Create(c.Request.Context(), h.principal(c), requestID, task); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: task})
}

// ListTasks handles GET /api/requests/:id/tasks
func (h *Handlers) ListTasks(c *gin.Context) {
	requestID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	tasks, err := h.services.Tasks.ListByRequest(c.Request.Context(), h.principal(c), requestID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: tasks})
}

// UpdateTaskStatusRequest is the payload for PATCH /api/tasks/:id/status
type UpdateTaskStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	CompletionNotes string `json:"completion_notes"`
}

// UpdateTaskStatus handles PATCH /api/tasks/:id/status
func (h *Handlers) UpdateTaskStatus(c *gin.Context) {
	taskID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	task, err := h.services.Tasks.UpdateStatus(c.Request.Context(), h.principal(c), taskID, req.Status, req.CompletionNotes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: task})
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *Handlers) DeleteTask(c *gin.Context) {
	taskID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Tasks.Delete(c.Request.Context(), h.principal(c), taskID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// Dashboard handles GET /api/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	summary, err := h.services.Dashboard.Summary(c.Request.Context(), h.principal(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// ScheduleReport handles GET /api/reports/schedule.xlsx
func (h *Handlers) ScheduleReport(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="schedule.xlsx"`)

	if err := h.services.Reports.WriteSchedule(c.Request.Context(), h.principal(c), c.Writer); err != nil {
		// Headers may already be out; log and surface what we can.
		h.logger.Error("Schedule report failed", zap.Error(err))
		h.writeError(c, err)
	}
}

func (h *Handlers) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid " + name + " parameter",
		})
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   err.Error(),
	})
}

// writeError maps service and workflow errors to HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	var rejected *workflow.GuardRejectedError

	switch {
	case errors.As(err, &rejected):
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Error:   rejected.Error(),
			Reason:  &rejected.Reason,
		})
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrUnknownTransition):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, repository.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "internal server error",
		})
	}
}
