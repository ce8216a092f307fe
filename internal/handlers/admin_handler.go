package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/BusselW/DDH3/internal/errors"
	"github.com/BusselW/DDH3/internal/models"
	"github.com/BusselW/DDH3/internal/services"
)

// AdminHandler serves the create, edit and delete actions of the admin
// screens. Successful updates and deletes answer 204.
type AdminHandler struct {
	service services.AdminService
}

// NewAdminHandler creates a new AdminHandler instance.
func NewAdminHandler(service services.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// CreateLocation handles POST /api/v1/locations.
func (h *AdminHandler) CreateLocation(c *gin.Context) {
	var in models.LocationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierrors.BindError(c, err, "Invalid request body")
		return
	}

	loc, err := h.service.CreateLocation(c.Request.Context(), in)
	if err != nil {
		apierrors.FromError(c, err, "Failed to create location")
		return
	}

	c.JSON(http.StatusCreated, loc)
}

// UpdateLocation handles PATCH /api/v1/locations/:id.
func (h *AdminHandler) UpdateLocation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var patch models.LocationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.BindError(c, err, "Invalid request body")
		return
	}

	if err := h.service.UpdateLocation(c.Request.Context(), id, patch); err != nil {
		apierrors.FromError(c, err, "Failed to update location")
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteLocation handles DELETE /api/v1/locations/:id.
func (h *AdminHandler) DeleteLocation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteLocation(c.Request.Context(), id); err != nil {
		apierrors.FromError(c, err, "Failed to delete location")
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateProblem handles POST /api/v1/problems.
func (h *AdminHandler) CreateProblem(c *gin.Context) {
	var in models.ProblemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierrors.BindError(c, err, "Invalid request body")
		return
	}

	p, err := h.service.CreateProblem(c.Request.Context(), in)
	if err != nil {
		apierrors.FromError(c, err, "Failed to report problem")
		return
	}

	c.JSON(http.StatusCreated, p)
}

// UpdateProblem handles PATCH /api/v1/problems/:id.
func (h *AdminHandler) UpdateProblem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var patch models.ProblemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.BindError(c, err, "Invalid request body")
		return
	}

	if err := h.service.UpdateProblem(c.Request.Context(), id, patch); err != nil {
		apierrors.FromError(c, err, "Failed to update problem")
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteProblem handles DELETE /api/v1/problems/:id.
func (h *AdminHandler) DeleteProblem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProblem(c.Request.Context(), id); err != nil {
		apierrors.FromError(c, err, "Failed to delete problem")
		return
	}

	c.Status(http.StatusNoContent)
}
