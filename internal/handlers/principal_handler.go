package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/BusselW/DDH3/internal/errors"
	"github.com/BusselW/DDH3/internal/models"
	"github.com/BusselW/DDH3/internal/services"
)

// PrincipalHandler serves the people picker.
type PrincipalHandler struct {
	service services.PrincipalService
}

// NewPrincipalHandler creates a new PrincipalHandler instance.
func NewPrincipalHandler(service services.PrincipalService) *PrincipalHandler {
	return &PrincipalHandler{service: service}
}

// PrincipalsResponse is the body of GET /api/v1/principals.
type PrincipalsResponse struct {
	Principals []models.Principal `json:"principals"`
	Count      int                `json:"count"`
}

// Search handles GET /api/v1/principals?q=.
func (h *PrincipalHandler) Search(c *gin.Context) {
	principals, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		apierrors.FromError(c, err, "Failed to search people")
		return
	}

	c.JSON(http.StatusOK, PrincipalsResponse{
		Principals: principals,
		Count:      len(principals),
	})
}
