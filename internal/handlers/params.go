package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/BusselW/DDH3/internal/errors"
)

// pathID parses the :id path parameter. On failure it writes a 400 and
// returns false.
func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "id must be a positive integer", map[string]interface{}{
			"id": c.Param("id"),
		})
		return 0, false
	}
	return id, true
}
