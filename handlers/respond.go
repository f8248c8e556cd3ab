package handlers

import (
	"water-delivery-api/apperrors"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error kind to its HTTP status.
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
}
