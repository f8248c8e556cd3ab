package handlers

import (
	"net/http"

	"water-delivery-api/config"
	"water-delivery-api/models"

	"github.com/gin-gonic/gin"
)

// ListUsers returns all users, optionally filtered by role — admin only.
// The assignment screen uses ?role=transporter to pick a transporter.
func ListUsers(c *gin.Context) {
	var users []models.User
	query := config.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Order("created_at desc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}
