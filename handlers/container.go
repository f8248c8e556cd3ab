package handlers

import (
	"net/http"

	"water-delivery-api/config"
	"water-delivery-api/middleware"
	"water-delivery-api/services"

	"github.com/gin-gonic/gin"
)

func containerService() *services.ContainerService {
	return services.NewContainerService(config.DB)
}

type IntakeContainersRequest struct {
	Count  int     `json:"count" binding:"required,min=1"`
	Weight float64 `json:"weight"`
}

// IntakeContainers registers a batch of untested containers (admin only)
func IntakeContainers(c *gin.Context) {
	var req IntakeContainersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	containers, err := containerService().Intake(req.Count, req.Weight)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Containers registered",
		"count":      len(containers),
		"containers": containers,
	})
}

// ListContainers returns all containers (admin or tester)
func ListContainers(c *gin.Context) {
	containers, err := containerService().List(c.Query("untested") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(containers), "containers": containers})
}

type TestContainerRequest struct {
	ID        uint   `json:"id" binding:"required"`
	Approved  *bool  `json:"approved" binding:"required"`
	TestNotes string `json:"test_notes"`
}

// TestContainer records a quality test result (tester only). A container
// can only be tested once.
func TestContainer(c *gin.Context) {
	testerID := middleware.GetUserID(c)

	var req TestContainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	container, err := containerService().Test(req.ID, testerID, *req.Approved, req.TestNotes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Test result recorded",
		"container": container,
	})
}
