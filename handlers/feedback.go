package handlers

import (
	"net/http"

	"water-delivery-api/config"
	"water-delivery-api/middleware"
	"water-delivery-api/services"

	"github.com/gin-gonic/gin"
)

func feedbackService() *services.FeedbackService {
	return services.NewFeedbackService(config.DB)
}

type SubmitFeedbackRequest struct {
	OrderID uint   `json:"order_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// SubmitFeedback records a rating for a delivered order (customer only,
// once per order)
func SubmitFeedback(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feedback, err := feedbackService().Submit(userID, req.OrderID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Feedback submitted",
		"feedback": feedback,
	})
}

// ListFeedback returns all feedback with per-transporter average ratings
// (admin only)
func ListFeedback(c *gin.Context) {
	feedback, err := feedbackService().ListAll()
	if err != nil {
		respondError(c, err)
		return
	}

	type ratingAgg struct {
		sum   int
		count int
	}
	byTransporter := map[uint]*ratingAgg{}
	for _, f := range feedback {
		if f.TransporterID == nil {
			continue
		}
		agg := byTransporter[*f.TransporterID]
		if agg == nil {
			agg = &ratingAgg{}
			byTransporter[*f.TransporterID] = agg
		}
		agg.sum += f.Rating
		agg.count++
	}
	averages := map[uint]float64{}
	for id, agg := range byTransporter {
		averages[id] = float64(agg.sum) / float64(agg.count)
	}

	c.JSON(http.StatusOK, gin.H{
		"count":               len(feedback),
		"feedback":            feedback,
		"transporter_ratings": averages,
	})
}
