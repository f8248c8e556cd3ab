package handlers

import (
	"net/http"
	"sync"

	"water-delivery-api/config"
	"water-delivery-api/models"
	"water-delivery-api/mpesa"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"
)

var (
	payClient     *mpesa.Client
	payClientOnce sync.Once
)

func mpesaClient() *mpesa.Client {
	payClientOnce.Do(func() {
		payClient = mpesa.NewClient(config.Mpesa)
	})
	return payClient
}

type InitiatePaymentRequest struct {
	PhoneNumber string  `json:"phone_number" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
}

// InitiatePayment triggers the STK push on the customer's phone and
// records the attempt. The returned reference is what order creation
// consumes once the gateway callback settles the payment.
func InitiatePayment(c *gin.Context) {
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	accountRef := "WD-" + uuid.NewString()[:8]
	resp, err := mpesaClient().InitiateSTKPush(c.Request.Context(), req.PhoneNumber, req.Amount, accountRef)
	if err != nil {
		respondError(c, err)
		return
	}

	payment := models.Payment{
		Reference:   resp.CheckoutRequestID,
		AccountRef:  accountRef,
		PhoneNumber: mpesa.NormalizePhone(req.PhoneNumber),
		Amount:      req.Amount,
		Status:      models.PaymentInitiated,
	}
	if err := config.DB.Create(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to record payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"reference": resp.CheckoutRequestID,
		"message":   "Payment request sent to your phone",
	})
}

// MpesaCallback receives the gateway's asynchronous result push and moves
// the payment to settled or failed. The gateway is always acknowledged
// with 200 once the body parses; there is no retry here.
func MpesaCallback(c *gin.Context) {
	result, err := mpesa.ParseCallback(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	var payment models.Payment
	if err := config.DB.Where("reference = ?", result.CheckoutRequestID).First(&payment).Error; err != nil {
		logrus.WithField("reference", result.CheckoutRequestID).Warn("callback for unknown payment")
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Unknown payment reference"})
		return
	}

	updates := map[string]interface{}{"result_desc": result.ResultDesc}
	if result.Success {
		updates["status"] = models.PaymentSettled
		updates["receipt_number"] = result.ReceiptNumber
	} else {
		updates["status"] = models.PaymentFailed
	}
	// initiated-only guard: a late or duplicate callback cannot flip a
	// payment that already settled or failed
	res := config.DB.Model(&models.Payment{}).
		Where("reference = ? AND status = ?", result.CheckoutRequestID, models.PaymentInitiated).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update payment"})
		return
	}

	logrus.WithFields(logrus.Fields{
		"reference": result.CheckoutRequestID,
		"success":   result.Success,
		"applied":   res.RowsAffected > 0,
	}).Info("mpesa callback processed")

	if result.Success {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Callback processed successfully"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": false, "error": result.ResultDesc})
}
