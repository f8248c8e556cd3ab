package handlers

import (
	"net/http"

	"water-delivery-api/config"
	"water-delivery-api/middleware"
	"water-delivery-api/models"
	"water-delivery-api/services"
	"water-delivery-api/statemachine"

	"github.com/gin-gonic/gin"
)

func orderService() *services.OrderService {
	return services.NewOrderService(config.DB, config.UnitPrice)
}

type PlaceOrderRequest struct {
	Quantity              int                   `json:"quantity" binding:"required,min=1"`
	DeliveryAddress       string                `json:"delivery_address" binding:"required"`
	PreferredDeliveryTime models.DeliveryWindow `json:"preferred_delivery_time" binding:"required"`
	SpecialInstructions   string                `json:"special_instructions"`
	PaymentMethod         models.PaymentMethod  `json:"payment_method"`
	PaymentReference      string                `json:"payment_reference"`
	// A client-submitted total is ignored; the server always recomputes it
	TotalAmount float64 `json:"total_amount"`
}

// PlaceOrder creates a new order (customer only)
func PlaceOrder(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := orderService().Create(services.CreateOrderInput{
		CustomerID:            customerID,
		Quantity:              req.Quantity,
		DeliveryAddress:       req.DeliveryAddress,
		PreferredDeliveryTime: req.PreferredDeliveryTime,
		SpecialInstructions:   req.SpecialInstructions,
		PaymentMethod:         req.PaymentMethod,
		PaymentReference:      req.PaymentReference,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// ListOrders returns orders scoped to the caller's role: customers see
// their own, transporters their assigned deliveries, admins everything.
func ListOrders(c *gin.Context) {
	userID := middleware.GetUserID(c)
	svc := orderService()

	switch middleware.GetRole(c) {
	case models.RoleAdmin:
		orders, err := svc.ListAll(models.OrderStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}

		// Dashboard summary: counts per status, revenue over delivered
		summary := map[string]int{}
		var totalRevenue float64
		for _, o := range orders {
			summary[string(o.Status)]++
			if o.Status == models.StatusDelivered {
				totalRevenue += o.TotalAmount
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"order_summary": summary,
			"total_revenue": totalRevenue,
			"count":         len(orders),
			"orders":        orders,
		})
	case models.RoleTransporter:
		orders, err := svc.ListForTransporter(userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
	default:
		orders, err := svc.ListForUser(userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
	}
}

// GetOrderDetail returns a single order with its status history. Customers
// and transporters only see orders that involve them.
func GetOrderDetail(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var orderID struct {
		ID uint `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&orderID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := orderService().Get(orderID.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	switch middleware.GetRole(c) {
	case models.RoleAdmin:
	case models.RoleTransporter:
		if order.TransporterID == nil || *order.TransporterID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "This order is not assigned to you"})
			return
		}
	default:
		if order.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "This order does not belong to you"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

type UpdateOrderRequest struct {
	ID            uint               `json:"id" binding:"required"`
	Status        models.OrderStatus `json:"status" binding:"required"`
	TransporterID uint               `json:"transporter_id"`
}

// UpdateOrder advances the order state machine. The requested status picks
// the transition; the service validates the caller against the order's
// current state (admin approves/rejects, the assigned transporter moves
// transit states).
func UpdateOrder(c *gin.Context) {
	actorID := middleware.GetUserID(c)

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := orderService()
	var (
		order *models.Order
		err   error
	)
	switch req.Status {
	case models.StatusApproved:
		order, err = svc.Approve(req.ID, actorID, req.TransporterID)
	case models.StatusRejected:
		order, err = svc.Reject(req.ID, actorID)
	case models.StatusInTransit:
		order, err = svc.StartTransit(req.ID, actorID)
	case models.StatusDelivered:
		order, err = svc.MarkDelivered(req.ID, actorID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be approved, rejected, in_transit or delivered"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}

// GetStateMachineInfo returns the full transition table for informational
// purposes
func GetStateMachineInfo(c *gin.Context) {
	var info []gin.H
	for _, t := range statemachine.GetAllTransitions() {
		info = append(info, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   info,
		"terminal_states": []models.OrderStatus{models.StatusRejected, models.StatusDelivered},
		"description":     "Water Delivery Order Lifecycle State Machine",
	})
}
