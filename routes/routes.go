package routes

import (
	"water-delivery-api/handlers"
	"water-delivery-api/middleware"
	"water-delivery-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// Gateway result push — the external gateway has no JWT
	r.POST("/callback", handlers.MpesaCallback)

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)
		auth.POST("/mpesa/payment", handlers.InitiatePayment)

		// Listing branches on the caller's role; detail checks ownership
		auth.GET("/orders", handlers.ListOrders)
		auth.GET("/orders/:id", handlers.GetOrderDetail)

		auth.POST("/orders",
			middleware.RoleRequired(models.RoleCustomer), handlers.PlaceOrder)
		auth.PUT("/orders",
			middleware.RoleRequired(models.RoleAdmin, models.RoleTransporter), handlers.UpdateOrder)

		auth.POST("/feedback",
			middleware.RoleRequired(models.RoleCustomer), handlers.SubmitFeedback)
		auth.GET("/feedback",
			middleware.RoleRequired(models.RoleAdmin), handlers.ListFeedback)

		auth.GET("/containers",
			middleware.RoleRequired(models.RoleAdmin, models.RoleTester), handlers.ListContainers)
		auth.PUT("/containers",
			middleware.RoleRequired(models.RoleTester), handlers.TestContainer)
		auth.POST("/containers",
			middleware.RoleRequired(models.RoleAdmin), handlers.IntakeContainers)

		auth.GET("/users",
			middleware.RoleRequired(models.RoleAdmin), handlers.ListUsers)
	}
}
