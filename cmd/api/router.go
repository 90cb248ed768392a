package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flowdesk-backend/internal/auth/delivery"
	clientDelivery "flowdesk-backend/internal/client/delivery"
	projectDelivery "flowdesk-backend/internal/project/delivery"
	taskDelivery "flowdesk-backend/internal/task/delivery"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	authHandler := delivery.NewAuthHandler(h.authUsecase)
	taskHandler := taskDelivery.NewTaskHandler(h.taskUsecase)
	projectHandler := projectDelivery.NewProjectHandler(h.projectUsecase)
	clientHandler := clientDelivery.NewClientHandler(h.clientUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint
		api.GET("/events", delivery.AuthMiddleware(h.authUsecase), func(c *gin.Context) {
			userID := c.GetString("userID")
			h.sseManager.ServeHTTP(c, userID)
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(h.authUsecase), authHandler.Me)
		}

		// Device token routes (protected) - push notification targets
		devices := api.Group("/devices")
		devices.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			devices.POST("/register", authHandler.RegisterDeviceToken)
			devices.DELETE("/:token", authHandler.UnregisterDeviceToken)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			tasks.GET("", taskHandler.GetTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTaskByID)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.PATCH("/:id/status", taskHandler.UpdateTaskStatus)
			tasks.PATCH("/:id/toggle", taskHandler.ToggleTaskDone)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			projects.GET("", projectHandler.GetProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/:id", projectHandler.GetProjectByID)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
		}

		// Client routes (protected)
		clients := api.Group("/clients")
		clients.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			clients.GET("", clientHandler.GetClients)
			clients.POST("", clientHandler.CreateClient)
			clients.GET("/:id", clientHandler.GetClientByID)
			clients.PUT("/:id", clientHandler.UpdateClient)
			clients.DELETE("/:id", clientHandler.DeleteClient)
			clients.GET("/:id/total-spent", clientHandler.GetClientTotalSpent)
			clients.POST("/:id/touch", clientHandler.TouchClientContact)
		}

		// Automation routes (protected) - diagnostic engine and its outputs
		automation := api.Group("/automation")
		automation.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			automation.POST("/diagnostic", h.automationHandler.RunDiagnostic)
			automation.GET("/approvals", h.automationHandler.GetApprovals)
			automation.POST("/approvals/:id/approve", h.automationHandler.ApproveRequest)
			automation.POST("/approvals/:id/reject", h.automationHandler.RejectRequest)
			automation.GET("/risks", h.automationHandler.GetRisks)
			automation.POST("/risks/:id/acknowledge", h.automationHandler.AcknowledgeRisk)
			automation.GET("/handled", h.automationHandler.GetHandled)
			automation.GET("/mode", h.automationHandler.GetMode)
			automation.PUT("/mode", h.automationHandler.SetMode)
		}

		// Assistant routes (protected) - only when an AI provider is configured
		if h.assistantHandler != nil {
			assistant := api.Group("/assistant")
			assistant.Use(delivery.AuthMiddleware(h.authUsecase))
			{
				assistant.POST("/execute", h.assistantHandler.Execute)
				assistant.GET("/tools", h.assistantHandler.GetTools)
				assistant.GET("/runs", h.assistantHandler.GetRuns)
			}
		}

		// Settings routes (public) - Runtime configuration
		settings := api.Group("/settings")
		{
			settings.GET("/ollama", GetOllamaSettings)
			settings.PUT("/ollama", UpdateOllamaSettings)
			settings.POST("/ollama/test", TestOllamaConnection)
			settings.GET("/automation", h.GetAutomationSettings)
		}
	}
}
