package api

import (
	"net/http"

	"fieldcrm-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler, cfg *config.Config) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := AuthMiddleware(cfg.JWTSecret)

		leads := api.Group("/leads")
		leads.Use(auth)
		{
			leads.GET("", h.ListLeads)
			leads.GET("/:id", h.GetLead)
			leads.PATCH("/:id", h.UpdateLead)
			leads.GET("/:id/messages", h.LeadMessages)
		}

		messages := api.Group("/messages")
		messages.Use(auth)
		{
			messages.GET("/pending", h.PendingMessages)
			messages.POST("/:id/approve", h.ApproveMessage)
			messages.POST("/:id/reject", h.RejectMessage)
			messages.PATCH("/:id", h.EditMessage)
		}

		quotes := api.Group("/quotes")
		quotes.Use(auth)
		{
			quotes.GET("", h.ListQuotes)
			quotes.GET("/:id", h.GetQuote)
		}

		settings := api.Group("/settings")
		settings.Use(auth)
		{
			settings.GET("", h.GetSettings)
			settings.PUT("", h.UpdateSettings)
		}

		api.GET("/usage", auth, h.GetUsage)
	}
}
