package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ethiogig/ethiogig-backend/internal/config"
	"github.com/ethiogig/ethiogig-backend/internal/http/handlers"
	"github.com/ethiogig/ethiogig-backend/internal/http/middleware"
	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	contractHandler *handlers.ContractHandler,
	escrowHandler *handlers.EscrowHandler,
	disputeHandler *handlers.DisputeHandler,
	drcHandler *handlers.DrcHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/users/me", userHandler.Me)
		protected.DELETE("/users/me", userHandler.DeleteMe)
		protected.PUT("/users/me/skills", userHandler.UpdateSkills)
		protected.GET("/users/:id/freelancer-profile", middleware.UUIDValidator("id"), userHandler.GetFreelancerProfile)

		protected.POST("/contracts", contractHandler.CreateContract)
		protected.GET("/contracts/active", contractHandler.CheckActive)
		protected.GET("/contracts/:id", middleware.UUIDValidator("id"), contractHandler.GetContract)
		protected.PATCH("/contracts/:id", middleware.UUIDValidator("id"), contractHandler.UpdateContract)
		protected.POST("/contracts/:id/updates", middleware.UUIDValidator("id"), contractHandler.ProposeUpdate)
		protected.PATCH("/contracts/:id/status", middleware.UUIDValidator("id"), contractHandler.UpdateStatus)
		protected.POST("/contracts/:id/accept", middleware.UUIDValidator("id"), contractHandler.Accept)

		protected.POST("/contracts/:id/milestones", middleware.UUIDValidator("id"), contractHandler.CreateMilestone)
		protected.GET("/contracts/:id/milestones", middleware.UUIDValidator("id"), contractHandler.ListMilestones)
		protected.PATCH("/milestones/:id", middleware.UUIDValidator("id"), contractHandler.UpdateMilestone)
		protected.POST("/milestones/:id/updates", middleware.UUIDValidator("id"), contractHandler.ProposeMilestoneUpdate)
		protected.PATCH("/milestones/:id/status", middleware.UUIDValidator("id"), contractHandler.UpdateMilestoneStatus)
		protected.POST("/milestones/:id/accept", middleware.UUIDValidator("id"), contractHandler.AcceptMilestone)

		protected.POST("/contracts/:id/escrows", middleware.UUIDValidator("id"), escrowHandler.CreateEscrow)
		protected.GET("/contracts/:id/escrows", middleware.UUIDValidator("id"), escrowHandler.ListByContract)
		protected.GET("/contracts/:id/escrows/fulfillment", middleware.UUIDValidator("id"), escrowHandler.Fulfillment)
		protected.GET("/escrows/:id", middleware.UUIDValidator("id"), escrowHandler.GetEscrow)
		protected.POST("/escrows/:id/release", middleware.UUIDValidator("id"), escrowHandler.Release)

		protected.POST("/disputes", disputeHandler.CreateDispute)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.GetDispute)
		protected.POST("/disputes/:id/response", middleware.UUIDValidator("id"), disputeHandler.Respond)
		protected.POST("/disputes/:id/cancel", middleware.UUIDValidator("id"), disputeHandler.Cancel)
		protected.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.Resolve)
		protected.POST("/disputes/:id/forward", middleware.UUIDValidator("id"), drcHandler.Forward)
		protected.GET("/disputes/:id/drc", middleware.UUIDValidator("id"), drcHandler.CheckInDRC)
		protected.POST("/disputes/:id/documents", middleware.UUIDValidator("id"), disputeHandler.UploadDocument)
		protected.POST("/disputes/:id/response/documents", middleware.UUIDValidator("id"), disputeHandler.UploadResponseDocument)
		protected.GET("/disputes/:id/documents", middleware.UUIDValidator("id"), disputeHandler.ListDocuments)
		protected.DELETE("/disputes/:id/documents", middleware.UUIDValidator("id"), disputeHandler.ClearDocuments)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.CountUnread)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
	}

	// Подтверждение депозита доступно только финансовому оператору.
	finance := api.Group("/")
	finance.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRoles(models.RoleFinance))
	{
		finance.POST("/escrows/:id/confirm-deposit", middleware.UUIDValidator("id"), escrowHandler.ConfirmDeposit)
	}

	// Вердикты выносят только менеджеры споров.
	drc := api.Group("/drc")
	drc.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRoles(models.RoleDisputeManager))
	{
		drc.POST("/forwarded/:id/resolve", middleware.UUIDValidator("id"), drcHandler.Resolve)
	}

	return r
}
