package routes

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/onboarding-backend/controllers"
	"github.com/vnkhanh/onboarding-backend/middleware"
	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/services"
	"github.com/vnkhanh/onboarding-backend/utils"
	"github.com/vnkhanh/onboarding-backend/ws"
)

// Deps là các service đã khởi tạo mà router cần.
type Deps struct {
	DB       *gorm.DB
	Auth     *services.AuthService
	Progress *services.ProgressService
	Topics   *services.TopicService
	Accounts *services.AccountService
	Export   *services.ExportService
	Files    utils.FileStore
	Hub      *ws.Hub
	Logger   *slog.Logger

	AllowedOrigins []string // ["*"] là cho phép tất cả, không kèm credentials
}

func (d Deps) allowAll() bool {
	return len(d.AllowedOrigins) == 1 && d.AllowedOrigins[0] == "*"
}

func (d Deps) originAllowed(origin string) bool {
	if d.allowAll() {
		return true
	}
	for _, o := range d.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

func corsConfig(d Deps) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if d.allowAll() {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = d.AllowedOrigins
	cfg.AllowCredentials = true
	return cfg
}

// NewEngine tạo gin engine với recovery, request log, CORS và toàn bộ route.
func NewEngine(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(corsConfig(d)))
	}
	return SetupRouter(r, d)
}

func SetupRouter(r *gin.Engine, d Deps) *gin.Engine {
	health := controllers.NewHealthController(d.DB, d.Hub)
	r.GET("/ping", health.Ping)
	r.GET("/health", health.HealthCheck)

	authCtl := controllers.NewAuthController(d.Auth, d.Logger)
	progressCtl := controllers.NewProgressController(d.Progress, d.Topics, d.Accounts, d.Export, d.Logger)
	accountCtl := controllers.NewAccountController(d.Accounts, d.Logger)
	topicCtl := controllers.NewTopicController(d.Topics, d.Logger)
	fileCtl := controllers.NewFileController(d.Files, d.Logger)

	requireAuth := middleware.AuthMiddleware(d.Auth, d.Logger)
	teamView := middleware.RequirePermission(models.PermViewTeam)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", authCtl.Login)
		auth.POST("/refresh-token", authCtl.RefreshToken)
		auth.POST("/forgot-password", authCtl.ForgotPassword)
		auth.POST("/reset-password", authCtl.ResetPassword)
		auth.POST("/google", authCtl.GoogleLogin)

		auth.POST("/logout", middleware.SignedTokenMiddleware(d.Auth), authCtl.Logout)
		auth.GET("/me", requireAuth, authCtl.Me)
		auth.POST("/verify-token", requireAuth, authCtl.VerifyToken)
		auth.POST("/change-password", requireAuth, authCtl.ChangePassword)
	}

	progress := api.Group("/progress", requireAuth)
	{
		progress.GET("/topics", progressCtl.ListTopics)
		progress.GET("/members", teamView, progressCtl.ListMembers)
		progress.GET("/members/export", teamView, progressCtl.ExportMembers)

		// quyền "chính mình hoặc team:view" được kiểm tra trong controller
		progress.GET("/member/:id", progressCtl.MemberSummary)
		progress.GET("/member/:id/topics", progressCtl.MemberTopics)
		progress.POST("/member/:id/topic/:topicId/complete", progressCtl.CompleteTopic)
		progress.POST("/member/:id/topic/:topicId/start", progressCtl.StartTopic)
		progress.PATCH("/member/:id/topic/:topicId", progressCtl.UpdateTopic)
		progress.GET("/member/:id/activity", progressCtl.ListActivity)
		progress.POST("/member/:id/activity", progressCtl.AddActivity)
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("/team-members", teamView, accountCtl.TeamMembers)
		users.GET("/by-email/:email", teamView, accountCtl.GetUserByEmail)
		users.GET("/:id", accountCtl.GetUser)
		users.GET("/:id/subordinates", teamView, accountCtl.Subordinates)
	}

	admin := api.Group("/admin", requireAuth)
	{
		admin.POST("/users", middleware.RequirePermission(models.PermManageAccounts), accountCtl.CreateUser)

		//Quản lý chủ đề
		topics := admin.Group("/topics", middleware.RequirePermission(models.PermManageTopics))
		topics.GET("", topicCtl.GetTopics)
		topics.POST("", topicCtl.CreateTopic)
		topics.GET("/:id", topicCtl.GetTopic)
		topics.PUT("/:id", topicCtl.UpdateTopic)
		topics.PATCH("/:id/toggle-status", topicCtl.ToggleTopicStatus)
		topics.POST("/:id/documents", topicCtl.AddDocument)
		topics.POST("/:id/links", topicCtl.AddLink)
		topics.POST("/:id/contacts", topicCtl.AddContact)
	}

	files := api.Group("/files")
	{
		files.GET("/download/:name", fileCtl.Download)
		files.POST("/upload", requireAuth, middleware.RequirePermission(models.PermUploadFiles), fileCtl.Upload)
	}

	if d.Hub != nil {
		r.GET("/ws/dashboard", ws.DashboardHandler(d.Hub, d.Auth, d.originAllowed))
	}
	return r
}
