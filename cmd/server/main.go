package main

import (
	"civicform-backend/internal/config"
	"civicform-backend/internal/database"
	"civicform-backend/internal/handlers"
	"civicform-backend/internal/meta"
	"civicform-backend/internal/middleware"
	"civicform-backend/internal/notify"
	"civicform-backend/internal/services"
	"civicform-backend/internal/ws"

	_ "civicform-backend/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Civic Form API
// @version         1.0
// @description     Dynamic form definition, scheduling, submission and reporting for civic engagement
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	db := database.Connect(cfg, logger)
	database.AutoMigrate(db, logger)
	database.SeedLookups(db, logger)

	registry := meta.Default(db)
	hub := ws.NewHub(logger)
	notifier := notify.NewClient(cfg.NotifyBaseURL, cfg.NotifyAPIKey)

	authService := services.NewAuthService(db, cfg.JWTSecret)
	userService := services.NewUserService(db)
	formService := services.NewFormService(db)
	accessService := services.NewAccessibilityService(db)
	eventService := services.NewFormEventService(db, accessService, notifier, logger)
	submissionService := services.NewSubmissionService(db, hub)
	reportService := services.NewReportService(db, registry, userService)

	authHandler := handlers.NewAuthHandler(authService)
	formHandler := handlers.NewFormHandler(formService)
	fieldHandler := handlers.NewFormFieldHandler(formService)
	eventHandler := handlers.NewFormEventHandler(eventService, userService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, userService, cfg.UploadDir)
	reportHandler := handlers.NewReportHandler(reportService, userService)
	metaHandler := handlers.NewMetaHandler(registry)
	wsHandler := handlers.NewWSHandler(hub, logger)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Static("/uploads", cfg.UploadDir)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/form-events/:id", wsHandler.HandleEventFeed)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		forms := api.Group("/forms")
		forms.Use(middleware.JWTAuth(authService))
		{
			forms.GET("", formHandler.ListForms)
			forms.POST("", formHandler.CreateForm)
			forms.GET("/:id", formHandler.GetForm)
			forms.PUT("/:id", formHandler.UpdateForm)
			forms.DELETE("/:id", formHandler.DeleteForm)
			forms.POST("/:id/fields", fieldHandler.CreateField)
		}

		fields := api.Group("/fields")
		fields.Use(middleware.JWTAuth(authService))
		{
			fields.PUT("/:id", fieldHandler.UpdateField)
			fields.DELETE("/:id", fieldHandler.DeleteField)
			fields.POST("/:id/options", fieldHandler.CreateOption)
		}

		options := api.Group("/options")
		options.Use(middleware.JWTAuth(authService))
		{
			options.PUT("/:id", fieldHandler.UpdateOption)
			options.DELETE("/:id", fieldHandler.DeleteOption)
		}

		events := api.Group("/form-events")
		events.Use(middleware.JWTAuth(authService))
		{
			events.GET("", eventHandler.ListFormEvents)
			events.POST("", eventHandler.CreateFormEvent)
			events.GET("/:id", eventHandler.GetFormEvent)
			events.PUT("/:id", eventHandler.UpdateFormEvent)
			events.DELETE("/:id", eventHandler.DeleteFormEvent)
			events.POST("/:id/submissions", submissionHandler.Submit)
			events.GET("/:id/submissions", submissionHandler.ListEventSubmissions)
			events.GET("/:id/stats", submissionHandler.EventStats)
		}

		submissions := api.Group("/submissions")
		submissions.Use(middleware.JWTAuth(authService))
		{
			submissions.GET("/:id", submissionHandler.GetSubmission)
			submissions.PATCH("/:id/status", submissionHandler.UpdateSubmissionStatus)
			submissions.DELETE("/:id", submissionHandler.DeleteSubmission)
		}

		api.GET("/my-submissions", middleware.JWTAuth(authService), submissionHandler.MySubmissions)
		api.POST("/upload", middleware.JWTAuth(authService), submissionHandler.Upload)

		reports := api.Group("/reports")
		reports.Use(middleware.JWTAuth(authService))
		{
			reports.GET("/form-events/:id", reportHandler.EventReport)
		}

		metaGroup := api.Group("/meta")
		metaGroup.Use(middleware.JWTAuth(authService))
		{
			metaGroup.POST("/refresh", metaHandler.RefreshMeta)
			metaGroup.GET("/:table", metaHandler.ListMeta)
		}
	}

	logger.Info("server starting", zap.String("port", cfg.ServerPort))
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
