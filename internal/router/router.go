package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nemu-commission-api/internal/cache"
	"nemu-commission-api/internal/client"
	"nemu-commission-api/internal/handler"
	"nemu-commission-api/internal/metrics"
	"nemu-commission-api/internal/middleware"
	"nemu-commission-api/internal/repository"
	"nemu-commission-api/internal/service"
)

const serviceName = "nemu-commission-api"

// Config holds router configuration. Nil collaborators fall back to
// disabled or in-memory implementations.
type Config struct {
	DB             *gorm.DB
	Logger         *zap.Logger
	JWTSecret      string
	BasePath       string
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer

	S3Client  client.S3ClientInterface
	Payments  client.PaymentClient
	Chat      client.ChatClient
	Notifier  client.NotificationClient
	Events    client.EventPublisher
	Locker    cache.Locker
	LockTTL   time.Duration
	ReadCache cache.ReadCache
	Hub       *handler.KanbanHub
}

func (cfg *Config) applyDefaults() {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewWithRegistry(prometheus.NewRegistry(), cfg.Logger)
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.S3Client == nil {
		cfg.S3Client = client.NewMockS3Client()
	}
	if cfg.Payments == nil {
		cfg.Payments = client.NewDisabledPaymentClient()
	}
	if cfg.Chat == nil {
		cfg.Chat = client.NewDisabledChatClient()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = client.NewNoOpNotificationClient()
	}
	if cfg.Events == nil {
		cfg.Events = client.NewNoopEventPublisher()
	}
	if cfg.Locker == nil {
		cfg.Locker = cache.NewMemoryLocker()
	}
	if cfg.ReadCache == nil {
		cfg.ReadCache = cache.NewNoopReadCache()
	}
	if cfg.Hub == nil {
		cfg.Hub = handler.NewKanbanHub(cfg.Logger, cfg.Metrics)
	}
}

// Setup sets up the router with all routes
func Setup(cfg Config) *gin.Engine {
	cfg.applyDefaults()

	r := gin.New()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))

	metricsHandler := gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	r.GET("/metrics", metricsHandler)

	r.GET("/health", health)
	r.GET("/ready", ready(cfg.DB))

	// Initialize repositories
	requestRepo := repository.NewRequestRepository(cfg.DB)
	commissionRepo := repository.NewCommissionRepository(cfg.DB)
	formRepo := repository.NewFormRepository(cfg.DB)
	userRepo := repository.NewUserRepository(cfg.DB)
	artistRepo := repository.NewArtistRepository(cfg.DB)
	invoiceRepo := repository.NewInvoiceRepository(cfg.DB)
	customerRepo := repository.NewStripeCustomerRepository(cfg.DB)
	kanbanRepo := repository.NewKanbanRepository(cfg.DB)
	attachmentRepo := repository.NewAttachmentRepository(cfg.DB)

	// Initialize services
	requestService := service.NewRequestService(service.RequestServiceDeps{
		Requests:    requestRepo,
		Commissions: commissionRepo,
		Forms:       formRepo,
		Users:       userRepo,
		Artists:     artistRepo,
		Invoices:    invoiceRepo,
		Customers:   customerRepo,
		Kanbans:     kanbanRepo,
		Payments:    cfg.Payments,
		Chat:        cfg.Chat,
		Notifier:    cfg.Notifier,
		Events:      cfg.Events,
		Locker:      cfg.Locker,
		LockTTL:     cfg.LockTTL,
		Cache:       cfg.ReadCache,
	}, cfg.Metrics, cfg.Logger)
	invoiceService := service.NewInvoiceService(invoiceRepo, requestRepo, artistRepo,
		cfg.Payments, cfg.Notifier, cfg.Events, cfg.ReadCache, cfg.Metrics, cfg.Logger)
	kanbanService := service.NewKanbanService(kanbanRepo, requestRepo, artistRepo,
		cfg.Locker, cfg.Hub, cfg.Metrics, cfg.Logger)
	formService := service.NewFormService(formRepo, artistRepo, cfg.Logger)

	// Initialize handlers
	requestHandler := handler.NewRequestHandler(requestService, cfg.Logger)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, cfg.Logger)
	kanbanHandler := handler.NewKanbanHandler(kanbanService, cfg.Hub, cfg.Logger)
	formHandler := handler.NewFormHandler(formService, cfg.Logger)
	attachmentHandler := handler.NewAttachmentHandler(cfg.S3Client, attachmentRepo, cfg.Logger)

	api := r.Group(cfg.BasePath)
	if cfg.BasePath != "" && cfg.BasePath != "/" {
		// Ingress routes only the base path to this service
		api.GET("/metrics", metricsHandler)
		api.GET("/health", health)
		api.GET("/ready", ready(cfg.DB))
	}
	api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public form reads so customers can render a form before signing in
	api.GET("/forms/palette", formHandler.GetPalette)
	api.GET("/forms/:formId", formHandler.GetForm)
	api.GET("/forms/:formId/render", formHandler.RenderForm)

	authMiddleware := middleware.Auth(cfg.JWTSecret, userRepo, cfg.Logger)

	authed := api.Group("")
	authed.Use(authMiddleware)
	{
		forms := authed.Group("/forms")
		{
			forms.POST("", formHandler.CreateForm)
			forms.POST("/:formId/fields", formHandler.AddField)
			forms.PATCH("/:formId/fields/:fieldId", formHandler.UpdateField)
			forms.DELETE("/:formId/fields/:fieldId", formHandler.RemoveField)
			forms.POST("/:formId/fields/:fieldId/move", formHandler.MoveField)
		}

		requests := authed.Group("/requests")
		{
			requests.POST("", requestHandler.SubmitRequest)
			requests.GET("/mine", requestHandler.ListMyRequests)
			requests.GET("/order/:orderId", requestHandler.GetRequestByOrderID)
			requests.GET("/:requestId", requestHandler.GetRequest)
			requests.POST("/:requestId/decision", requestHandler.DecideRequest)
			requests.POST("/:requestId/deliver", requestHandler.DeliverRequest)
		}

		authed.GET("/commissions/:commissionId/requests", requestHandler.ListCommissionRequests)

		invoices := authed.Group("/invoices")
		{
			invoices.GET("/:invoiceId", invoiceHandler.GetInvoice)
			invoices.PUT("/:invoiceId/items", invoiceHandler.ReplaceInvoiceItems)
			invoices.POST("/:invoiceId/send", invoiceHandler.SendInvoice)
		}

		kanbans := authed.Group("/kanbans")
		{
			kanbans.GET("/:kanbanId", kanbanHandler.GetBoard)
			kanbans.PUT("/:kanbanId", kanbanHandler.ReplaceBoard)
			kanbans.GET("/:kanbanId/ws", kanbanHandler.Subscribe)
			kanbans.POST("/:kanbanId/tasks", kanbanHandler.AddTask)
			kanbans.PATCH("/:kanbanId/tasks/:taskId", kanbanHandler.MoveTask)
			kanbans.DELETE("/:kanbanId/tasks/:taskId", kanbanHandler.RemoveTask)
		}

		authed.POST("/attachments/presigned-url", attachmentHandler.GeneratePresignedURL)
	}

	return r
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}

func ready(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "service": serviceName})
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "service": serviceName})
			return
		}
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "service": serviceName})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName})
	}
}
