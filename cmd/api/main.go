package main

import (
	"log"

	_ "invoiceflow/api/swagger" // swagger docs
	"invoiceflow/internal/agents"
	"invoiceflow/internal/config"
	"invoiceflow/internal/database"
	"invoiceflow/internal/extraction"
	"invoiceflow/internal/handler"
	"invoiceflow/internal/llm"
	"invoiceflow/internal/middleware"
	"invoiceflow/internal/pipeline"
	"invoiceflow/internal/repository"
	"invoiceflow/internal/service"
	"invoiceflow/internal/validation"
	"invoiceflow/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Invoice Validation API
// @version         1.0
// @description     Invoice ingestion, three-way matching, and fraud analysis API.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	logger := config.GetLogger()

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	logger.Info("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	invoiceRepo := repository.NewInvoiceRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	grnRepo := repository.NewGoodsReceiptRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	chatRepo := repository.NewChatRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Extraction and validation pipeline
	completer := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.LLMTimeout)
	var docClient extraction.DocumentClient
	if rest := extraction.NewRESTDocumentClient(cfg.DocExtractAPIKey, cfg.DocExtractBaseURL); rest.Configured() {
		docClient = rest
	} else {
		logger.Warn("document extraction service not configured, relying on LLM and regex fallbacks")
	}
	extractor := extraction.NewAdapter(docClient, completer, logger)
	orchestrator := validation.NewOrchestrator(
		agents.NewMatchAgent(completer, logger),
		agents.NewFraudAgent(completer, logger),
	)
	processor := pipeline.NewProcessor(invoiceRepo, poRepo, grnRepo, vendorRepo, extractor, orchestrator, wsHub, logger)

	// Services
	invoiceService := service.NewInvoiceService(invoiceRepo, processor, logger)
	chatService := service.NewChatService(invoiceRepo, chatRepo, completer, logger)
	userService := service.NewUserService(userRepo)

	// Handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	chatHandler := handler.NewChatHandler(chatService)
	userHandler := handler.NewUserHandler(userService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL, "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for live invoice status updates
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API Routing
	invoiceHandler.RegisterRoutes(router.Group(""))
	chatHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))

	logger.Infof("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
