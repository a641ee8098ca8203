package main

import (
	"log"
	"os"

	_ "scms/api/swagger" // swagger docs
	"scms/internal/database"
	"scms/internal/handler"
	"scms/internal/middleware"
	"scms/internal/repository"
	"scms/internal/service"
	"scms/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Batch Allocation & Pricing API
// @version         1.0
// @description     Inventory ledger, FEFO/FIFO batch allocation, tiered pricing and alerting for perishable goods distribution.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	tierRepo := repository.NewPricingTierRepository(db)
	retailerRepo := repository.NewRetailerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	userService := service.NewUserService(userRepo)
	productService := service.NewProductService(productRepo, auditRepo)
	inventoryService := service.NewInventoryService(productRepo, batchRepo, inventoryRepo, alertRepo, auditRepo, txManager, wsHub)
	allocationService := service.NewAllocationService(ledgerRepo, txManager)
	pricingService := service.NewPricingService(service.DefaultPricingConfig(), productRepo, retailerRepo, tierRepo)
	tierService := service.NewTierService(tierRepo, auditRepo)
	retailerService := service.NewRetailerService(retailerRepo, tierRepo, auditRepo)
	orderService := service.NewOrderService(productRepo, retailerRepo, orderRepo, auditRepo, allocationService, pricingService, txManager)
	alertService := service.NewAlertService(alertRepo, batchRepo, inventoryRepo, auditRepo, wsHub)
	statisticsService := service.NewStatisticsService(db)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	productHandler := handler.NewProductHandler(productService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	pricingHandler := handler.NewPricingHandler(pricingService, tierService)
	retailerHandler := handler.NewRetailerHandler(retailerService)
	orderHandler := handler.NewOrderHandler(orderService, allocationService)
	alertHandler := handler.NewAlertHandler(alertService)
	auditHandler := handler.NewAuditHandler(auditRepo)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
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

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API Routing
	userHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	pricingHandler.RegisterRoutes(router.Group(""))
	retailerHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	alertHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
