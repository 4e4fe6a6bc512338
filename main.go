package main

import (
	"log"
	"net/http"

	"github.com/SebbieMzingKe/traffic-revenue-api/internal/config"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/handlers"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/logger"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/middleware"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/models"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/services"
	"github.com/SebbieMzingKe/traffic-revenue-api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	cfg *config.Config
	db  *gorm.DB
	zl  *zap.Logger
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}

	cfg = config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	var err error
	zl, err = logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}

	db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(&models.Customer{}, &models.TrafficRecord{}); err != nil {
		zl.Fatal("failed to migrate database", zap.Error(err))
	}
}

func main() {
	defer zl.Sync()

	customerStore := store.NewCustomerStore(db, zl)
	trafficStore := store.NewTrafficStore(db, zl)

	customerImporter := services.NewCustomerImporter(customerStore, cfg.ImportSkipExisting, zl)
	trafficImporter := services.NewTrafficImporter(customerStore, trafficStore, zl)

	customerHandler := handlers.NewCustomerHandler(customerStore)
	trafficHandler := handlers.NewTrafficHandler(trafficStore, customerStore)
	uploadHandler := handlers.NewUploadHandler(customerImporter, trafficImporter, cfg.MaxUploadBytes)
	reportHandler := handlers.NewReportHandler(trafficStore)

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestLogger(zl))
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		customers := api.Group("/customers")
		{
			customers.POST("", customerHandler.CreateCustomer)
			customers.GET("", customerHandler.GetCustomers)
			customers.GET("/:id", customerHandler.GetCustomer)
			customers.PUT("/:id", customerHandler.UpdateCustomer)
			customers.DELETE("/:id", customerHandler.DeleteCustomer)
		}

		traffic := api.Group("/traffic")
		{
			traffic.POST("", trafficHandler.CreateTraffic)
			traffic.GET("", trafficHandler.GetTrafficRecords)
			traffic.GET("/:id", trafficHandler.GetTraffic)
			traffic.PUT("/:id", trafficHandler.UpdateTraffic)
			traffic.DELETE("/:id", trafficHandler.DeleteTraffic)
		}

		imports := api.Group("/imports")
		{
			imports.POST("/customers", uploadHandler.ImportCustomers)
			imports.POST("/traffic", uploadHandler.ImportTraffic)
			imports.DELETE("/traffic/latest", trafficHandler.RevertLastUpload)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/monthwise", reportHandler.GetMonthWise)
			reports.GET("/monthwise/export", reportHandler.ExportMonthWise)
			reports.GET("/consolidated", reportHandler.GetConsolidated)
			reports.GET("/consolidated/export", reportHandler.ExportConsolidated)
		}
	}

	zl.Info("server starting", zap.String("port", cfg.Port))
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
