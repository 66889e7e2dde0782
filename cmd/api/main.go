package main

import (
	"log"

	"marketplace-api/internal/config"
	"marketplace-api/internal/database"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/routes"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadConfig()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	client := database.Connect(cfg.MongoURI)
	db := client.Database(cfg.MongoDB)

	router := gin.Default()
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	routes.RegisterRoutes(router, db, cfg, logger)

	log.Println("🚀 Server running on port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped:", err)
	}
}
