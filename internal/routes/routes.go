package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"marketplace-api/internal/cache"
	"marketplace-api/internal/catalog"
	"marketplace-api/internal/config"
	"marketplace-api/internal/handlers"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/repository"
)

func RegisterRoutes(router *gin.Engine, db *mongo.Database, cfg *config.Config, log *logrus.Logger) {
	productRepo := repository.NewProductRepository(db, log)
	laptopRepo := repository.NewLaptopRepository(db)
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	listing := catalog.NewService(laptopRepo, productRepo)
	listCache := cache.New(2 * time.Minute)

	productHandler := handlers.NewProductHandler(listing, productRepo, laptopRepo, listCache, log)
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret, log)
	orderHandler := handlers.NewOrderHandler(orderRepo, productRepo, listCache, log)
	reviewHandler := handlers.NewReviewHandler(reviewRepo, productRepo, laptopRepo, log)
	analyticsHandler := handlers.NewAnalyticsHandler(productRepo, orderRepo, log)

	protect := middleware.Protect(cfg.JWTSecret)

	api := router.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		api.GET("/products", productHandler.ListProducts)
		api.GET("/products/:id", productHandler.GetProduct)
		api.POST("/products", protect, productHandler.CreateProduct)
		api.PUT("/products/:id", protect, productHandler.UpdateProduct)
		api.DELETE("/products/:id", protect, productHandler.DeleteProduct)

		api.GET("/products/:id/reviews", reviewHandler.ListReviews)
		api.POST("/products/:id/reviews", protect, reviewHandler.CreateReview)

		api.POST("/orders", protect, orderHandler.CreateOrder)
		api.GET("/orders/my", protect, orderHandler.MyOrders)

		api.GET("/analytics/summary", protect, middleware.RequireAdmin(), analyticsHandler.Summary)
	}
}
