package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"marketplace-api/internal/repository"
)

type AnalyticsHandler struct {
	products *repository.ProductRepository
	orders   *repository.OrderRepository
	log      *logrus.Logger
}

func NewAnalyticsHandler(products *repository.ProductRepository, orders *repository.OrderRepository, log *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{products: products, orders: orders, log: log}
}

// GET /api/analytics/summary (solo admin)
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	productCount, err := h.products.Count(ctx, bson.M{})
	if err != nil {
		h.log.WithError(err).Error("analytics product count failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to build summary"})
		return
	}

	revenue, err := h.orders.RevenueSummary(ctx)
	if err != nil {
		h.log.WithError(err).Error("analytics revenue summary failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to build summary"})
		return
	}

	topCategories, err := h.products.TopCategories(ctx, 5)
	if err != nil {
		h.log.WithError(err).Error("analytics top categories failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to build summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":      productCount,
		"sales":         revenue,
		"topCategories": topCategories,
	})
}
