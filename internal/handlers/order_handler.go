package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace-api/internal/cache"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/models"
	"marketplace-api/internal/repository"
)

type OrderHandler struct {
	orders   *repository.OrderRepository
	products *repository.ProductRepository
	cache    *cache.Cache
	log      *logrus.Logger
}

func NewOrderHandler(orders *repository.OrderRepository, products *repository.ProductRepository, c *cache.Cache, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, products: products, cache: c, log: log}
}

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items"`
}

// POST /api/orders (protegido). Descuenta stock con update-by-filter; si un
// producto queda en 0 el invariante de stock lo elimina.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing/invalid fields"})
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	ctx := c.Request.Context()
	items := make([]models.OrderItem, 0, len(req.Items))
	total := 0.0

	for _, item := range req.Items {
		if item.Qty < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing/invalid fields"})
			return
		}

		objID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return
		}

		updated, err := h.products.DecrementStock(ctx, objID, item.Qty)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Insufficient stock"})
				return
			}
			h.log.WithError(err).Error("stock decrement failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create order"})
			return
		}

		items = append(items, models.OrderItem{
			ProductID: updated.ID,
			Title:     updated.Title,
			Price:     updated.Price,
			Qty:       item.Qty,
		})
		total += updated.Price * float64(item.Qty)
	}

	order := models.Order{
		UserID: userID,
		Items:  items,
		Total:  total,
		Status: "created",
	}

	if err := h.orders.Create(ctx, &order); err != nil {
		h.log.WithError(err).Error("order create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create order"})
		return
	}

	// el stock cambió, los listados cacheados quedan viejos
	h.cache.DeleteByPrefix(listCachePrefix)

	c.JSON(http.StatusCreated, order)
}

// GET /api/orders/my (protegido)
func (h *OrderHandler) MyOrders(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	orders, err := h.orders.FindByUser(c.Request.Context(), userID)
	if err != nil {
		h.log.WithError(err).Error("order listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}
