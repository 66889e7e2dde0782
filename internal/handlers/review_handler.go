package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace-api/internal/middleware"
	"marketplace-api/internal/models"
	"marketplace-api/internal/repository"
)

// ReviewStore es lo que el handler necesita del storage de reseñas
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
}

type ReviewHandler struct {
	reviews  ReviewStore
	products ProductStore
	laptops  LaptopStore
	log      *logrus.Logger
}

func NewReviewHandler(reviews ReviewStore, products ProductStore, laptops LaptopStore, log *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, products: products, laptops: laptops, log: log}
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// POST /api/products/:id/reviews (protegido). El producto puede vivir en
// cualquiera de las dos colecciones.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}

	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Rating < 1 || req.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Rating must be between 1 and 5"})
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	ctx := c.Request.Context()
	exists, err := h.productExists(ctx, productID.Hex())
	if err != nil {
		// fallo de storage, no ausencia: no se disfraza de 404
		h.log.WithError(err).Error("product lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create review"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}

	review := models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	if err := h.reviews.Create(ctx, &review); err != nil {
		h.log.WithError(err).Error("review create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create review"})
		return
	}

	c.JSON(http.StatusCreated, review)
}

// GET /api/products/:id/reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}

	reviews, err := h.reviews.FindByProduct(c.Request.Context(), productID)
	if err != nil {
		h.log.WithError(err).Error("review listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list reviews"})
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// productExists distingue "no está en ninguna colección" (false, nil) de un
// fallo real de storage (err), que el caller responde como 500
func (h *ReviewHandler) productExists(ctx context.Context, id string) (bool, error) {
	_, err := h.products.FindByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrInvalidID) {
		return false, err
	}

	_, err = h.laptops.FindRawByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
		return false, nil
	}
	return false, err
}
