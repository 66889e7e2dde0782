package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace-api/internal/cache"
	"marketplace-api/internal/catalog"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/models"
	"marketplace-api/internal/repository"
)

const listCachePrefix = "products:list:"

// ListingService es lo que el handler necesita del orquestador de catálogo
type ListingService interface {
	List(ctx context.Context, p catalog.Params) (*catalog.Envelope, error)
}

// ProductStore es el storage de la colección gestionada visto desde los handlers
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, id string, update bson.M) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

// LaptopStore es el acceso crudo a la colección importada
type LaptopStore interface {
	FindRawByID(ctx context.Context, id string) (bson.M, error)
}

type ProductHandler struct {
	listing  ListingService
	products ProductStore
	laptops  LaptopStore
	cache    *cache.Cache
	log      *logrus.Logger
}

func NewProductHandler(listing ListingService, products ProductStore, laptops LaptopStore, c *cache.Cache, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		listing:  listing,
		products: products,
		laptops:  laptops,
		cache:    c,
		log:      log,
	}
}

// GET /api/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	// el navegador no debe cachear listados; el caché de servidor es nuestro
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	params := catalog.Params{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Sort:     c.DefaultQuery("sort", catalog.SortNew),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", catalog.DefaultLimit),
		MinPrice: queryFloat(c, "minPrice"),
		MaxPrice: queryFloat(c, "maxPrice"),
	}

	cacheKey := listCachePrefix + c.Request.URL.RawQuery
	if cached, found := h.cache.GetValue(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	envelope, err := h.listing.List(c.Request.Context(), params)
	if err != nil {
		h.log.WithError(err).Error("product listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list products"})
		return
	}

	h.cache.Set(cacheKey, envelope, 2*time.Minute)
	c.JSON(http.StatusOK, envelope)
}

// GET /api/products/:id — busca primero en la colección gestionada y después
// en la importada; los documentos importados salen normalizados
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	cacheKey := fmt.Sprintf("product:%s", id)
	if cached, found := h.cache.GetValue(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	product, err := h.products.FindByID(ctx, id)
	if err == nil {
		h.cache.Set(cacheKey, product, 5*time.Minute)
		c.JSON(http.StatusOK, product)
		return
	}
	if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrInvalidID) {
		h.log.WithError(err).Error("product lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to get product"})
		return
	}

	doc, err := h.laptops.FindRawByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return
		}
		h.log.WithError(err).Error("laptop lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to get product"})
		return
	}

	normalized := catalog.Normalize(doc)
	h.cache.Set(cacheKey, normalized, 5*time.Minute)
	c.JSON(http.StatusOK, normalized)
}

type createProductRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"imageUrl"`
	Processor   string   `json:"processor"`
	OS          string   `json:"os"`
	RAM         string   `json:"ram"`
	Storage     string   `json:"storage"`
	Display     string   `json:"display"`
}

// POST /api/products (protegido)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing/invalid fields"})
		return
	}

	if req.Title == "" || req.Category == "" || req.Price == nil || req.Stock == nil ||
		math.IsNaN(*req.Price) || math.IsInf(*req.Price, 0) || *req.Price < 0 || *req.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing/invalid fields"})
		return
	}

	sellerID, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	product := models.Product{
		SellerID:    sellerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Processor:   req.Processor,
		OS:          req.OS,
		RAM:         req.RAM,
		Storage:     req.Storage,
		Display:     req.Display,
		Price:       *req.Price,
		Stock:       *req.Stock,
		Tags:        tags,
	}

	if err := h.products.Create(c.Request.Context(), &product); err != nil {
		h.log.WithError(err).Error("product create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create product"})
		return
	}

	h.cache.DeleteByPrefix(listCachePrefix)

	// se devuelve lo creado aunque el invariante de stock pueda haberlo
	// eliminado ya (stock <= 0)
	c.JSON(http.StatusCreated, product)
}

// price y stock se reciben sin tipar para poder responder "Invalid price" /
// "Invalid stock" por campo en vez de un error de binding genérico
type updateProductRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Category    *string     `json:"category"`
	Price       interface{} `json:"price"`
	Stock       interface{} `json:"stock"`
	ImageURL    *string     `json:"imageUrl"`
	Processor   *string     `json:"processor"`
	OS          *string     `json:"os"`
	RAM         *string     `json:"ram"`
	Storage     *string     `json:"storage"`
	Display     *string     `json:"display"`
	AddTag      string      `json:"addTag"`
	RemoveTag   string      `json:"removeTag"`
}

// PUT /api/products/:id (protegido, dueño o admin)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	product, err := h.products.FindByID(ctx, id)
	if err != nil {
		h.respondRepoError(c, err)
		return
	}
	if !h.canMutate(c, product) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing/invalid fields"})
		return
	}

	set := bson.M{}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Category != nil {
		set["category"] = *req.Category
	}
	if req.ImageURL != nil {
		set["imageUrl"] = *req.ImageURL
	}
	if req.Processor != nil {
		set["processor"] = *req.Processor
	}
	if req.OS != nil {
		set["os"] = *req.OS
	}
	if req.RAM != nil {
		set["ram"] = *req.RAM
	}
	if req.Storage != nil {
		set["storage"] = *req.Storage
	}
	if req.Display != nil {
		set["display"] = *req.Display
	}
	if req.Price != nil {
		price, ok := numberFrom(req.Price)
		if !ok || price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid price"})
			return
		}
		set["price"] = price
	}
	if req.Stock != nil {
		stock, ok := numberFrom(req.Stock)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid stock"})
			return
		}
		// el stock negativo o cero se acepta: el invariante de stock elimina
		// el producto tras la escritura
		set["stock"] = int(stock)
	}

	set["updatedAt"] = time.Now()
	update := bson.M{"$set": set}
	if req.AddTag != "" {
		update["$push"] = bson.M{"tags": req.AddTag}
	}
	if req.RemoveTag != "" {
		update["$pull"] = bson.M{"tags": req.RemoveTag}
	}

	updated, err := h.products.Update(ctx, id, update)
	if err != nil {
		h.respondRepoError(c, err)
		return
	}

	h.cache.Delete(fmt.Sprintf("product:%s", id))
	h.cache.DeleteByPrefix(listCachePrefix)

	c.JSON(http.StatusOK, updated)
}

// DELETE /api/products/:id (protegido, dueño o admin)
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	product, err := h.products.FindByID(ctx, id)
	if err != nil {
		h.respondRepoError(c, err)
		return
	}
	if !h.canMutate(c, product) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	if err := h.products.Delete(ctx, id); err != nil {
		h.respondRepoError(c, err)
		return
	}

	h.cache.Delete(fmt.Sprintf("product:%s", id))
	h.cache.DeleteByPrefix(listCachePrefix)

	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

// canMutate: dueño del producto o rol admin
func (h *ProductHandler) canMutate(c *gin.Context, product *models.Product) bool {
	if c.GetString(middleware.ContextRole) == models.RoleAdmin {
		return true
	}
	return product.SellerID.Hex() == c.GetString(middleware.ContextUserID)
}

func (h *ProductHandler) respondRepoError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	h.log.WithError(err).Error("product storage error")
	c.JSON(http.StatusInternalServerError, gin.H{"message": "storage error"})
}

// --- helpers de query params ---

func queryInt(c *gin.Context, name string, fallback int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return n
}

// numberFrom interpreta un valor JSON como número finito; acepta números y
// strings numéricos
func numberFrom(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// queryFloat devuelve nil si el parámetro falta o no es un número finito:
// una cota inválida se ignora, no es error
func queryFloat(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
