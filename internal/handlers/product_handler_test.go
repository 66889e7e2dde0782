package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace-api/internal/cache"
	"marketplace-api/internal/catalog"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/models"
)

type mockListingService struct {
	mock.Mock
}

func (m *mockListingService) List(ctx context.Context, p catalog.Params) (*catalog.Envelope, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Envelope), args.Error(1)
}

func newListRouter(listing ListingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	h := NewProductHandler(listing, nil, nil, cache.New(time.Minute), log)
	router := gin.New()
	router.GET("/api/products", h.ListProducts)
	return router
}

func emptyEnvelope() *catalog.Envelope {
	return &catalog.Envelope{
		Items: []interface{}{},
		Page:  1,
		Limit: catalog.DefaultLimit,
		Total: 0,
		Pages: 1,
	}
}

func TestListProductsParamDefaults(t *testing.T) {
	listing := new(mockListingService)
	var captured catalog.Params
	listing.On("List", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(catalog.Params) }).
		Return(emptyEnvelope(), nil)

	router := newListRouter(listing)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, catalog.SortNew, captured.Sort)
	assert.Equal(t, 1, captured.Page)
	assert.Equal(t, catalog.DefaultLimit, captured.Limit)
	assert.Nil(t, captured.MinPrice)
	assert.Nil(t, captured.MaxPrice)
	assert.Equal(t, "", captured.Category)
}

func TestListProductsParsesQueryParams(t *testing.T) {
	listing := new(mockListingService)
	var captured catalog.Params
	listing.On("List", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(catalog.Params) }).
		Return(emptyEnvelope(), nil)

	router := newListRouter(listing)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/products?q=dell&category=laptops&minPrice=50000&maxPrice=60000&tag=oferta&sort=priceAsc&page=2&limit=20", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, "dell", captured.Query)
	assert.Equal(t, "laptops", captured.Category)
	assert.Equal(t, "oferta", captured.Tag)
	assert.Equal(t, catalog.SortPriceAsc, captured.Sort)
	assert.Equal(t, 2, captured.Page)
	assert.Equal(t, 20, captured.Limit)
	require.NotNil(t, captured.MinPrice)
	require.NotNil(t, captured.MaxPrice)
	assert.Equal(t, 50000.0, *captured.MinPrice)
	assert.Equal(t, 60000.0, *captured.MaxPrice)
}

func TestListProductsIgnoresInvalidPriceBounds(t *testing.T) {
	listing := new(mockListingService)
	var captured catalog.Params
	listing.On("List", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(catalog.Params) }).
		Return(emptyEnvelope(), nil)

	router := newListRouter(listing)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/products?minPrice=abc&maxPrice=NaN", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, captured.MinPrice)
	assert.Nil(t, captured.MaxPrice)
}

func TestListProductsEnvelopeJSON(t *testing.T) {
	listing := new(mockListingService)
	listing.On("List", mock.Anything, mock.Anything).Return(&catalog.Envelope{
		Items: []interface{}{map[string]interface{}{"title": "Dell XPS"}},
		Page:  1,
		Limit: 20,
		Total: 1,
		Pages: 1,
		Query: "dell",
	}, nil)

	router := newListRouter(listing)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/products?q=dell&limit=20", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(1), body["pages"])
	assert.Equal(t, "dell", body["q"])
	items := body["items"].([]interface{})
	require.Len(t, items, 1)

	// el listado no debe quedar cacheado por el navegador
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestListProductsServiceError(t *testing.T) {
	listing := new(mockListingService)
	listing.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("mongo down"))

	router := newListRouter(listing)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListProductsServesFromCacheOnRepeat(t *testing.T) {
	listing := new(mockListingService)
	listing.On("List", mock.Anything, mock.Anything).Return(emptyEnvelope(), nil)

	router := newListRouter(listing)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/products?q=repetida", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	listing.AssertNumberOfCalls(t, "List", 1)
}

// --- mutaciones sobre la colección gestionada ---

type mockProductStore struct {
	mock.Mock
}

func (m *mockProductStore) Create(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductStore) FindByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *mockProductStore) Update(ctx context.Context, id string, update bson.M) (*models.Product, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *mockProductStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// authAs inyecta la identidad que normalmente pone el middleware JWT
func authAs(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func newUpdateRouter(store ProductStore, userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewProductHandler(nil, store, nil, cache.New(time.Minute), logrus.New())
	router := gin.New()
	router.PUT("/api/products/:id", authAs(userID, role), h.UpdateProduct)
	return router
}

func putJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func ownedProduct(seller primitive.ObjectID) *models.Product {
	return &models.Product{ID: primitive.NewObjectID(), SellerID: seller, Title: "Dell XPS 13", Stock: 5}
}

func TestUpdateProductRejectsNonNumericPrice(t *testing.T) {
	seller := primitive.NewObjectID()
	store := new(mockProductStore)
	store.On("FindByID", mock.Anything, mock.Anything).Return(ownedProduct(seller), nil)

	router := newUpdateRouter(store, seller.Hex(), models.RoleSeller)
	w := putJSON(router, "/api/products/"+primitive.NewObjectID().Hex(), `{"price":"gratis"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid price")
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProductRejectsInvalidStockWithItsOwnMessage(t *testing.T) {
	seller := primitive.NewObjectID()
	store := new(mockProductStore)
	store.On("FindByID", mock.Anything, mock.Anything).Return(ownedProduct(seller), nil)

	router := newUpdateRouter(store, seller.Hex(), models.RoleSeller)
	w := putJSON(router, "/api/products/"+primitive.NewObjectID().Hex(), `{"stock":"muchos"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// el error de stock tiene su propio mensaje, no se confunde con el de precio
	assert.Contains(t, w.Body.String(), "Invalid stock")
	assert.NotContains(t, w.Body.String(), "Invalid price")
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProductAcceptsNegativeStockForAutoDelete(t *testing.T) {
	seller := primitive.NewObjectID()
	store := new(mockProductStore)
	store.On("FindByID", mock.Anything, mock.Anything).Return(ownedProduct(seller), nil)

	var captured bson.M
	store.On("Update", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).(bson.M) }).
		Return(ownedProduct(seller), nil)

	router := newUpdateRouter(store, seller.Hex(), models.RoleSeller)
	w := putJSON(router, "/api/products/"+primitive.NewObjectID().Hex(), `{"price":1200,"stock":-2,"addTag":"oferta"}`)

	require.Equal(t, http.StatusOK, w.Code)
	set := captured["$set"].(bson.M)
	assert.Equal(t, 1200.0, set["price"])
	// el stock que queda en cero o menos lo resuelve el storage eliminando
	// el producto, no la validación del handler
	assert.Equal(t, -2, set["stock"])
	assert.Equal(t, bson.M{"tags": "oferta"}, captured["$push"])
}

func TestUpdateProductForbiddenForNonOwner(t *testing.T) {
	store := new(mockProductStore)
	store.On("FindByID", mock.Anything, mock.Anything).Return(ownedProduct(primitive.NewObjectID()), nil)

	router := newUpdateRouter(store, primitive.NewObjectID().Hex(), models.RoleUser)
	w := putJSON(router, "/api/products/"+primitive.NewObjectID().Hex(), `{"price":1}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
