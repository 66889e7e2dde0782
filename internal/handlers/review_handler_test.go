package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace-api/internal/models"
	"marketplace-api/internal/repository"
)

type mockLaptopStore struct {
	mock.Mock
}

func (m *mockLaptopStore) FindRawByID(ctx context.Context, id string) (bson.M, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(bson.M), args.Error(1)
}

type mockReviewStore struct {
	mock.Mock
}

func (m *mockReviewStore) Create(ctx context.Context, review *models.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewStore) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func newReviewRouter(reviews ReviewStore, products ProductStore, laptops LaptopStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewReviewHandler(reviews, products, laptops, logrus.New())
	router := gin.New()
	router.POST("/api/products/:id/reviews", authAs(primitive.NewObjectID().Hex(), models.RoleUser), h.CreateReview)
	return router
}

func postReview(router *gin.Engine, productID, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products/"+productID+"/reviews", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCreateReviewStorageFailureIsNot404(t *testing.T) {
	products := new(mockProductStore)
	products.On("FindByID", mock.Anything, mock.Anything).Return(nil, errors.New("mongo down"))
	laptops := new(mockLaptopStore)
	reviews := new(mockReviewStore)

	router := newReviewRouter(reviews, products, laptops)
	w := postReview(router, primitive.NewObjectID().Hex(), `{"rating":5,"comment":"excelente"}`)

	// un storage caído no es "el producto no existe"
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "Product not found")
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	laptops.AssertNotCalled(t, "FindRawByID", mock.Anything, mock.Anything)
}

func TestCreateReviewLegacyLookupFailureIsNot404(t *testing.T) {
	products := new(mockProductStore)
	products.On("FindByID", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	laptops := new(mockLaptopStore)
	laptops.On("FindRawByID", mock.Anything, mock.Anything).Return(nil, errors.New("mongo down"))
	reviews := new(mockReviewStore)

	router := newReviewRouter(reviews, products, laptops)
	w := postReview(router, primitive.NewObjectID().Hex(), `{"rating":4}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReviewMissingInBothCollectionsIs404(t *testing.T) {
	products := new(mockProductStore)
	products.On("FindByID", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	laptops := new(mockLaptopStore)
	laptops.On("FindRawByID", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	reviews := new(mockReviewStore)

	router := newReviewRouter(reviews, products, laptops)
	w := postReview(router, primitive.NewObjectID().Hex(), `{"rating":3}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Product not found")
}

func TestCreateReviewForLegacyProduct(t *testing.T) {
	products := new(mockProductStore)
	products.On("FindByID", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	laptops := new(mockLaptopStore)
	laptops.On("FindRawByID", mock.Anything, mock.Anything).Return(bson.M{"Company": "Dell"}, nil)
	reviews := new(mockReviewStore)
	reviews.On("Create", mock.Anything, mock.Anything).Return(nil)

	router := newReviewRouter(reviews, products, laptops)
	w := postReview(router, primitive.NewObjectID().Hex(), `{"rating":5,"comment":"excelente"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	reviews.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReviewRatingOutOfRange(t *testing.T) {
	products := new(mockProductStore)
	laptops := new(mockLaptopStore)
	reviews := new(mockReviewStore)

	router := newReviewRouter(reviews, products, laptops)
	for _, body := range []string{`{"rating":0}`, `{"rating":6}`, `{}`} {
		w := postReview(router, primitive.NewObjectID().Hex(), body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body=%s", body)
	}

	// la validación corta antes de tocar storage
	products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}
