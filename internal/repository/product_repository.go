package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketplace-api/internal/models"
)

// ProductRepository maneja la colección gestionada ("products")
type ProductRepository struct {
	collection *mongo.Collection
	log        *logrus.Logger
}

func NewProductRepository(db *mongo.Database, log *logrus.Logger) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection("products"),
		log:        log,
	}
}

// Create inserta un producto nuevo y luego aplica el invariante de stock
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	product.ID = primitive.NewObjectID()
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	if product.Tags == nil {
		product.Tags = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return err
	}

	r.EnforceStockInvariant(ctx, product.ID, product.Stock)
	return nil
}

// FindByID obtiene un producto por ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var product models.Product
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

// FindPage busca una página con filtro, orden y salto empujados a Mongo
func (r *ProductRepository) FindPage(ctx context.Context, filter bson.M, sort bson.D, skip, limit int64) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(sort).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Count cuenta los documentos que matchean el filtro
func (r *ProductRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return r.collection.CountDocuments(ctx, filter)
}

// Update aplica un update ya armado ($set/$push/$pull) y devuelve el documento
// resultante; después corre el invariante de stock sobre él
func (r *ProductRepository) Update(ctx context.Context, id string, update bson.M) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r.EnforceStockInvariant(ctx, updated.ID, updated.Stock)
	return &updated, nil
}

// DecrementStock descuenta stock vía update-by-filter, exigiendo stock
// suficiente en el mismo filtro para no quedar en negativo
func (r *ProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInsufficientStock
		}
		return nil, err
	}

	r.EnforceStockInvariant(ctx, updated.ID, updated.Stock)
	return &updated, nil
}

// Delete elimina un producto definitivamente
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TopCategories agrupa los productos gestionados por categoría
func (r *ProductRepository) TopCategories(ctx context.Context, limit int) ([]bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := make([]bson.M, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// stockDeleter es la porción de la colección que necesita el invariante
type stockDeleter interface {
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// EnforceStockInvariant elimina el producto cuando su stock queda en 0 o
// menos. Corre sincrónicamente después de cada escritura que toque stock.
func (r *ProductRepository) EnforceStockInvariant(ctx context.Context, id primitive.ObjectID, stock int) {
	enforceStockInvariant(ctx, r.collection, r.log, id, stock)
}

// Si el borrado falla, se loguea y se traga: el documento queda con
// stock <= 0 hasta la próxima escritura, nunca se escala al caller.
func enforceStockInvariant(ctx context.Context, coll stockDeleter, log *logrus.Logger, id primitive.ObjectID, stock int) {
	if stock > 0 {
		return
	}
	if _, err := coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		log.WithError(err).WithField("productId", id.Hex()).Error("stock auto-delete failed")
	}
}
