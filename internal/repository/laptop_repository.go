package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// LaptopRepository maneja la colección importada ("laptops"). El esquema es
// libre, así que todo sale como bson.M crudo y se normaliza en internal/catalog.
type LaptopRepository struct {
	collection *mongo.Collection
}

func NewLaptopRepository(db *mongo.Database) *LaptopRepository {
	return &LaptopRepository{collection: db.Collection("laptops")}
}

// FetchRaw trae todos los documentos que matchean el filtro, sin decodificar
// a ningún struct
func (r *LaptopRepository) FetchRaw(ctx context.Context, filter bson.M) ([]bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]bson.M, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// FindRawByID obtiene un documento crudo por ID
func (r *LaptopRepository) FindRawByID(ctx context.Context, id string) (bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var doc bson.M
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}
