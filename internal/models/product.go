package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product es un producto gestionado por un vendedor a través de la API.
// Los documentos del dataset importado ("laptops") no usan este struct:
// su esquema es libre y se normalizan en internal/catalog.
type Product struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	SellerID    primitive.ObjectID `json:"sellerId" bson:"sellerId"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Category    string             `json:"category" bson:"category"`
	ImageURL    string             `json:"imageUrl" bson:"imageUrl"`
	Processor   string             `json:"processor" bson:"processor"`
	OS          string             `json:"os" bson:"os"`
	RAM         string             `json:"ram" bson:"ram"`
	Storage     string             `json:"storage" bson:"storage"`
	Display     string             `json:"display" bson:"display"`
	Price       float64            `json:"price" bson:"price"`
	Stock       int                `json:"stock" bson:"stock"`
	Tags        []string           `json:"tags" bson:"tags"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
