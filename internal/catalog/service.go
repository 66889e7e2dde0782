package catalog

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"marketplace-api/internal/models"
)

// Params son los parámetros de listado ya parseados del query string
type Params struct {
	Query    string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Tag      string
	Sort     string
	Page     int
	Limit    int
}

// Envelope es la respuesta paginada unificada: pages y q van siempre,
// sin importar de qué fuente salieron los items.
type Envelope struct {
	Items interface{} `json:"items"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int64       `json:"total"`
	Pages int64       `json:"pages"`
	Query string      `json:"q"`
}

// LegacySource es la colección importada: esquema libre, se consulta cruda y
// se normaliza en memoria
type LegacySource interface {
	FetchRaw(ctx context.Context, filter bson.M) ([]bson.M, error)
}

// ManagedSource es la colección gestionada: esquema fijo, el orden y la
// paginación se empujan al storage
type ManagedSource interface {
	FindPage(ctx context.Context, filter bson.M, sort bson.D, skip, limit int64) ([]models.Product, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// Service orquesta el listado sobre las dos fuentes
type Service struct {
	legacy  LegacySource
	managed ManagedSource
}

func NewService(legacy LegacySource, managed ManagedSource) *Service {
	return &Service{legacy: legacy, managed: managed}
}

// List elige la fuente por categoría (el dataset importado es el default) y
// devuelve un envelope paginado. Nunca muta estado.
func (s *Service) List(ctx context.Context, p Params) (*Envelope, error) {
	p.Query = strings.TrimSpace(p.Query)
	p.Page = ClampPage(p.Page)
	p.Limit = ClampLimit(p.Limit)

	if p.Category == "" || p.Category == LegacyCategory {
		return s.listLegacy(ctx, p)
	}
	return s.listManaged(ctx, p)
}

// listLegacy: el filtro de búsqueda se empuja a Mongo, pero el precio solo
// existe tras resolver alias, así que el rango se aplica en memoria después de
// normalizar.
func (s *Service) listLegacy(ctx context.Context, p Params) (*Envelope, error) {
	search := NewSearchPredicate(p.Query, LegacySearchFields)

	docs, err := s.legacy.FetchRaw(ctx, search.Filter())
	if err != nil {
		return nil, err
	}

	prices := NewPriceRange(p.MinPrice, p.MaxPrice)
	items := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		normalized := Normalize(doc)
		if prices.Match(docPrice(normalized)) {
			items = append(items, normalized)
		}
	}

	paged, total, pages := SortAndPage(items, p.Sort, p.Page, p.Limit)

	return &Envelope{
		Items: paged,
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: pages,
		Query: p.Query,
	}, nil
}

// listManaged: esquema fijo, todo el filtro más orden/skip/limit van al storage
func (s *Service) listManaged(ctx context.Context, p Params) (*Envelope, error) {
	filter := bson.M{"category": p.Category}
	if p.Tag != "" {
		filter["tags"] = bson.M{"$in": []string{p.Tag}}
	}
	search := NewSearchPredicate(p.Query, ManagedSearchFields)
	if !search.Empty() {
		filter["$or"] = search.Filter()["$or"]
	}
	prices := NewPriceRange(p.MinPrice, p.MaxPrice)
	if !prices.Empty() {
		filter["price"] = prices.Filter()
	}

	// el conteo corre en paralelo con la página, como en el listado clásico
	totalCh := make(chan int64, 1)
	errCh := make(chan error, 1)
	go func() {
		total, err := s.managed.Count(ctx, filter)
		if err != nil {
			errCh <- err
			return
		}
		totalCh <- total
	}()

	skip := int64(p.Page-1) * int64(p.Limit)
	items, err := s.managed.FindPage(ctx, filter, managedSortOrder(p.Sort), skip, int64(p.Limit))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Product{}
	}

	var total int64
	select {
	case total = <-totalCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &Envelope{
		Items: items,
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: Pages(total, p.Limit),
		Query: p.Query,
	}, nil
}

// managedSortOrder traduce la clave de orden al sort de Mongo, siempre con
// _id como desempate determinista
func managedSortOrder(sortKey string) bson.D {
	switch sortKey {
	case SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}
