package catalog

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SortNew       = "new"
	SortPriceAsc  = "priceAsc"
	SortPriceDesc = "priceDesc"

	DefaultLimit = 50
	MaxLimit     = 50
)

// ClampPage fuerza page >= 1
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampLimit fuerza limit al rango [1, MaxLimit]. Solo el cero (ausente o
// no numérico) cae al default; un negativo explícito clampa a 1.
func ClampLimit(limit int) int {
	if limit == 0 {
		return DefaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Pages calcula ceil(total/limit) con mínimo 1
func Pages(total int64, limit int) int64 {
	pages := (total + int64(limit) - 1) / int64(limit)
	if pages < 1 {
		return 1
	}
	return pages
}

func docPrice(doc bson.M) float64 {
	n, _ := toNumber(doc["price"])
	return n
}

func docID(doc bson.M) string {
	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	}
	return ""
}

// sortItems ordena en sitio. "new" es no-op: el dataset importado no tiene
// timestamps de creación estables, se conserva el orden de origen. El empate
// en precio se desempata por _id para que el orden sea determinista.
func sortItems(items []bson.M, sortKey string) {
	switch sortKey {
	case SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool {
			pi, pj := docPrice(items[i]), docPrice(items[j])
			if pi != pj {
				return pi < pj
			}
			return docID(items[i]) < docID(items[j])
		})
	case SortPriceDesc:
		sort.SliceStable(items, func(i, j int) bool {
			pi, pj := docPrice(items[i]), docPrice(items[j])
			if pi != pj {
				return pi > pj
			}
			return docID(items[i]) > docID(items[j])
		})
	}
}

// SortAndPage ordena el conjunto filtrado y recorta la página pedida.
// total cuenta todo lo filtrado, no solo la página; una página fuera de rango
// devuelve lista vacía pero total/pages válidos.
func SortAndPage(items []bson.M, sortKey string, page, limit int) (paged []bson.M, total int64, pages int64) {
	page = ClampPage(page)
	limit = ClampLimit(limit)

	sortItems(items, sortKey)

	total = int64(len(items))
	pages = Pages(total, limit)

	start := (page - 1) * limit
	if start >= len(items) {
		return []bson.M{}, total, pages
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, pages
}
