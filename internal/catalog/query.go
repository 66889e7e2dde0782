package catalog

import (
	"math"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Campos donde busca el texto libre. La colección gestionada tiene esquema
// fijo; el dataset importado suma sus nombres de columna nativos tal como
// vienen en el origen (con mayúsculas incluidas).
var (
	ManagedSearchFields = []string{
		"title", "category", "processor", "os", "ram", "storage", "display",
	}

	LegacySearchFields = []string{
		"name", "title", "brand", "category", "processor", "ram", "storage", "os", "display",
		"Company", "Product", "TypeName", "Cpu", "CPU", "Ram", "Memory", "OpSys",
		"ScreenResolution", "Gpu", "GPU",
	}
)

// SearchPredicate es un match por substring, case-insensitive, sobre una lista
// de campos. Tiene dos realizaciones equivalentes: como filtro de Mongo
// (Filter) y como test en memoria (Match); ambas aceptan exactamente el mismo
// conjunto de documentos para el mismo término.
type SearchPredicate struct {
	term   string
	fields []string
}

func NewSearchPredicate(term string, fields []string) SearchPredicate {
	return SearchPredicate{term: strings.TrimSpace(term), fields: fields}
}

func (p SearchPredicate) Term() string { return p.term }

// Empty indica si el predicado acepta todo (término vacío o solo espacios)
func (p SearchPredicate) Empty() bool { return p.term == "" }

// Filter construye el filtro de Mongo. El término se escapa para que los
// metacaracteres de regex se traten como literales.
func (p SearchPredicate) Filter() bson.M {
	if p.Empty() {
		return bson.M{}
	}
	pattern := regexp.QuoteMeta(p.term)
	or := make([]bson.M, 0, len(p.fields))
	for _, field := range p.fields {
		or = append(or, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
	}
	return bson.M{"$or": or}
}

// Match evalúa el mismo predicado en memoria sobre un documento crudo
func (p SearchPredicate) Match(doc bson.M) bool {
	if p.Empty() {
		return true
	}
	needle := strings.ToLower(p.term)
	for _, field := range p.fields {
		if s, ok := doc[field].(string); ok {
			if strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
	}
	return false
}

// PriceRange es un rango inclusivo sobre el precio canónico. Las cotas no
// finitas se ignoran (cuentan como ausentes), nunca son error.
type PriceRange struct {
	min, max       float64
	hasMin, hasMax bool
}

func NewPriceRange(min, max *float64) PriceRange {
	var r PriceRange
	if min != nil && !math.IsNaN(*min) && !math.IsInf(*min, 0) {
		r.min, r.hasMin = *min, true
	}
	if max != nil && !math.IsNaN(*max) && !math.IsInf(*max, 0) {
		r.max, r.hasMax = *max, true
	}
	return r
}

func (r PriceRange) Empty() bool { return !r.hasMin && !r.hasMax }

// Filter devuelve las cotas como sub-documento $gte/$lte para Mongo
func (r PriceRange) Filter() bson.M {
	bounds := bson.M{}
	if r.hasMin {
		bounds["$gte"] = r.min
	}
	if r.hasMax {
		bounds["$lte"] = r.max
	}
	return bounds
}

// Match evalúa el rango en memoria
func (r PriceRange) Match(price float64) bool {
	if r.hasMin && price < r.min {
		return false
	}
	if r.hasMax && price > r.max {
		return false
	}
	return true
}
