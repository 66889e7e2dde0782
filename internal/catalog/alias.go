package catalog

import (
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Claves de precio malformadas heredadas del dataset importado. La columna
// original era "price(in Rs.)" y el import la partió de varias formas, a veces
// dejando el número anidado bajo una clave ")".
var legacyPriceKeys = []string{"price(in Rs.)", "price(in Rs)", "price(in Rs"}

// toNumber intenta interpretar un valor BSON arbitrario como número finito.
// Los strings se limpian de comas de millar y espacios antes de parsear.
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// asDoc trata un valor como sub-documento si es posible
func asDoc(v interface{}) (bson.M, bool) {
	switch d := v.(type) {
	case bson.M:
		return d, true
	case map[string]interface{}:
		return d, true
	case bson.D:
		return d.Map(), true
	}
	return nil, false
}

// ResolvePrice devuelve el primer precio finito > 0 encontrado entre la clave
// canónica, las variantes malformadas planas y las anidadas bajo ")".
// Si ninguna resuelve devuelve 0, nunca un error: la suciedad del dataset no
// debe tumbar una request.
func ResolvePrice(raw bson.M) float64 {
	if n, ok := toNumber(raw["price"]); ok && n > 0 {
		return n
	}
	for _, key := range legacyPriceKeys {
		if n, ok := toNumber(raw[key]); ok && n > 0 {
			return n
		}
	}
	for _, key := range legacyPriceKeys {
		if nested, ok := asDoc(raw[key]); ok {
			if n, ok := toNumber(nested[")"]); ok && n > 0 {
				return n
			}
		}
	}
	return 0
}

// resolveString devuelve el primer valor string no vacío entre los alias dados
func resolveString(raw bson.M, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		}
	}
	return ""
}

// resolveTitle arma el título con la cadena de fallbacks del dataset:
// title, name, "Company Product", Product, Company.
func resolveTitle(raw bson.M) string {
	if t := resolveString(raw, "title", "name"); t != "" {
		return t
	}
	company := resolveString(raw, "Company")
	product := resolveString(raw, "Product")
	if company != "" && product != "" {
		return company + " " + product
	}
	if product != "" {
		return product
	}
	return company
}
