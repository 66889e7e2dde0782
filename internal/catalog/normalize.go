package catalog

import "go.mongodb.org/mongo-driver/bson"

// LegacyCategory es la categoría fija asignada al dataset importado
const LegacyCategory = "laptops"

// stripLegacyPriceKeys copia el documento sin las claves de precio malformadas.
// El original nunca se muta.
func stripLegacyPriceKeys(raw bson.M) bson.M {
	clean := make(bson.M, len(raw))
	for k, v := range raw {
		clean[k] = v
	}
	for _, key := range legacyPriceKeys {
		delete(clean, key)
	}
	return clean
}

// Normalize convierte un documento crudo (de cualquiera de las dos
// colecciones) a la forma canónica de producto. El precio se resuelve sobre el
// documento ORIGINAL, antes de quitar las claves malformadas; el resto de los
// campos con alias se resuelven al primer valor no vacío. Las claves legítimas
// sin alias sobreviven intactas. Es idempotente.
func Normalize(raw bson.M) bson.M {
	clean := stripLegacyPriceKeys(raw)

	clean["price"] = ResolvePrice(raw)
	clean["title"] = resolveTitle(clean)
	clean["imageUrl"] = resolveString(clean, "imageUrl", "img_link", "image")
	clean["brand"] = resolveString(clean, "brand", "Company")
	clean["processor"] = resolveString(clean, "processor", "Cpu", "CPU", "CpuName")
	clean["ram"] = resolveString(clean, "ram", "Ram", "Memory")
	clean["storage"] = resolveString(clean, "storage", "Storage", "Memory")
	clean["os"] = resolveString(clean, "os", "OpSys", "OS")
	clean["display"] = resolveString(clean, "display", "display(in inch)", "ScreenResolution")

	if resolveString(clean, "category") == "" {
		clean["category"] = LegacyCategory
	}
	if s, ok := clean["description"].(string); ok {
		clean["description"] = s
	} else {
		clean["description"] = ""
	}
	if n, ok := toNumber(clean["stock"]); ok {
		clean["stock"] = int(n)
	} else {
		clean["stock"] = 0
	}
	switch clean["tags"].(type) {
	case bson.A, []interface{}, []string:
		// ya es una lista
	default:
		clean["tags"] = bson.A{}
	}

	return clean
}
