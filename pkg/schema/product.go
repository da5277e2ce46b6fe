package schema

import "github.com/hamba/avro/v2"

// ProductSchemaTextV1 is the catalog topic value schema.
//
// Prices are decimal strings.
const ProductSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.catalog",
	"name": "product",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "slug", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "description", "type": "string", "default": ""},
		{"name": "price", "type": "string"},
		{"name": "original_price", "type": ["null", "string"], "default": null},
		{"name": "image", "type": "string", "default": ""},
		{"name": "images", "type": {"type": "array", "items": "string"}, "default": []},
		{"name": "category", "type": "string"},
		{"name": "rating", "type": "double", "default": 0},
		{"name": "reviews", "type": "int", "default": 0},
		{"name": "is_new", "type": "boolean", "default": false},
		{"name": "is_best_seller", "type": "boolean", "default": false},
		{"name": "stock", "type": "int", "default": 0},
		{"name": "sizes", "type": {"type": "array", "items": "string"}, "default": []},
		{"name": "colors", "type": {"type": "array", "items": "string"}, "default": []},
		{"name": "tags", "type": {"type": "array", "items": "string"}, "default": []}
	]
}`

type ProductV1 struct {
	ID            string   `avro:"id"`
	Slug          string   `avro:"slug"`
	Name          string   `avro:"name"`
	Description   string   `avro:"description"`
	Price         string   `avro:"price"`
	OriginalPrice *string  `avro:"original_price"`
	Image         string   `avro:"image"`
	Images        []string `avro:"images"`
	Category      string   `avro:"category"`
	Rating        float64  `avro:"rating"`
	Reviews       int      `avro:"reviews"`
	IsNew         bool     `avro:"is_new"`
	IsBestSeller  bool     `avro:"is_best_seller"`
	Stock         int      `avro:"stock"`
	Sizes         []string `avro:"sizes"`
	Colors        []string `avro:"colors"`
	Tags          []string `avro:"tags"`
}

// ProductV1Avro panics if the schema text is invalid.
func ProductV1Avro() avro.Schema {
	return avro.MustParse(ProductSchemaTextV1)
}
