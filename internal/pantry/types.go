package pantry

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/larderhq/larder/internal/nutrient"
)

// ImageField identifies one of the product photo slots.
type ImageField string

const (
	ImageFront       ImageField = "front"
	ImageIngredients ImageField = "ingredients"
	ImageNutrition   ImageField = "nutrition"
)

// ImageFields returns all photo slots in display order.
func ImageFields() []ImageField {
	return []ImageField{ImageFront, ImageIngredients, ImageNutrition}
}

// ProductRecord mirrors the product object returned by /api/v1/product.
// Nutriments is the flat key/value map the service publishes; values arrive
// as either JSON numbers or strings depending on the contributing client.
type ProductRecord struct {
	Code                string                     `json:"code"`
	ProductName         string                     `json:"product_name"`
	Brands              string                     `json:"brands"`
	Categories          string                     `json:"categories"`
	Quantity            string                     `json:"quantity"`
	ServingSize         string                     `json:"serving_size"`
	NutritionDataPer    string                     `json:"nutrition_data_per"`
	Lang                string                     `json:"lang"`
	Nutriments          map[string]json.RawMessage `json:"nutriments"`
	ImageFrontURL       string                     `json:"image_front_url"`
	ImageIngredientsURL string                     `json:"image_ingredients_url"`
	ImageNutritionURL   string                     `json:"image_nutrition_url"`
}

// productResponse mirrors the /api/v1/product envelope. Status 0 means the
// barcode is unknown to the database.
type productResponse struct {
	Status  int            `json:"status"`
	Code    string         `json:"code"`
	Product *ProductRecord `json:"product"`
}

// NutrimentString returns the raw nutriment value for key as a string.
func (r *ProductRecord) NutrimentString(key string) (string, bool) {
	raw, ok := r.Nutriments[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

// NutrimentNumber returns the nutriment value for key as a float, accepting
// both JSON numbers and numeric strings.
func (r *ProductRecord) NutrimentNumber(key string) (float64, bool) {
	s, ok := r.NutrimentString(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ImageURLs returns the populated photo URLs keyed by field.
func (r *ProductRecord) ImageURLs() map[ImageField]string {
	urls := make(map[ImageField]string)
	if r.ImageFrontURL != "" {
		urls[ImageFront] = r.ImageFrontURL
	}
	if r.ImageIngredientsURL != "" {
		urls[ImageIngredients] = r.ImageIngredientsURL
	}
	if r.ImageNutritionURL != "" {
		urls[ImageNutrition] = r.ImageNutritionURL
	}
	return urls
}

// nutrientCatalogResponse mirrors /api/v1/nutrients.
type nutrientCatalogResponse struct {
	Nutrients []nutrientInfo `json:"nutrients"`
}

// nutrientInfo is one taxonomy row. Kind selects the unit set ("energy" or
// "weight"); Unit is the default unit code.
type nutrientInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	Unit string `json:"unit"`
}

func (n nutrientInfo) definition() nutrient.Definition {
	def := nutrient.Definition{ID: n.ID, Name: n.Name}
	if n.Kind == "energy" {
		def.Units = nutrient.EnergyUnits
		def.DefaultUnit = nutrient.Kcal
	} else {
		def.Units = nutrient.WeightUnits
		def.DefaultUnit = nutrient.Gram
	}
	if u, ok := def.ParseUnit(n.Unit); ok {
		def.DefaultUnit = u
	}
	return def
}

// NutrientLevel carries per-nutrient display metadata.
type NutrientLevel struct {
	Name      string `json:"name"`
	Important bool   `json:"important"`
}

// NutrientMetadata maps nutrient id to its display metadata.
type NutrientMetadata map[string]NutrientLevel

// nutrientMetadataResponse mirrors /api/v1/nutrients/levels.
type nutrientMetadataResponse struct {
	Levels NutrientMetadata `json:"levels"`
}

// ImageUpload is one photo submission.
type ImageUpload struct {
	Barcode string
	Field   ImageField
	Data    []byte
}
