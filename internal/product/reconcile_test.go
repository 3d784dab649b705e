package product

import (
	"encoding/json"
	"testing"

	"github.com/larderhq/larder/internal/form"
	"github.com/larderhq/larder/internal/nutrient"
	"github.com/larderhq/larder/internal/pantry"
)

func testCatalog() *nutrient.Catalog {
	return nutrient.NewCatalog([]nutrient.Definition{
		{ID: "energy-kcal", Name: "Energy", Units: nutrient.EnergyUnits, DefaultUnit: nutrient.Kcal},
		{ID: "fat", Name: "Fat", Units: nutrient.WeightUnits, DefaultUnit: nutrient.Gram},
		{ID: "sodium", Name: "Sodium", Units: nutrient.WeightUnits, DefaultUnit: nutrient.Gram},
	}, nil)
}

func record(t *testing.T, raw string) *pantry.ProductRecord {
	t.Helper()
	var rec pantry.ProductRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	return &rec
}

func TestReconcile_EnergyScenario(t *testing.T) {
	cat := testCatalog()
	rec := record(t, `{
		"product_name": "Oat Bar",
		"brands": "Granary",
		"categories": "Snacks, Cereal bars",
		"quantity": "50 g",
		"serving_size": "25 g",
		"nutrition_data_per": "100g",
		"lang": "en",
		"nutriments": {
			"energy-kcal_100g": 250.0,
			"energy-kcal_unit": "kcal",
			"sodium_100g": 500,
			"sodium_unit": "mg"
		}
	}`)

	res := Reconcile(rec, cat, nil, "de")

	if res.Fields.ProductName != "Oat Bar" || res.Fields.Brand != "Granary" {
		t.Fatalf("fields = %#v", res.Fields)
	}
	if len(res.Fields.Categories) != 1 || res.Fields.Categories[0] != "Snacks, Cereal bars" {
		t.Fatalf("categories = %v, want single element", res.Fields.Categories)
	}
	if res.Fields.PackageLanguage != "en" {
		t.Fatalf("lang = %q, want record lang over default", res.Fields.PackageLanguage)
	}

	energy, _ := cat.Get("energy-kcal")
	if energy.CurrentUnit != nutrient.Kcal || energy.Value != "250" {
		t.Fatalf("energy = unit %v value %q, want kcal 250", energy.CurrentUnit, energy.Value)
	}
	if !energy.DisplayInForm || !energy.IsImportant {
		t.Fatal("energy should be displayed and important")
	}
	if !res.Selected["energy-kcal"] {
		t.Fatal("energy-kcal missing from selection")
	}

	// 500 mg converts to grams.
	sodium, _ := cat.Get("sodium")
	if sodium.CurrentUnit != nutrient.Milligram || sodium.Value != "0.5" {
		t.Fatalf("sodium = unit %v value %q, want mg 0.5", sodium.CurrentUnit, sodium.Value)
	}

	fat, _ := cat.Get("fat")
	if fat.DisplayInForm || fat.IsImportant || res.Selected["fat"] {
		t.Fatalf("fat absent from payload but marked: %#v", fat)
	}
	if fat.Value != "" {
		t.Fatalf("fat value = %q, want untouched empty", fat.Value)
	}
}

func TestReconcile_PerServingBasisAndFallbacks(t *testing.T) {
	cat := testCatalog()
	rec := record(t, `{
		"nutrition_data_per": "serving",
		"nutriments": {"fat_serving": "9.5", "fat_100g": 19}
	}`)

	res := Reconcile(rec, cat, nil, "de")

	if res.Fields.DataBasis != form.PerServing {
		t.Fatalf("basis = %v, want serving", res.Fields.DataBasis)
	}
	if res.Fields.PackageLanguage != "de" {
		t.Fatalf("lang = %q, want default fallback", res.Fields.PackageLanguage)
	}
	if res.Fields.Categories != nil {
		t.Fatalf("categories = %v, want nil fallback", res.Fields.Categories)
	}

	fat, _ := cat.Get("fat")
	if fat.Value != "9.5" {
		t.Fatalf("fat = %q, want serving value 9.5, not the 100g value", fat.Value)
	}
}

func TestReconcile_SelectionOnlyGrows(t *testing.T) {
	cat := testCatalog()
	rec := record(t, `{"nutriments": {"fat_100g": 9}}`)

	selected := map[string]bool{"energy-kcal": true}
	res := Reconcile(rec, cat, selected, "en")

	if !res.Selected["energy-kcal"] {
		t.Fatal("prior selection removed")
	}
	if !res.Selected["fat"] {
		t.Fatal("fat not added to selection")
	}
}

func TestReconcile_UnknownUnitKeepsDefault(t *testing.T) {
	cat := testCatalog()
	rec := record(t, `{"nutriments": {"fat_100g": 9, "fat_unit": "stone"}}`)

	Reconcile(rec, cat, nil, "en")

	fat, _ := cat.Get("fat")
	if fat.CurrentUnit != nutrient.Gram {
		t.Fatalf("fat unit = %v, want default g for unparseable unit", fat.CurrentUnit)
	}
	if fat.Value != "9" {
		t.Fatalf("fat value = %q, want 9", fat.Value)
	}
}

func TestReconcile_ImageURLs(t *testing.T) {
	cat := testCatalog()
	rec := record(t, `{
		"image_front_url": "http://img.test/front.jpg",
		"image_nutrition_url": "http://img.test/nutrition.jpg"
	}`)

	res := Reconcile(rec, cat, nil, "en")

	if len(res.ImageURLs) != 2 {
		t.Fatalf("image urls = %#v, want front and nutrition", res.ImageURLs)
	}
	if res.ImageURLs[pantry.ImageFront] != "http://img.test/front.jpg" {
		t.Fatalf("front url = %q", res.ImageURLs[pantry.ImageFront])
	}
}
