package product

import (
	"testing"

	"github.com/larderhq/larder/internal/form"
	"github.com/larderhq/larder/internal/nutrient"
)

func TestCompose_ScalarsAndNutrients(t *testing.T) {
	snap := form.Snapshot{
		Fields: form.Fields{
			ProductName:     "Oat Bar",
			Brand:           "Granary",
			Categories:      []string{"Snacks", "Cereal bars"},
			Weight:          "50 g",
			ServingSize:     "25 g",
			DataBasis:       form.Per100g,
			PackageLanguage: "en",
		},
		Nutrients: []nutrient.Entry{
			{Definition: nutrient.Definition{ID: "energy-kcal"}, CurrentUnit: nutrient.Kcal, Value: "250"},
			{Definition: nutrient.Definition{ID: "fat"}, CurrentUnit: nutrient.Gram, Value: ""},
			{Definition: nutrient.Definition{ID: "sodium"}, CurrentUnit: nutrient.Milligram, Value: "0.5"},
		},
		Selected: map[string]bool{"energy-kcal": true, "fat": true},
	}

	payload := Compose(snap, "5901234123457")

	want := map[string]string{
		"code":                       "5901234123457",
		"product_name":               "Oat Bar",
		"brands":                     "Granary",
		"lang":                       "en",
		"quantity":                   "50 g",
		"serving_size":               "25 g",
		"nutrition_data_per":         "100g",
		"categories":                 "Snacks,Cereal bars",
		"nutriment_energy-kcal":      "250",
		"nutriment_energy-kcal_unit": "kcal",
		"nutriment_fat":              "0,0",
		"nutriment_fat_unit":         "g",
	}
	if len(payload) != len(want) {
		t.Fatalf("payload has %d keys, want %d: %#v", len(payload), len(want), payload)
	}
	for k, v := range want {
		if payload[k] != v {
			t.Fatalf("payload[%q] = %q, want %q", k, payload[k], v)
		}
	}
	if _, ok := payload["nutriment_sodium"]; ok {
		t.Fatal("unselected sodium composed into payload")
	}
}

func TestCompose_FirstWriterWins(t *testing.T) {
	// A nutrient id crafted to collide with a scalar key must not clobber it.
	snap := form.Snapshot{
		Fields: form.Fields{ProductName: "Oat Bar", DataBasis: form.Per100g},
		Nutrients: []nutrient.Entry{
			{Definition: nutrient.Definition{ID: "a"}, CurrentUnit: nutrient.Gram, Value: "1"},
			{Definition: nutrient.Definition{ID: "a"}, CurrentUnit: nutrient.Milligram, Value: "2"},
		},
		Selected: map[string]bool{"a": true},
	}

	payload := Compose(snap, "1")
	if payload["nutriment_a"] != "1" || payload["nutriment_a_unit"] != "g" {
		t.Fatalf("duplicate id overwrote first entry: %#v", payload)
	}
}

func TestComposeAfterReconcile_RoundTrip(t *testing.T) {
	cat := nutrient.NewCatalog([]nutrient.Definition{
		{ID: "energy-kcal", Units: nutrient.EnergyUnits, DefaultUnit: nutrient.Kcal},
		{ID: "sodium", Units: nutrient.WeightUnits, DefaultUnit: nutrient.Gram},
	}, nil)

	rec := record(t, `{
		"product_name": "Oat Bar",
		"nutrition_data_per": "100g",
		"lang": "en",
		"nutriments": {
			"energy-kcal_100g": 250.0,
			"energy-kcal_unit": "kcal",
			"sodium_100g": 0.5,
			"sodium_unit": "mg"
		}
	}`)

	res := Reconcile(rec, cat, nil, "en")
	snap := form.Snapshot{Fields: res.Fields, Nutrients: cat.Values(), Selected: res.Selected}

	payload := Compose(snap, "5901234123457")

	if payload["code"] != "5901234123457" {
		t.Fatalf("code = %q", payload["code"])
	}
	if payload["nutriment_energy-kcal"] != "250" || payload["nutriment_energy-kcal_unit"] != "kcal" {
		t.Fatalf("energy round trip = %q / %q", payload["nutriment_energy-kcal"], payload["nutriment_energy-kcal_unit"])
	}
	if payload["nutriment_sodium_unit"] != "mg" {
		t.Fatalf("sodium unit = %q, want record's mg preserved", payload["nutriment_sodium_unit"])
	}
}
