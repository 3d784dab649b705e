// Package product contains the pure mapping logic between fetched product
// records and form state: reconciliation on load, composition on save.
// Neither direction performs I/O.
package product

import (
	"github.com/larderhq/larder/internal/form"
	"github.com/larderhq/larder/internal/nutrient"
	"github.com/larderhq/larder/internal/pantry"
)

// Result carries everything reconciliation derives besides the in-place
// catalog mutations: scalar fields, the grown selection, and the photo URLs
// the caller still has to resolve.
type Result struct {
	Fields    form.Fields
	Selected  map[string]bool
	ImageURLs map[pantry.ImageField]string
}

// Reconcile merges a fetched record into the page's nutrient catalog and
// returns the derived form fields. Catalog entries are mutated in place, in
// catalog order. selected is grown, never shrunk: every nutrient whose
// per-basis key appears in the record is added.
func Reconcile(rec *pantry.ProductRecord, cat *nutrient.Catalog, selected map[string]bool, defaultLang string) Result {
	if selected == nil {
		selected = make(map[string]bool)
	}

	fields := form.Fields{
		ProductName:     rec.ProductName,
		Brand:           rec.Brands,
		Weight:          rec.Quantity,
		ServingSize:     rec.ServingSize,
		DataBasis:       form.Per100g,
		PackageLanguage: defaultLang,
	}
	if rec.Categories != "" {
		fields.Categories = []string{rec.Categories}
	}
	if rec.NutritionDataPer == string(form.PerServing) {
		fields.DataBasis = form.PerServing
	}
	if rec.Lang != "" {
		fields.PackageLanguage = rec.Lang
	}

	suffix := "_100g"
	if fields.DataBasis == form.PerServing {
		suffix = "_serving"
	}

	for _, entry := range cat.Entries {
		if raw, ok := rec.NutrimentString(entry.ID + "_unit"); ok {
			if unit, parsed := entry.ParseUnit(raw); parsed {
				entry.CurrentUnit = unit
			}
		}

		value, present := rec.NutrimentNumber(entry.ID + suffix)
		if present {
			entry.Value = nutrient.FormatAmount(entry.CurrentUnit.ToGrams(value))
			selected[entry.ID] = true
		}
		entry.DisplayInForm = present
		entry.IsImportant = present
	}

	return Result{Fields: fields, Selected: selected, ImageURLs: rec.ImageURLs()}
}
