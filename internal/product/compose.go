package product

import (
	"strings"

	"github.com/larderhq/larder/internal/form"
)

// emptyNutrientValue is what the upload carries for a selected nutrient the
// user left blank. The comma decimal separator matches what the service
// expects; it is not locale formatting.
const emptyNutrientValue = "0,0"

// Compose serializes form state into the flat upload payload. Scalar identity
// fields come first; every selected nutrient contributes a value key and a
// unit key. Existing keys are never overwritten.
func Compose(snap form.Snapshot, barcode string) map[string]string {
	payload := make(map[string]string)
	put := func(key, value string) {
		if _, exists := payload[key]; !exists {
			payload[key] = value
		}
	}

	put("code", barcode)
	put("product_name", snap.Fields.ProductName)
	put("brands", snap.Fields.Brand)
	put("lang", snap.Fields.PackageLanguage)
	put("quantity", snap.Fields.Weight)
	put("serving_size", snap.Fields.ServingSize)
	put("nutrition_data_per", string(snap.Fields.DataBasis))
	put("categories", strings.Join(snap.Fields.Categories, ","))

	for _, entry := range snap.Nutrients {
		if !snap.Selected[entry.ID] {
			continue
		}
		value := entry.Value
		if value == "" {
			value = emptyNutrientValue
		}
		put("nutriment_"+entry.ID, value)
		put("nutriment_"+entry.ID+"_unit", entry.CurrentUnit.Code)
	}

	return payload
}
