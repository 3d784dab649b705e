// Package nutrient models the nutrient taxonomy for a product page: units,
// definitions, and the ordered, mutable entries the form edits.
package nutrient

import (
	"strconv"
	"strings"
)

// Unit is a measurement unit a nutrient value can be expressed in. Grams is
// the conversion factor to the gram-equivalent base (energy units convert 1:1).
type Unit struct {
	Code  string
	Grams float64
}

// Units recognized by the pantry taxonomy.
var (
	Gram      = Unit{Code: "g", Grams: 1}
	Milligram = Unit{Code: "mg", Grams: 0.001}
	Microgram = Unit{Code: "µg", Grams: 0.000001}
	Kcal      = Unit{Code: "kcal", Grams: 1}
	Kilojoule = Unit{Code: "kj", Grams: 1}
)

// WeightUnits and EnergyUnits are the selectable unit sets per definition kind.
var (
	WeightUnits = []Unit{Gram, Milligram, Microgram}
	EnergyUnits = []Unit{Kcal, Kilojoule}
)

// ToGrams converts a value expressed in u to its gram-equivalent.
func (u Unit) ToGrams(v float64) float64 {
	return v * u.Grams
}

// FormatAmount renders a gram-equivalent value the way the form stores it:
// shortest decimal representation, no trailing zeros.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Definition describes one nutrient in the server taxonomy.
type Definition struct {
	ID          string
	Name        string
	Units       []Unit
	DefaultUnit Unit
}

// ParseUnit resolves a raw unit code against the definition's unit set.
// Matching is case-insensitive; "mcg" is accepted for µg.
func (d Definition) ParseUnit(raw string) (Unit, bool) {
	code := strings.ToLower(strings.TrimSpace(raw))
	if code == "mcg" {
		code = Microgram.Code
	}
	for _, u := range d.Units {
		if strings.ToLower(u.Code) == code {
			return u, true
		}
	}
	return Unit{}, false
}

// Entry is one editable nutrient row. Value is the string-encoded
// gram-equivalent amount; empty means the user has not entered one.
type Entry struct {
	Definition
	CurrentUnit   Unit
	Value         string
	DisplayInForm bool
	IsImportant   bool
}

// Catalog holds the page's nutrient entries in taxonomy order. The owning
// controller mutates entries in place during reconciliation; a catalog must
// not be shared across concurrent pages.
type Catalog struct {
	Entries []*Entry
}

// NewCatalog builds a catalog from taxonomy definitions. Entries start at
// their default unit with no value; ids listed in requiredIDs start displayed
// and important so a fresh form opens with those rows visible.
func NewCatalog(defs []Definition, requiredIDs []string) *Catalog {
	required := make(map[string]bool, len(requiredIDs))
	for _, id := range requiredIDs {
		required[id] = true
	}
	c := &Catalog{Entries: make([]*Entry, 0, len(defs))}
	for _, d := range defs {
		c.Entries = append(c.Entries, &Entry{
			Definition:    d,
			CurrentUnit:   d.DefaultUnit,
			DisplayInForm: required[d.ID],
			IsImportant:   required[d.ID],
		})
	}
	return c
}

// Get returns the entry with the given id.
func (c *Catalog) Get(id string) (*Entry, bool) {
	for _, e := range c.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Values returns a by-value copy of the entries, in catalog order.
func (c *Catalog) Values() []Entry {
	out := make([]Entry, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = *e
	}
	return out
}
