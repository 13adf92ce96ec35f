package scan

import (
	"strings"

	"catalog-reconciler/core/catalog"

	"github.com/shopspring/decimal"
)

// moneyPlaces is the fraction-digit precision applied to decimal fields
// before comparison. External systems routinely return 10.001 for a stored
// 10.00; without rounding every run would report a phantom price diff.
const moneyPlaces = 2

// comparableFields is the fixed field set the differ inspects, in report
// order.
var comparableFields = []string{
	"name",
	"sku",
	"ean",
	"description",
	"price_net",
	"price_gross",
	"stock",
	"weight",
	"manufacturer",
	"is_active",
}

// FieldDiff holds both sides of one differing field. Values are the
// un-normalized originals so the caller can display exactly what each system
// holds.
type FieldDiff struct {
	Local  any `json:"local"`
	Source any `json:"source"`
}

// Diff is the structured comparison of a local projection against a source
// record.
type Diff struct {
	HasDifferences bool                 `json:"has_differences"`
	Fields         map[string]FieldDiff `json:"fields"`
}

// Compare computes a field-level diff between the local canonical projection
// and the source record. Comparison normalization: strings are trimmed and
// blank equals nil; decimals are rounded to 2 fraction digits first.
func Compare(local, source *catalog.Record) Diff {
	diff := Diff{Fields: make(map[string]FieldDiff)}

	record := func(field string, localVal, sourceVal any) {
		diff.HasDifferences = true
		diff.Fields[field] = FieldDiff{Local: localVal, Source: sourceVal}
	}

	if !stringsEqual(local.Name, source.Name) {
		record("name", local.Name, source.Name)
	}
	if !rawStringsEqual(local.IdentityKey, source.IdentityKey) {
		record("sku", local.IdentityKey, source.IdentityKey)
	}
	if !stringsEqual(local.EAN, source.EAN) {
		record("ean", local.EAN, source.EAN)
	}
	if !stringsEqual(local.Description, source.Description) {
		record("description", local.Description, source.Description)
	}
	if !decimalsEqual(local.PriceNet, source.PriceNet) {
		record("price_net", nullDecimalValue(local.PriceNet), nullDecimalValue(source.PriceNet))
	}
	if !decimalsEqual(local.PriceGross, source.PriceGross) {
		record("price_gross", nullDecimalValue(local.PriceGross), nullDecimalValue(source.PriceGross))
	}
	if !int64sEqual(local.Stock, source.Stock) {
		record("stock", local.Stock, source.Stock)
	}
	if !decimalsEqual(local.Weight, source.Weight) {
		record("weight", nullDecimalValue(local.Weight), nullDecimalValue(source.Weight))
	}
	if !stringsEqual(local.Manufacturer, source.Manufacturer) {
		record("manufacturer", local.Manufacturer, source.Manufacturer)
	}
	if !boolsEqual(local.IsActive, source.IsActive) {
		record("is_active", local.IsActive, source.IsActive)
	}

	return diff
}

// ComparableFields returns the field names the differ inspects.
func ComparableFields() []string {
	out := make([]string, len(comparableFields))
	copy(out, comparableFields)
	return out
}

// stringsEqual compares optional strings under the null sentinel rule: nil
// and blank are the same value, and surrounding whitespace is ignored.
func stringsEqual(a, b *string) bool {
	return optionalString(a) == optionalString(b)
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func rawStringsEqual(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// decimalsEqual compares after rounding both sides to moneyPlaces.
func decimalsEqual(a, b decimal.NullDecimal) bool {
	if !a.Valid || !b.Valid {
		return a.Valid == b.Valid
	}
	return a.Decimal.Round(moneyPlaces).Equal(b.Decimal.Round(moneyPlaces))
}

func nullDecimalValue(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func int64sEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return (a == nil) == (b == nil)
	}
	return *a == *b
}

func boolsEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return (a == nil) == (b == nil)
	}
	return *a == *b
}
