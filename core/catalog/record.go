package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MetadataAmbiguous marks a record whose identity key matched more than one
// local product. Linking such a record is refused by the resolution engine.
const MetadataAmbiguous = "ambiguous_match"

// Record is the normalized, source-agnostic representation of one catalog
// item. Every source adapter must emit this shape; raw source payloads never
// leak past the adapter boundary.
//
// Optional fields use pointers (or NullDecimal) so that "absent" is
// distinguishable from a zero value. Normalize collapses blank strings into
// the nil sentinel, so "missing" and "empty string" compare equal.
type Record struct {
	// IdentityKey is the stable business identifier (SKU) used to correlate
	// local and external records. Non-empty and trimmed after Normalize.
	IdentityKey string `json:"identity_key"`

	// ExternalID is the source-native identifier of the record.
	ExternalID string `json:"external_id"`

	// Name is the display name of the item.
	Name *string `json:"name"`

	// EAN is the European Article Number, when the source carries one.
	EAN *string `json:"ean"`

	// Description is the long description of the item.
	Description *string `json:"description"`

	// PriceNet is the net price with 2-fraction-digit semantics.
	PriceNet decimal.NullDecimal `json:"price_net"`

	// PriceGross is the gross price with 2-fraction-digit semantics.
	PriceGross decimal.NullDecimal `json:"price_gross"`

	// Stock is the available quantity, never negative when present.
	Stock *int64 `json:"stock"`

	// Weight is the item weight.
	Weight decimal.NullDecimal `json:"weight"`

	// Manufacturer is the manufacturer name.
	Manufacturer *string `json:"manufacturer"`

	// IsActive reports whether the item is active in the source.
	IsActive *bool `json:"is_active"`

	// Metadata carries source- or scan-specific flags (e.g. the ambiguity
	// marker). Never compared by the differ.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Normalize trims the identity key and collapses blank optional strings into
// nil. It is idempotent: normalizing twice yields the same record as
// normalizing once.
func (r *Record) Normalize() {
	r.IdentityKey = strings.TrimSpace(r.IdentityKey)
	r.ExternalID = strings.TrimSpace(r.ExternalID)
	r.Name = normalizeOptional(r.Name)
	r.EAN = normalizeOptional(r.EAN)
	r.Description = normalizeOptional(r.Description)
	r.Manufacturer = normalizeOptional(r.Manufacturer)
	if r.Stock != nil && *r.Stock < 0 {
		zero := int64(0)
		r.Stock = &zero
	}
}

// Valid reports whether the record carries a usable identity key.
func (r *Record) Valid() bool {
	return strings.TrimSpace(r.IdentityKey) != ""
}

// SetMetadata sets a metadata flag, allocating the map on first use.
func (r *Record) SetMetadata(key, value string) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]string)
	}
	r.Metadata[key] = value
}

// IsAmbiguous reports whether the ambiguity flag is set.
func (r *Record) IsAmbiguous() bool {
	return r.Metadata[MetadataAmbiguous] == "true"
}

// normalizeOptional trims s and returns nil for blank values so that missing
// and empty compare equal downstream.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// StringPtr returns a pointer to s. Convenience for building records.
func StringPtr(s string) *string { return &s }

// Int64Ptr returns a pointer to v. Convenience for building records.
func Int64Ptr(v int64) *int64 { return &v }

// BoolPtr returns a pointer to b. Convenience for building records.
func BoolPtr(b bool) *bool { return &b }

// Dec wraps a valid decimal value for record fields.
func Dec(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
