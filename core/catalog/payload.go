package catalog

import (
	"catalog-reconciler/core/utils"

	"github.com/shopspring/decimal"
)

// FromPayload builds a normalized Record from a loosely typed source payload.
// External APIs deliver numbers as strings, booleans as "1"/"0" and omit
// fields freely; every value is coerced defensively and absent or null keys
// stay nil. Adapters call this so raw payload shapes never leak past the
// adapter boundary.
func FromPayload(payload map[string]any) Record {
	rec := Record{
		IdentityKey: stringField(payload, "sku"),
		ExternalID:  stringField(payload, "external_id"),
	}

	if v, ok := present(payload, "name"); ok {
		rec.Name = StringPtr(utils.ToString(v))
	}
	if v, ok := present(payload, "ean"); ok {
		rec.EAN = StringPtr(utils.ToString(v))
	}
	if v, ok := present(payload, "description"); ok {
		rec.Description = StringPtr(utils.ToString(v))
	}
	if v, ok := present(payload, "manufacturer"); ok {
		rec.Manufacturer = StringPtr(utils.ToString(v))
	}
	if v, ok := present(payload, "price_net"); ok {
		rec.PriceNet = decimalField(v)
	}
	if v, ok := present(payload, "price_gross"); ok {
		rec.PriceGross = decimalField(v)
	}
	if v, ok := present(payload, "weight"); ok {
		rec.Weight = decimalField(v)
	}
	if v, ok := present(payload, "stock"); ok {
		rec.Stock = Int64Ptr(int64(utils.ToInt(v)))
	}
	if v, ok := present(payload, "is_active"); ok {
		rec.IsActive = BoolPtr(utils.ToBool(v))
	}

	rec.Normalize()
	return rec
}

func present(payload map[string]any, key string) (any, bool) {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func stringField(payload map[string]any, key string) string {
	v, ok := present(payload, key)
	if !ok {
		return ""
	}
	return utils.ToString(v)
}

func decimalField(v any) decimal.NullDecimal {
	d, err := decimal.NewFromString(utils.ToString(v))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
