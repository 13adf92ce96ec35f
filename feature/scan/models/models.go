package models

import (
	"encoding/json"
	"time"

	"catalog-reconciler/core/catalog"
	"catalog-reconciler/core/scan"

	"github.com/shopspring/decimal"
)

// Product represents the 'products' table, the local side of every match.
// SKU is indexed but deliberately not unique: legacy imports contain
// duplicates and the matcher flags those as ambiguous instead of hiding them.
type Product struct {
	ID           int64               `gorm:"column:id;primaryKey;autoIncrement"`
	SKU          string              `gorm:"column:sku;size:128;index"`
	EAN          *string             `gorm:"column:ean;size:64;index"`
	Name         *string             `gorm:"column:name;size:255"`
	Description  *string             `gorm:"column:description;type:text"`
	PriceNet     decimal.NullDecimal `gorm:"column:price_net;type:decimal(12,2)"`
	PriceGross   decimal.NullDecimal `gorm:"column:price_gross;type:decimal(12,2)"`
	Stock        *int64              `gorm:"column:stock"`
	Weight       decimal.NullDecimal `gorm:"column:weight;type:decimal(10,3)"`
	Manufacturer *string             `gorm:"column:manufacturer;size:255"`
	IsActive     *bool               `gorm:"column:is_active"`
	CreatedAt    time.Time           `gorm:"column:created_at"`
	UpdatedAt    time.Time           `gorm:"column:updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ToRecord converts the row into the canonical record the differ compares.
func (p Product) ToRecord() catalog.Record {
	rec := catalog.Record{
		IdentityKey:  p.SKU,
		Name:         p.Name,
		EAN:          p.EAN,
		Description:  p.Description,
		PriceNet:     p.PriceNet,
		PriceGross:   p.PriceGross,
		Stock:        p.Stock,
		Weight:       p.Weight,
		Manufacturer: p.Manufacturer,
		IsActive:     p.IsActive,
	}
	rec.Normalize()
	return rec
}

// ExternalMapping represents the 'external_mappings' table. One row per
// product and source pair; the unique index makes the link upsert idempotent.
type ExternalMapping struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID    int64           `gorm:"column:product_id;uniqueIndex:idx_product_source"`
	SourceType   string          `gorm:"column:source_type;size:64;uniqueIndex:idx_product_source"`
	SourceID     *int64          `gorm:"column:source_id;uniqueIndex:idx_product_source"`
	ExternalID   string          `gorm:"column:external_id;size:128;index"`
	ExternalData json.RawMessage `gorm:"column:external_data;type:json"`
	LastSyncedAt *time.Time      `gorm:"column:last_synced_at"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (ExternalMapping) TableName() string {
	return "external_mappings"
}

// DraftProduct represents the 'draft_products' table. Drafts are created from
// unmatched scan results and reviewed by an operator before promotion into
// the products table.
type DraftProduct struct {
	ID           int64               `gorm:"column:id;primaryKey;autoIncrement"`
	SKU          string              `gorm:"column:sku;size:128;index"`
	EAN          *string             `gorm:"column:ean;size:64"`
	Name         *string             `gorm:"column:name;size:255"`
	Description  *string             `gorm:"column:description;type:text"`
	PriceNet     decimal.NullDecimal `gorm:"column:price_net;type:decimal(12,2)"`
	PriceGross   decimal.NullDecimal `gorm:"column:price_gross;type:decimal(12,2)"`
	Stock        *int64              `gorm:"column:stock"`
	Weight       decimal.NullDecimal `gorm:"column:weight;type:decimal(10,3)"`
	Manufacturer *string             `gorm:"column:manufacturer;size:255"`
	SourceType   string              `gorm:"column:source_type;size:64"`
	SourceID     *int64              `gorm:"column:source_id"`
	ExternalID   *string             `gorm:"column:external_id;size:128"`
	CreatedBy    string              `gorm:"column:created_by;size:64"`
	CreatedAt    time.Time           `gorm:"column:created_at"`
}

func (DraftProduct) TableName() string {
	return "draft_products"
}

// DraftFromRecord builds a draft row from a source snapshot.
func DraftFromRecord(rec catalog.Record, sourceType string, sourceID *int64, actor string) DraftProduct {
	var externalID *string
	if rec.ExternalID != "" {
		id := rec.ExternalID
		externalID = &id
	}
	return DraftProduct{
		SKU:          rec.IdentityKey,
		EAN:          rec.EAN,
		Name:         rec.Name,
		Description:  rec.Description,
		PriceNet:     rec.PriceNet,
		PriceGross:   rec.PriceGross,
		Stock:        rec.Stock,
		Weight:       rec.Weight,
		Manufacturer: rec.Manufacturer,
		SourceType:   sourceType,
		SourceID:     sourceID,
		ExternalID:   externalID,
		CreatedBy:    actor,
	}
}

// ScanSession represents the 'scan_sessions' table.
type ScanSession struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ScanType     string          `gorm:"column:scan_type;size:32"`
	SourceType   string          `gorm:"column:source_type;size:64;index:idx_source_status"`
	SourceID     *int64          `gorm:"column:source_id;index:idx_source_status"`
	Status       string          `gorm:"column:status;size:16;index:idx_source_status"`
	TotalScanned int             `gorm:"column:total_scanned"`
	Matched      int             `gorm:"column:matched"`
	Unmatched    int             `gorm:"column:unmatched"`
	Errors       int             `gorm:"column:errors"`
	Summary      json.RawMessage `gorm:"column:result_summary;type:json"`
	ErrorMessage *string         `gorm:"column:error_message;type:text"`
	CreatedBy    string          `gorm:"column:created_by;size:64"`
	StartedAt    *time.Time      `gorm:"column:started_at"`
	CompletedAt  *time.Time      `gorm:"column:completed_at"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (ScanSession) TableName() string {
	return "scan_sessions"
}

// ToDomain converts the row into a scan session.
func (s ScanSession) ToDomain() (*scan.Session, error) {
	session := &scan.Session{
		ID:           s.ID,
		ScanType:     scan.ScanType(s.ScanType),
		SourceType:   s.SourceType,
		SourceID:     s.SourceID,
		Status:       scan.SessionStatus(s.Status),
		Counts:       scan.Counts{TotalScanned: s.TotalScanned, Matched: s.Matched, Unmatched: s.Unmatched, Errors: s.Errors},
		ErrorMessage: s.ErrorMessage,
		CreatedBy:    s.CreatedBy,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
	}
	if len(s.Summary) > 0 {
		if err := json.Unmarshal(s.Summary, &session.Summary); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// SessionFromDomain builds a row from a scan session.
func SessionFromDomain(s *scan.Session) (ScanSession, error) {
	row := ScanSession{
		ID:           s.ID,
		ScanType:     string(s.ScanType),
		SourceType:   s.SourceType,
		SourceID:     s.SourceID,
		Status:       string(s.Status),
		TotalScanned: s.Counts.TotalScanned,
		Matched:      s.Counts.Matched,
		Unmatched:    s.Counts.Unmatched,
		Errors:       s.Counts.Errors,
		ErrorMessage: s.ErrorMessage,
		CreatedBy:    s.CreatedBy,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
	}
	if s.Summary != nil {
		data, err := json.Marshal(s.Summary)
		if err != nil {
			return ScanSession{}, err
		}
		row.Summary = data
	}
	return row, nil
}

// ScanResult represents the 'scan_results' table. SourceData and Diff are
// JSON snapshots; SourceData is immutable once written.
type ScanResult struct {
	ID               int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ScanSessionID    int64           `gorm:"column:scan_session_id;index"`
	SKU              string          `gorm:"column:sku;size:128;index"`
	ExternalID       *string         `gorm:"column:external_id;size:128"`
	LocalProductID   *int64          `gorm:"column:local_product_id"`
	MatchStatus      string          `gorm:"column:match_status;size:16;index"`
	SourceData       json.RawMessage `gorm:"column:source_data;type:json"`
	Diff             json.RawMessage `gorm:"column:diff;type:json"`
	ResolutionStatus string          `gorm:"column:resolution_status;size:16;index"`
	ResolvedAt       *time.Time      `gorm:"column:resolved_at"`
	ResolvedBy       *string         `gorm:"column:resolved_by;size:64"`
	ErrorMessage     *string         `gorm:"column:error_message;type:text"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
}

func (ScanResult) TableName() string {
	return "scan_results"
}

// ToDomain converts the row into a scan result.
func (r ScanResult) ToDomain() (*scan.Result, error) {
	result := &scan.Result{
		ID:               r.ID,
		SessionID:        r.ScanSessionID,
		SKU:              r.SKU,
		ExternalID:       r.ExternalID,
		LocalProductID:   r.LocalProductID,
		MatchStatus:      scan.MatchStatus(r.MatchStatus),
		ResolutionStatus: scan.ResolutionStatus(r.ResolutionStatus),
		ResolvedAt:       r.ResolvedAt,
		ResolvedBy:       r.ResolvedBy,
		ErrorMessage:     r.ErrorMessage,
	}
	if len(r.SourceData) > 0 {
		var rec catalog.Record
		if err := json.Unmarshal(r.SourceData, &rec); err != nil {
			return nil, err
		}
		result.SourceData = &rec
	}
	if len(r.Diff) > 0 {
		var diff scan.Diff
		if err := json.Unmarshal(r.Diff, &diff); err != nil {
			return nil, err
		}
		result.Diff = &diff
	}
	return result, nil
}

// ResultFromDomain builds a row from a scan result.
func ResultFromDomain(result *scan.Result) (ScanResult, error) {
	row := ScanResult{
		ID:               result.ID,
		ScanSessionID:    result.SessionID,
		SKU:              result.SKU,
		ExternalID:       result.ExternalID,
		LocalProductID:   result.LocalProductID,
		MatchStatus:      string(result.MatchStatus),
		ResolutionStatus: string(result.ResolutionStatus),
		ResolvedAt:       result.ResolvedAt,
		ResolvedBy:       result.ResolvedBy,
		ErrorMessage:     result.ErrorMessage,
	}
	if result.SourceData != nil {
		data, err := json.Marshal(result.SourceData)
		if err != nil {
			return ScanResult{}, err
		}
		row.SourceData = data
	}
	if result.Diff != nil {
		data, err := json.Marshal(result.Diff)
		if err != nil {
			return ScanResult{}, err
		}
		row.Diff = data
	}
	return row, nil
}
