package models

import (
	"testing"
	"time"

	"catalog-reconciler/core/catalog"
	"catalog-reconciler/core/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_ToRecord(t *testing.T) {
	blank := "  "
	stock := int64(-2)
	row := Product{
		ID:       7,
		SKU:      " A100 ",
		Name:     catalog.StringPtr("Desk Lamp"),
		EAN:      &blank,
		PriceNet: catalog.Dec("19.99"),
		Stock:    &stock,
	}

	rec := row.ToRecord()

	assert.Equal(t, "A100", rec.IdentityKey)
	assert.Nil(t, rec.EAN, "blank EAN collapses to nil")
	require.NotNil(t, rec.Stock)
	assert.Equal(t, int64(0), *rec.Stock, "negative stock clamps to zero")
}

func TestSessionRoundTrip(t *testing.T) {
	started := time.Now().Add(-time.Minute)
	session := &scan.Session{
		ID:         5,
		ScanType:   scan.ScanLinks,
		SourceType: "erp",
		SourceID:   catalog.Int64Ptr(2),
		Status:     scan.StatusCompleted,
		StartedAt:  &started,
		Counts:     scan.Counts{TotalScanned: 10, Matched: 7, Unmatched: 2, Errors: 1},
		Summary:    map[string]any{"pages": float64(3)},
		CreatedBy:  "cli",
	}

	row, err := SessionFromDomain(session)
	require.NoError(t, err)
	assert.Equal(t, "links", row.ScanType)
	assert.Equal(t, "completed", row.Status)
	assert.Equal(t, 7, row.Matched)
	assert.NotEmpty(t, row.Summary)

	back, err := row.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, session.Counts, back.Counts)
	assert.Equal(t, session.Summary, back.Summary)
	assert.Equal(t, session.SourceID, back.SourceID)
}

func TestResultRoundTrip(t *testing.T) {
	rec := catalog.Record{
		IdentityKey: "A100",
		ExternalID:  "ext-1",
		Name:        catalog.StringPtr("Desk Lamp"),
		PriceNet:    catalog.Dec("19.99"),
	}
	diff := scan.Compare(&catalog.Record{IdentityKey: "A100", PriceNet: catalog.Dec("18.00")}, &rec)
	require.True(t, diff.HasDifferences)

	result := &scan.Result{
		ID:               3,
		SessionID:        5,
		SKU:              "A100",
		MatchStatus:      scan.MatchMatched,
		SourceData:       &rec,
		Diff:             &diff,
		ResolutionStatus: scan.ResolutionPending,
	}

	row, err := ResultFromDomain(result)
	require.NoError(t, err)
	assert.NotEmpty(t, row.SourceData)
	assert.NotEmpty(t, row.Diff)

	back, err := row.ToDomain()
	require.NoError(t, err)
	require.NotNil(t, back.SourceData)
	assert.Equal(t, "A100", back.SourceData.IdentityKey)
	require.NotNil(t, back.Diff)
	assert.True(t, back.Diff.HasDifferences)
	assert.Contains(t, back.Diff.Fields, "price_net")
}

func TestResultRoundTrip_NoSnapshot(t *testing.T) {
	result := &scan.Result{ID: 4, SessionID: 5, SKU: "B200", MatchStatus: scan.MatchError}

	row, err := ResultFromDomain(result)
	require.NoError(t, err)
	assert.Empty(t, row.SourceData)

	back, err := row.ToDomain()
	require.NoError(t, err)
	assert.Nil(t, back.SourceData)
	assert.Nil(t, back.Diff)
}

func TestDraftFromRecord(t *testing.T) {
	rec := catalog.Record{
		IdentityKey: "C300",
		ExternalID:  "ext-3",
		Name:        catalog.StringPtr("Chair"),
		Stock:       catalog.Int64Ptr(4),
	}

	draft := DraftFromRecord(rec, "storefront", catalog.Int64Ptr(1), "tester")

	assert.Equal(t, "C300", draft.SKU)
	require.NotNil(t, draft.ExternalID)
	assert.Equal(t, "ext-3", *draft.ExternalID)
	assert.Equal(t, "storefront", draft.SourceType)
	assert.Equal(t, "tester", draft.CreatedBy)
}
