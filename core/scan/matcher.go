package scan

import (
	"context"

	"catalog-reconciler/core/catalog"

	"go.uber.org/zap"
)

// Matcher resolves canonical records against the local catalog and produces
// per-item verdicts. It is side-effect-free: results are returned, never
// persisted.
type Matcher struct {
	repo   Repository
	logger *zap.Logger
}

// NewMatcher creates a matcher over the given repository.
func NewMatcher(repo Repository, logger *zap.Logger) *Matcher {
	return &Matcher{repo: repo, logger: logger}
}

// MatchLocal probes the source for one local product. A found record yields
// MATCHED plus a diff when fields differ; NotFound yields UNMATCHED; a
// transport failure yields ERROR. The LINKS scan runs it over unmapped
// products, the MISSING_IN_SOURCE scan over every local product.
func (m *Matcher) MatchLocal(ctx context.Context, product LocalProduct, source Source) *Result {
	result := &Result{
		SKU:              product.Record.IdentityKey,
		LocalProductID:   &product.ID,
		ResolutionStatus: ResolutionPending,
	}

	lookup := source.FetchByIdentity(ctx, product.Record.IdentityKey)
	switch lookup.State {
	case LookupFound:
		rec := *lookup.Record
		rec.Normalize()
		result.MatchStatus = MatchMatched
		result.SourceData = &rec
		if rec.ExternalID != "" {
			result.ExternalID = &rec.ExternalID
		}
		if diff := Compare(&product.Record, &rec); diff.HasDifferences {
			result.Diff = &diff
		}
	case LookupNotFound:
		result.MatchStatus = MatchUnmatched
	case LookupUnavailable:
		result.MatchStatus = MatchError
		msg := lookup.Err.Error()
		result.ErrorMessage = &msg
		m.logger.Warn("source lookup failed",
			zap.String("sku", product.Record.IdentityKey),
			zap.String("source_type", source.Type()),
			zap.Error(lookup.Err),
		)
	}

	return result
}

// MatchRemote resolves one source record against the local catalog
// (MISSING_IN_LOCAL scan). UNMATCHED means the record is missing locally.
// Duplicate local identity keys are not deduplicated: the first product is
// reported and the ambiguity flag is set on the snapshot so the resolution
// engine refuses to link it.
func (m *Matcher) MatchRemote(ctx context.Context, rec catalog.Record) (*Result, error) {
	rec.Normalize()

	result := &Result{
		SKU:              rec.IdentityKey,
		SourceData:       &rec,
		ResolutionStatus: ResolutionPending,
	}
	if rec.ExternalID != "" {
		result.ExternalID = &rec.ExternalID
	}

	candidates, err := m.repo.FindLocalByIdentity(ctx, rec.IdentityKey)
	if err != nil {
		return nil, err
	}

	switch {
	case len(candidates) == 0:
		result.MatchStatus = MatchUnmatched
	default:
		result.MatchStatus = MatchMatched
		result.LocalProductID = &candidates[0].ID
		if len(candidates) > 1 {
			rec.SetMetadata(catalog.MetadataAmbiguous, "true")
			m.logger.Warn("duplicate identity key in local catalog",
				zap.String("sku", rec.IdentityKey),
				zap.Int("candidates", len(candidates)),
			)
		}
		if diff := Compare(&candidates[0].Record, &rec); diff.HasDifferences {
			result.Diff = &diff
		}
	}

	return result, nil
}
