package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalog-reconciler/core/catalog"
)

// fakeRepo is an in-memory Repository for engine tests.
type fakeRepo struct {
	mu       sync.Mutex
	products []LocalProduct
	mapped   map[int64]bool // product ID -> has mapping for the scanned source
	sessions map[int64]*Session
	results  map[int64]*Result
	mappings map[string]int // upsert key -> write count
	drafts   []catalog.Record
	nextID   int64

	failAppend  bool
	failLink    map[int64]error // result ID -> forced error
	activeOther bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		mapped:   make(map[int64]bool),
		sessions: make(map[int64]*Session),
		results:  make(map[int64]*Result),
		mappings: make(map[string]int),
		failLink: make(map[int64]error),
	}
}

func (f *fakeRepo) addProduct(id int64, rec catalog.Record) {
	rec.Normalize()
	f.products = append(f.products, LocalProduct{ID: id, Record: rec})
}

func (f *fakeRepo) FindLocalByIdentity(_ context.Context, key string) ([]LocalProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []LocalProduct
	for _, p := range f.products {
		if p.Record.IdentityKey == key {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) LocalProductsWithoutMapping(_ context.Context, _ string, _ *int64, page, pageSize int) ([]LocalProduct, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var unmapped []LocalProduct
	for _, p := range f.products {
		if !f.mapped[p.ID] {
			unmapped = append(unmapped, p)
		}
	}
	start := (page - 1) * pageSize
	if start >= len(unmapped) {
		return nil, int64(len(unmapped)), nil
	}
	end := start + pageSize
	if end > len(unmapped) {
		end = len(unmapped)
	}
	return unmapped[start:end], int64(len(unmapped)), nil
}

func (f *fakeRepo) LocalIdentityKeys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var keys []string
	for _, p := range f.products {
		if !seen[p.Record.IdentityKey] {
			seen[p.Record.IdentityKey] = true
			keys = append(keys, p.Record.IdentityKey)
		}
	}
	return keys, nil
}

func (f *fakeRepo) CreateSession(_ context.Context, session *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	session.ID = f.nextID
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeRepo) SaveSession(_ context.Context, session *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeRepo) GetSession(_ context.Context, id int64) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %d not found", id)
	}
	copied := *session
	return &copied, nil
}

func (f *fakeRepo) HasActiveSession(_ context.Context, _ string, _ *int64, _ int64) (bool, error) {
	return f.activeOther, nil
}

func (f *fakeRepo) AppendResult(_ context.Context, result *Result) error {
	if f.failAppend {
		return fmt.Errorf("storage write refused")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	result.ID = f.nextID
	copied := *result
	f.results[result.ID] = &copied
	return nil
}

func (f *fakeRepo) ResultsByIDs(_ context.Context, ids []int64) ([]*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Result
	for _, id := range ids {
		if result, ok := f.results[id]; ok {
			copied := *result
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountResultsByMatchStatus(_ context.Context, sessionID int64) (map[MatchStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[MatchStatus]int)
	for _, result := range f.results {
		if result.SessionID == sessionID {
			counts[result.MatchStatus]++
		}
	}
	return counts, nil
}

func (f *fakeRepo) LinkResult(_ context.Context, result *Result, actor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLink[result.ID]; err != nil {
		return err
	}
	key := fmt.Sprintf("%d", *result.LocalProductID)
	f.mappings[key]++
	f.resolveLocked(result, ResolutionLinked, actor)
	return nil
}

func (f *fakeRepo) CreateDraftFromResult(_ context.Context, result *Result, actor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, *result.SourceData)
	f.resolveLocked(result, ResolutionCreated, actor)
	return nil
}

func (f *fakeRepo) IgnoreResult(_ context.Context, result *Result, actor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveLocked(result, ResolutionIgnored, actor)
	return nil
}

func (f *fakeRepo) resolveLocked(result *Result, status ResolutionStatus, actor string) {
	now := time.Now()
	stored := f.results[result.ID]
	stored.ResolutionStatus = status
	stored.ResolvedAt = &now
	stored.ResolvedBy = &actor
}

// fakeSource is a scripted Source for engine tests.
type fakeSource struct {
	sourceType string
	records    map[string]catalog.Record // identity key -> record
	failKeys   map[string]bool           // identity keys that report Unavailable
	pages      [][]catalog.Record        // FetchAll pages
	pageErrs   map[int]error             // 1-based page -> error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		sourceType: "test-erp",
		records:    make(map[string]catalog.Record),
		failKeys:   make(map[string]bool),
		pageErrs:   make(map[int]error),
	}
}

func (s *fakeSource) Type() string { return s.sourceType }

func (s *fakeSource) FetchByIdentity(_ context.Context, key string) Lookup {
	if s.failKeys[key] {
		return Unavailable(fmt.Errorf("connection refused"))
	}
	rec, ok := s.records[key]
	if !ok {
		return NotFound()
	}
	return Found(&rec)
}

func (s *fakeSource) FetchAll(_ context.Context, page, _ int) ([]catalog.Record, int64, error) {
	if err := s.pageErrs[page]; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	var total int64
	for _, p := range s.pages {
		total += int64(len(p))
	}
	if page > len(s.pages) {
		return nil, total, nil
	}
	return s.pages[page-1], total, nil
}

func sourceRecord(sku string) catalog.Record {
	return catalog.Record{
		IdentityKey: sku,
		ExternalID:  "ext-" + sku,
		Name:        catalog.StringPtr("Item " + sku),
		PriceNet:    catalog.Dec("10.00"),
		Stock:       catalog.Int64Ptr(5),
		IsActive:    catalog.BoolPtr(true),
	}
}
