package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/data"
	"github.com/target/review-ingest/internal/domain/model"
)

type hotelKey struct {
	externalID int64
	providerID int64
}

type reviewerKey struct {
	name       string
	country    string
	providerID int64
}

type catalogState struct {
	providers  map[int64]*model.Provider
	hotels     map[hotelKey]*model.Hotel
	reviewers  map[reviewerKey]*model.Reviewer
	reviews    map[int64]*model.Review
	stays      map[int64]model.StayInfo
	summaries  map[[2]int64]model.ProviderHotelSummary
	categories map[string]*model.RatingCategory
	grades     map[[3]int64]model.ProviderHotelGrade
	nextID     int64
}

func (s *catalogState) clone() catalogState {
	return catalogState{
		providers:  maps.Clone(s.providers),
		hotels:     maps.Clone(s.hotels),
		reviewers:  maps.Clone(s.reviewers),
		reviews:    maps.Clone(s.reviews),
		stays:      maps.Clone(s.stays),
		summaries:  maps.Clone(s.summaries),
		categories: maps.Clone(s.categories),
		grades:     maps.Clone(s.grades),
		nextID:     s.nextID,
	}
}

// fakeCatalog is an in-memory CatalogRepository. A failing callback rolls back every
// write made inside it.
type fakeCatalog struct {
	mu     sync.Mutex
	state  catalogState
	failOn map[string]error

	// onTx runs before each transaction with its 1-based sequence number.
	onTx  func(n int)
	txSeq int
}

var (
	_ core.CatalogRepository = (*fakeCatalog)(nil)
	_ core.CatalogTx         = (*fakeCatalogTx)(nil)
)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		state: catalogState{
			providers:  map[int64]*model.Provider{},
			hotels:     map[hotelKey]*model.Hotel{},
			reviewers:  map[reviewerKey]*model.Reviewer{},
			reviews:    map[int64]*model.Review{},
			stays:      map[int64]model.StayInfo{},
			summaries:  map[[2]int64]model.ProviderHotelSummary{},
			categories: map[string]*model.RatingCategory{},
			grades:     map[[3]int64]model.ProviderHotelGrade{},
		},
		failOn: map[string]error{},
	}
}

func (f *fakeCatalog) WithinTx(ctx context.Context, fn func(core.CatalogTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txSeq++
	if f.onTx != nil {
		f.onTx(f.txSeq)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin catalog tx: %w", err)
	}
	snapshot := f.state.clone()
	if err := fn(&fakeCatalogTx{f: f}); err != nil {
		f.state = snapshot
		return err
	}
	return nil
}

func (f *fakeCatalog) reviewCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.state.reviews)
}

type fakeCatalogTx struct {
	f *fakeCatalog
}

func (t *fakeCatalogTx) fail(op string) error {
	if err, ok := t.f.failOn[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (t *fakeCatalogTx) id() int64 {
	t.f.state.nextID++
	return t.f.state.nextID
}

func (t *fakeCatalogTx) EnsureProvider(_ context.Context, p model.Provider) (*model.Provider, error) {
	if err := t.fail("EnsureProvider"); err != nil {
		return nil, err
	}
	if got, ok := t.f.state.providers[p.ExternalID]; ok {
		return got, nil
	}
	p.ID = t.id()
	t.f.state.providers[p.ExternalID] = &p
	return &p, nil
}

func (t *fakeCatalogTx) FindProviderByExternalID(_ context.Context, externalID int64) (*model.Provider, error) {
	if got, ok := t.f.state.providers[externalID]; ok {
		return got, nil
	}
	return nil, fmt.Errorf("provider %d: %w", externalID, data.ErrCatalogNotFound)
}

func (t *fakeCatalogTx) EnsureHotel(_ context.Context, h model.Hotel) (*model.Hotel, error) {
	if err := t.fail("EnsureHotel"); err != nil {
		return nil, err
	}
	key := hotelKey{h.ExternalID, h.ProviderID}
	if got, ok := t.f.state.hotels[key]; ok {
		return got, nil
	}
	h.ID = t.id()
	t.f.state.hotels[key] = &h
	return &h, nil
}

func (t *fakeCatalogTx) EnsureReviewer(_ context.Context, r model.Reviewer) (*model.Reviewer, error) {
	key := reviewerKey{name: r.DisplayName, providerID: r.ProviderID}
	if r.CountryName != nil {
		key.country = *r.CountryName
	}
	if got, ok := t.f.state.reviewers[key]; ok {
		return got, nil
	}
	r.ID = t.id()
	t.f.state.reviewers[key] = &r
	return &r, nil
}

func (t *fakeCatalogTx) FindReviewByExternalID(_ context.Context, externalID int64) (*model.Review, error) {
	if got, ok := t.f.state.reviews[externalID]; ok {
		return got, nil
	}
	return nil, fmt.Errorf("review %d: %w", externalID, data.ErrCatalogNotFound)
}

func (t *fakeCatalogTx) CreateReviewIfAbsent(_ context.Context, r model.Review) (*model.Review, bool, error) {
	if err := t.fail("CreateReviewIfAbsent"); err != nil {
		return nil, false, err
	}
	if got, ok := t.f.state.reviews[r.ExternalID]; ok {
		return got, false, nil
	}
	r.ID = t.id()
	t.f.state.reviews[r.ExternalID] = &r
	return &r, true, nil
}

func (t *fakeCatalogTx) CreateStayInfoIfAbsent(_ context.Context, s model.StayInfo) (bool, error) {
	if _, ok := t.f.state.stays[s.ReviewID]; ok {
		return false, nil
	}
	t.f.state.stays[s.ReviewID] = s
	return true, nil
}

func (t *fakeCatalogTx) CreateSummaryIfAbsent(_ context.Context, s model.ProviderHotelSummary) (bool, error) {
	key := [2]int64{s.HotelID, s.ProviderID}
	if _, ok := t.f.state.summaries[key]; ok {
		return false, nil
	}
	t.f.state.summaries[key] = s
	return true, nil
}

func (t *fakeCatalogTx) EnsureCategory(_ context.Context, name string) (*model.RatingCategory, error) {
	if name == "" {
		return nil, errors.New("category name is required")
	}
	if got, ok := t.f.state.categories[name]; ok {
		return got, nil
	}
	c := &model.RatingCategory{ID: t.id(), Name: name}
	t.f.state.categories[name] = c
	return c, nil
}

func (t *fakeCatalogTx) CreateGradeIfAbsent(_ context.Context, g model.ProviderHotelGrade) (bool, error) {
	key := [3]int64{g.HotelID, g.ProviderID, g.CategoryID}
	if _, ok := t.f.state.grades[key]; ok {
		return false, nil
	}
	t.f.state.grades[key] = g
	return true, nil
}
