package walker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/geocode"
	"github.com/coumap/store-crawler/internal/region"
	"github.com/coumap/store-crawler/internal/store"
)

// fakeSource serves canned records per dong and can fail whole regions.
type fakeSource struct {
	records map[string][]store.RawRecord
	fail    map[string]bool
	calls   int
}

func (f *fakeSource) Fetch(_ context.Context, reg region.Descriptor) ([]store.RawRecord, error) {
	f.calls++
	if f.fail[reg.Dong] {
		return nil, errors.New("browser session crashed")
	}
	return f.records[reg.Dong], nil
}

// fakeGeocoder resolves addresses present in its table and reports
// everything else unresolved.
type fakeGeocoder struct {
	coords map[string]store.Coordinate
}

func (f *fakeGeocoder) Resolve(_ context.Context, raw string) (store.Coordinate, error) {
	if c, ok := f.coords[raw]; ok {
		return c, nil
	}
	return store.Coordinate{}, geocode.ErrUnresolved
}

// memRepo is an in-memory Repository with real upsert semantics: keyed on
// the identity key, coordinate preserved when the new one is absent.
type memRepo struct {
	mu       sync.Mutex
	entities map[string]store.Entity
	failName string
}

func newMemRepo() *memRepo {
	return &memRepo{entities: make(map[string]store.Entity)}
}

func (m *memRepo) Upsert(_ context.Context, rec store.RawRecord, coord *store.Coordinate) (store.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Name == m.failName {
		return store.Entity{}, errors.New("constraint violation")
	}
	key := store.IdentityKey(rec.Name, rec.RawAddress)
	entity := store.Entity{
		IdentityKey: key,
		Name:        rec.Name,
		Address:     rec.RawAddress,
		Category:    rec.Category,
		Phone:       rec.Phone,
		Region:      rec.Region,
		LastSeenAt:  time.Now().UTC(),
	}
	if coord != nil {
		entity.Coordinate = coord
	} else if prev, ok := m.entities[key]; ok {
		entity.Coordinate = prev.Coordinate
	}
	m.entities[key] = entity
	return entity, nil
}

func (m *memRepo) Statistics(_ context.Context) (store.RunStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]store.Entity, 0, len(m.entities))
	for _, e := range m.entities {
		snapshot = append(snapshot, e)
	}
	return store.Summarize(snapshot), nil
}

func record(name, dong string) store.RawRecord {
	return store.RawRecord{
		Name:       name,
		RawAddress: fmt.Sprintf("가도 가구 %s %s번지", dong, name),
		Category:   "음식점",
		Region:     region.Descriptor{Province: "가도", District: "가구", Dong: dong},
	}
}

func testHierarchy() region.Hierarchy {
	return region.Hierarchy{"가도": {"가구": {"a동", "b동", "c동"}}}
}

func TestRunTestModeEndToEnd(t *testing.T) {
	t.Parallel()

	recA := store.RawRecord{
		Name:       "우성정육점",
		RawAddress: "서울 강남구 개포동 172",
		Category:   "정육점",
		Region:     region.TestSet()[0],
	}
	recB := store.RawRecord{
		Name:       "한솥도시락",
		RawAddress: "서울 강남구 개포동 655",
		Category:   "도시락",
		Region:     region.TestSet()[0],
	}
	src := &fakeSource{records: map[string][]store.RawRecord{
		"개포동": {recA, recB},
	}}
	geo := &fakeGeocoder{coords: map[string]store.Coordinate{
		recA.RawAddress: {Latitude: 37.4836, Longitude: 127.0664},
	}}
	repo := newMemRepo()

	w := New(src, geo, repo, testHierarchy(), Config{}, zap.NewNop())
	report, err := w.Run(context.Background(), ModeTest, region.Descriptor{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.RegionsCrawled)
	assert.Equal(t, 2, report.RecordsSeen)
	assert.Equal(t, 1, report.GeocodeSucceeded)
	assert.Equal(t, 1, report.GeocodeFailed)
	assert.Equal(t, 2, report.Upserts)
	assert.Zero(t, report.PersistFailures)
	assert.EqualValues(t, 2, report.Stats.TotalStores)
	assert.EqualValues(t, 1, report.Stats.StoresWithCoordinates)
	assert.InDelta(t, 50.00, report.Stats.SuccessRate, 1e-9)
	assert.NotEmpty(t, report.RunID)
}

func TestRegionIsolation(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		records: map[string][]store.RawRecord{
			"a동": {record("가게1", "a동"), record("가게2", "a동")},
			"b동": {record("가게3", "b동")},
			"c동": {record("가게4", "c동")},
		},
		fail: map[string]bool{"b동": true},
	}
	repo := newMemRepo()
	w := New(src, &fakeGeocoder{}, repo, testHierarchy(), Config{}, zap.NewNop())

	report, err := w.Run(context.Background(), ModeFullCrawl, region.Descriptor{})
	require.NoError(t, err, "a failed region must not abort the walk")

	assert.Equal(t, 2, report.RegionsCrawled)
	assert.Equal(t, 1, report.RegionsFailed)
	assert.EqualValues(t, 3, report.Stats.TotalStores, "regions a and c persisted, b skipped")
	for _, e := range repo.entities {
		assert.NotEqual(t, "b동", e.Region.Dong)
	}
}

func TestPersistFailureIsLoudButNonFatal(t *testing.T) {
	t.Parallel()

	src := &fakeSource{records: map[string][]store.RawRecord{
		"a동": {record("가게1", "a동"), record("망할가게", "a동"), record("가게2", "a동")},
	}}
	repo := newMemRepo()
	repo.failName = "망할가게"
	hierarchy := region.Hierarchy{"가도": {"가구": {"a동"}}}
	w := New(src, &fakeGeocoder{}, repo, hierarchy, Config{}, zap.NewNop())

	report, err := w.Run(context.Background(), ModeFullCrawl, region.Descriptor{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.PersistFailures)
	assert.Equal(t, 2, report.Upserts)
	assert.EqualValues(t, 2, report.Stats.TotalStores)
}

func TestSingleRegionRequiresProvinceAndDistrict(t *testing.T) {
	t.Parallel()

	w := New(&fakeSource{}, &fakeGeocoder{}, newMemRepo(), testHierarchy(), Config{}, zap.NewNop())
	_, err := w.Run(context.Background(), ModeSingleRegion, region.Descriptor{Province: "가도"})
	assert.ErrorIs(t, err, region.ErrInvalidRegion)
}

func TestUnknownModeFailsFast(t *testing.T) {
	t.Parallel()

	w := New(&fakeSource{}, &fakeGeocoder{}, newMemRepo(), testHierarchy(), Config{}, zap.NewNop())
	_, err := w.Run(context.Background(), Mode("turbo"), region.Descriptor{})
	assert.Error(t, err)
}

func TestCancellationStopsBetweenRegionsAndStillReports(t *testing.T) {
	t.Parallel()

	src := &fakeSource{records: map[string][]store.RawRecord{
		"a동": {record("가게1", "a동")},
	}}
	repo := newMemRepo()
	w := New(src, &fakeGeocoder{}, repo, testHierarchy(), Config{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := w.Run(ctx, ModeFullCrawl, region.Descriptor{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.calls, "no region starts after the stop signal")
	assert.Zero(t, report.Stats.TotalStores)
	assert.False(t, report.FinishedAt.IsZero(), "a canceled run still produces a report")
}

func TestRerunIsIdempotent(t *testing.T) {
	t.Parallel()

	src := &fakeSource{records: map[string][]store.RawRecord{
		"개포동": {{
			Name:       "우성정육점",
			RawAddress: "서울 강남구 개포동 172",
			Region:     region.TestSet()[0],
		}},
	}}
	geo := &fakeGeocoder{coords: map[string]store.Coordinate{
		"서울 강남구 개포동 172": {Latitude: 37.4836, Longitude: 127.0664},
	}}
	repo := newMemRepo()
	w := New(src, geo, repo, testHierarchy(), Config{}, zap.NewNop())

	first, err := w.Run(context.Background(), ModeTest, region.Descriptor{})
	require.NoError(t, err)

	// Second run: geocoding now fails, but the stored coordinate survives.
	geo.coords = nil
	second, err := w.Run(context.Background(), ModeTest, region.Descriptor{})
	require.NoError(t, err)

	assert.EqualValues(t, 1, first.Stats.TotalStores)
	assert.EqualValues(t, 1, second.Stats.TotalStores, "re-crawl must not duplicate")
	assert.EqualValues(t, 1, second.Stats.StoresWithCoordinates, "coordinate preserved")
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"test", "single_region", "full_crawl"} {
		mode, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), mode)
	}
	_, err := ParseMode("everything")
	assert.Error(t, err)
}
