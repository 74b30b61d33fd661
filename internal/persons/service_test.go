package persons

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
	"github.com/Hamayesh-Negar/Back-end/pkg/utils"
)

type fakeStore struct {
	persons    map[uuid.UUID]*models.Person
	links      map[uuid.UUID][]uuid.UUID
	categories map[uuid.UUID]uuid.UUID // categoryID -> conferenceID
	takenCodes map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		persons:    make(map[uuid.UUID]*models.Person),
		links:      make(map[uuid.UUID][]uuid.UUID),
		categories: make(map[uuid.UUID]uuid.UUID),
		takenCodes: make(map[string]bool),
	}
}

func (f *fakeStore) Create(_ context.Context, p *models.Person) error {
	p.ID = uuid.New()
	p.IsActive = true
	f.persons[p.ID] = p
	f.takenCodes[p.UniqueCode] = true
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Person, error) {
	return f.persons[id], nil
}

func (f *fakeStore) GetByHashedCode(_ context.Context, hashed string) (*models.Person, error) {
	for _, p := range f.persons {
		if p.HashedUniqueCode == hashed {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CodeExists(_ context.Context, code string) (bool, error) {
	return f.takenCodes[code], nil
}

func (f *fakeStore) ListByConference(context.Context, uuid.UUID, ListFilter) ([]*models.Person, error) {
	return nil, nil
}

func (f *fakeStore) Update(_ context.Context, p *models.Person) error {
	f.persons[p.ID] = p
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.persons[id]; !ok {
		return false, nil
	}
	delete(f.persons, id)
	return true, nil
}

func (f *fakeStore) ListCategoryIDs(_ context.Context, personID uuid.UUID) ([]uuid.UUID, error) {
	return f.links[personID], nil
}

func (f *fakeStore) ValidCategoryIDs(_ context.Context, conferenceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, id := range ids {
		if f.categories[id] == conferenceID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeStore) SetCategories(_ context.Context, personID uuid.UUID, categoryIDs []uuid.UUID) error {
	f.links[personID] = categoryIDs
	return nil
}

type fakeConferences struct{ conf *models.Conference }

func (f *fakeConferences) GetByID(_ context.Context, id uuid.UUID) (*models.Conference, error) {
	if f.conf != nil && f.conf.ID == id {
		return f.conf, nil
	}
	return nil, nil
}

type fakeSyncer struct {
	synced map[uuid.UUID][]uuid.UUID
}

func (f *fakeSyncer) SyncPersonCategories(_ context.Context, personID uuid.UUID, added []uuid.UUID) error {
	if f.synced == nil {
		f.synced = make(map[uuid.UUID][]uuid.UUID)
	}
	f.synced[personID] = append(f.synced[personID], added...)
	return nil
}

type fixture struct {
	store  *fakeStore
	syncer *fakeSyncer
	svc    *Service
	conf   *models.Conference
}

func newFixture() *fixture {
	conf := &models.Conference{ID: uuid.New(), Name: "Tech Summit", IsActive: true}
	store := newFakeStore()
	syncer := &fakeSyncer{}
	return &fixture{
		store:  store,
		syncer: syncer,
		svc:    NewService(store, &fakeConferences{conf: conf}, syncer, zap.NewNop()),
		conf:   conf,
	}
}

func TestCreateGeneratesBadgeCode(t *testing.T) {
	f := newFixture()

	p, err := f.svc.Create(context.Background(), f.conf.ID, CreateInput{
		FirstName: "Sara",
		LastName:  "Moradi",
	}, uuid.New())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.UniqueCode, "TEC-MOR-"), p.UniqueCode)
	assert.Equal(t, p.UniqueCode, strings.ToUpper(p.UniqueCode))
	assert.Equal(t, utils.HashCode(p.UniqueCode), p.HashedUniqueCode)
}

func TestCreateCodesAreUniqueAcrossAttendees(t *testing.T) {
	f := newFixture()
	codes := make(map[string]bool)
	for i := 0; i < 20; i++ {
		p, err := f.svc.Create(context.Background(), f.conf.ID, CreateInput{
			FirstName: "Sara",
			LastName:  "Moradi",
		}, uuid.New())
		require.NoError(t, err)
		assert.False(t, codes[p.UniqueCode])
		codes[p.UniqueCode] = true
	}
}

func TestCreateRequiresAName(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), f.conf.ID, CreateInput{}, uuid.New())
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCreateLinksCategoriesAndSyncs(t *testing.T) {
	f := newFixture()
	cat := uuid.New()
	f.store.categories[cat] = f.conf.ID

	p, err := f.svc.Create(context.Background(), f.conf.ID, CreateInput{
		LastName:    "Moradi",
		CategoryIDs: []uuid.UUID{cat},
	}, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{cat}, f.store.links[p.ID])
	assert.Equal(t, []uuid.UUID{cat}, f.syncer.synced[p.ID])
}

func TestCreateRejectsForeignCategory(t *testing.T) {
	f := newFixture()
	foreign := uuid.New()
	f.store.categories[foreign] = uuid.New() // other conference

	_, err := f.svc.Create(context.Background(), f.conf.ID, CreateInput{
		LastName:    "Moradi",
		CategoryIDs: []uuid.UUID{foreign},
	}, uuid.New())
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUpdateSyncsOnlyAddedCategories(t *testing.T) {
	f := newFixture()
	kept := uuid.New()
	added := uuid.New()
	f.store.categories[kept] = f.conf.ID
	f.store.categories[added] = f.conf.ID

	p, err := f.svc.Create(context.Background(), f.conf.ID, CreateInput{
		LastName:    "Moradi",
		CategoryIDs: []uuid.UUID{kept},
	}, uuid.New())
	require.NoError(t, err)
	f.syncer.synced = nil

	ids := []uuid.UUID{kept, added}
	_, err = f.svc.Update(context.Background(), f.conf.ID, p.ID, UpdateInput{CategoryIDs: &ids})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{added}, f.syncer.synced[p.ID])
}

func TestScanResolvesHashedCode(t *testing.T) {
	f := newFixture()
	p, err := f.svc.Create(context.Background(), f.conf.ID, CreateInput{LastName: "Moradi"}, uuid.New())
	require.NoError(t, err)

	found, err := f.svc.Scan(context.Background(), p.HashedUniqueCode)
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	_, err = f.svc.Scan(context.Background(), utils.HashCode("bogus"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}
