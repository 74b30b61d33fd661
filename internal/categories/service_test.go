package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
)

type assignmentKey struct {
	person uuid.UUID
	task   uuid.UUID
}

type fakeStore struct {
	categories map[uuid.UUID]*models.Category
	tasks      map[uuid.UUID]uuid.UUID // taskID -> conferenceID
	taskLinks  map[uuid.UUID][]uuid.UUID
	members    map[uuid.UUID][]uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories: make(map[uuid.UUID]*models.Category),
		tasks:      make(map[uuid.UUID]uuid.UUID),
		taskLinks:  make(map[uuid.UUID][]uuid.UUID),
		members:    make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeStore) Create(_ context.Context, cat *models.Category) error {
	cat.ID = uuid.New()
	f.categories[cat.ID] = cat
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	return f.categories[id], nil
}

func (f *fakeStore) NameExists(_ context.Context, conferenceID uuid.UUID, name string) (bool, error) {
	for _, cat := range f.categories {
		if cat.ConferenceID == conferenceID && cat.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListByConference(context.Context, uuid.UUID) ([]*models.Category, error) {
	return nil, nil
}

func (f *fakeStore) Update(_ context.Context, cat *models.Category) error {
	f.categories[cat.ID] = cat
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.categories[id]; !ok {
		return false, nil
	}
	delete(f.categories, id)
	return true, nil
}

func (f *fakeStore) ListTaskIDs(_ context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	return f.taskLinks[categoryID], nil
}

func (f *fakeStore) SetTasks(_ context.Context, categoryID uuid.UUID, taskIDs []uuid.UUID) error {
	f.taskLinks[categoryID] = taskIDs
	return nil
}

func (f *fakeStore) ListMemberPersonIDs(_ context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	return f.members[categoryID], nil
}

func (f *fakeStore) ValidTaskIDs(_ context.Context, conferenceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, id := range ids {
		if f.tasks[id] == conferenceID {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeConferences struct{ conf *models.Conference }

func (f *fakeConferences) GetByID(_ context.Context, id uuid.UUID) (*models.Conference, error) {
	if f.conf != nil && f.conf.ID == id {
		return f.conf, nil
	}
	return nil, nil
}

type fakeAssigner struct {
	existing map[assignmentKey]bool
}

func (f *fakeAssigner) EnsureAssignments(_ context.Context, personIDs, taskIDs []uuid.UUID) (int, error) {
	if f.existing == nil {
		f.existing = make(map[assignmentKey]bool)
	}
	created := 0
	for _, pid := range personIDs {
		for _, tid := range taskIDs {
			key := assignmentKey{pid, tid}
			if !f.existing[key] {
				f.existing[key] = true
				created++
			}
		}
	}
	return created, nil
}

type fixture struct {
	store    *fakeStore
	assigner *fakeAssigner
	svc      *Service
	conf     *models.Conference
}

func newFixture() *fixture {
	conf := &models.Conference{ID: uuid.New(), Name: "Summit", EnableCategorization: true, IsActive: true}
	store := newFakeStore()
	assigner := &fakeAssigner{}
	return &fixture{
		store:    store,
		assigner: assigner,
		svc:      NewService(store, &fakeConferences{conf: conf}, assigner, zap.NewNop()),
		conf:     conf,
	}
}

func (f *fixture) addTask() uuid.UUID {
	id := uuid.New()
	f.store.tasks[id] = f.conf.ID
	return id
}

func TestCreateRequiresCategorizationEnabled(t *testing.T) {
	f := newFixture()
	f.conf.EnableCategorization = false

	_, err := f.svc.Create(context.Background(), f.conf.ID, "Speakers", "", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCreateEnforcesNameUniqueness(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), f.conf.ID, "Speakers", "", nil)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.conf.ID, "Speakers", "", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUniquenessViolation))
}

func TestSetTasksAssignsAddedToMembers(t *testing.T) {
	f := newFixture()
	cat, err := f.svc.Create(context.Background(), f.conf.ID, "Speakers", "", nil)
	require.NoError(t, err)

	p1, p2 := uuid.New(), uuid.New()
	f.store.members[cat.ID] = []uuid.UUID{p1, p2}
	task := f.addTask()

	created, err := f.svc.SetTasks(context.Background(), f.conf.ID, cat.ID, []uuid.UUID{task})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.True(t, f.assigner.existing[assignmentKey{p1, task}])
	assert.True(t, f.assigner.existing[assignmentKey{p2, task}])
}

func TestSetTasksRemovalDoesNotRetract(t *testing.T) {
	f := newFixture()
	cat, err := f.svc.Create(context.Background(), f.conf.ID, "Speakers", "", nil)
	require.NoError(t, err)

	person := uuid.New()
	f.store.members[cat.ID] = []uuid.UUID{person}
	keep, drop := f.addTask(), f.addTask()

	_, err = f.svc.SetTasks(context.Background(), f.conf.ID, cat.ID, []uuid.UUID{keep, drop})
	require.NoError(t, err)

	// Dropping a task from the set leaves its assignment in place and
	// creates nothing new.
	created, err := f.svc.SetTasks(context.Background(), f.conf.ID, cat.ID, []uuid.UUID{keep})
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.True(t, f.assigner.existing[assignmentKey{person, drop}])
}

func TestSetTasksRejectsForeignTask(t *testing.T) {
	f := newFixture()
	cat, err := f.svc.Create(context.Background(), f.conf.ID, "Speakers", "", nil)
	require.NoError(t, err)

	foreign := uuid.New()
	f.store.tasks[foreign] = uuid.New()

	_, err = f.svc.SetTasks(context.Background(), f.conf.ID, cat.ID, []uuid.UUID{foreign})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestSyncPersonCategoriesIsIdempotent(t *testing.T) {
	f := newFixture()
	cat, err := f.svc.Create(context.Background(), f.conf.ID, "Speakers", "", nil)
	require.NoError(t, err)
	task := f.addTask()
	f.store.taskLinks[cat.ID] = []uuid.UUID{task}

	person := uuid.New()
	require.NoError(t, f.svc.SyncPersonCategories(context.Background(), person, []uuid.UUID{cat.ID}))
	require.NoError(t, f.svc.SyncPersonCategories(context.Background(), person, []uuid.UUID{cat.ID}))

	assert.Len(t, f.assigner.existing, 1)
}
