package tasks

import (
	"context"
	"testing"
	"time"

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
	tasks       map[uuid.UUID]*models.Task
	persons     map[uuid.UUID]uuid.UUID // personID -> conferenceID
	assignments map[assignmentKey]*models.PersonTask
	nextOrder   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:       make(map[uuid.UUID]*models.Task),
		persons:     make(map[uuid.UUID]uuid.UUID),
		assignments: make(map[assignmentKey]*models.PersonTask),
	}
}

func (f *fakeStore) Create(_ context.Context, t *models.Task) error {
	t.ID = uuid.New()
	t.IsActive = true
	if t.OrderIndex == 0 {
		f.nextOrder++
		t.OrderIndex = f.nextOrder
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	return f.tasks[id], nil
}

func (f *fakeStore) NameExists(_ context.Context, conferenceID uuid.UUID, name string) (bool, error) {
	for _, t := range f.tasks {
		if t.ConferenceID == conferenceID && t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountByConference(_ context.Context, conferenceID uuid.UUID) (int, error) {
	n := 0
	for _, t := range f.tasks {
		if t.ConferenceID == conferenceID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListByConference(context.Context, uuid.UUID) ([]*models.Task, error) {
	return nil, nil
}

func (f *fakeStore) Update(_ context.Context, t *models.Task) error {
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.tasks[id]; !ok {
		return false, nil
	}
	delete(f.tasks, id)
	return true, nil
}

func (f *fakeStore) Reorder(_ context.Context, conferenceID uuid.UUID, orderedIDs []uuid.UUID) error {
	for i, id := range orderedIDs {
		if t, ok := f.tasks[id]; ok && t.ConferenceID == conferenceID {
			t.OrderIndex = i + 1
		}
	}
	return nil
}

func (f *fakeStore) ValidPersonIDs(_ context.Context, conferenceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, id := range ids {
		if f.persons[id] == conferenceID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeStore) EnsureAssignments(_ context.Context, personIDs, taskIDs []uuid.UUID) (int, error) {
	created := 0
	for _, pid := range personIDs {
		for _, tid := range taskIDs {
			key := assignmentKey{pid, tid}
			if _, ok := f.assignments[key]; !ok {
				f.assignments[key] = &models.PersonTask{
					ID:       uuid.New(),
					PersonID: pid,
					TaskID:   tid,
					Status:   models.TaskPending,
				}
				created++
			}
		}
	}
	return created, nil
}

func (f *fakeStore) AssignmentCounts(_ context.Context, personIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, pid := range personIDs {
		for key := range f.assignments {
			if key.person == pid {
				counts[pid]++
			}
		}
	}
	return counts, nil
}

func (f *fakeStore) DeleteAssignments(_ context.Context, taskID uuid.UUID, personIDs []uuid.UUID) (int, error) {
	removed := 0
	for _, pid := range personIDs {
		key := assignmentKey{pid, taskID}
		if _, ok := f.assignments[key]; ok {
			delete(f.assignments, key)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeStore) GetAssignment(_ context.Context, id uuid.UUID) (*models.PersonTask, error) {
	for _, a := range f.assignments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateAssignment(_ context.Context, a *models.PersonTask) error {
	f.assignments[assignmentKey{a.PersonID, a.TaskID}] = a
	return nil
}

func (f *fakeStore) CompletionStats(_ context.Context, taskID uuid.UUID) (*models.TaskCompletionStats, error) {
	stats := &models.TaskCompletionStats{TaskID: taskID}
	for _, a := range f.assignments {
		if a.TaskID != taskID {
			continue
		}
		stats.TotalAssignments++
		switch a.Status {
		case models.TaskCompleted:
			stats.Completed++
		case models.TaskPending:
			stats.Pending++
		}
	}
	if stats.TotalAssignments > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.TotalAssignments)
	}
	return stats, nil
}

type fakeConferences struct{ conf *models.Conference }

func (f *fakeConferences) GetByID(_ context.Context, id uuid.UUID) (*models.Conference, error) {
	if f.conf != nil && f.conf.ID == id {
		return f.conf, nil
	}
	return nil, nil
}

type fixture struct {
	store *fakeStore
	svc   *Service
	conf  *models.Conference
}

func newFixture() *fixture {
	conf := &models.Conference{ID: uuid.New(), MaxTasksPerConference: 5, MaxTasksPerUser: 3, IsActive: true}
	store := newFakeStore()
	return &fixture{store: store, svc: NewService(store, &fakeConferences{conf: conf}, zap.NewNop()), conf: conf}
}

func (f *fixture) addPerson() uuid.UUID {
	id := uuid.New()
	f.store.persons[id] = f.conf.ID
	return id
}

func (f *fixture) addTask(t *testing.T, name string) *models.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), f.conf.ID, CreateInput{Name: name})
	require.NoError(t, err)
	return task
}

func TestCreateAssignsSequentialOrder(t *testing.T) {
	f := newFixture()
	first := f.addTask(t, "Badge pickup")
	second := f.addTask(t, "Welcome dinner")
	assert.Less(t, first.OrderIndex, second.OrderIndex)
}

func TestCreateEnforcesTaskQuota(t *testing.T) {
	f := newFixture()
	f.conf.MaxTasksPerConference = 1
	f.addTask(t, "Badge pickup")

	_, err := f.svc.Create(context.Background(), f.conf.ID, CreateInput{Name: "Welcome dinner"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCapacityExceeded))
}

func TestCreateEnforcesNameUniqueness(t *testing.T) {
	f := newFixture()
	f.addTask(t, "Badge pickup")

	_, err := f.svc.Create(context.Background(), f.conf.ID, CreateInput{Name: "Badge pickup"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindUniquenessViolation))
}

func TestBulkAssignSkipsExisting(t *testing.T) {
	f := newFixture()
	task := f.addTask(t, "Badge pickup")
	p1, p2 := f.addPerson(), f.addPerson()

	created, err := f.svc.BulkAssign(context.Background(), f.conf.ID, task.ID, []uuid.UUID{p1})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// Re-assigning p1 alongside p2 only creates p2's assignment.
	created, err = f.svc.BulkAssign(context.Background(), f.conf.ID, task.ID, []uuid.UUID{p1, p2})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Len(t, f.store.assignments, 2)
}

func TestBulkAssignEnforcesPerUserQuota(t *testing.T) {
	f := newFixture()
	f.conf.MaxTasksPerUser = 1
	first := f.addTask(t, "Badge pickup")
	second := f.addTask(t, "Welcome dinner")
	p := f.addPerson()

	_, err := f.svc.BulkAssign(context.Background(), f.conf.ID, first.ID, []uuid.UUID{p})
	require.NoError(t, err)

	_, err = f.svc.BulkAssign(context.Background(), f.conf.ID, second.ID, []uuid.UUID{p})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCapacityExceeded))
}

func TestBulkAssignRejectsForeignPerson(t *testing.T) {
	f := newFixture()
	task := f.addTask(t, "Badge pickup")
	foreign := uuid.New()
	f.store.persons[foreign] = uuid.New()

	_, err := f.svc.BulkAssign(context.Background(), f.conf.ID, task.ID, []uuid.UUID{foreign})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestBulkUnassignReportsMissing(t *testing.T) {
	f := newFixture()
	task := f.addTask(t, "Badge pickup")
	p := f.addPerson()

	_, err := f.svc.BulkUnassign(context.Background(), f.conf.ID, task.ID, []uuid.UUID{p})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = f.svc.BulkAssign(context.Background(), f.conf.ID, task.ID, []uuid.UUID{p})
	require.NoError(t, err)
	removed, err := f.svc.BulkUnassign(context.Background(), f.conf.ID, task.ID, []uuid.UUID{p})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestCompletionIsTerminal(t *testing.T) {
	f := newFixture()
	task := f.addTask(t, "Badge pickup")
	p := f.addPerson()
	actor := uuid.New()

	_, err := f.svc.BulkAssign(context.Background(), f.conf.ID, task.ID, []uuid.UUID{p})
	require.NoError(t, err)
	assignment := f.store.assignments[assignmentKey{p, task.ID}]

	done, err := f.svc.UpdateAssignmentStatus(context.Background(), f.conf.ID, assignment.ID, models.TaskCompleted, "", actor)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, &actor, done.CompletedBy)

	_, err = f.svc.UpdateAssignmentStatus(context.Background(), f.conf.ID, assignment.ID, models.TaskPending, "", actor)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStateTransition))

	_, err = f.svc.UpdateAssignmentStatus(context.Background(), f.conf.ID, assignment.ID, models.TaskCompleted, "", actor)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStateTransition))
}

func TestCompletionStats(t *testing.T) {
	f := newFixture()
	task := f.addTask(t, "Badge pickup")
	p1, p2 := f.addPerson(), f.addPerson()
	actor := uuid.New()

	_, err := f.svc.BulkAssign(context.Background(), f.conf.ID, task.ID, []uuid.UUID{p1, p2})
	require.NoError(t, err)
	a1 := f.store.assignments[assignmentKey{p1, task.ID}]
	_, err = f.svc.UpdateAssignmentStatus(context.Background(), f.conf.ID, a1.ID, models.TaskCompleted, "", actor)
	require.NoError(t, err)

	stats, err := f.svc.CompletionStats(context.Background(), f.conf.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalAssignments)
	assert.Equal(t, 1, stats.Completed)
	assert.InDelta(t, 0.5, stats.CompletionRate, 1e-9)
}

func TestUpdateRejectsInvertedDates(t *testing.T) {
	f := newFixture()
	task := f.addTask(t, "Badge pickup")
	start := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	due := start.Add(-time.Hour)

	_, err := f.svc.Update(context.Background(), f.conf.ID, task.ID, UpdateInput{StartAt: &start, DueAt: &due})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
