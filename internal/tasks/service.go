package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	NameExists(ctx context.Context, conferenceID uuid.UUID, name string) (bool, error)
	CountByConference(ctx context.Context, conferenceID uuid.UUID) (int, error)
	ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Reorder(ctx context.Context, conferenceID uuid.UUID, orderedIDs []uuid.UUID) error
	ValidPersonIDs(ctx context.Context, conferenceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	EnsureAssignments(ctx context.Context, personIDs, taskIDs []uuid.UUID) (int, error)
	AssignmentCounts(ctx context.Context, personIDs []uuid.UUID) (map[uuid.UUID]int, error)
	DeleteAssignments(ctx context.Context, taskID uuid.UUID, personIDs []uuid.UUID) (int, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (*models.PersonTask, error)
	UpdateAssignment(ctx context.Context, a *models.PersonTask) error
	CompletionStats(ctx context.Context, taskID uuid.UUID) (*models.TaskCompletionStats, error)
}

// ConferenceGetter loads a conference, nil when absent.
type ConferenceGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conference, error)
}

// Capacity tags for the task quotas: total tasks per conference and
// assignments per attendee.
const (
	CapacityTasks        = "tasks"
	CapacityTasksPerUser = "tasks_per_user"
)

// Service owns tasks and their assignments. Bulk assignment only
// creates missing rows; completion is terminal.
type Service struct {
	store       Store
	conferences ConferenceGetter
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a tasks service.
func NewService(store Store, conferences ConferenceGetter, logger *zap.Logger) *Service {
	return &Service{store: store, conferences: conferences, logger: logger, now: time.Now}
}

// CreateInput carries a task create request.
type CreateInput struct {
	Name        string
	Description string
	IsRequired  bool
	StartAt     *time.Time
	DueAt       *time.Time
	OrderIndex  int
}

// Create adds a task, enforcing per-conference name uniqueness and the
// task quota.
func (s *Service) Create(ctx context.Context, conferenceID uuid.UUID, in CreateInput) (*models.Task, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("name", "name is required")
	}
	if in.StartAt != nil && in.DueAt != nil && in.DueAt.Before(*in.StartAt) {
		return nil, apperrors.Validation("due_at", "due date must not precede start date")
	}
	conf, err := s.conferences.GetByID(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		return nil, apperrors.NotFound("conference")
	}
	count, err := s.store.CountByConference(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	if count >= conf.MaxTasksPerConference {
		return nil, apperrors.CapacityExceeded(CapacityTasks)
	}
	exists, err := s.store.NameExists(ctx, conferenceID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Uniqueness("task", "name", "Task name already used in this conference.")
	}

	t := &models.Task{
		ConferenceID: conferenceID,
		Name:         name,
		Description:  in.Description,
		IsRequired:   in.IsRequired,
		StartAt:      in.StartAt,
		DueAt:        in.DueAt,
		OrderIndex:   in.OrderIndex,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get loads a task scoped to a conference.
func (s *Service) Get(ctx context.Context, conferenceID, taskID uuid.UUID) (*models.Task, error) {
	return s.taskIn(ctx, conferenceID, taskID)
}

// UpdateInput carries mutable task fields. Nil pointers leave the field
// unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	IsRequired  *bool
	IsActive    *bool
	StartAt     *time.Time
	DueAt       *time.Time
	OrderIndex  *int
}

// Update applies a partial update to a task.
func (s *Service) Update(ctx context.Context, conferenceID, taskID uuid.UUID, in UpdateInput) (*models.Task, error) {
	t, err := s.taskIn(ctx, conferenceID, taskID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("name", "name is required")
		}
		if name != t.Name {
			exists, err := s.store.NameExists(ctx, conferenceID, name)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, apperrors.Uniqueness("task", "name", "Task name already used in this conference.")
			}
			t.Name = name
		}
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.IsRequired != nil {
		t.IsRequired = *in.IsRequired
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if in.StartAt != nil {
		t.StartAt = in.StartAt
	}
	if in.DueAt != nil {
		t.DueAt = in.DueAt
	}
	if t.StartAt != nil && t.DueAt != nil && t.DueAt.Before(*t.StartAt) {
		return nil, apperrors.Validation("due_at", "due date must not precede start date")
	}
	if in.OrderIndex != nil {
		t.OrderIndex = *in.OrderIndex
	}
	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a task and its assignments.
func (s *Service) Delete(ctx context.Context, conferenceID, taskID uuid.UUID) error {
	if _, err := s.taskIn(ctx, conferenceID, taskID); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("task")
	}
	return nil
}

// Reorder rewrites the display order of a conference's tasks.
func (s *Service) Reorder(ctx context.Context, conferenceID uuid.UUID, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return apperrors.Validation("task_ids", "at least one task is required")
	}
	return s.store.Reorder(ctx, conferenceID, orderedIDs)
}

// BulkAssign assigns a task to the given attendees, creating only the
// assignments that do not exist yet. Returns the number created.
func (s *Service) BulkAssign(ctx context.Context, conferenceID, taskID uuid.UUID, personIDs []uuid.UUID) (int, error) {
	if len(personIDs) == 0 {
		return 0, apperrors.Validation("person_ids", "at least one person is required")
	}
	if _, err := s.taskIn(ctx, conferenceID, taskID); err != nil {
		return 0, err
	}
	valid, err := s.store.ValidPersonIDs(ctx, conferenceID, personIDs)
	if err != nil {
		return 0, err
	}
	if len(valid) != len(dedupe(personIDs)) {
		return 0, apperrors.Validation("person_ids", "all persons must belong to the task's conference")
	}
	conf, err := s.conferences.GetByID(ctx, conferenceID)
	if err != nil {
		return 0, err
	}
	if conf != nil && conf.MaxTasksPerUser > 0 {
		counts, err := s.store.AssignmentCounts(ctx, valid)
		if err != nil {
			return 0, err
		}
		for _, pid := range valid {
			if counts[pid] >= conf.MaxTasksPerUser {
				return 0, apperrors.CapacityExceeded(CapacityTasksPerUser)
			}
		}
	}
	created, err := s.store.EnsureAssignments(ctx, valid, []uuid.UUID{taskID})
	if err != nil {
		return 0, err
	}
	s.logger.Info("bulk assigned task",
		zap.String("task_id", taskID.String()),
		zap.Int("requested", len(valid)),
		zap.Int("created", created))
	return created, nil
}

// BulkUnassign removes a task's assignments for the given attendees.
// Removing zero rows is reported as not found.
func (s *Service) BulkUnassign(ctx context.Context, conferenceID, taskID uuid.UUID, personIDs []uuid.UUID) (int, error) {
	if len(personIDs) == 0 {
		return 0, apperrors.Validation("person_ids", "at least one person is required")
	}
	if _, err := s.taskIn(ctx, conferenceID, taskID); err != nil {
		return 0, err
	}
	removed, err := s.store.DeleteAssignments(ctx, taskID, personIDs)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, apperrors.NotFound("assignment")
	}
	return removed, nil
}

// UpdateAssignmentStatus transitions one assignment. Completion is
// terminal and records who completed it and when.
func (s *Service) UpdateAssignmentStatus(ctx context.Context, conferenceID, assignmentID uuid.UUID, status models.PersonTaskStatus, notes string, actorID uuid.UUID) (*models.PersonTask, error) {
	switch status {
	case models.TaskPending, models.TaskInProgress, models.TaskCompleted, models.TaskCancelled:
	default:
		return nil, apperrors.Validation("status", fmt.Sprintf("unknown status %q", status))
	}
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperrors.NotFound("assignment")
	}
	if _, err := s.taskIn(ctx, conferenceID, a.TaskID); err != nil {
		return nil, err
	}
	if a.Status == models.TaskCompleted {
		return nil, apperrors.InvalidTransition("assignment", string(a.Status), string(status))
	}

	a.Status = status
	if notes != "" {
		a.Notes = notes
	}
	if status == models.TaskCompleted {
		now := s.now()
		a.CompletedAt = &now
		a.CompletedBy = &actorID
	} else {
		a.CompletedAt = nil
		a.CompletedBy = nil
	}
	if err := s.store.UpdateAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CompletionStats aggregates assignment progress for one task.
func (s *Service) CompletionStats(ctx context.Context, conferenceID, taskID uuid.UUID) (*models.TaskCompletionStats, error) {
	if _, err := s.taskIn(ctx, conferenceID, taskID); err != nil {
		return nil, err
	}
	return s.store.CompletionStats(ctx, taskID)
}

func (s *Service) taskIn(ctx context.Context, conferenceID, taskID uuid.UUID) (*models.Task, error) {
	t, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.ConferenceID != conferenceID {
		return nil, apperrors.NotFound("task")
	}
	return t, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
