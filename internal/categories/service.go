package categories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, cat *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	NameExists(ctx context.Context, conferenceID uuid.UUID, name string) (bool, error)
	ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*models.Category, error)
	Update(ctx context.Context, cat *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListTaskIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error)
	SetTasks(ctx context.Context, categoryID uuid.UUID, taskIDs []uuid.UUID) error
	ListMemberPersonIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error)
	ValidTaskIDs(ctx context.Context, conferenceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
}

// ConferenceGetter loads a conference, nil when absent.
type ConferenceGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conference, error)
}

// Assigner creates missing task assignments. Implemented by the tasks
// repository; existing assignments are left untouched whatever their
// status.
type Assigner interface {
	EnsureAssignments(ctx context.Context, personIDs, taskIDs []uuid.UUID) (int, error)
}

// Service owns categories and the task auto-assignment they declare.
// Adding an attendee to a category, or a task to a category, creates the
// missing assignments; removals never retract assignments already made.
type Service struct {
	store       Store
	conferences ConferenceGetter
	assigner    Assigner
	logger      *zap.Logger
}

// NewService creates a categories service.
func NewService(store Store, conferences ConferenceGetter, assigner Assigner, logger *zap.Logger) *Service {
	return &Service{store: store, conferences: conferences, assigner: assigner, logger: logger}
}

// Create adds a category. The conference must have categorization
// enabled; names are unique per conference.
func (s *Service) Create(ctx context.Context, conferenceID uuid.UUID, name, description string, taskIDs []uuid.UUID) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("name", "name is required")
	}
	conf, err := s.conferences.GetByID(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		return nil, apperrors.NotFound("conference")
	}
	if !conf.EnableCategorization {
		return nil, apperrors.Validation("categorization", "categorization is disabled for this conference")
	}
	exists, err := s.store.NameExists(ctx, conferenceID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Uniqueness("category", "name", "Category name already used in this conference.")
	}

	cat := &models.Category{ConferenceID: conferenceID, Name: name, Description: description}
	if err := s.store.Create(ctx, cat); err != nil {
		return nil, err
	}
	if len(taskIDs) > 0 {
		if _, err := s.SetTasks(ctx, conferenceID, cat.ID, taskIDs); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// Get loads a category scoped to a conference.
func (s *Service) Get(ctx context.Context, conferenceID, categoryID uuid.UUID) (*models.Category, error) {
	return s.categoryIn(ctx, conferenceID, categoryID)
}

// Update renames a category or changes its description.
func (s *Service) Update(ctx context.Context, conferenceID, categoryID uuid.UUID, name, description *string) (*models.Category, error) {
	cat, err := s.categoryIn(ctx, conferenceID, categoryID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.Validation("name", "name is required")
		}
		if trimmed != cat.Name {
			exists, err := s.store.NameExists(ctx, conferenceID, trimmed)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, apperrors.Uniqueness("category", "name", "Category name already used in this conference.")
			}
			cat.Name = trimmed
		}
	}
	if description != nil {
		cat.Description = *description
	}
	if err := s.store.Update(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// Delete removes a category. Assignments created through it remain.
func (s *Service) Delete(ctx context.Context, conferenceID, categoryID uuid.UUID) error {
	if _, err := s.categoryIn(ctx, conferenceID, categoryID); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("category")
	}
	return nil
}

// SetTasks replaces a category's auto-assign task set. Tasks newly added
// to the set are assigned to every current category member; tasks
// removed from the set keep their existing assignments. Returns the
// number of assignments created.
func (s *Service) SetTasks(ctx context.Context, conferenceID, categoryID uuid.UUID, taskIDs []uuid.UUID) (int, error) {
	cat, err := s.categoryIn(ctx, conferenceID, categoryID)
	if err != nil {
		return 0, err
	}
	valid, err := s.store.ValidTaskIDs(ctx, conferenceID, taskIDs)
	if err != nil {
		return 0, err
	}
	if len(valid) != len(dedupe(taskIDs)) {
		return 0, apperrors.Validation("tasks", "all tasks must belong to the category's conference")
	}

	current, err := s.store.ListTaskIDs(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	known := make(map[uuid.UUID]bool, len(current))
	for _, id := range current {
		known[id] = true
	}
	var added []uuid.UUID
	for _, id := range valid {
		if !known[id] {
			added = append(added, id)
		}
	}

	if err := s.store.SetTasks(ctx, categoryID, valid); err != nil {
		return 0, err
	}
	if len(added) == 0 {
		return 0, nil
	}
	members, err := s.store.ListMemberPersonIDs(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}
	created, err := s.assigner.EnsureAssignments(ctx, members, added)
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.logger.Info("auto-assigned category tasks",
			zap.String("category_id", cat.ID.String()),
			zap.Int("created", created))
	}
	return created, nil
}

// SyncPersonCategories assigns each added category's task set to the
// attendee. Called by the persons service when category links are added.
func (s *Service) SyncPersonCategories(ctx context.Context, personID uuid.UUID, addedCategoryIDs []uuid.UUID) error {
	for _, categoryID := range addedCategoryIDs {
		taskIDs, err := s.store.ListTaskIDs(ctx, categoryID)
		if err != nil {
			return err
		}
		if len(taskIDs) == 0 {
			continue
		}
		if _, err := s.assigner.EnsureAssignments(ctx, []uuid.UUID{personID}, taskIDs); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) categoryIn(ctx context.Context, conferenceID, categoryID uuid.UUID) (*models.Category, error) {
	cat, err := s.store.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil || cat.ConferenceID != conferenceID {
		return nil, apperrors.NotFound("category")
	}
	return cat, nil
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
