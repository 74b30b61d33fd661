package conferences

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
)

// Default limits applied when a create request leaves them unset.
const (
	DefaultMaxMembers            = 100
	DefaultMaxExecutives         = 10
	DefaultMaxTasksPerConference = 200
	DefaultMaxTasksPerUser       = 20
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateWithBootstrap(ctx context.Context, c *models.Conference, seeds []RoleSeed) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conference, error)
	GetBySlug(ctx context.Context, slug string) (*models.Conference, error)
	ListSlugs(ctx context.Context, prefix string) ([]string, error)
	Update(ctx context.Context, c *models.Conference) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	DeactivateEnded(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// SecretaryCreator establishes the creator's secretary membership after
// bootstrap. Implemented by the memberships service.
type SecretaryCreator interface {
	CreateSecretary(ctx context.Context, conferenceID, userID uuid.UUID) error
}

// Service owns conference lifecycle: creation with role bootstrap, slug
// assignment and end-date deactivation.
type Service struct {
	store   Store
	members SecretaryCreator
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a conference service.
func NewService(store Store, members SecretaryCreator, logger *zap.Logger) *Service {
	return &Service{store: store, members: members, logger: logger, now: time.Now}
}

// CreateInput carries a conference create request.
type CreateInput struct {
	Name                  string
	Description           string
	StartDate             time.Time
	EndDate               time.Time
	MaxMembers            int
	MaxExecutives         int
	EnableCategorization  bool
	MaxTasksPerConference int
	MaxTasksPerUser       int
}

// Create inserts the conference with its permission catalog and the
// three default roles, then enrolls the creator as secretary. A failure
// enrolling the creator does not roll back the conference; the returned
// warning is non-empty in that case.
func (s *Service) Create(ctx context.Context, in CreateInput, creatorID uuid.UUID) (*models.Conference, string, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, "", apperrors.Validation("name", "name is required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, "", apperrors.Validation("end_date", "end date must not precede start date")
	}
	if in.MaxMembers == 0 {
		in.MaxMembers = DefaultMaxMembers
	}
	if in.MaxExecutives == 0 {
		in.MaxExecutives = DefaultMaxExecutives
	}
	if in.MaxTasksPerConference == 0 {
		in.MaxTasksPerConference = DefaultMaxTasksPerConference
	}
	if in.MaxTasksPerUser == 0 {
		in.MaxTasksPerUser = DefaultMaxTasksPerUser
	}
	if in.MaxMembers < 1 || in.MaxExecutives < 1 {
		return nil, "", apperrors.Validation("max_members", "member limits must be positive")
	}

	slug, err := s.uniqueSlug(ctx, in.Name)
	if err != nil {
		return nil, "", err
	}

	c := &models.Conference{
		Name:                  strings.TrimSpace(in.Name),
		Slug:                  slug,
		Description:           in.Description,
		StartDate:             in.StartDate,
		EndDate:               in.EndDate,
		MaxMembers:            in.MaxMembers,
		MaxExecutives:         in.MaxExecutives,
		EnableCategorization:  in.EnableCategorization,
		MaxTasksPerConference: in.MaxTasksPerConference,
		MaxTasksPerUser:       in.MaxTasksPerUser,
		CreatedBy:             &creatorID,
	}
	if err := s.store.CreateWithBootstrap(ctx, c, DefaultRoleSeeds()); err != nil {
		return nil, "", err
	}

	warning := ""
	if err := s.members.CreateSecretary(ctx, c.ID, creatorID); err != nil {
		warning = "conference created, but enrolling the creator as secretary failed"
		s.logger.Warn("creator secretary enrollment failed",
			zap.String("conference_id", c.ID.String()),
			zap.String("user_id", creatorID.String()),
			zap.Error(err))
	}
	return c, warning, nil
}

// DefaultRoleSeeds returns the three roles bootstrapped for every new
// conference. The secretary holds the full catalog, the deputy
// everything but conference deletion, the assistant an operational
// subset.
func DefaultRoleSeeds() []RoleSeed {
	all := make([]string, 0, len(models.DefaultPermissions()))
	deputy := make([]string, 0, len(models.DefaultPermissions()))
	for _, p := range models.DefaultPermissions() {
		all = append(all, p.Codename)
		if p.Codename != models.PermDeleteConference {
			deputy = append(deputy, p.Codename)
		}
	}
	return []RoleSeed{
		{RoleType: models.RoleSecretary, Name: "Secretary", Description: "Conference secretary", Permissions: all},
		{RoleType: models.RoleDeputy, Name: "Deputy", Description: "Deputy secretary", Permissions: deputy},
		{RoleType: models.RoleAssistant, Name: "Assistant", Description: "Executive assistant", Permissions: models.AssistantPermissions()},
	}
}

// Get loads a conference, deactivating it first when its end date has
// passed.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Conference, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.NotFound("conference")
	}
	return s.deactivateIfEnded(ctx, c)
}

// GetBySlug loads a conference by slug with the same end-date check.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Conference, error) {
	c, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.NotFound("conference")
	}
	return s.deactivateIfEnded(ctx, c)
}

func (s *Service) deactivateIfEnded(ctx context.Context, c *models.Conference) (*models.Conference, error) {
	if c.IsActive && c.Ended(s.now()) {
		if err := s.store.Deactivate(ctx, c.ID); err != nil {
			return nil, err
		}
		c.IsActive = false
	}
	return c, nil
}

// UpdateInput carries mutable conference fields. Nil pointers leave the
// field unchanged.
type UpdateInput struct {
	Name                  *string
	Description           *string
	StartDate             *time.Time
	EndDate               *time.Time
	IsActive              *bool
	MaxMembers            *int
	MaxExecutives         *int
	EnableCategorization  *bool
	MaxTasksPerConference *int
	MaxTasksPerUser       *int
}

// Update applies a partial update. The slug is immutable after creation.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Conference, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.NotFound("conference")
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperrors.Validation("name", "name is required")
		}
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.StartDate != nil {
		c.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		c.EndDate = *in.EndDate
	}
	if c.EndDate.Before(c.StartDate) {
		return nil, apperrors.Validation("end_date", "end date must not precede start date")
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.MaxMembers != nil {
		if *in.MaxMembers < 1 {
			return nil, apperrors.Validation("max_members", "must be positive")
		}
		c.MaxMembers = *in.MaxMembers
	}
	if in.MaxExecutives != nil {
		if *in.MaxExecutives < 1 {
			return nil, apperrors.Validation("max_executives", "must be positive")
		}
		c.MaxExecutives = *in.MaxExecutives
	}
	if in.EnableCategorization != nil {
		c.EnableCategorization = *in.EnableCategorization
	}
	if in.MaxTasksPerConference != nil {
		c.MaxTasksPerConference = *in.MaxTasksPerConference
	}
	if in.MaxTasksPerUser != nil {
		c.MaxTasksPerUser = *in.MaxTasksPerUser
	}
	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a conference and everything under it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("conference")
	}
	return nil
}

// DeactivateEnded sweeps all conferences past their end date.
func (s *Service) DeactivateEnded(ctx context.Context) (int64, error) {
	n, err := s.store.DeactivateEnded(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("deactivated ended conferences", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "conference"
	}
	taken, err := s.store.ListSlugs(ctx, base)
	if err != nil {
		return "", err
	}
	used := make(map[string]bool, len(taken))
	for _, s := range taken {
		used[s] = true
	}
	if !used[base] {
		return base, nil
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !used[candidate] {
			return candidate, nil
		}
	}
}

// Slugify lowercases the name and collapses every non-alphanumeric run
// into a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
