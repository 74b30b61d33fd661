package persons

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
	"github.com/Hamayesh-Negar/Back-end/pkg/utils"
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, p *models.Person) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	GetByHashedCode(ctx context.Context, hashed string) (*models.Person, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByConference(ctx context.Context, conferenceID uuid.UUID, filter ListFilter) ([]*models.Person, error)
	Update(ctx context.Context, p *models.Person) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListCategoryIDs(ctx context.Context, personID uuid.UUID) ([]uuid.UUID, error)
	ValidCategoryIDs(ctx context.Context, conferenceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	SetCategories(ctx context.Context, personID uuid.UUID, categoryIDs []uuid.UUID) error
}

// ConferenceGetter loads a conference, nil when absent.
type ConferenceGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conference, error)
}

// CategorySyncer assigns category tasks to an attendee after category
// links change. Implemented by the categories service.
type CategorySyncer interface {
	SyncPersonCategories(ctx context.Context, personID uuid.UUID, addedCategoryIDs []uuid.UUID) error
}

// Service owns attendee lifecycle: registration with badge code
// generation, category membership and badge scan lookup.
type Service struct {
	store       Store
	conferences ConferenceGetter
	categories  CategorySyncer
	logger      *zap.Logger
}

// NewService creates a persons service.
func NewService(store Store, conferences ConferenceGetter, categories CategorySyncer, logger *zap.Logger) *Service {
	return &Service{store: store, conferences: conferences, categories: categories, logger: logger}
}

// CreateInput carries an attendee registration.
type CreateInput struct {
	FirstName   string
	LastName    string
	Email       string
	Telephone   string
	CategoryIDs []uuid.UUID
}

// Create registers an attendee, generating a unique badge code from the
// conference and attendee names. Category links trigger task
// auto-assignment.
func (s *Service) Create(ctx context.Context, conferenceID uuid.UUID, in CreateInput, registeredBy uuid.UUID) (*models.Person, error) {
	if strings.TrimSpace(in.FirstName) == "" && strings.TrimSpace(in.LastName) == "" {
		return nil, apperrors.Validation("name", "first or last name is required")
	}
	conf, err := s.conferences.GetByID(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		return nil, apperrors.NotFound("conference")
	}

	code, err := s.uniqueCode(ctx, conf.Name, in.FirstName, in.LastName)
	if err != nil {
		return nil, err
	}

	p := &models.Person{
		ConferenceID:     conferenceID,
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		Email:            in.Email,
		Telephone:        in.Telephone,
		UniqueCode:       code,
		HashedUniqueCode: utils.HashCode(code),
		RegisteredBy:     &registeredBy,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	if len(in.CategoryIDs) > 0 {
		if err := s.setCategories(ctx, p, in.CategoryIDs, nil); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// UpdateInput carries mutable attendee fields. Nil pointers leave the
// field unchanged; a non-nil CategoryIDs replaces the category links.
type UpdateInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Telephone   *string
	IsActive    *bool
	CategoryIDs *[]uuid.UUID
}

// Update applies a partial update. Newly linked categories trigger task
// auto-assignment; removed categories never retract assignments.
func (s *Service) Update(ctx context.Context, conferenceID, personID uuid.UUID, in UpdateInput) (*models.Person, error) {
	p, err := s.personIn(ctx, conferenceID, personID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		p.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		p.LastName = strings.TrimSpace(*in.LastName)
	}
	if p.FirstName == "" && p.LastName == "" {
		return nil, apperrors.Validation("name", "first or last name is required")
	}
	if in.Email != nil {
		p.Email = *in.Email
	}
	if in.Telephone != nil {
		p.Telephone = *in.Telephone
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	if in.CategoryIDs != nil {
		current, err := s.store.ListCategoryIDs(ctx, personID)
		if err != nil {
			return nil, err
		}
		if err := s.setCategories(ctx, p, *in.CategoryIDs, current); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *Service) setCategories(ctx context.Context, p *models.Person, requested, current []uuid.UUID) error {
	valid, err := s.store.ValidCategoryIDs(ctx, p.ConferenceID, requested)
	if err != nil {
		return err
	}
	if len(valid) != len(dedupe(requested)) {
		return apperrors.Validation("categories", "all categories must belong to the attendee's conference")
	}
	if err := s.store.SetCategories(ctx, p.ID, valid); err != nil {
		return err
	}
	p.CategoryIDs = valid

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
	if len(added) > 0 && s.categories != nil {
		if err := s.categories.SyncPersonCategories(ctx, p.ID, added); err != nil {
			return err
		}
	}
	return nil
}

// Get loads an attendee scoped to a conference.
func (s *Service) Get(ctx context.Context, conferenceID, personID uuid.UUID) (*models.Person, error) {
	return s.personIn(ctx, conferenceID, personID)
}

// Scan resolves an attendee from a hashed badge code.
func (s *Service) Scan(ctx context.Context, hashedCode string) (*models.Person, error) {
	p, err := s.store.GetByHashedCode(ctx, hashedCode)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NotFound("person")
	}
	return p, nil
}

// Delete removes an attendee and their assignments.
func (s *Service) Delete(ctx context.Context, conferenceID, personID uuid.UUID) error {
	if _, err := s.personIn(ctx, conferenceID, personID); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, personID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("person")
	}
	return nil
}

func (s *Service) personIn(ctx context.Context, conferenceID, personID uuid.UUID) (*models.Person, error) {
	p, err := s.store.GetByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ConferenceID != conferenceID {
		return nil, apperrors.NotFound("person")
	}
	return p, nil
}

const codeAttempts = 5

func (s *Service) uniqueCode(ctx context.Context, conferenceName, firstName, lastName string) (string, error) {
	prefix := codeComponent(conferenceName, 3)
	name := codeComponent(lastName, 3)
	if name == "" {
		name = codeComponent(firstName, 3)
	}
	for i := 0; i < codeAttempts; i++ {
		suffix, err := randomHex(3)
		if err != nil {
			return "", err
		}
		code := strings.ToUpper(strings.Join(nonEmpty(prefix, name, suffix), "-"))
		taken, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperrors.Uniqueness("person", "unique_code", "could not allocate a unique attendee code")
}

func codeComponent(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() >= max {
				break
			}
		}
	}
	return b.String()
}

func randomHex(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
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
