// Package contactpartner provides use cases for managing the people
// applicants can contact about a funding article.
package contactpartner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"funding-catalog/internal/common/pagination"
	"funding-catalog/internal/domain/entity"
	"funding-catalog/internal/repository"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Column limits of the contact_partners table.
const (
	maxNameLength  = 50
	maxPhoneLength = 50
	maxURLLength   = 2048
)

// ErrInvalidContactPartnerID indicates an unassigned key where a persisted
// contact partner is required.
var ErrInvalidContactPartnerID = errors.New("invalid contact partner ID")

// Service provides contact partner management use cases.
type Service struct {
	Repo   repository.ContactPartnerRepository
	Paging pagination.Config
}

// NewService creates a Service with the paging config from the environment.
func NewService(repo repository.ContactPartnerRepository) *Service {
	return &Service{Repo: repo, Paging: pagination.LoadFromEnv()}
}

// PaginatedResult is one page of contact partners.
type PaginatedResult struct {
	Data       []entity.ContactPartner
	Pagination pagination.Metadata
}

// Validate checks field lengths and URL syntax.
// All field errors are returned together in an *entity.ValidationFailedError.
func Validate(c entity.ContactPartner) error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.FirstName, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&c.LastName, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&c.PhoneNumber, validation.Length(0, maxPhoneLength)),
		validation.Field(&c.URL, validation.Length(0, maxURLLength), is.URL),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate contact partner: %w", err)
	}

	keys := make([]string, 0, len(fieldErrs))
	for k := range fieldErrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	violations := make([]error, 0, len(keys))
	for _, k := range keys {
		violations = append(violations, &entity.ValidationError{
			Field:   columnName(k),
			Message: fieldErrs[k].Error(),
		})
	}
	return &entity.ValidationFailedError{Violations: violations}
}

func columnName(field string) string {
	switch field {
	case "FirstName":
		return "first_name"
	case "LastName":
		return "last_name"
	case "PhoneNumber":
		return "phone_number"
	case "URL":
		return "url"
	default:
		return field
	}
}

// Create validates and persists a new contact partner.
func (s *Service) Create(ctx context.Context, c entity.ContactPartner) (entity.ContactPartner, error) {
	if c.ID.IsAssigned() {
		return entity.ContactPartner{}, &entity.ValidationError{Field: "id", Message: "must not be set on create"}
	}
	if err := Validate(c); err != nil {
		return entity.ContactPartner{}, err
	}

	created, err := s.Repo.Create(ctx, c)
	if err != nil {
		return entity.ContactPartner{}, fmt.Errorf("create contact partner: %w", err)
	}
	return created, nil
}

// Get retrieves a contact partner by key.
// Returns an *entity.MissingEntityError if it does not exist.
func (s *Service) Get(ctx context.Context, id entity.ID[entity.ContactPartner]) (entity.ContactPartner, error) {
	if !id.IsAssigned() {
		return entity.ContactPartner{}, ErrInvalidContactPartnerID
	}

	c, err := s.Repo.ByID(ctx, id)
	if err != nil {
		return entity.ContactPartner{}, fmt.Errorf("get contact partner: %w", err)
	}
	if c == nil {
		return entity.ContactPartner{}, entity.NewMissingEntity("contact partner", id)
	}
	return *c, nil
}

// Update validates c and overwrites the stored row.
// Returns an *entity.MissingEntityError if the row does not exist.
func (s *Service) Update(ctx context.Context, c entity.ContactPartner) error {
	if _, err := s.Get(ctx, c.ID); err != nil {
		return err
	}
	if err := Validate(c); err != nil {
		return err
	}

	if err := s.Repo.Update(ctx, c); err != nil {
		return fmt.Errorf("update contact partner: %w", err)
	}
	return nil
}

// Delete removes a contact partner. Articles referring to it lose the reference.
func (s *Service) Delete(ctx context.Context, id entity.ID[entity.ContactPartner]) error {
	if !id.IsAssigned() {
		return ErrInvalidContactPartnerID
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete contact partner: %w", err)
	}
	return nil
}

// List returns one page of contact partners matching filter.
func (s *Service) List(ctx context.Context, filter repository.ContactPartnerFilter, params pagination.Params) (*PaginatedResult, error) {
	params = params.WithDefaults(s.Paging)
	if err := params.Validate(s.Paging); err != nil {
		return nil, &entity.ValidationError{Field: "pagination", Message: err.Error()}
	}

	res, err := s.Repo.ByQuery(ctx, filter, params.Window())
	if err != nil {
		return nil, fmt.Errorf("list contact partners: %w", err)
	}
	return &PaginatedResult{
		Data:       res.Items,
		Pagination: pagination.NewMetadata(params, res.Total),
	}, nil
}
