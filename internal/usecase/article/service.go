package article

import (
	"context"
	"fmt"
	"time"

	"funding-catalog/internal/common/pagination"
	"funding-catalog/internal/domain/entity"
	"funding-catalog/internal/repository"
)

// Service provides article management use cases.
// It validates every write against the article rule set and delegates
// persistence to the repository.
type Service struct {
	Repo      repository.ArticleRepository
	Validator *Validator
	Paging    pagination.Config
	Now       func() time.Time
}

// NewService wires a Service with the full rule set backed by repo.
func NewService(repo repository.ArticleRepository) *Service {
	return &Service{
		Repo:      repo,
		Validator: NewValidator(repo),
		Paging:    pagination.LoadFromEnv(),
		Now:       time.Now,
	}
}

// PaginatedResult represents the result of a paginated query.
// It contains both the data and pagination metadata.
type PaginatedResult struct {
	Data       []entity.Article
	Pagination pagination.Metadata
}

// Validate runs the full rule set against a.
// It returns an *entity.ValidationFailedError when any rule fails.
func (s *Service) Validate(ctx context.Context, a entity.Article) error {
	res, err := s.Validator.Validate(ctx, a)
	if err != nil {
		return fmt.Errorf("validate article: %w", err)
	}
	return res.Err()
}

// Create validates and persists a new article.
// Returns ErrIDAlreadyAssigned if a already has a key.
func (s *Service) Create(ctx context.Context, a entity.Article) (entity.Article, error) {
	if a.ID.IsAssigned() {
		return entity.Article{}, ErrIDAlreadyAssigned
	}
	if err := s.Validate(ctx, a); err != nil {
		return entity.Article{}, err
	}

	created, err := s.Repo.Create(ctx, a)
	if err != nil {
		return entity.Article{}, fmt.Errorf("create article: %w", err)
	}
	return created, nil
}

// Update validates a and overwrites the stored row.
// An id that matches no row leaves the store unchanged.
func (s *Service) Update(ctx context.Context, a entity.Article) error {
	if !a.ID.IsAssigned() {
		return ErrInvalidArticleID
	}
	if err := s.Validate(ctx, a); err != nil {
		return err
	}

	if err := s.Repo.Update(ctx, a); err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return nil
}

// Get retrieves a single article by its key.
// Returns an *entity.MissingEntityError if the article does not exist.
func (s *Service) Get(ctx context.Context, id entity.ID[entity.Article]) (entity.Article, error) {
	if !id.IsAssigned() {
		return entity.Article{}, ErrInvalidArticleID
	}

	a, err := s.Repo.ByID(ctx, id)
	if err != nil {
		return entity.Article{}, fmt.Errorf("get article: %w", err)
	}
	if a == nil {
		return entity.Article{}, entity.NewMissingEntity("article", id)
	}
	return *a, nil
}

// Delete removes an article and clears the parent and child pointers other
// articles hold to it.
func (s *Service) Delete(ctx context.Context, id entity.ID[entity.Article]) error {
	if !id.IsAssigned() {
		return ErrInvalidArticleID
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

// Search returns one page of articles matching filter.
// Missing params are filled from the paging config; out-of-range ones are rejected.
func (s *Service) Search(ctx context.Context, filter repository.ArticleFilter, params pagination.Params) (*PaginatedResult, error) {
	return s.page(ctx, "search", filter, params)
}

// ListArchived pages through articles whose archive date has passed,
// most recently archived first.
func (s *Service) ListArchived(ctx context.Context, params pagination.Params) (*PaginatedResult, error) {
	now := s.Now()
	filter := repository.ArticleFilter{
		ArchivedBefore: &now,
		Order:          repository.OrderByArchiveDateDesc,
	}
	return s.page(ctx, "archived", filter, params)
}

// Count returns the number of articles matching filter.
func (s *Service) Count(ctx context.Context, filter repository.ArticleFilter) (int64, error) {
	n, err := s.Repo.CountOf(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

func (s *Service) page(ctx context.Context, op string, filter repository.ArticleFilter, params pagination.Params) (*PaginatedResult, error) {
	params = params.WithDefaults(s.Paging)
	if err := params.Validate(s.Paging); err != nil {
		return nil, &entity.ValidationError{Field: "pagination", Message: err.Error()}
	}

	start := time.Now()
	res, err := s.Repo.ByQuery(ctx, filter, params.Window())
	pagination.RecordDuration(op, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	pagination.UpdateTotalCount(op, res.Total)

	return &PaginatedResult{
		Data:       res.Items,
		Pagination: pagination.NewMetadata(params, res.Total),
	}, nil
}
