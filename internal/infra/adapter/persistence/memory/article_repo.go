// Package memory provides in-process implementations of the repository
// ports. They hold the same contracts as the postgres adapters and back the
// use case tests and local dry runs.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"funding-catalog/internal/common/pagination"
	"funding-catalog/internal/domain/entity"
	"funding-catalog/internal/repository"
)

// ArticleRepo is a map-backed article store guarded by one mutex, so every
// call is atomic with respect to the others.
type ArticleRepo struct {
	mu     sync.Mutex
	rows   map[int64]entity.Article
	nextID int64
}

// NewArticleRepo returns an empty store.
func NewArticleRepo() *ArticleRepo {
	return &ArticleRepo{rows: map[int64]entity.Article{}, nextID: 1}
}

var _ repository.ArticleRepository = (*ArticleRepo)(nil)

// Seed inserts articles with their ids as given; unassigned ids get fresh keys.
func (r *ArticleRepo) Seed(articles ...entity.Article) []entity.Article {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.Article, 0, len(articles))
	for _, a := range articles {
		if !a.ID.IsAssigned() {
			a.ID = entity.AssignID[entity.Article](r.nextID)
		}
		if a.ID.Int64() >= r.nextID {
			r.nextID = a.ID.Int64() + 1
		}
		r.rows[a.ID.Int64()] = a
		out = append(out, a)
	}
	return out
}

// Snapshot returns every stored article ordered by id.
func (r *ArticleRepo) Snapshot() []entity.Article {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.Article, 0, len(r.rows))
	for _, a := range r.rows {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b entity.Article) int {
		return cmp.Compare(a.ID.Int64(), b.ID.Int64())
	})
	return out
}

func (r *ArticleRepo) ByID(ctx context.Context, id entity.ID[entity.Article]) (*entity.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.rows[id.Int64()]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *ArticleRepo) ByQuery(ctx context.Context, filter repository.ArticleFilter, window pagination.Window) (repository.PagedResult[entity.Article], error) {
	if err := ctx.Err(); err != nil {
		return repository.PagedResult[entity.Article]{}, err
	}
	r.mu.Lock()
	matches := r.matching(filter)
	r.mu.Unlock()

	sortArticles(matches, filter.Order)
	return repository.PagedResult[entity.Article]{
		Total: int64(len(matches)),
		Items: applyWindow(matches, window),
	}, nil
}

func (r *ArticleRepo) CountOf(ctx context.Context, filter repository.ArticleFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *ArticleRepo) Create(ctx context.Context, a entity.Article) (entity.Article, error) {
	if err := ctx.Err(); err != nil {
		return entity.Article{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(a), nil
}

func (r *ArticleRepo) Update(ctx context.Context, a entity.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[a.ID.Int64()]; ok {
		r.rows[a.ID.Int64()] = a
	}
	return nil
}

func (r *ArticleRepo) Delete(ctx context.Context, id entity.ID[entity.Article]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id.Int64()]; !ok {
		return nil
	}
	for k, other := range r.rows {
		changed := false
		if other.ChildArticle == id {
			other.ChildArticle = entity.ID[entity.Article]{}
			changed = true
		}
		if other.ParentArticle == id {
			other.ParentArticle = entity.ID[entity.Article]{}
			changed = true
		}
		if changed {
			r.rows[k] = other
		}
	}
	delete(r.rows, id.Int64())
	return nil
}

func (r *ArticleRepo) CreateLinkedChild(ctx context.Context, parentID entity.ID[entity.Article], child entity.Article) (entity.Article, error) {
	if err := ctx.Err(); err != nil {
		return entity.Article{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	parent, ok := r.rows[parentID.Int64()]
	if !ok || parent.HasChild() {
		return entity.Article{}, repository.ErrAlreadyLinked
	}

	child.ParentArticle = parentID
	created := r.insert(child)

	parent.ChildArticle = created.ID
	parent.RecurrentInfo = nil
	r.rows[parentID.Int64()] = parent
	return created, nil
}

func (r *ArticleRepo) insert(a entity.Article) entity.Article {
	a.ID = entity.AssignID[entity.Article](r.nextID)
	r.nextID++
	r.rows[a.ID.Int64()] = a
	return a
}

func (r *ArticleRepo) matching(f repository.ArticleFilter) []entity.Article {
	out := []entity.Article{}
	for _, a := range r.rows {
		if matchArticle(a, f) {
			out = append(out, a)
		}
	}
	return out
}

func matchArticle(a entity.Article, f repository.ArticleFilter) bool {
	if len(f.Rubrics) > 0 && !slices.Contains(f.Rubrics, a.Rubric) {
		return false
	}
	if len(f.SupportTypes) > 0 && !slices.Contains(f.SupportTypes, a.SupportType) {
		return false
	}
	if len(f.TargetGroups) > 0 && !slices.Contains(f.TargetGroups, a.TargetGroup) {
		return false
	}
	if len(f.States) > 0 && !slices.Contains(f.States, a.State) {
		return false
	}
	if len(f.Subjects) > 0 && !slices.Contains(f.Subjects, a.Subject) {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		if !strings.Contains(strings.ToLower(a.Title), kw) && !strings.Contains(strings.ToLower(a.Text), kw) {
			return false
		}
	}
	if f.Recurrent != nil && a.IsRecurrent() != *f.Recurrent {
		return false
	}
	if f.DeadlineOnOrBefore != nil && a.ApplicationDeadline.After(*f.DeadlineOnOrBefore) {
		return false
	}
	if f.ArchivedBefore != nil && !a.ArchiveDate.Before(*f.ArchivedBefore) {
		return false
	}
	if f.WithoutChild && a.HasChild() {
		return false
	}
	return true
}

func sortArticles(items []entity.Article, order repository.ArticleOrder) {
	slices.SortFunc(items, func(a, b entity.Article) int {
		var c int
		switch order {
		case repository.OrderByArchiveDateDesc:
			c = b.ArchiveDate.Compare(a.ArchiveDate)
		default:
			c = a.ApplicationDeadline.Compare(b.ApplicationDeadline)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID.Int64(), b.ID.Int64())
	})
}

func applyWindow[T any](items []T, w pagination.Window) []T {
	if !w.IsBounded() {
		return items
	}
	off := w.EffectiveOffset()
	if off >= len(items) {
		return []T{}
	}
	end := min(off+w.Limit, len(items))
	return items[off:end]
}
