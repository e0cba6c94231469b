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

type ContactPartnerRepo struct {
	mu     sync.Mutex
	rows   map[int64]entity.ContactPartner
	nextID int64
}

func NewContactPartnerRepo() *ContactPartnerRepo {
	return &ContactPartnerRepo{rows: map[int64]entity.ContactPartner{}, nextID: 1}
}

var _ repository.ContactPartnerRepository = (*ContactPartnerRepo)(nil)

func (r *ContactPartnerRepo) ByID(ctx context.Context, id entity.ID[entity.ContactPartner]) (*entity.ContactPartner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.rows[id.Int64()]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *ContactPartnerRepo) ByQuery(ctx context.Context, filter repository.ContactPartnerFilter, window pagination.Window) (repository.PagedResult[entity.ContactPartner], error) {
	if err := ctx.Err(); err != nil {
		return repository.PagedResult[entity.ContactPartner]{}, err
	}
	r.mu.Lock()
	matches := r.matching(filter)
	r.mu.Unlock()

	slices.SortFunc(matches, func(a, b entity.ContactPartner) int {
		if c := cmp.Compare(a.LastName, b.LastName); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.Int64(), b.ID.Int64())
	})
	return repository.PagedResult[entity.ContactPartner]{
		Total: int64(len(matches)),
		Items: applyWindow(matches, window),
	}, nil
}

func (r *ContactPartnerRepo) CountOf(ctx context.Context, filter repository.ContactPartnerFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *ContactPartnerRepo) Create(ctx context.Context, c entity.ContactPartner) (entity.ContactPartner, error) {
	if err := ctx.Err(); err != nil {
		return entity.ContactPartner{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = entity.AssignID[entity.ContactPartner](r.nextID)
	r.nextID++
	r.rows[c.ID.Int64()] = c
	return c, nil
}

func (r *ContactPartnerRepo) Update(ctx context.Context, c entity.ContactPartner) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[c.ID.Int64()]; ok {
		r.rows[c.ID.Int64()] = c
	}
	return nil
}

func (r *ContactPartnerRepo) Delete(ctx context.Context, id entity.ID[entity.ContactPartner]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id.Int64())
	return nil
}

func (r *ContactPartnerRepo) matching(f repository.ContactPartnerFilter) []entity.ContactPartner {
	kw := strings.ToLower(strings.TrimSpace(f.Keyword))
	out := []entity.ContactPartner{}
	for _, c := range r.rows {
		if kw != "" &&
			!strings.Contains(strings.ToLower(c.FirstName), kw) &&
			!strings.Contains(strings.ToLower(c.LastName), kw) {
			continue
		}
		out = append(out, c)
	}
	return out
}
