package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"funding-catalog/internal/common/pagination"
	"funding-catalog/internal/domain/entity"
	"funding-catalog/internal/repository"
)

type ContactPartnerRepo struct {
	db DB
}

func NewContactPartnerRepo(db DB) repository.ContactPartnerRepository {
	return &ContactPartnerRepo{db: db}
}

func (repo *ContactPartnerRepo) ByID(ctx context.Context, id entity.ID[entity.ContactPartner]) (*entity.ContactPartner, error) {
	defer observe("contact_partner_by_id", time.Now())

	const query = `
SELECT id, first_name, last_name, phone_number, url
FROM contact_partners
WHERE id = $1
LIMIT 1`
	c, err := scanContactPartner(repo.db.QueryRowContext(ctx, query, id.Int64()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("ByID", err)
	}
	return &c, nil
}

func (repo *ContactPartnerRepo) ByQuery(ctx context.Context, filter repository.ContactPartnerFilter, window pagination.Window) (repository.PagedResult[entity.ContactPartner], error) {
	defer observe("contact_partner_by_query", time.Now())

	total, err := repo.count(ctx, filter)
	if err != nil {
		return repository.PagedResult[entity.ContactPartner]{}, storageErr("ByQuery: count", err)
	}
	if total == 0 {
		return repository.PagedResult[entity.ContactPartner]{Items: []entity.ContactPartner{}}, nil
	}

	where, args := contactPartnerWhere(filter)
	query := `SELECT id, first_name, last_name, phone_number, url FROM contact_partners` + where +
		` ORDER BY last_name ASC, first_name ASC, id ASC`
	capacity := int(total)
	if window.IsBounded() {
		args = append(args, window.Limit, window.EffectiveOffset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
		capacity = min(capacity, window.Limit)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return repository.PagedResult[entity.ContactPartner]{}, storageErr("ByQuery", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]entity.ContactPartner, 0, capacity)
	for rows.Next() {
		c, err := scanContactPartner(rows)
		if err != nil {
			return repository.PagedResult[entity.ContactPartner]{}, storageErr("ByQuery: Scan", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return repository.PagedResult[entity.ContactPartner]{}, storageErr("ByQuery: rows", err)
	}
	return repository.PagedResult[entity.ContactPartner]{Total: total, Items: items}, nil
}

func (repo *ContactPartnerRepo) CountOf(ctx context.Context, filter repository.ContactPartnerFilter) (int64, error) {
	defer observe("contact_partner_count", time.Now())

	total, err := repo.count(ctx, filter)
	if err != nil {
		return 0, storageErr("CountOf", err)
	}
	return total, nil
}

func (repo *ContactPartnerRepo) count(ctx context.Context, filter repository.ContactPartnerFilter) (int64, error) {
	where, args := contactPartnerWhere(filter)
	var total int64
	err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_partners`+where, args...).Scan(&total)
	return total, err
}

func (repo *ContactPartnerRepo) Create(ctx context.Context, c entity.ContactPartner) (entity.ContactPartner, error) {
	defer observe("contact_partner_create", time.Now())

	const query = `
INSERT INTO contact_partners (first_name, last_name, phone_number, url)
VALUES ($1, $2, $3, $4)
RETURNING id`
	var id int64
	if err := repo.db.QueryRowContext(ctx, query, c.FirstName, c.LastName, c.PhoneNumber, c.URL).Scan(&id); err != nil {
		return entity.ContactPartner{}, storageErr("Create", err)
	}
	return c.WithID(entity.AssignID[entity.ContactPartner](id)), nil
}

func (repo *ContactPartnerRepo) Update(ctx context.Context, c entity.ContactPartner) error {
	defer observe("contact_partner_update", time.Now())

	const query = `
UPDATE contact_partners
SET first_name = $1, last_name = $2, phone_number = $3, url = $4
WHERE id = $5`
	if _, err := repo.db.ExecContext(ctx, query, c.FirstName, c.LastName, c.PhoneNumber, c.URL, c.ID.Int64()); err != nil {
		return storageErr("Update", err)
	}
	return nil
}

// Delete removes the contact partner. The foreign key clears the reference
// on articles that named it.
func (repo *ContactPartnerRepo) Delete(ctx context.Context, id entity.ID[entity.ContactPartner]) error {
	defer observe("contact_partner_delete", time.Now())

	if _, err := repo.db.ExecContext(ctx, `DELETE FROM contact_partners WHERE id = $1`, id.Int64()); err != nil {
		return storageErr("Delete", err)
	}
	return nil
}

func contactPartnerWhere(filter repository.ContactPartnerFilter) (string, []any) {
	kw := strings.TrimSpace(filter.Keyword)
	if kw == "" {
		return "", nil
	}
	return ` WHERE (first_name ILIKE $1 OR last_name ILIKE $1)`, []any{"%" + escapeILIKE(kw) + "%"}
}

func scanContactPartner(s rowScanner) (entity.ContactPartner, error) {
	var (
		c  entity.ContactPartner
		id int64
	)
	if err := s.Scan(&id, &c.FirstName, &c.LastName, &c.PhoneNumber, &c.URL); err != nil {
		return entity.ContactPartner{}, err
	}
	c.ID = entity.AssignID[entity.ContactPartner](id)
	return c, nil
}
