package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"funding-catalog/internal/common/pagination"
	"funding-catalog/internal/domain/entity"
	"funding-catalog/internal/repository"
)

const articleColumns = `id, title, text, rubric, priority, target_group, support_type, subject, state,
	archive_date, application_deadline, is_recurrent, recurrent_check_from, next_application_deadline,
	next_archive_date, contact_partner, child_article, parent_article`

// uniqueChildConstraint keeps a child linked to at most one parent.
const uniqueChildConstraint = "uq_articles_child_article"

type ArticleRepo struct {
	db           DB
	queryBuilder *ArticleQueryBuilder
}

func NewArticleRepo(db DB) repository.ArticleRepository {
	return &ArticleRepo{
		db:           db,
		queryBuilder: NewArticleQueryBuilder(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (repo *ArticleRepo) ByID(ctx context.Context, id entity.ID[entity.Article]) (*entity.Article, error) {
	defer observe("article_by_id", time.Now())

	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1 LIMIT 1`
	article, err := scanArticle(repo.db.QueryRowContext(ctx, query, id.Int64()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("ByID", err)
	}
	return &article, nil
}

func (repo *ArticleRepo) ByQuery(ctx context.Context, filter repository.ArticleFilter, window pagination.Window) (repository.PagedResult[entity.Article], error) {
	defer observe("article_by_query", time.Now())

	total, err := repo.count(ctx, filter)
	if err != nil {
		return repository.PagedResult[entity.Article]{}, storageErr("ByQuery: count", err)
	}
	if total == 0 {
		return repository.PagedResult[entity.Article]{Items: []entity.Article{}}, nil
	}

	where, args := repo.queryBuilder.BuildWhereClause(filter)
	query := `SELECT ` + articleColumns + ` FROM articles ` + where + ` ` + repo.queryBuilder.BuildOrderClause(filter.Order)
	capacity := int(total)
	if window.IsBounded() {
		args = append(args, window.Limit, window.EffectiveOffset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
		capacity = min(capacity, window.Limit)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return repository.PagedResult[entity.Article]{}, storageErr("ByQuery", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]entity.Article, 0, capacity)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return repository.PagedResult[entity.Article]{}, storageErr("ByQuery: Scan", err)
		}
		items = append(items, article)
	}
	if err := rows.Err(); err != nil {
		return repository.PagedResult[entity.Article]{}, storageErr("ByQuery: rows", err)
	}
	return repository.PagedResult[entity.Article]{Total: total, Items: items}, nil
}

func (repo *ArticleRepo) CountOf(ctx context.Context, filter repository.ArticleFilter) (int64, error) {
	defer observe("article_count", time.Now())

	total, err := repo.count(ctx, filter)
	if err != nil {
		return 0, storageErr("CountOf", err)
	}
	return total, nil
}

func (repo *ArticleRepo) count(ctx context.Context, filter repository.ArticleFilter) (int64, error) {
	where, args := repo.queryBuilder.BuildWhereClause(filter)
	query := `SELECT COUNT(*) FROM articles`
	if where != "" {
		query += " " + where
	}
	var total int64
	err := repo.db.QueryRowContext(ctx, query, args...).Scan(&total)
	return total, err
}

func (repo *ArticleRepo) Create(ctx context.Context, article entity.Article) (entity.Article, error) {
	defer observe("article_create", time.Now())

	created, err := insertArticle(ctx, repo.db, article)
	if err != nil {
		return entity.Article{}, storageErr("Create", err)
	}
	return created, nil
}

func (repo *ArticleRepo) Update(ctx context.Context, article entity.Article) error {
	defer observe("article_update", time.Now())

	const query = `
UPDATE articles
SET title = $1, text = $2, rubric = $3, priority = $4, target_group = $5,
    support_type = $6, subject = $7, state = $8, archive_date = $9,
    application_deadline = $10, is_recurrent = $11, recurrent_check_from = $12,
    next_application_deadline = $13, next_archive_date = $14,
    contact_partner = $15, child_article = $16, parent_article = $17
WHERE id = $18`
	args := append(articleArgs(article), article.ID.Int64())
	// zero rows affected means the article is gone; updates never create rows
	if _, err := repo.db.ExecContext(ctx, query, args...); err != nil {
		return storageErr("Update", err)
	}
	return nil
}

// Delete removes the article and clears every pointer other rows hold to it.
func (repo *ArticleRepo) Delete(ctx context.Context, id entity.ID[entity.Article]) error {
	defer observe("article_delete", time.Now())

	return withTx(ctx, repo.db, "Delete", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE articles SET child_article = NULL WHERE child_article = $1`, id.Int64()); err != nil {
			return storageErr("Delete: clear child pointers", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE articles SET parent_article = NULL WHERE parent_article = $1`, id.Int64()); err != nil {
			return storageErr("Delete: clear parent pointers", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id.Int64()); err != nil {
			return storageErr("Delete", err)
		}
		return nil
	})
}

// CreateLinkedChild inserts child under parentID in one transaction.
// The parent row is locked and must still have no child; otherwise
// repository.ErrAlreadyLinked is returned and nothing is written.
func (repo *ArticleRepo) CreateLinkedChild(ctx context.Context, parentID entity.ID[entity.Article], child entity.Article) (entity.Article, error) {
	defer observe("article_create_linked_child", time.Now())

	child.ParentArticle = parentID
	child.ChildArticle = entity.ID[entity.Article]{}

	var created entity.Article
	err := withTx(ctx, repo.db, "CreateLinkedChild", func(tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM articles WHERE id = $1 AND child_article IS NULL FOR UPDATE`,
			parentID.Int64()).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrAlreadyLinked
		}
		if err != nil {
			return storageErr("CreateLinkedChild: lock parent", err)
		}

		created, err = insertArticle(ctx, tx, child)
		if err != nil {
			return storageErr("CreateLinkedChild: insert", err)
		}

		res, err := tx.ExecContext(ctx, `UPDATE articles SET child_article = $1, is_recurrent = FALSE WHERE id = $2 AND child_article IS NULL`,
			created.ID.Int64(), parentID.Int64())
		if isUniqueViolation(err, uniqueChildConstraint) {
			return repository.ErrAlreadyLinked
		}
		if err != nil {
			return storageErr("CreateLinkedChild: link parent", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr("CreateLinkedChild: link parent", err)
		}
		if n == 0 {
			return repository.ErrAlreadyLinked
		}
		return nil
	})
	if err != nil {
		return entity.Article{}, err
	}
	return created, nil
}

func insertArticle(ctx context.Context, q queryRower, article entity.Article) (entity.Article, error) {
	const query = `
INSERT INTO articles (title, text, rubric, priority, target_group, support_type, subject, state,
    archive_date, application_deadline, is_recurrent, recurrent_check_from, next_application_deadline,
    next_archive_date, contact_partner, child_article, parent_article)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING id`
	var id int64
	if err := q.QueryRowContext(ctx, query, articleArgs(article)...).Scan(&id); err != nil {
		return entity.Article{}, err
	}
	return article.WithID(entity.AssignID[entity.Article](id)), nil
}

// articleArgs returns the writable columns of article in insert order.
func articleArgs(a entity.Article) []any {
	var checkFrom, nextDeadline, nextArchive *time.Time
	if a.RecurrentInfo != nil {
		checkFrom = &a.RecurrentInfo.CheckFrom
		nextDeadline = &a.RecurrentInfo.ApplicationDeadline
		nextArchive = &a.RecurrentInfo.ArchiveDate
	}
	return []any{
		a.Title, a.Text,
		string(a.Rubric), string(a.Priority), string(a.TargetGroup),
		string(a.SupportType), string(a.Subject), string(a.State),
		a.ArchiveDate, a.ApplicationDeadline,
		a.RecurrentInfo != nil, nullTime(checkFrom), nullTime(nextDeadline), nullTime(nextArchive),
		nullID(a.ContactPartner), nullID(a.ChildArticle), nullID(a.ParentArticle),
	}
}

func scanArticle(s rowScanner) (entity.Article, error) {
	var (
		a                                    entity.Article
		id                                   int64
		isRecurrent                          bool
		checkFrom, nextDeadline, nextArchive sql.NullTime
		contact, child, parent               sql.NullInt64
	)
	if err := s.Scan(&id, &a.Title, &a.Text, &a.Rubric, &a.Priority, &a.TargetGroup,
		&a.SupportType, &a.Subject, &a.State, &a.ArchiveDate, &a.ApplicationDeadline,
		&isRecurrent, &checkFrom, &nextDeadline, &nextArchive,
		&contact, &child, &parent); err != nil {
		return entity.Article{}, err
	}
	a.ID = entity.AssignID[entity.Article](id)
	a.RecurrentInfo = readRecurrence(isRecurrent, checkFrom, nextDeadline, nextArchive)
	a.ContactPartner = scanID[entity.ContactPartner](contact)
	a.ChildArticle = scanID[entity.Article](child)
	a.ParentArticle = scanID[entity.Article](parent)
	return a, nil
}

// readRecurrence yields recurrence dates only for flagged rows with all three
// dates present. Anything else reads back as a one-off article.
func readRecurrence(isRecurrent bool, checkFrom, deadline, archive sql.NullTime) *entity.RecurrentInfo {
	if !isRecurrent || !checkFrom.Valid || !deadline.Valid || !archive.Valid {
		return nil
	}
	return &entity.RecurrentInfo{
		CheckFrom:           checkFrom.Time,
		ApplicationDeadline: deadline.Time,
		ArchiveDate:         archive.Time,
	}
}
